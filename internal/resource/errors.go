package resource

import "errors"

// Error kinds named in spec: diagnostic discriminants are authoritative in
// ur_diagnostics JSON, so these stay as sentinel errors callers can compare
// against with errors.Is.
var (
	ErrContentUnavailable       = errors.New("ContentUnavailable")
	ErrCapturableExecNotExec    = errors.New("CapturableExecNotExecutable")
	ErrCapturableExecFailed     = errors.New("CapturableExecError")
	ErrCapturableExecUrCreate   = errors.New("CapturableExecUrCreateError")
)
