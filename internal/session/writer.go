package session

import (
	"encoding/json"
	"fmt"

	"github.com/opsfolio/resource-surveillance-sub000/internal/capexec"
)

// ActionKind is the outcome tag for one resource write attempt, grounded on
// original_source/src/resource_serde/src/ingest/mod.rs's
// `UniformResourceWriterAction` enum.
type ActionKind int

const (
	ActionInserted ActionKind = iota
	ActionInsertedExecutableOutput
	ActionCapturedExecutableSqlOutput
	ActionCapturedExecutableNonZeroExit
	ActionContentSupplierError
	ActionContentUnavailable
	ActionCapturableExecNotExecutable
	ActionCapturableExecError
	ActionCapturableExecUrCreateError
	ActionError
)

// WriterAction is the result of attempting to write one resource into the
// RSSD, carrying enough detail to compute ur_status/ur_diagnostics for the
// fs_path_entry row.
type WriterAction struct {
	Kind              ActionKind
	URI               string
	UniformResourceID string
	URStatusOverride  string
	SQLScript         string
	ShellResult       capexec.ShellResult
	CapturedExecDiags any
	Err               error
}

// Status maps an action to ur_status, per mod.rs's `ur_status()`.
func (a WriterAction) Status() string {
	switch a.Kind {
	case ActionInserted, ActionInsertedExecutableOutput:
		return a.URStatusOverride
	case ActionCapturedExecutableSqlOutput:
		// URStatusOverride is set by the caller to "EXECUTED_CAPTURED_SQL" once
		// the batched SQL has actually run; until then there is no status yet.
		return a.URStatusOverride
	case ActionCapturedExecutableNonZeroExit, ActionContentSupplierError, ActionError,
		ActionCapturableExecError, ActionCapturableExecUrCreateError:
		return "ERROR"
	case ActionContentUnavailable, ActionCapturableExecNotExecutable:
		return "ISSUE"
	default:
		return ""
	}
}

// Diagnostics maps an action to ur_diagnostics JSON text, per mod.rs's
// `ur_diagnostics()`.
func (a WriterAction) Diagnostics() string {
	var payload map[string]any
	switch a.Kind {
	case ActionInserted, ActionInsertedExecutableOutput, ActionCapturedExecutableSqlOutput:
		return ""
	case ActionCapturedExecutableNonZeroExit:
		payload = map[string]any{
			"instance":    "CapturedExecutableNonZeroExit",
			"message":     "non-zero exit status when executing capturable executable",
			"diagnostics": a.CapturedExecDiags,
		}
	case ActionContentSupplierError:
		payload = map[string]any{
			"instance": "ContentSupplierError",
			"message":  "error when trying to get content from the resource",
			"error":    errString(a.Err),
		}
	case ActionContentUnavailable:
		payload = map[string]any{
			"instance":    "ContentUnavailable",
			"message":     "content supplier was not provided",
			"remediation": "request content for this extension via classifier rules; by default no content is acquired unless explicitly flagged",
		}
	case ActionCapturableExecNotExecutable:
		payload = map[string]any{
			"instance": "CapturableExecNotExecutable",
			"message":  "file matched as a potential capturable executable but its permissions do not allow execution",
		}
	case ActionCapturableExecError:
		payload = map[string]any{
			"instance": "CapturableExecError",
			"message":  "file matched as a potential capturable executable but could not be executed",
			"error":    errString(a.Err),
		}
	case ActionCapturableExecUrCreateError:
		payload = map[string]any{
			"instance": "CapturableExecUrCreateError",
			"message":  "capturable executable ran but its output could not be persisted",
			"error":    errString(a.Err),
		}
	case ActionError:
		payload = map[string]any{
			"message": "WriterAction error",
			"error":   errString(a.Err),
		}
	default:
		return ""
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"message":"diagnostics marshal error","error":%q}`, err.Error())
	}
	return string(b)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
