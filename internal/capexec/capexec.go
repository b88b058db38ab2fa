// Package capexec is the capturable-executable engine: it spawns a
// subprocess, pipes a JSON context on stdin, captures stdout/stderr/exit,
// and hashes stdout, per spec.md 4.3.
package capexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"

	"github.com/google/uuid"

	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
)

// Undetermined is the exit status value reserved for input that cannot be
// parsed. The portable shell executive does not parse lines itself: each
// line goes to `sh -c`, so a syntax error surfaces as that shell's own
// non-zero exit status, and no executive in this package returns
// Undetermined.
const Undetermined = -1

// ShellResult is the outcome of running one Executive, per spec.md 3.
type ShellResult struct {
	ExitStatus int
	Stdout     string
	Stderr     string
}

// StdoutHash returns sha1(stdout), spec.md 3's `stdout_hash`.
func (r ShellResult) StdoutHash() string { return resource.Sha1Hex([]byte(r.Stdout)) }

// JSON renders the result the way downstream consumers expect stdout: if
// stdout parses as JSON, embed it structured; otherwise carry it as a
// string plus a json-error note, mirroring
// original_source/src/shell.rs's `ShellResult::json`.
func (r ShellResult) JSON() ([]byte, error) {
	var stdoutVal any
	if err := json.Unmarshal([]byte(r.Stdout), &stdoutVal); err != nil {
		return json.Marshal(map[string]any{
			"status":     r.ExitStatus,
			"stderr":     r.Stderr,
			"stdout":     r.Stdout,
			"json-error": err.Error(),
		})
	}
	return json.Marshal(map[string]any{
		"status": r.ExitStatus,
		"stderr": r.Stderr,
		"stdout": stdoutVal,
	})
}

// Executive is any object implementing "run this command with this stdin
// and give me stdout/stderr/exit" (spec.md glossary). Two implementations
// share it: NativeExecutive (a real subprocess) and PortableShellExecutive
// (a worker-owned interpreter), kept as a small polymorphic interface per
// spec.md 9's "Dynamic dispatch" design note.
type Executive interface {
	Execute(ctx context.Context, stdin []byte) (ShellResult, error)
}

// NativeExecutive runs uri as an OS command directly (not through a shell),
// grounded on original_source/src/subprocess.rs's `execution_result_text`
// (`subprocess::Exec::cmd(uri)`, no shell interpolation).
type NativeExecutive struct {
	URI string
	Dir string
	Env []string
}

func NewNativeExecutive(uri string) *NativeExecutive { return &NativeExecutive{URI: uri} }

// Execute spawns the subprocess with stdout/stderr piped; if stdin is
// non-empty it opens stdin as a pipe, writes the bytes, and closes it
// (closing is required to avoid child deadlock), per spec.md 4.3 step 1-2.
func (e *NativeExecutive) Execute(ctx context.Context, stdin []byte) (ShellResult, error) {
	cmd := exec.CommandContext(ctx, e.URI)
	if e.Dir != "" {
		cmd.Dir = e.Dir
	}
	if e.Env != nil {
		cmd.Env = e.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if len(stdin) > 0 {
		stdinPipe, err := cmd.StdinPipe()
		if err != nil {
			return ShellResult{}, fmt.Errorf("capexec.NativeExecutive.Execute[%s]: stdin pipe: %w", e.URI, err)
		}
		if err := cmd.Start(); err != nil {
			return ShellResult{}, fmt.Errorf("capexec.NativeExecutive.Execute[%s]: start: %w", e.URI, err)
		}
		if _, err := stdinPipe.Write(stdin); err != nil && err != io.ErrClosedPipe {
			return ShellResult{}, fmt.Errorf("capexec.NativeExecutive.Execute[%s]: write stdin: %w", e.URI, err)
		}
		stdinPipe.Close()
	} else {
		if err := cmd.Start(); err != nil {
			return ShellResult{}, fmt.Errorf("capexec.NativeExecutive.Execute[%s]: start: %w", e.URI, err)
		}
	}

	exitStatus := 0
	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitStatus = exitErr.ExitCode()
		} else {
			return ShellResult{}, fmt.Errorf("capexec.NativeExecutive.Execute[%s]: wait: %w", e.URI, err)
		}
	}

	return ShellResult{ExitStatus: exitStatus, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// IngestEnvelope is the stdin-context JSON envelope, exact shape per spec.md
// 4.3 and 6: downstream scripts depend on `surveilr-ingest.session.walk-session-id`,
// `.device.device_id`, and `.session.dir-entry.path`.
type IngestEnvelope struct {
	SurveilrIngest IngestContext `json:"surveilr-ingest"`
}

type IngestContext struct {
	Args     map[string]string `json:"args"`
	Env      map[string]string `json:"env"`
	Behavior any               `json:"behavior"`
	Device   IngestDevice      `json:"device"`
	Session  IngestSession     `json:"session"`
}

type IngestDevice struct {
	DeviceID string `json:"device_id"`
}

type IngestSession struct {
	WalkSessionID string        `json:"walk-session-id"`
	WalkPathID    string        `json:"walk-path-id"`
	DirEntry      IngestDirEntry `json:"dir-entry"`
}

type IngestDirEntry struct {
	Path string `json:"path"`
}

// RequestID correlates a capturable-exec invocation across the portable
// shell worker's request/response channel, mirroring
// rcourtman-Pulse's internal/agentexec request correlation pattern.
func RequestID() string { return uuid.NewString() }

// MarshalEnvelope renders env as the stdin bytes passed to Execute.
func MarshalEnvelope(env IngestEnvelope) ([]byte, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("capexec.MarshalEnvelope: %w", err)
	}
	return b, nil
}
