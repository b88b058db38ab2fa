package capexec

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// portableRequest/portableResponse correlate calls across the worker's
// channel, mirroring rcourtman-Pulse's internal/agentexec request/response
// pairing (a RequestID ties a call to its reply).
type portableRequest struct {
	id     string
	script string
	stdin  []byte
	reply  chan portableResponse
}

type portableResponse struct {
	result ShellResult
	err    error
}

// PortableShellExecutive runs task-shell scripts (the `code_notebook_cell`
// kernel named DenoTaskShell, and the capturable-exec "portable task shell"
// nature) through a single dedicated worker goroutine rather than spawning
// inline, grounded on original_source/src/shell.rs's `ShellResultSupplier`
// owning one interpreter runtime. Each task line is itself executed as an
// independent `sh -c` subprocess — the worker goroutine's job is to
// serialize access and keep request/response correlated, not to implement
// a shell language of its own (no deno_task_shell equivalent exists in the
// example pack).
type PortableShellExecutive struct {
	requests chan portableRequest
	group    *errgroup.Group
	cancel   context.CancelFunc
	once     sync.Once
}

// NewPortableShellExecutive starts the worker goroutine. Callers must call
// Close when finished to stop it.
func NewPortableShellExecutive(ctx context.Context) *PortableShellExecutive {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	p := &PortableShellExecutive{
		requests: make(chan portableRequest),
		group:    g,
		cancel:   cancel,
	}
	g.Go(func() error { return p.run(gctx) })
	return p
}

func (p *PortableShellExecutive) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-p.requests:
			result, err := runTaskLines(ctx, req.script, req.stdin)
			req.reply <- portableResponse{result: result, err: err}
		}
	}
}

// Execute hands script (as stdin-supplied text) to the worker and blocks
// for its ShellResult.
func (p *PortableShellExecutive) Execute(ctx context.Context, stdin []byte) (ShellResult, error) {
	return p.submit(ctx, string(stdin), stdin)
}

// RunNotebookCell satisfies notebook.ShellExecutor: code is the cell's
// interpretable_code, run as a task-shell script with no stdin envelope.
func (p *PortableShellExecutive) RunNotebookCell(ctx context.Context, code string) (string, error) {
	result, err := p.submit(ctx, code, nil)
	if err != nil {
		return "", err
	}
	out, err := result.JSON()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (p *PortableShellExecutive) submit(ctx context.Context, script string, stdin []byte) (ShellResult, error) {
	reply := make(chan portableResponse, 1)
	req := portableRequest{id: RequestID(), script: script, stdin: stdin, reply: reply}
	select {
	case p.requests <- req:
	case <-ctx.Done():
		return ShellResult{}, ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp.result, resp.err
	case <-ctx.Done():
		return ShellResult{}, ctx.Err()
	}
}

// Close stops the worker and waits for it to exit.
func (p *PortableShellExecutive) Close() error {
	p.once.Do(p.cancel)
	return p.group.Wait()
}

// runTaskLines interprets script one newline-delimited task line at a time,
// running each through the host shell (`sh -c`) and concatenating stdout;
// a non-zero exit on any line stops the run, mirroring
// original_source/src/shell.rs's sequential task execution with early exit
// on the first failing command.
func runTaskLines(ctx context.Context, script string, stdin []byte) (ShellResult, error) {
	var stdout, stderr bytes.Buffer
	scanner := bufio.NewScanner(strings.NewReader(script))
	exitStatus := 0

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cmd := exec.CommandContext(ctx, "sh", "-c", line)
		cmd.Env = os.Environ()
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if len(stdin) > 0 {
			cmd.Stdin = bytes.NewReader(stdin)
		}

		if err := cmd.Run(); err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				exitStatus = exitErr.ExitCode()
				log.Debug().Str("line", line).Int("exit", exitStatus).Msg("capexec: task line failed, stopping")
				break
			}
			return ShellResult{}, fmt.Errorf("capexec.runTaskLines[%q]: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return ShellResult{}, fmt.Errorf("capexec.runTaskLines: scan: %w", err)
	}

	return ShellResult{ExitStatus: exitStatus, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}
