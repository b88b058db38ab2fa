package capexec

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("native executive tests assume a posix shell")
	}
}

func TestNativeExecutiveCapturesStdout(t *testing.T) {
	skipOnWindows(t)
	e := NewNativeExecutive("/bin/echo")
	result, err := e.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitStatus)
	assert.Contains(t, result.Stdout, "\n")
}

func TestNativeExecutiveWritesStdinAndClosesPipe(t *testing.T) {
	skipOnWindows(t)
	e := NewNativeExecutive("/bin/cat")
	result, err := e.Execute(context.Background(), []byte("hello-stdin"))
	require.NoError(t, err)
	assert.Equal(t, "hello-stdin", result.Stdout)
}

func TestNativeExecutiveNonZeroExit(t *testing.T) {
	skipOnWindows(t)
	e := NewNativeExecutive("/bin/false")
	result, err := e.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, 0, result.ExitStatus)
}

func TestShellResultStdoutHash(t *testing.T) {
	r := ShellResult{Stdout: ""}
	assert.Len(t, r.StdoutHash(), 40)
}

func TestShellResultJSONEmbedsStructuredStdout(t *testing.T) {
	r := ShellResult{ExitStatus: 0, Stdout: `{"ok":true}`}
	out, err := r.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"ok":true`)
}

func TestShellResultJSONFallsBackOnNonJSONStdout(t *testing.T) {
	r := ShellResult{ExitStatus: 0, Stdout: "plain text"}
	out, err := r.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(out), "json-error")
}

func TestPortableShellExecutiveRunsTaskLines(t *testing.T) {
	skipOnWindows(t)
	p := NewPortableShellExecutive(context.Background())
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := p.Execute(ctx, []byte("echo one\necho two"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitStatus)
	assert.Contains(t, result.Stdout, "two")
}

func TestPortableShellExecutiveStopsOnFirstFailure(t *testing.T) {
	skipOnWindows(t)
	p := NewPortableShellExecutive(context.Background())
	defer p.Close()

	result, err := p.Execute(context.Background(), []byte("false\necho should-not-run"))
	require.NoError(t, err)
	assert.NotEqual(t, 0, result.ExitStatus)
	assert.NotContains(t, result.Stdout, "should-not-run")
}

func TestPortableShellExecutiveRunNotebookCell(t *testing.T) {
	skipOnWindows(t)
	p := NewPortableShellExecutive(context.Background())
	defer p.Close()

	out, err := p.RunNotebookCell(context.Background(), "echo hi")
	require.NoError(t, err)
	assert.Contains(t, out, "stdout")
}
