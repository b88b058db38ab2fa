package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsfolio/resource-surveillance-sub000/internal/behavior"
)

func TestExtractPathInfoRelativizesUnderRoot(t *testing.T) {
	pi := extractPathInfo("/root/project", "/root/project/src/main.go")
	assert.Equal(t, "/root/project/src/main.go", pi.AbsPath)
	assert.Equal(t, "src/main.go", pi.Rel)
	assert.Equal(t, "src", pi.RelParent)
	assert.Equal(t, "main.go", pi.Basename)
	assert.Equal(t, "go", pi.Extension)
}

func TestExtractPathInfoTopLevelFileHasEmptyRelParent(t *testing.T) {
	pi := extractPathInfo("/root/project", "/root/project/README.md")
	assert.Equal(t, "README.md", pi.Rel)
	assert.Equal(t, "", pi.RelParent)
	assert.Equal(t, "md", pi.Extension)
}

func TestExtractPathInfoWhenNotUnderRoot(t *testing.T) {
	pi := extractPathInfo("/unrelated", "/root/project/file.txt")
	assert.Equal(t, "/root/project/file.txt", pi.AbsPath)
	assert.NotEmpty(t, pi.Rel)
}

func TestXmlToJSONConvertsSimpleElement(t *testing.T) {
	out, err := xmlToJSON(`<root attr="v"><child>text</child></root>`)
	require.NoError(t, err)
	assert.Contains(t, out, `"root"`)
	assert.Contains(t, out, `"@attrs"`)
	assert.Contains(t, out, `"v"`)
	assert.Contains(t, out, `"child"`)
	assert.Contains(t, out, `"text"`)
}

func TestXmlToJSONRepeatsSiblingsAsArray(t *testing.T) {
	out, err := xmlToJSON(`<root><item>a</item><item>b</item></root>`)
	require.NoError(t, err)
	assert.Contains(t, out, `"a"`)
	assert.Contains(t, out, `"b"`)
}

func TestXmlToJSONErrorsOnMalformedXML(t *testing.T) {
	_, err := xmlToJSON(`<root><unclosed></root>`)
	assert.Error(t, err)
}

func TestWriterActionStatusForTerminalKinds(t *testing.T) {
	assert.Equal(t, "ERROR", WriterAction{Kind: ActionCapturedExecutableNonZeroExit}.Status())
	assert.Equal(t, "ERROR", WriterAction{Kind: ActionError}.Status())
	assert.Equal(t, "ISSUE", WriterAction{Kind: ActionContentUnavailable}.Status())
	assert.Equal(t, "ISSUE", WriterAction{Kind: ActionCapturableExecNotExecutable}.Status())
}

func TestWriterActionStatusUsesOverrideForInserted(t *testing.T) {
	a := WriterAction{Kind: ActionInserted, URStatusOverride: "INSERTED"}
	assert.Equal(t, "INSERTED", a.Status())
}

func TestWriterActionDiagnosticsEmptyForSuccessKinds(t *testing.T) {
	assert.Equal(t, "", WriterAction{Kind: ActionInserted}.Diagnostics())
	assert.Equal(t, "", WriterAction{Kind: ActionInsertedExecutableOutput}.Diagnostics())
	assert.Equal(t, "", WriterAction{Kind: ActionCapturedExecutableSqlOutput}.Diagnostics())
}

func TestWriterActionDiagnosticsIncludesErrorMessage(t *testing.T) {
	a := WriterAction{Kind: ActionContentSupplierError, Err: errors.New("boom")}
	diag := a.Diagnostics()
	assert.Contains(t, diag, "ContentSupplierError")
	assert.Contains(t, diag, "boom")
}

func TestCanonicalizeResolvesAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	resolved, err := canonicalize(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, resolved)
}

func TestBehaviorOrDefaultUsesProvidedBehavior(t *testing.T) {
	b := behavior.New([]string{"/explicit"}, true, behavior.ClassifierJSON{})
	got := behaviorOrDefault(&b, []string{"/ignored"}, false)
	assert.Equal(t, []string{"/explicit"}, got.RootFsPaths)
}

func TestBehaviorOrDefaultBuildsFromArgsWhenNil(t *testing.T) {
	got := behaviorOrDefault(nil, []string{"/a", "/b"}, true)
	assert.Equal(t, []string{"/a", "/b"}, got.RootFsPaths)
	assert.True(t, got.IncludeHidden)
}

func TestClassifierForFallsBackToDefaultsWhenEmpty(t *testing.T) {
	b := behavior.New(nil, false, behavior.ClassifierJSON{})
	cl, err := classifierFor(b)
	require.NoError(t, err)
	assert.NotNil(t, cl)
}
