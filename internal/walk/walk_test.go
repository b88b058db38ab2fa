package walk

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsfolio/resource-surveillance-sub000/internal/classify"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPlainWalkerFindsFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")
	writeFile(t, filepath.Join(dir, "sub", "b.md"), "# hi")

	c, err := classify.Defaults()
	require.NoError(t, err)

	var uris []string
	w := NewPlainWalker(dir, c, nil)
	require.NoError(t, w.Walk(func(e Encountered) bool {
		if e.Kind == KindResource {
			uris = append(uris, e.URI)
		}
		return true
	}))

	assert.Len(t, uris, 2)
}

func TestPlainWalkerExcludesRSSD(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "s.db")
	writeFile(t, dbPath, "fake-sqlite")
	writeFile(t, dbPath+"-wal", "wal")
	writeFile(t, filepath.Join(dir, "keep.txt"), "hi")

	c, err := classify.Defaults()
	require.NoError(t, err)
	w := NewPlainWalker(dir, c, ExcludeRSSD(dbPath))

	var uris []string
	require.NoError(t, w.Walk(func(e Encountered) bool {
		if e.Kind == KindResource {
			uris = append(uris, e.URI)
		}
		return true
	}))

	for _, u := range uris {
		assert.NotEqual(t, "s.db", filepath.Base(u))
		assert.NotEqual(t, "s.db-wal", filepath.Base(u))
	}
	assert.Len(t, uris, 1)
}

func TestSmartIgnoreWalkerHonoursGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "secrets/\n")
	writeFile(t, filepath.Join(dir, "secrets", "token.txt"), "shh")
	writeFile(t, filepath.Join(dir, "keep.txt"), "hi")

	c, err := classify.Defaults()
	require.NoError(t, err)
	w := NewSmartIgnoreWalker(dir, c, nil, false)

	var uris []string
	require.NoError(t, w.Walk(func(e Encountered) bool {
		if e.Kind == KindResource {
			uris = append(uris, e.URI)
		}
		return true
	}))

	for _, u := range uris {
		assert.False(t, strings.Contains(u, "secrets"))
	}
	assert.Len(t, uris, 1)
}

func TestTaskLineWalker(t *testing.T) {
	input := strings.NewReader("echo one\n# a comment\n\necho two\n")
	w := NewTaskLineWalker(input)

	var lines []string
	require.NoError(t, w.Walk(func(e Encountered) bool {
		lines = append(lines, e.URI)
		return true
	}))

	assert.Equal(t, []string{"echo one", "echo two"}, lines)
}

func TestSeenSetDedup(t *testing.T) {
	s := NewSeenSet()
	assert.True(t, s.Visit("/a"))
	assert.False(t, s.Visit("/a"))
	assert.True(t, s.Visit("/b"))
}
