package walk

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsfolio/resource-surveillance-sub000/internal/classify"
)

func TestVirtualFSWalkerFindsFiles(t *testing.T) {
	vfs := fstest.MapFS{
		"a.txt":     {Data: []byte("hello")},
		"sub/b.md":  {Data: []byte("# hi")},
		"sub/c.bin": {Data: []byte{0, 1, 2}},
	}

	c, err := classify.Defaults()
	require.NoError(t, err)

	var uris []string
	w := NewVirtualFSWalker(vfs, c, nil)
	require.NoError(t, w.Walk(func(e Encountered) bool {
		if e.Kind == KindResource {
			uris = append(uris, e.URI)
		}
		return true
	}))

	assert.ElementsMatch(t, []string{"a.txt", "sub/b.md", "sub/c.bin"}, uris)
}

func TestVirtualFSWalkerExcludes(t *testing.T) {
	vfs := fstest.MapFS{
		"keep.txt":     {Data: []byte("hi")},
		"s.db":         {Data: []byte("fake-sqlite")},
		"s.db-wal":     {Data: []byte("wal")},
		"s.db-journal": {Data: []byte("journal")},
	}

	c, err := classify.Defaults()
	require.NoError(t, err)
	w := NewVirtualFSWalker(vfs, c, ExcludeRSSD("s.db"))

	var uris []string
	require.NoError(t, w.Walk(func(e Encountered) bool {
		if e.Kind == KindResource {
			uris = append(uris, e.URI)
		}
		return true
	}))

	assert.Equal(t, []string{"keep.txt"}, uris)
}

func TestVirtualFSWalkerStopsOnFalseYield(t *testing.T) {
	vfs := fstest.MapFS{
		"a.txt": {Data: []byte("a")},
		"b.txt": {Data: []byte("b")},
	}

	c, err := classify.Defaults()
	require.NoError(t, err)
	w := NewVirtualFSWalker(vfs, c, nil)

	count := 0
	require.NoError(t, w.Walk(func(e Encountered) bool {
		count++
		return false
	}))
	assert.Equal(t, 1, count)
}
