package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
)

func TestDefaultsIgnoreShortCircuits(t *testing.T) {
	ignore, err := NewRegexRule("t.ignore", `^secrets/`, resource.IgnoreResource, "", 1)
	require.NoError(t, err)
	acquire, err := NewRegexRule("t.acquire", `\.md$`, resource.ContentAcquirable, "md", 100)
	require.NoError(t, err)

	c := New([]Rule{ignore, acquire}, nil)
	class := c.Classify("secrets/notes.md")
	assert.True(t, class.Flags.Has(resource.IgnoreResource))
	assert.False(t, class.Flags.Has(resource.ContentAcquirable))
}

func TestDefaultsCapturableSQL(t *testing.T) {
	c, err := Defaults()
	require.NoError(t, err)
	class := c.Classify("./scripts/surveilr-SQL")
	require.NotNil(t, class.CapturableExec)
	assert.True(t, class.CapturableExec.IsBatchedSQL)
}

func TestDefaultsCapturableNature(t *testing.T) {
	c, err := Defaults()
	require.NoError(t, err)
	class := c.Classify("./scripts/hostinfo_surveilr[json]")
	require.NotNil(t, class.CapturableExec)
	assert.False(t, class.CapturableExec.IsBatchedSQL)
	assert.Equal(t, "json", class.Nature)
}

func TestDefaultsMarkdownNature(t *testing.T) {
	c, err := Defaults()
	require.NoError(t, err)
	class := c.Classify("notes.md")
	assert.True(t, class.Flags.Has(resource.ContentAcquirable))
	assert.Equal(t, "md", class.Nature)
}

func TestRewriteIdentityWhenNoMatch(t *testing.T) {
	c := New(nil, nil)
	assert.Equal(t, "foo.txt", c.Rewrite("foo.txt"))
}

func TestRewriteSubstitutes(t *testing.T) {
	rr, err := NewRewriteRule("t", `^/old/(.*)$`, "/new/$1", 1)
	require.NoError(t, err)
	c := New(nil, []RewriteRule{rr})
	assert.Equal(t, "/new/file.txt", c.Rewrite("/old/file.txt"))
}

func TestExtensionOf(t *testing.T) {
	assert.Equal(t, "md", ExtensionOf("a/b/c.MD"))
	assert.Equal(t, "", ExtensionOf("a/b/Makefile"))
	assert.Equal(t, "", ExtensionOf("a.b/c"))
}
