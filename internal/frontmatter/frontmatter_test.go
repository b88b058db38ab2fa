package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractYAML(t *testing.T) {
	in := "---\ntitle: Hello\ntags: [a,b]\n---\n# Body\n"
	fm := Extract(in)
	require.Equal(t, "yaml", fm.Kind)
	assert.Equal(t, "# Body\n", fm.Body)
	m, ok := fm.Parsed.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Hello", m["title"])
}

func TestExtractNoFence(t *testing.T) {
	in := "# Just a body\nno frontmatter here\n"
	fm := Extract(in)
	assert.Equal(t, "", fm.Kind)
	assert.Equal(t, in, fm.Body)
	assert.False(t, fm.HasFence)
}

func TestExtractTomlUnsupported(t *testing.T) {
	in := "```toml\ntitle = \"Hello\"\n```\nbody\n"
	fm := Extract(in)
	assert.Equal(t, "toml-unsupported", fm.Kind)
	assert.Nil(t, fm.Parsed)
}

func TestExtractUnclosedFenceIsNoFrontmatter(t *testing.T) {
	in := "---\ntitle: Hello\nno closing fence\n"
	fm := Extract(in)
	assert.Equal(t, "", fm.Kind)
	assert.Equal(t, in, fm.Body)
}

func TestReassembleRoundTrips(t *testing.T) {
	raw := "title: Hello\ntags: [a,b]"
	body := "# Body\n"
	doc := Reassemble(raw, body)
	fm := Extract(doc)
	require.Equal(t, "yaml", fm.Kind)
	assert.Equal(t, body, fm.Body)
}
