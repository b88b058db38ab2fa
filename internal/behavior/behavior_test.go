package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
)

func TestRoundTripJSON(t *testing.T) {
	b := New([]string{"/a", "/b"}, true, ClassifierJSON{
		Flaggables: []MatchRuleJSON{{Namespace: "ns", Regex: `\.md$`, Flags: "CONTENT_ACQUIRABLE", Nature: "md", Priority: 1}},
	})
	text, err := b.PersistableJSONText()
	require.NoError(t, err)

	back, err := FromJSON([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, b.RootFsPaths, back.RootFsPaths)
	assert.Equal(t, b.Classifier.Flaggables[0].Regex, back.Classifier.Flaggables[0].Regex)
}

func TestFlagsStringRoundTrip(t *testing.T) {
	f := resource.ContentAcquirable | resource.CapturableExecutable
	s := FlagsToString(f)
	assert.Equal(t, f, FlagsFromString(s))
}

func TestTasksBehaviorRoundTripJSON(t *testing.T) {
	b := NewTasksBehavior(ClassifierJSON{
		Flaggables: []MatchRuleJSON{{Namespace: "ns", Regex: `\.json$`, Flags: "CAPTURABLE_EXECUTABLE", Nature: "json", Priority: 1}},
	})
	text, err := b.PersistableJSONText()
	require.NoError(t, err)

	back, err := FromTasksJSON([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, b.Classifier.Flaggables[0].Regex, back.Classifier.Flaggables[0].Regex)
}

func TestTasksBehaviorBuildClassifier(t *testing.T) {
	b := NewTasksBehavior(ClassifierJSON{
		Flaggables: []MatchRuleJSON{{Namespace: "ns", Regex: `\.md$`, Flags: "CONTENT_ACQUIRABLE", Nature: "md", Priority: 1}},
	})
	c, err := b.BuildClassifier()
	require.NoError(t, err)
	class := c.Classify("a.md")
	assert.Equal(t, "md", class.Nature)
}

func TestBuildClassifierFromBehavior(t *testing.T) {
	b := New(nil, false, ClassifierJSON{
		Flaggables: []MatchRuleJSON{{Namespace: "ns", Regex: `\.md$`, Flags: "CONTENT_ACQUIRABLE", Nature: "md", Priority: 1}},
	})
	c, err := b.BuildClassifier()
	require.NoError(t, err)
	class := c.Classify("a.md")
	assert.Equal(t, "md", class.Nature)
}
