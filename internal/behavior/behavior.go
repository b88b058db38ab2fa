// Package behavior models the serialisable bag of classifier rules plus
// root paths that defines what a session does, per spec.md 3 ("Behavior")
// and 6 ("Behavior JSON schema").
package behavior

import (
	"encoding/json"
	"fmt"

	"github.com/opsfolio/resource-surveillance-sub000/internal/classify"
	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
)

// MatchRuleJSON is the wire shape of one classifier match rule inside a
// behavior's `classifier.flaggables` array, mirroring
// `ur_ingest_resource_path_match_rule` column names so the same JSON can
// round-trip to and from that table (spec.md 6).
type MatchRuleJSON struct {
	Namespace   string `json:"namespace"`
	Regex       string `json:"regex,omitempty"`
	Glob        string `json:"glob,omitempty"`
	Flags       string `json:"flags"`
	Nature      string `json:"nature,omitempty"`
	Priority    int    `json:"priority"`
	Description string `json:"description,omitempty"`
}

// RewriteRuleJSON is the wire shape of one rewrite rule.
type RewriteRuleJSON struct {
	Namespace   string `json:"namespace"`
	Regex       string `json:"regex"`
	Replace     string `json:"replace"`
	Priority    int    `json:"priority"`
	Description string `json:"description,omitempty"`
}

// ClassifierJSON is the `classifier` object in the behavior schema.
type ClassifierJSON struct {
	Flaggables []MatchRuleJSON   `json:"flaggables"`
	Rewrite    []RewriteRuleJSON `json:"rewrite"`
}

// IngestFilesBehavior is the one persisted behavior shape this codebase
// uses for both the standalone fswalk-style path and the `ingest files`
// session path. Spec.md 9's Open Question (overlap between
// `FsWalkBehavior` and `IngestFilesBehavior`) is resolved in DESIGN.md by
// collapsing to this single type: the original source only ever persists
// `IngestFilesBehavior` to `behavior.behavior_conf_json`.
type IngestFilesBehavior struct {
	Name         string         `json:"name,omitempty"`
	Classifier   ClassifierJSON `json:"classifier"`
	RootFsPaths  []string       `json:"root_fs_paths"`
	IncludeHidden bool          `json:"include_hidden,omitempty"`
}

// IngestTasksBehavior is the task-line analog: no filesystem roots, just a
// classifier (for the capturable-exec nature rules applied to task output).
type IngestTasksBehavior struct {
	Name       string         `json:"name,omitempty"`
	Classifier ClassifierJSON `json:"classifier"`
}

// New builds an IngestFilesBehavior from CLI-style args (root paths plus an
// optional classifier override), mirroring
// `IngestFilesBehavior::from_ingest_args`.
func New(rootPaths []string, includeHidden bool, cl ClassifierJSON) IngestFilesBehavior {
	return IngestFilesBehavior{Classifier: cl, RootFsPaths: rootPaths, IncludeHidden: includeHidden}
}

// NewTasksBehavior builds an IngestTasksBehavior from an optional classifier
// override, the task-line analog of New.
func NewTasksBehavior(cl ClassifierJSON) IngestTasksBehavior {
	return IngestTasksBehavior{Classifier: cl}
}

// FromTasksJSON parses a persisted task-behavior_conf_json blob.
func FromTasksJSON(data []byte) (IngestTasksBehavior, error) {
	var b IngestTasksBehavior
	if err := json.Unmarshal(data, &b); err != nil {
		return IngestTasksBehavior{}, fmt.Errorf("behavior.FromTasksJSON: %w", err)
	}
	return b, nil
}

// PersistableJSONText renders the behavior as the exact text stored in
// behavior.behavior_conf_json and ur_ingest_session.behavior_json.
func (b IngestTasksBehavior) PersistableJSONText() (string, error) {
	buf, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("behavior.PersistableJSONText: %w", err)
	}
	return string(buf), nil
}

// BuildClassifier compiles this behavior's classifier JSON into a live
// *classify.Classifier, mirroring IngestFilesBehavior.BuildClassifier.
func (b IngestTasksBehavior) BuildClassifier() (*classify.Classifier, error) {
	return IngestFilesBehavior{Classifier: b.Classifier}.BuildClassifier()
}

// FromJSON parses a persisted behavior_conf_json blob.
func FromJSON(data []byte) (IngestFilesBehavior, error) {
	var b IngestFilesBehavior
	if err := json.Unmarshal(data, &b); err != nil {
		return IngestFilesBehavior{}, fmt.Errorf("behavior.FromJSON: %w", err)
	}
	return b, nil
}

// PersistableJSONText renders the behavior as the exact text stored in
// behavior.behavior_conf_json and ur_ingest_session.behavior_json.
func (b IngestFilesBehavior) PersistableJSONText() (string, error) {
	buf, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("behavior.PersistableJSONText: %w", err)
	}
	return string(buf), nil
}

// flagOrder maps each resource.Flags bit to its wire name, used for the
// behavior JSON's `flags` string (a space-joined flag-name list, matching
// bitflags' human-readable Display format in the original).
var flagOrder = []struct {
	bit  resource.Flags
	name string
}{
	{resource.IgnoreResource, "IGNORE_RESOURCE"},
	{resource.ContentAcquirable, "CONTENT_ACQUIRABLE"},
	{resource.CapturableExecutable, "CAPTURABLE_EXECUTABLE"},
	{resource.CapturableSQL, "CAPTURABLE_SQL"},
}

// FlagsToString renders a Flags bitset as a space-joined name list.
func FlagsToString(f resource.Flags) string {
	out := ""
	for _, fo := range flagOrder {
		if f.Has(fo.bit) {
			if out != "" {
				out += " "
			}
			out += fo.name
		}
	}
	return out
}

// FlagsFromString parses FlagsToString's output back into a bitset.
func FlagsFromString(s string) resource.Flags {
	var f resource.Flags
	cur := ""
	flush := func() {
		for _, fo := range flagOrder {
			if fo.name == cur {
				f |= fo.bit
			}
		}
		cur = ""
	}
	for _, r := range s {
		if r == ' ' {
			flush()
			continue
		}
		cur += string(r)
	}
	flush()
	return f
}

// BuildClassifier compiles this behavior's classifier JSON into a live
// *classify.Classifier, failing fast on an invalid regex per spec.md 4.1.
func (b IngestFilesBehavior) BuildClassifier() (*classify.Classifier, error) {
	var matchRules []classify.Rule
	for _, m := range b.Classifier.Flaggables {
		flags := FlagsFromString(m.Flags)
		if m.Regex != "" {
			r, err := classify.NewRegexRule(m.Namespace, m.Regex, flags, m.Nature, m.Priority)
			if err != nil {
				return nil, err
			}
			matchRules = append(matchRules, r)
		} else if m.Glob != "" {
			matchRules = append(matchRules, classify.NewGlobRule(m.Namespace, m.Glob, flags, m.Nature, m.Priority))
		}
	}

	var rewriteRules []classify.RewriteRule
	for _, rw := range b.Classifier.Rewrite {
		r, err := classify.NewRewriteRule(rw.Namespace, rw.Regex, rw.Replace, rw.Priority)
		if err != nil {
			return nil, err
		}
		rewriteRules = append(rewriteRules, r)
	}

	return classify.New(matchRules, rewriteRules), nil
}
