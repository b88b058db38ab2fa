// Package frontmatter splits a leading metadata block off markdown-like text
// and parses it as structured data, per spec.md 4.4.
package frontmatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
)

const fenceDelim = "---"

// Extract detects an opening fence (`---` on line 1, or an explicit
// ```yaml/```json/```toml fence), finds the matching closing fence, and
// parses the enclosed block. Absent a fence, returns a Frontmatter with no
// Kind/Raw/Parsed and Body equal to the whole input, per spec.md 4.4's
// "(None, None, Err, text)" contract.
func Extract(text string) *resource.Frontmatter {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) == 0 {
		return &resource.Frontmatter{Body: text}
	}

	first := strings.TrimRight(lines[0], "\r\n")
	kind := ""
	switch {
	case first == fenceDelim:
		kind = "yaml"
	case strings.HasPrefix(first, "```yaml") || strings.HasPrefix(first, "```yml"):
		kind = "yaml"
	case strings.HasPrefix(first, "```json"):
		kind = "json"
	case strings.HasPrefix(first, "```toml"):
		kind = "toml"
	default:
		return &resource.Frontmatter{Body: text}
	}

	closeDelim := fenceDelim
	if strings.HasPrefix(first, "```") {
		closeDelim = "```"
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r\n") == closeDelim {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		// No matching closing fence: treat as no frontmatter at all.
		return &resource.Frontmatter{Body: text}
	}

	raw := strings.Join(lines[1:closeIdx], "")
	body := strings.Join(lines[closeIdx+1:], "")

	fm := &resource.Frontmatter{Kind: kind, Raw: raw, Body: body, HasFence: true}

	if kind == "toml" {
		// No TOML parser exists anywhere in the example pack (see DESIGN.md);
		// degrade to a diagnostic-carrying unparsed block rather than
		// fabricating a dependency.
		fm.Kind = "toml-unsupported"
		return fm
	}

	parsed, err := parse(kind, raw)
	if err != nil {
		fm.Parsed = nil
		return fm
	}
	fm.Parsed = parsed
	return fm
}

func parse(kind, raw string) (any, error) {
	switch kind {
	case "json":
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		return v, nil
	default: // "yaml"
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		return normalizeYAML(v), nil
	}
}

// normalizeYAML recursively converts map[string]interface{} keys that
// yaml.v3 may decode as map[interface{}]interface{} under older configs;
// yaml.v3 itself already decodes to map[string]interface{}, this exists to
// keep json.Marshal round-trips clean for nested maps regardless.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}

// Reassemble concatenates a raw frontmatter block and body the way the
// writer stores them, used for the round-trip property in spec.md 8.
func Reassemble(raw, body string) string {
	var b strings.Builder
	b.WriteString(fenceDelim)
	b.WriteByte('\n')
	b.WriteString(raw)
	if !strings.HasSuffix(raw, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(fenceDelim)
	b.WriteByte('\n')
	b.WriteString(body)
	return b.String()
}
