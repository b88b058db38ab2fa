// Package classify implements the ordered regex+glob rule engine that
// assigns flags and a nature to each candidate URI, per spec.md 4.1.
package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/IGLOU-EU/go-wildcard/v2"

	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
)

// Default regex patterns grounded on original_source/src/capturable.rs.
const (
	DefaultCaptureExecPattern   = `surveilr\[(?P<nature>[^\]]*)\]`
	DefaultCaptureSQLExecPattern = `surveilr-SQL`
)

// Rule is one classification rule: {namespace, regex, flags, nature?,
// priority, rewrite?}. Exactly one of Regex/Glob is set per rule; a rule
// with neither a Regex nor a Glob never matches.
type Rule struct {
	Namespace   string
	Regex       *regexp.Regexp
	Glob        string
	Flags       resource.Flags
	Nature      string // empty means "does not assert a nature"
	Priority    int
	Description string
}

func (r Rule) matches(uri string) bool {
	switch {
	case r.Regex != nil:
		return r.Regex.MatchString(uri)
	case r.Glob != "":
		return wildcard.Match(r.Glob, uri)
	default:
		return false
	}
}

// namedCapture returns the value of the first named capture group in r's
// regex, if any, matched against uri. Used to resolve `surveilr[<nature>]`.
func (r Rule) namedCapture(uri string) (name, value string, ok bool) {
	if r.Regex == nil {
		return "", "", false
	}
	m := r.Regex.FindStringSubmatch(uri)
	if m == nil {
		return "", "", false
	}
	for i, n := range r.Regex.SubexpNames() {
		if i == 0 || n == "" {
			continue
		}
		if m[i] != "" {
			return n, m[i], true
		}
	}
	return "", "", false
}

// RewriteRule substitutes a matched URI per its replace pattern; the
// replace text uses regexp.Expand syntax ($1, ${name}), mirroring Rust's
// Regex::replace semantics closely enough for this domain's needs.
type RewriteRule struct {
	Namespace string
	Regex     *regexp.Regexp
	Replace   string
	Priority  int
}

// Classifier holds ordered match rules and rewrite rules. Rules are
// evaluated in Priority order (ascending); ties keep insertion order.
type Classifier struct {
	matchRules   []Rule
	rewriteRules []RewriteRule
}

// New builds a Classifier from match and rewrite rules, sorting each by
// priority. Invalid regex construction is the caller's concern (done via
// NewRegexRule/NewRewriteRule below, which is the only fatal-at-construction path
// named in spec.md 4.1).
func New(matchRules []Rule, rewriteRules []RewriteRule) *Classifier {
	mr := append([]Rule(nil), matchRules...)
	sort.SliceStable(mr, func(i, j int) bool { return mr[i].Priority < mr[j].Priority })

	rr := append([]RewriteRule(nil), rewriteRules...)
	sort.SliceStable(rr, func(i, j int) bool { return rr[i].Priority < rr[j].Priority })

	return &Classifier{matchRules: mr, rewriteRules: rr}
}

// NewRegexRule compiles pattern and returns a Rule; a compile failure is
// fatal at construction time per spec.md 4.1 and is returned as an error for
// the caller (typically behavior-load time) to fail fast on.
func NewRegexRule(namespace, pattern string, flags resource.Flags, nature string, priority int) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("classify.NewRegexRule[%s]: invalid regex %q: %w", namespace, pattern, err)
	}
	return Rule{Namespace: namespace, Regex: re, Flags: flags, Nature: nature, Priority: priority}, nil
}

// NewGlobRule builds a glob-matched Rule. Glob patterns compile lazily per
// match (go-wildcard has no precompiled form), so there is no construction
// failure mode for this variant.
func NewGlobRule(namespace, glob string, flags resource.Flags, nature string, priority int) Rule {
	return Rule{Namespace: namespace, Glob: glob, Flags: flags, Nature: nature, Priority: priority}
}

// NewRewriteRule compiles a rewrite rule's regex.
func NewRewriteRule(namespace, pattern, replace string, priority int) (RewriteRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return RewriteRule{}, fmt.Errorf("classify.NewRewriteRule[%s]: invalid regex %q: %w", namespace, pattern, err)
	}
	return RewriteRule{Namespace: namespace, Regex: re, Replace: replace, Priority: priority}, nil
}

// Classify iterates rules by priority. The first match whose flags include
// IgnoreResource short-circuits with an ignored class; otherwise all
// matching flags are OR-ed into the class and the first rule providing a
// nature wins. Per-path classification never fails.
func (c *Classifier) Classify(uri string) resource.Class {
	var class resource.Class
	natureSet := false

	for _, rule := range c.matchRules {
		if !rule.matches(uri) {
			continue
		}
		if rule.Flags.Has(resource.IgnoreResource) {
			return resource.Class{Flags: resource.IgnoreResource}
		}
		class.Flags |= rule.Flags
		if !natureSet {
			if name, value, ok := rule.namedCapture(uri); ok && name == "nature" {
				class.Nature = value
				natureSet = true
			} else if rule.Nature != "" {
				class.Nature = rule.Nature
				natureSet = true
			}
		}
	}

	if class.Flags.Has(resource.CapturableExecutable) {
		class.CapturableExec = &resource.CapturableExec{
			Nature:       class.Nature,
			IsBatchedSQL: class.Flags.Has(resource.CapturableSQL),
		}
	}

	return class
}

// Rewrite applies the first matching rewrite rule's substitution; absent a
// match, uri is returned unchanged.
func (c *Classifier) Rewrite(uri string) string {
	for _, rr := range c.rewriteRules {
		if rr.Regex.MatchString(uri) {
			return rr.Regex.ReplaceAllString(uri, rr.Replace)
		}
	}
	return uri
}

// Defaults returns the built-in classifier: common text extensions, markdown
// with frontmatter, images, and the surveilr[<nature>]/surveilr-SQL
// capturable-executable conventions, grounded on original_source's
// capturable.rs defaults and spec.md 4.1's built-in-defaults paragraph.
func Defaults() (*Classifier, error) {
	var rules []Rule

	sqlRule, err := NewRegexRule("builtin.capturable-sql", DefaultCaptureSQLExecPattern,
		resource.CapturableExecutable|resource.CapturableSQL, "", 10)
	if err != nil {
		return nil, err
	}
	rules = append(rules, sqlRule)

	execRule, err := NewRegexRule("builtin.capturable-exec", DefaultCaptureExecPattern,
		resource.CapturableExecutable, "", 20)
	if err != nil {
		return nil, err
	}
	rules = append(rules, execRule)

	for _, ext := range []string{"md", "mdx"} {
		rules = append(rules, NewGlobRule("builtin.markdown", "*."+ext,
			resource.ContentAcquirable, ext, 100))
	}
	for _, ext := range []string{"html", "htm", "xhtml"} {
		rules = append(rules, NewGlobRule("builtin.html", "*."+ext,
			resource.ContentAcquirable, ext, 100))
	}
	for _, ext := range []string{"json", "jsonl"} {
		rules = append(rules, NewGlobRule("builtin.json", "*."+ext,
			resource.ContentAcquirable, ext, 100))
	}
	for _, ext := range []string{"xml", "svg"} {
		rules = append(rules, NewGlobRule("builtin.xml", "*."+ext,
			resource.ContentAcquirable, ext, 100))
	}
	for _, ext := range []string{"png", "jpg", "jpeg", "gif", "webp"} {
		rules = append(rules, NewGlobRule("builtin.image", "*."+ext,
			resource.ContentAcquirable, ext, 100))
	}
	for _, ext := range sourceCodeExtensions {
		rules = append(rules, NewGlobRule("builtin.source-code", "*."+ext,
			resource.ContentAcquirable, ext, 100))
	}
	for _, ext := range []string{"txt", "log"} {
		rules = append(rules, NewGlobRule("builtin.plain-text", "*."+ext,
			resource.ContentAcquirable, ext, 100))
	}

	// RSSD self-exclusion: the state db file and its WAL/journal siblings are
	// never walked unless the caller opts in (spec.md invariant 6). Applied
	// by the walker (internal/walk), not here, since it needs the concrete
	// db path; kept as a documented boundary, not a classifier rule, because
	// the classifier has no notion of "the current session's db path".

	return New(rules, nil), nil
}

var sourceCodeExtensions = []string{
	"rs", "ts", "tsx", "js", "jsx", "go", "py", "rb", "java", "c", "h", "cc",
	"cpp", "hpp", "cs", "php", "sh", "sql", "yaml", "yml", "toml",
}

// ExtensionOf returns the lowercase extension of uri without the leading
// dot, or "" if there is none.
func ExtensionOf(uri string) string {
	idx := strings.LastIndexByte(uri, '.')
	slash := strings.LastIndexAny(uri, "/\\")
	if idx <= slash {
		return ""
	}
	return strings.ToLower(uri[idx+1:])
}
