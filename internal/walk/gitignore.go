package walk

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/IGLOU-EU/go-wildcard/v2"
)

// ignorePattern is one line of a `.gitignore`/`.ignore` file, resolved
// relative to the directory it was found in.
type ignorePattern struct {
	dir      string
	glob     string
	negate   bool
	dirOnly  bool
}

// ignoreStack accumulates ignore patterns from the walk root down to the
// current directory, gitignore's nested-precedence model. This is a
// simplified subset of git's actual precedence rules (no `!`-negation
// override ordering across files, no `.git/info/exclude`) — documented
// here because no `ignore`-crate equivalent exists in the example pack
// (see DESIGN.md).
type ignoreStack struct {
	patterns []ignorePattern
}

func newIgnoreStack() *ignoreStack { return &ignoreStack{} }

// pushDir returns a new stack with dir's own `.gitignore`/`.ignore` patterns
// appended, leaving the receiver untouched so sibling subtrees don't leak
// each other's rules.
func (s *ignoreStack) pushDir(dir string) *ignoreStack {
	next := &ignoreStack{patterns: append([]ignorePattern(nil), s.patterns...)}
	for _, name := range []string{".gitignore", ".ignore"} {
		next.loadFile(dir, filepath.Join(dir, name))
	}
	return next
}

func (s *ignoreStack) loadFile(dir, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p := ignorePattern{dir: dir}
		if strings.HasPrefix(line, "!") {
			p.negate = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			p.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}
		if !strings.Contains(line, "/") {
			line = "*/" + line
		} else if strings.HasPrefix(line, "/") {
			line = line[1:]
		}
		p.glob = line
		s.patterns = append(s.patterns, p)
	}
}

// matches reports whether path (relative match against each pattern's
// defining directory) is ignored, honoring the last-match-wins / negation
// semantics gitignore documents.
func (s *ignoreStack) matches(path string, isDir bool) bool {
	ignored := false
	for _, p := range s.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		rel, err := filepath.Rel(p.dir, path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		candidate := "*/" + rel
		if wildcard.Match(p.glob, candidate) || wildcard.Match(strings.TrimPrefix(p.glob, "*/"), rel) {
			ignored = !p.negate
		}
	}
	return ignored
}
