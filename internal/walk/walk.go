// Package walk implements the walker abstraction: interchangeable producers
// of a uniform stream of encountered resources from multiple backends, per
// spec.md 4.2.
package walk

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/opsfolio/resource-surveillance-sub000/internal/classify"
	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
)

// Kind tags the variant of one EncounteredResource, per spec.md's
// Resource(content_resource, class) | CapturableExec | Ignored | NotFile |
// NotFound | Error union.
type Kind int

const (
	KindResource Kind = iota
	KindIgnored
	KindNotFile
	KindNotFound
	KindError
)

// Encountered is one step of a walker's iteration.
type Encountered struct {
	Kind     Kind
	URI      string
	Resource *resource.ContentResource
	Class    resource.Class
	Reason   string // set when Kind == KindIgnored
	Err      error  // set when Kind == KindError
}

// Yield is called once per encountered item; returning false stops the walk
// early (mirrors the teacher's handle_entry closures, and Go 1.23's
// range-over-func yield convention).
type Yield func(Encountered) bool

// Walker is the common contract every backend implements.
type Walker interface {
	Walk(yield Yield) error
}

// SeenSet deduplicates candidate paths within one walk by the key the walker
// passes (the absolute path, or a symlinked directory's resolved target);
// the guard against symlink cycles back to an ancestor is IsAncestor, not
// SeenSet. The encountered-resource iterator owns the seen-set, per
// spec.md 9's "Cyclic graphs" design note.
type SeenSet struct {
	seen map[string]bool
}

func NewSeenSet() *SeenSet { return &SeenSet{seen: make(map[string]bool)} }

// Visit returns true the first time canonical is seen, false on repeats.
func (s *SeenSet) Visit(canonical string) bool {
	if s.seen[canonical] {
		return false
	}
	s.seen[canonical] = true
	return true
}

// IsAncestor reports whether ancestor is a path-prefix ancestor of path,
// used to refuse recursing into a symlink whose target loops back above the
// walk root.
func IsAncestor(ancestor, path string) bool {
	rel, err := filepath.Rel(ancestor, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "")
}

// ExcludeRSSD returns a predicate matching the RSSD file at dbPath plus its
// `-wal` and `-journal` siblings, per spec.md invariant 6 (self-exclusion
// unless the caller opts in).
func ExcludeRSSD(dbPath string) func(candidate string) bool {
	if dbPath == "" {
		return func(string) bool { return false }
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		abs = dbPath
	}
	siblings := map[string]bool{
		abs:              true,
		abs + "-wal":     true,
		abs + "-journal": true,
		abs + ".wal":      true,
		abs + ".db-journal": true,
	}
	return func(candidate string) bool {
		cabs, err := filepath.Abs(candidate)
		if err != nil {
			cabs = candidate
		}
		return siblings[cabs]
	}
}

// buildContentResource assembles a ContentResource for a regular file path,
// attaching lazy suppliers only when the class marks content acquirable.
// Suppliers read the file fresh on each invocation (they are invoked at
// most once per row write by the writer, never by the walker itself).
func buildContentResource(absPath string, class resource.Class) *resource.ContentResource {
	cr := &resource.ContentResource{URI: absPath, Flags: class.Flags, Nature: class.Nature}

	if info, err := os.Stat(absPath); err == nil {
		size := info.Size()
		cr.SizeBytes = &size
		mtime := info.ModTime()
		cr.LastModifiedAt = &mtime
	}

	if class.Flags.Has(resource.ContentAcquirable) {
		cr.BinarySupplier = func() ([]byte, string, error) {
			data, err := readFile(absPath)
			if err != nil {
				return nil, "", err
			}
			return data, resource.Sha1Hex(data), nil
		}
		cr.TextSupplier = func() (string, string, error) {
			data, digest, err := cr.BinarySupplier()
			if err != nil {
				return "", "", err
			}
			return string(data), digest, nil
		}
	}

	if class.Flags.Has(resource.CapturableExecutable) {
		ce := *class.CapturableExec
		ce.Executable = isExecutable(absPath)
		cr.CapturableExec = &ce
		// the script's own source is kept as a uniform_resource too, the way
		// the writer stores the captured output separately (spec.md 4.3).
		cr.CapTextSupplier = func() (string, string, error) {
			data, err := readFile(absPath)
			if err != nil {
				return "", "", err
			}
			return string(data), resource.Sha1Hex(data), nil
		}
	}
	return cr
}

// isExecutable reports whether any execute bit is set on absPath, mirroring
// original_source/src/capturable.rs's `path.is_executable()` gate.
func isExecutable(absPath string) bool {
	info, err := os.Stat(absPath)
	if err != nil {
		return false
	}
	return info.Mode()&0o111 != 0
}

// ext returns the classify-style lowercase extension for path.
func ext(path string) string { return classify.ExtensionOf(path) }
