package walk

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/opsfolio/resource-surveillance-sub000/internal/classify"
	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
)

// PlainWalker is the recursive filesystem traversal without ignore-file
// consultation, per spec.md 4.2's "Plain directory walker".
type PlainWalker struct {
	Root       string
	Classifier *classify.Classifier
	Exclude    func(candidate string) bool
}

func NewPlainWalker(root string, c *classify.Classifier, exclude func(string) bool) *PlainWalker {
	return &PlainWalker{Root: root, Classifier: c, Exclude: exclude}
}

func (w *PlainWalker) Walk(yield Yield) error {
	seen := NewSeenSet()
	return walkDir(w.Root, w.Root, w.Classifier, w.Exclude, seen, yield)
}

// walkDir is PlainWalker's traversal: walkDirFiltered with a nil ignore
// stack. SmartIgnoreWalker has its own walkDir method.
func walkDir(root, dir string, c *classify.Classifier, exclude func(string) bool, seen *SeenSet, yield Yield) error {
	return walkDirFiltered(root, dir, c, exclude, nil, seen, yield)
}

func walkDirFiltered(root, dir string, c *classify.Classifier, exclude func(string) bool, ig *ignoreStack, seen *SeenSet, yield Yield) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !yield(Encountered{Kind: KindError, URI: dir, Err: err}) {
			return nil
		}
		return nil
	}

	if ig != nil {
		ig = ig.pushDir(dir)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if ig != nil && ig.matches(path, entry.IsDir()) {
			if !yield(Encountered{Kind: KindIgnored, URI: path, Reason: "ignore-file"}) {
				return nil
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if !yield(Encountered{Kind: KindError, URI: path, Err: err}) {
				return nil
			}
			continue
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				if !yield(Encountered{Kind: KindError, URI: path, Err: err}) {
					return nil
				}
				continue
			}
			if IsAncestor(target, root) {
				// Loop guard: refuse to recurse into a symlink whose target
				// is an ancestor of the walk root.
				continue
			}
			targetInfo, err := os.Stat(target)
			if err == nil && targetInfo.IsDir() {
				if !seen.Visit(target) {
					continue
				}
				if err := walkDirFiltered(root, path, c, exclude, ig, seen, yield); err != nil {
					return err
				}
				continue
			}
			path = target
		}

		if entry.IsDir() {
			if !seen.Visit(mustCanonical(path)) {
				continue
			}
			if err := walkDirFiltered(root, path, c, exclude, ig, seen, yield); err != nil {
				return err
			}
			continue
		}

		if exclude != nil && exclude(path) {
			continue
		}

		canon := mustCanonical(path)
		if !seen.Visit(canon) {
			continue
		}

		if !emitFile(path, c, yield) {
			return nil
		}
	}
	return nil
}

func mustCanonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func emitFile(path string, c *classify.Classifier, yield Yield) bool {
	class := c.Classify(path)
	if class.Flags.Has(resource.IgnoreResource) {
		return yield(Encountered{Kind: KindIgnored, URI: path, Reason: "classifier"})
	}
	cr := buildContentResource(path, class)
	return yield(Encountered{Kind: KindResource, URI: path, Resource: cr, Class: class})
}
