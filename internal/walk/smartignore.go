package walk

import (
	"os"
	"path/filepath"

	"github.com/opsfolio/resource-surveillance-sub000/internal/classify"
)

// SmartIgnoreWalker honours nested ignore files (gitignore-style) found
// alongside candidates and can optionally include hidden entries, per
// spec.md 4.2, grounded on original_source/src/fswalk.rs's
// `ClassifiableFileSysEntries` (`ignore::Walk` vs `ignore::WalkBuilder`
// with `.hidden(false)`).
type SmartIgnoreWalker struct {
	Root          string
	Classifier    *classify.Classifier
	Exclude       func(candidate string) bool
	IncludeHidden bool
}

func NewSmartIgnoreWalker(root string, c *classify.Classifier, exclude func(string) bool, includeHidden bool) *SmartIgnoreWalker {
	return &SmartIgnoreWalker{Root: root, Classifier: c, Exclude: exclude, IncludeHidden: includeHidden}
}

func (w *SmartIgnoreWalker) Walk(yield Yield) error {
	seen := NewSeenSet()
	return w.walkDir(w.Root, w.Root, newIgnoreStack(), seen, yield)
}

func (w *SmartIgnoreWalker) walkDir(root, dir string, ig *ignoreStack, seen *SeenSet, yield Yield) error {
	ig = ig.pushDir(dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !yield(Encountered{Kind: KindError, URI: dir, Err: err}) {
			return nil
		}
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		if !w.IncludeHidden && len(name) > 0 && name[0] == '.' {
			continue
		}

		path := filepath.Join(dir, name)

		if ig.matches(path, entry.IsDir()) {
			if !yield(Encountered{Kind: KindIgnored, URI: path, Reason: "ignore-file"}) {
				return nil
			}
			continue
		}

		if entry.IsDir() {
			canon := mustCanonical(path)
			if !seen.Visit(canon) {
				continue
			}
			if err := w.walkDir(root, path, ig, seen, yield); err != nil {
				return err
			}
			continue
		}

		if w.Exclude != nil && w.Exclude(path) {
			continue
		}

		canon := mustCanonical(path)
		if !seen.Visit(canon) {
			continue
		}

		if !emitFile(path, w.Classifier, yield) {
			return nil
		}
	}
	return nil
}
