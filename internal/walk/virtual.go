package walk

import (
	"io/fs"

	"github.com/opsfolio/resource-surveillance-sub000/internal/classify"
	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
)

// VirtualFSWalker abstracts over a physical or layered VFS so that
// in-memory or archive backends can be plugged in, per spec.md 4.2. Any
// fs.FS (os.DirFS, archive/zip's Reader, testing/fstest.MapFS, …) works.
type VirtualFSWalker struct {
	FS         fs.FS
	Classifier *classify.Classifier
	Exclude    func(candidate string) bool
}

func NewVirtualFSWalker(vfs fs.FS, c *classify.Classifier, exclude func(string) bool) *VirtualFSWalker {
	return &VirtualFSWalker{FS: vfs, Classifier: c, Exclude: exclude}
}

func (w *VirtualFSWalker) Walk(yield Yield) error {
	seen := NewSeenSet()
	return fs.WalkDir(w.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if !yield(Encountered{Kind: KindError, URI: path, Err: err}) {
				return fs.SkipAll
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if w.Exclude != nil && w.Exclude(path) {
			return nil
		}
		if !seen.Visit(path) {
			return nil
		}

		class := w.Classifier.Classify(path)
		if class.Flags.Has(resource.IgnoreResource) {
			if !yield(Encountered{Kind: KindIgnored, URI: path, Reason: "classifier"}) {
				return fs.SkipAll
			}
			return nil
		}

		cr := &resource.ContentResource{URI: path, Flags: class.Flags, Nature: class.Nature}
		if class.Flags.Has(resource.ContentAcquirable) {
			cr.BinarySupplier = func() ([]byte, string, error) {
				data, err := fs.ReadFile(w.FS, path)
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

		if !yield(Encountered{Kind: KindResource, URI: path, Resource: cr, Class: class}) {
			return fs.SkipAll
		}
		return nil
	})
}
