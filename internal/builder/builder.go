// Package builder promotes a classified ContentResource into one of the
// fixed set of UniformResource variants, per spec.md 4.5.
package builder

import (
	"github.com/opsfolio/resource-surveillance-sub000/internal/classify"
	"github.com/opsfolio/resource-surveillance-sub000/internal/frontmatter"
	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
)

var natureVariant = map[string]resource.VariantKind{
	"html": resource.VariantHTML, "htm": resource.VariantHTML, "xhtml": resource.VariantHTML,
	"json": resource.VariantJSON, "jsonl": resource.VariantJSON,
	"md": resource.VariantMarkdown, "mdx": resource.VariantMarkdown,
	"xml": resource.VariantXML, "svg": resource.VariantXML,
	"png": resource.VariantImage, "jpg": resource.VariantImage, "jpeg": resource.VariantImage,
	"gif": resource.VariantImage, "webp": resource.VariantImage,
	"txt": resource.VariantPlainText, "log": resource.VariantPlainText, "": resource.VariantPlainText,
}

var sourceCodeExtensions = map[string]bool{}

func init() {
	for _, ext := range []string{
		"rs", "ts", "tsx", "js", "jsx", "go", "py", "rb", "java", "c", "h", "cc",
		"cpp", "hpp", "cs", "php", "sh", "sql", "yaml", "yml", "toml",
	} {
		sourceCodeExtensions[ext] = true
	}
}

// Bindings is a caller-supplied "nature binding" override map
// (extension -> nature), consulted before the hint table.
type Bindings map[string]string

// Build selects exactly one UniformResource variant for cr given its
// classified nature and extension. A capturable-executable class bit
// overrides the nature hint table entirely (spec.md 4.5's ordering: the
// table is "otherwise", capturable-exec is checked first).
func Build(cr *resource.ContentResource, class resource.Class, ext string, bindings Bindings) *resource.UniformResource {
	if class.Flags.Has(resource.CapturableExecutable) {
		if cr.CapturableExec == nil {
			cr.CapturableExec = class.CapturableExec
		}
		return &resource.UniformResource{Kind: resource.VariantCapturableExec, Resource: cr}
	}

	nature := class.Nature
	if nature == "" {
		nature = ext
	}
	cr.Nature = nature

	if bound, ok := bindings[ext]; ok {
		if v, known := resolveKnown(bound); known {
			return finish(v, cr, nature)
		}
	}

	if v, ok := natureVariant[nature]; ok {
		return finish(v, cr, nature)
	}
	if sourceCodeExtensions[nature] {
		return finish(resource.VariantSourceCode, cr, nature)
	}

	// Unknown: if the binding map suggested a nature we didn't recognize,
	// carry it as provenance.
	ur := &resource.UniformResource{Kind: resource.VariantUnknown, Resource: cr}
	if bound, ok := bindings[ext]; ok && bound != "" {
		ur.TriedAlternateNature = bound
	}
	return ur
}

func resolveKnown(nature string) (resource.VariantKind, bool) {
	if v, ok := natureVariant[nature]; ok {
		return v, true
	}
	if sourceCodeExtensions[nature] {
		return resource.VariantSourceCode, true
	}
	return 0, false
}

func finish(kind resource.VariantKind, cr *resource.ContentResource, nature string) *resource.UniformResource {
	cr.Nature = nature
	ur := &resource.UniformResource{Kind: kind, Resource: cr}
	if kind == resource.VariantMarkdown {
		// Frontmatter is extracted lazily by the writer once it has the
		// text in hand (see internal/session); Build only tags the variant.
	}
	return ur
}

// BuildMarkdownFrontmatter extracts frontmatter from already-supplied text;
// called by the writer after invoking the text supplier, never during
// Build, because suppliers may only be invoked once.
func BuildMarkdownFrontmatter(text string) *resource.Frontmatter {
	return frontmatter.Extract(text)
}

// ExtensionOf re-exports classify.ExtensionOf for builder callers that only
// import this package.
func ExtensionOf(uri string) string { return classify.ExtensionOf(uri) }
