package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
)

func TestBuildMarkdown(t *testing.T) {
	cr := &resource.ContentResource{URI: "notes.md"}
	ur := Build(cr, resource.Class{Nature: "md", Flags: resource.ContentAcquirable}, "md", nil)
	assert.Equal(t, resource.VariantMarkdown, ur.Kind)
}

func TestBuildXML(t *testing.T) {
	cr := &resource.ContentResource{URI: "a.svg"}
	ur := Build(cr, resource.Class{Nature: "svg", Flags: resource.ContentAcquirable}, "svg", nil)
	assert.Equal(t, resource.VariantXML, ur.Kind)
}

func TestBuildCapturableExecOverridesHintTable(t *testing.T) {
	cr := &resource.ContentResource{URI: "scripts/x_surveilr[json]"}
	class := resource.Class{
		Nature: "json",
		Flags:  resource.CapturableExecutable,
		CapturableExec: &resource.CapturableExec{Nature: "json"},
	}
	ur := Build(cr, class, "", nil)
	assert.Equal(t, resource.VariantCapturableExec, ur.Kind)
}

func TestBuildUnknownWithProvenance(t *testing.T) {
	cr := &resource.ContentResource{URI: "a.weird"}
	ur := Build(cr, resource.Class{}, "weird", Bindings{"weird": "made-up-nature"})
	assert.Equal(t, resource.VariantUnknown, ur.Kind)
	assert.Equal(t, "made-up-nature", ur.TriedAlternateNature)
}

func TestBuildPlainTextEmptyExtension(t *testing.T) {
	cr := &resource.ContentResource{URI: "Makefile"}
	ur := Build(cr, resource.Class{Flags: resource.ContentAcquirable}, "", nil)
	assert.Equal(t, resource.VariantPlainText, ur.Kind)
}

func TestBuildSourceCode(t *testing.T) {
	cr := &resource.ContentResource{URI: "main.go"}
	ur := Build(cr, resource.Class{Nature: "go", Flags: resource.ContentAcquirable}, "go", nil)
	assert.Equal(t, resource.VariantSourceCode, ur.Kind)
}
