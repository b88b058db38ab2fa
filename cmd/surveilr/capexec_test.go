package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapexecRequiresURIWhenNotShellMode(t *testing.T) {
	capexecShell = false
	cmd := capexecCmd
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.RunE(cmd, nil)
	assert.ErrorContains(t, err, "[uri] is required")
}
