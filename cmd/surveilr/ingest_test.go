package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIngestFilesRequiresAtLeastOneRoot(t *testing.T) {
	rootPaths = nil
	cmd := ingestFilesCmd
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.RunE(cmd, nil)
	assert.ErrorContains(t, err, "--root is required")
}

func TestIngestImapRequiresUsernameAndAddr(t *testing.T) {
	imapUsername = ""
	imapAddr = ""
	cmd := ingestImapCmd
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.RunE(cmd, nil)
	assert.ErrorContains(t, err, "--imap-username and --imap-addr are required")
}
