package imap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXoauth2StartBuildsBearerInitialResponse(t *testing.T) {
	a := xoauth2{username: "user@example.com", token: "tok123"}
	mech, ir, err := a.Start()
	require.NoError(t, err)
	assert.Equal(t, "XOAUTH2", mech)
	assert.Equal(t, "user=user@example.com\x01auth=Bearer tok123\x01\x01", string(ir))
}

func TestXoauth2NextRejectsUnexpectedChallenge(t *testing.T) {
	a := xoauth2{username: "user@example.com", token: "tok123"}
	_, err := a.Next([]byte("challenge"))
	assert.Error(t, err)
}
