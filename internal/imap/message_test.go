package imap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBodyPlain(t *testing.T) {
	text, err := decodeBody(strings.NewReader("hello world"), "")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestDecodeBodyQuotedPrintable(t *testing.T) {
	text, err := decodeBody(strings.NewReader("caf=C3=A9"), "quoted-printable")
	require.NoError(t, err)
	assert.Equal(t, "café", text)
}

func TestDecodeHeaderPlainPassesThrough(t *testing.T) {
	assert.Equal(t, "Plain Subject", decodeHeader("Plain Subject"))
}

func TestDecodeHeaderDecodesMimeEncodedWord(t *testing.T) {
	assert.Equal(t, "café", decodeHeader("=?utf-8?q?caf=C3=A9?="))
}

func TestAddressListParsesMultipleAddresses(t *testing.T) {
	got := addressList("Alice <alice@example.com>, bob@example.com")
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, got)
}

func TestAddressListEmptyInputReturnsNil(t *testing.T) {
	assert.Nil(t, addressList(""))
	assert.Nil(t, addressList("   "))
}

func TestAddressListFallsBackOnUnparseableInput(t *testing.T) {
	got := addressList("not an address list <<<")
	require.Len(t, got, 1)
	assert.Equal(t, "not an address list <<<", got[0])
}

func TestFirstAddressReturnsEmptyWhenNone(t *testing.T) {
	assert.Equal(t, "", firstAddress(""))
}

func TestFirstAddressReturnsFirstParsedAddress(t *testing.T) {
	assert.Equal(t, "alice@example.com", firstAddress("Alice <alice@example.com>, bob@example.com"))
}
