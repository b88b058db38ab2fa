package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsHas(t *testing.T) {
	f := ContentAcquirable | CapturableExecutable
	assert.True(t, f.Has(ContentAcquirable))
	assert.True(t, f.Has(CapturableExecutable))
	assert.False(t, f.Has(IgnoreResource))
	assert.False(t, f.Has(ContentAcquirable|CapturableSQL))
}

func TestSha1HexEmpty(t *testing.T) {
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", Sha1Hex(nil))
}

func TestSupplyTextInvokesOnce(t *testing.T) {
	calls := 0
	r := &ContentResource{
		TextSupplier: func() (string, string, error) {
			calls++
			return "hi", Sha1Hex([]byte("hi")), nil
		},
	}
	got := r.SupplyText()
	require.NoError(t, got.Err)
	assert.Equal(t, "hi", got.Text)
	assert.Equal(t, 1, calls)
}

func TestSupplyTextUnavailable(t *testing.T) {
	r := &ContentResource{}
	got := r.SupplyText()
	require.Error(t, got.Err)
	assert.ErrorIs(t, got.Err, ErrContentUnavailable)
}
