package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducesULIDAndName(t *testing.T) {
	d, err := New("test-boundary")
	require.NoError(t, err)
	assert.Len(t, d.DeviceID, 26) // ULID string length
	assert.NotEmpty(t, d.Name)
	assert.Equal(t, "test-boundary", d.Boundary)
}

func TestStateJSONIsQuotedSingleton(t *testing.T) {
	assert.Equal(t, `"SINGLETON"`, StateJSON())
}

func TestStateSysinfoJSONProducesJSON(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := StateSysinfoJSON(ctx)
	require.NoError(t, err)
	assert.Contains(t, s, "cpu_count")
}
