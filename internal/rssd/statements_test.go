package rssd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBehaviorConfigReturnsUpsertedJSON(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)

	tx, err := conn.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	deviceID, err := UpsertDevice(ctx, tx, "host-d", "SINGLETON", "local", "{}")
	require.NoError(t, err)

	_, err = UpsertBehavior(ctx, tx, deviceID, "nightly", `{"root_fs_paths":["/var/log"]}`)
	require.NoError(t, err)

	confJSON, found, err := LoadBehaviorConfig(ctx, tx, deviceID, "nightly")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, confJSON, "/var/log")
}

func TestLoadBehaviorConfigNotFoundReturnsFalse(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)

	tx, err := conn.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	deviceID, err := UpsertDevice(ctx, tx, "host-e", "SINGLETON", "local", "{}")
	require.NoError(t, err)

	_, found, err := LoadBehaviorConfig(ctx, tx, deviceID, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetSessionElaborationPersistsJSON(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)

	tx, err := conn.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	deviceID, err := UpsertDevice(ctx, tx, "host-f", "SINGLETON", "local", "{}")
	require.NoError(t, err)
	sessionID, err := InsertSession(ctx, tx, deviceID, "", "{}", "2026-01-01T00:00:00Z")
	require.NoError(t, err)

	require.NoError(t, SetSessionElaboration(ctx, tx, sessionID, `{"folders":3}`))

	var elaboration string
	err = tx.QueryRowContext(ctx, `SELECT elaboration FROM ur_ingest_session WHERE ur_ingest_session_id = ?1`, sessionID).Scan(&elaboration)
	require.NoError(t, err)
	assert.Equal(t, `{"folders":3}`, elaboration)
}
