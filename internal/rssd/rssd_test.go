package rssd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestConn(t *testing.T) *Conn {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	conn, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	tx, err := conn.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Bootstrap(context.Background(), tx))
	require.NoError(t, tx.Commit())
	return conn
}

func TestBootstrapIsIdempotent(t *testing.T) {
	conn := openTestConn(t)
	tx, err := conn.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Bootstrap(context.Background(), tx))
	require.NoError(t, tx.Commit())
}

func TestUpsertDeviceReturnsSameID(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)

	tx, err := conn.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	id1, err := UpsertDevice(ctx, tx, "host-a", "SINGLETON", "local", "{}")
	require.NoError(t, err)
	id2, err := UpsertDevice(ctx, tx, "host-a", "SINGLETON", "local", `{"updated":true}`)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestInsertUniformResourceIdempotent(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)

	tx, err := conn.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	deviceID, err := UpsertDevice(ctx, tx, "host-b", "SINGLETON", "local", "{}")
	require.NoError(t, err)
	sessionID, err := InsertSession(ctx, tx, deviceID, "", "{}", "2026-01-01T00:00:00Z")
	require.NoError(t, err)

	size := int64(5)
	row := UniformResourceRow{
		DeviceID: deviceID, SessionID: sessionID, URI: "file:///a.txt",
		ContentDigest: "abc123", Content: []byte("hello"), Nature: "txt", SizeBytes: &size,
	}
	id1, _, err := InsertUniformResource(ctx, tx, row)
	require.NoError(t, err)
	id2, preexisting, err := InsertUniformResource(ctx, tx, row)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.True(t, preexisting)
}

func TestInsertSessionAndFinish(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)

	tx, err := conn.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	deviceID, err := UpsertDevice(ctx, tx, "host-c", "SINGLETON", "local", "{}")
	require.NoError(t, err)
	sessionID, err := InsertSession(ctx, tx, deviceID, "", "{}", "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	require.NoError(t, FinishSession(ctx, tx, sessionID, "2026-01-01T00:01:00Z"))

	var finishedAt string
	err = tx.QueryRowContext(ctx, `SELECT ingest_finished_at FROM ur_ingest_session WHERE ur_ingest_session_id = ?1`, sessionID).Scan(&finishedAt)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01T00:01:00Z", finishedAt)
}
