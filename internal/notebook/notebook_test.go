package notebook

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsfolio/resource-surveillance-sub000/internal/rssd"
)

func openTestConn(t *testing.T) *rssd.Conn {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	conn, err := rssd.Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	tx, err := conn.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, rssd.Bootstrap(context.Background(), tx))
	require.NoError(t, tx.Commit())
	return conn
}

func TestOnceCellRunsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	conn := openTestConn(t)

	cell := Cell{
		NotebookName:      "ingest",
		NotebookKernelID:  SQLKernelID,
		CellName:          "create_index_once_",
		InterpretableCode: `CREATE INDEX IF NOT EXISTS idx_ur_uri ON uniform_resource(uri);`,
	}

	tx, err := conn.DB.Begin()
	require.NoError(t, err)
	cellID, err := RegisterCell(ctx, tx, cell)
	require.NoError(t, err)
	require.NoError(t, Run(ctx, tx, cellID, cell, nil))
	require.NoError(t, tx.Commit())

	tx2, err := conn.DB.Begin()
	require.NoError(t, err)
	defer tx2.Rollback()

	done, err := alreadyExecuted(ctx, tx2, cellID)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestNonOnceCellHasNoSkipCheck(t *testing.T) {
	assert.False(t, Cell{CellName: "refresh_stats"}.isOnce())
	assert.True(t, Cell{CellName: "create_index_once_v1"}.isOnce())
}
