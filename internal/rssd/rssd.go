// Package rssd is the connection helper for the Resource Surveillance State
// Database: opening the embedded SQL file, registering the ULID scalar
// function, and applying bootstrap DDL, per spec.md 4.6 step 1-3 and 2's
// "Connection helper" component.
package rssd

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
)

func init() {
	// modernc.org/sqlite registers scalar functions globally against the
	// driver rather than per-connection (it has no rusqlite-style
	// create_scalar_function hook on an open Connection); ulid() is
	// intentionally NOT registered as deterministic since each call must
	// produce a distinct value, mirroring
	// original_source/src/resource_serde/src/persist.rs's
	// `declare_ulid_function`.
	if err := sqlite.RegisterScalarFunction("ulid", 0, func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		return ulid.Make().String(), nil
	}); err != nil {
		// A duplicate-registration error is expected if this package is
		// imported more than once in the same binary via different paths;
		// anything else is a programmer error worth knowing about at
		// startup.
		log.Warn().Err(err).Msg("rssd: ulid() scalar function registration")
	}
}

// Conn wraps an open RSSD connection.
type Conn struct {
	DBFsPath string
	DB       *sql.DB
}

// Open opens an existing RSSD file or creates a new one, per spec.md 4.6
// step 1 (`DbConn::new`). Busy-timeout and foreign-key pragmas are applied
// immediately, mirroring the original's `prepare_conn`.
func Open(ctx context.Context, dbFsPath string) (*Conn, error) {
	db, err := sql.Open("sqlite", dbFsPath)
	if err != nil {
		return nil, fmt.Errorf("rssd.Open[%s]: %w", dbFsPath, err)
	}
	db.SetMaxOpenConns(1) // spec.md 5: one Connection per session, SQLite file locking is single-writer

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("rssd.Open[%s]: busy_timeout: %w", dbFsPath, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("rssd.Open[%s]: foreign_keys: %w", dbFsPath, err)
	}

	log.Debug().Str("rssd", dbFsPath).Msg("rssd: opened")
	return &Conn{DBFsPath: dbFsPath, DB: db}, nil
}

// OpenReadOnly opens an RSSD file for querying only, erroring if it does
// not already exist, mirroring the original's `DbConn::open`.
func OpenReadOnly(ctx context.Context, dbFsPath string) (*Conn, error) {
	db, err := sql.Open("sqlite", "file:"+dbFsPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("rssd.OpenReadOnly[%s]: %w", dbFsPath, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("rssd.OpenReadOnly[%s]: %w", dbFsPath, err)
	}
	return &Conn{DBFsPath: dbFsPath, DB: db}, nil
}

// Close closes the underlying database handle.
func (c *Conn) Close() error { return c.DB.Close() }

// Bootstrap applies the embedded DDL idempotently (every statement is
// `CREATE TABLE IF NOT EXISTS` / `CREATE UNIQUE INDEX IF NOT EXISTS`), per
// spec.md 4.6 step 3. Bootstrap errors are logged but do not abort the
// session per spec.md 7's error-handling policy for DDL.
func Bootstrap(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, BootstrapDDL); err != nil {
		log.Error().Err(err).Msg("rssd: bootstrap DDL failed")
	}
	return nil
}
