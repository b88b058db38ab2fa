// Package notebook runs idempotent SQL cells from the code_notebook_cell
// table and records state transitions, per spec.md 4.8.
package notebook

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// PortableShellKernelID is the notebook-cell kernel identity whose code is
// handed to the portable task-shell interpreter rather than applied as SQL,
// grounded on original_source/src/nbccontent.rs's
// `DENO_TASK_SHELL_NOTEBOOK_KERNEL_ID`.
const PortableShellKernelID = "DenoTaskShell"

// SQLKernelID is the default kernel: cell code is SQL applied directly.
const SQLKernelID = "SQL"

// onceMarker is the substring that marks a cell as a one-time migration.
const onceMarker = "_once_"

// ShellExecutor runs a portable-shell cell's interpretable_code and returns
// its stdout as JSON text, decoupling this package from internal/capexec so
// either can be tested independently; cmd/surveilr's notebooks command
// wires the concrete implementation in.
type ShellExecutor interface {
	RunNotebookCell(ctx context.Context, code string) (stdoutJSON string, err error)
}

// Cell is one row of code_notebook_cell.
type Cell struct {
	ID                string
	NotebookName      string
	NotebookKernelID  string
	CellName          string
	InterpretableCode string
}

func (c Cell) isOnce() bool { return strings.Contains(c.CellName, onceMarker) }

// Hash returns the interpretable_code_hash stored alongside the cell,
// sha1 of the code text.
func (c Cell) Hash() string {
	sum := sha1.Sum([]byte(c.InterpretableCode))
	return hex.EncodeToString(sum[:])
}

// RegisterCell upserts a code_notebook_cell row (and its kernel, if new).
func RegisterCell(ctx context.Context, tx *sql.Tx, c Cell) (string, error) {
	var kernelID string
	err := tx.QueryRowContext(ctx,
		`SELECT code_notebook_kernel_id FROM code_notebook_kernel WHERE kernel_name = ?1`, c.NotebookKernelID,
	).Scan(&kernelID)
	if err == sql.ErrNoRows {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO code_notebook_kernel(code_notebook_kernel_id, kernel_name)
			VALUES (ulid(), ?1) RETURNING code_notebook_kernel_id
		`, c.NotebookKernelID)
		if err := row.Scan(&kernelID); err != nil {
			return "", fmt.Errorf("notebook.RegisterCell: insert kernel: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("notebook.RegisterCell: lookup kernel: %w", err)
	}

	hash := c.Hash()
	row := tx.QueryRowContext(ctx, `
		INSERT INTO code_notebook_cell(
			code_notebook_cell_id, notebook_kernel_id, notebook_name, cell_name,
			interpretable_code, interpretable_code_hash
		) VALUES (ulid(), ?1, ?2, ?3, ?4, ?5)
		ON CONFLICT(notebook_name, cell_name, interpretable_code_hash)
		DO UPDATE SET interpretable_code = excluded.interpretable_code
		RETURNING code_notebook_cell_id
	`, kernelID, c.NotebookName, c.CellName, c.InterpretableCode, hash)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("notebook.RegisterCell: insert cell: %w", err)
	}
	return id, nil
}

// FindCell looks up a registered cell by notebook+cell name, for CLI
// commands that run an already-registered cell by name rather than holding
// its id.
func FindCell(ctx context.Context, tx *sql.Tx, notebookName, cellName string) (Cell, error) {
	var c Cell
	var kernelName string
	err := tx.QueryRowContext(ctx, `
		SELECT cnc.code_notebook_cell_id, cnc.notebook_name, cnk.kernel_name, cnc.cell_name, cnc.interpretable_code
		FROM code_notebook_cell cnc
		JOIN code_notebook_kernel cnk ON cnk.code_notebook_kernel_id = cnc.notebook_kernel_id
		WHERE cnc.notebook_name = ?1 AND cnc.cell_name = ?2
		ORDER BY cnc.created_at DESC LIMIT 1
	`, notebookName, cellName).Scan(&c.ID, &c.NotebookName, &kernelName, &c.CellName, &c.InterpretableCode)
	if err != nil {
		return Cell{}, fmt.Errorf("notebook.FindCell[%s/%s]: %w", notebookName, cellName, err)
	}
	c.NotebookKernelID = kernelName
	return c, nil
}

// alreadyExecuted reports whether a terminal from_state=NONE, to_state=EXECUTED
// row exists for cellID, per spec.md 4.8.
func alreadyExecuted(ctx context.Context, tx *sql.Tx, cellID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `
		SELECT code_notebook_state_id FROM code_notebook_state
		WHERE code_notebook_cell_id = ?1 AND from_state = 'NONE' AND to_state = 'EXECUTED'
		LIMIT 1
	`, cellID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("notebook.alreadyExecuted: %w", err)
	}
	return true, nil
}

func recordTransition(ctx context.Context, tx *sql.Tx, cellID, fromState, toState, reason string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO code_notebook_state(code_notebook_state_id, code_notebook_cell_id, from_state, to_state, transition_reason, transitioned_at)
		VALUES (ulid(), ?1, ?2, ?3, ?4, datetime('now'))
	`, cellID, fromState, toState, reason)
	if err != nil {
		return fmt.Errorf("notebook.recordTransition: %w", err)
	}
	return nil
}

// Run executes cell's code against tx. `_once_` cells are skipped if a
// terminal EXECUTED state row already exists; all cells record a state
// transition on success. Failure of a migration surfaces as an error but
// does not roll back prior cells (spec.md 4.8) — callers run each cell in
// its own tx.Exec burst and decide whether to keep going.
func Run(ctx context.Context, tx *sql.Tx, cellID string, cell Cell, shell ShellExecutor) error {
	if cell.isOnce() {
		done, err := alreadyExecuted(ctx, tx, cellID)
		if err != nil {
			return err
		}
		if done {
			log.Debug().Str("cell", cell.CellName).Msg("notebook: migration already applied, skipping")
			return nil
		}
	}

	var execErr error
	switch cell.NotebookKernelID {
	case PortableShellKernelID:
		if shell == nil {
			execErr = fmt.Errorf("notebook.Run[%s]: portable-shell kernel but no ShellExecutor wired", cell.CellName)
			break
		}
		_, execErr = shell.RunNotebookCell(ctx, cell.InterpretableCode)
	default:
		_, execErr = tx.ExecContext(ctx, cell.InterpretableCode)
	}

	if execErr != nil {
		_ = recordTransition(ctx, tx, cellID, "NONE", "ERROR", execErr.Error())
		return fmt.Errorf("notebook.Run[%s]: %w", cell.CellName, execErr)
	}

	if err := recordTransition(ctx, tx, cellID, "NONE", "EXECUTED", ""); err != nil {
		return err
	}
	return nil
}
