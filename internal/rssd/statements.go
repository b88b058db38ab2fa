package rssd

import (
	"context"
	"database/sql"
	"fmt"
)

// QuerySingleString runs query with args and scans the first column of the
// first row into a string. It returns ok=false (no error) on an empty
// result set. This is the Go generics-free stand-in for the Rust
// `query_sql_single!` macro family (persist.rs) — Go's database/sql already
// gives typed scan targets, so the macro's real job (avoiding stringly
// column access) collapses to this one small helper plus the typed
// wrappers below.
func QuerySingleString(ctx context.Context, q Queryer, query string, args ...any) (string, bool, error) {
	var v string
	err := q.QueryRowContext(ctx, query, args...).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("rssd.QuerySingleString: %w", err)
	}
	return v, true, nil
}

// Queryer is satisfied by both *sql.DB and *sql.Tx.
type Queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpsertDevice inserts or finds the device row for (name, state, boundary),
// returning its device_id.
func UpsertDevice(ctx context.Context, tx *sql.Tx, name, state, boundary, stateSysinfo string) (string, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO device(device_id, name, state, boundary, state_sysinfo)
		VALUES (ulid(), ?1, ?2, ?3, ?4)
		ON CONFLICT(name, state, boundary) DO UPDATE SET state_sysinfo = excluded.state_sysinfo
	`, name, state, boundary, stateSysinfo)
	if err != nil {
		return "", fmt.Errorf("rssd.UpsertDevice: %w", err)
	}
	id, ok, err := QuerySingleString(ctx, tx,
		`SELECT device_id FROM device WHERE name = ?1 AND state = ?2 AND boundary = ?3`,
		name, state, boundary)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("rssd.UpsertDevice: row vanished after upsert")
	}
	return id, nil
}

// UpsertBehavior inserts or updates a named, persisted behavior row.
func UpsertBehavior(ctx context.Context, tx *sql.Tx, deviceID, name, confJSON string) (string, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO behavior(behavior_id, device_id, behavior_name, behavior_conf_json)
		VALUES (ulid(), ?1, ?2, ?3)
		ON CONFLICT(device_id, behavior_name) DO UPDATE SET behavior_conf_json = excluded.behavior_conf_json
	`, deviceID, name, confJSON)
	if err != nil {
		return "", fmt.Errorf("rssd.UpsertBehavior: %w", err)
	}
	id, ok, err := QuerySingleString(ctx, tx,
		`SELECT behavior_id FROM behavior WHERE device_id = ?1 AND behavior_name = ?2`, deviceID, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("rssd.UpsertBehavior: row vanished after upsert")
	}
	return id, nil
}

// LoadBehaviorConfig looks up a previously-saved behavior's JSON config by
// name, grounded on original_source/src/resource_serde/src/ingest/mod.rs's
// `IngestFilesBehavior::new` loading a named behavior from the RSSD when
// the CLI args name one.
func LoadBehaviorConfig(ctx context.Context, tx *sql.Tx, deviceID, name string) (string, bool, error) {
	return QuerySingleString(ctx, tx,
		`SELECT behavior_conf_json FROM behavior WHERE device_id = ?1 AND behavior_name = ?2`, deviceID, name)
}

// InsertSession inserts a new ur_ingest_session row, returning its id.
func InsertSession(ctx context.Context, tx *sql.Tx, deviceID, behaviorID, behaviorJSON, startedAt string) (string, error) {
	var behaviorIDArg any
	if behaviorID != "" {
		behaviorIDArg = behaviorID
	}
	row := tx.QueryRowContext(ctx, `
		INSERT INTO ur_ingest_session(ur_ingest_session_id, device_id, behavior_id, behavior_json, ingest_started_at)
		VALUES (ulid(), ?1, ?2, ?3, ?4)
		RETURNING ur_ingest_session_id
	`, deviceID, behaviorIDArg, behaviorJSON, startedAt)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("rssd.InsertSession: %w", err)
	}
	return id, nil
}

// FinishSession sets ingest_finished_at on a session row. Per spec.md
// invariant 4, the writer MUST attempt this even when the walk errored.
func FinishSession(ctx context.Context, tx *sql.Tx, sessionID, finishedAt string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE ur_ingest_session SET ingest_finished_at = ?1 WHERE ur_ingest_session_id = ?2`,
		finishedAt, sessionID)
	if err != nil {
		return fmt.Errorf("rssd.FinishSession: %w", err)
	}
	return nil
}

// SetSessionElaboration stores a session-level summary JSON document,
// grounded on ingest/imap/mod.rs's INS_UR_INGEST_SESSION_FINISH_SQL call
// that writes its ImapElaboration alongside the finish timestamp.
func SetSessionElaboration(ctx context.Context, tx *sql.Tx, sessionID, elaborationJSON string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE ur_ingest_session SET elaboration = ?1 WHERE ur_ingest_session_id = ?2`,
		elaborationJSON, sessionID)
	if err != nil {
		return fmt.Errorf("rssd.SetSessionElaboration: %w", err)
	}
	return nil
}

// InsertFsPath inserts a ur_ingest_session_fs_path row for one root.
func InsertFsPath(ctx context.Context, tx *sql.Tx, sessionID, rootPath string) (string, error) {
	row := tx.QueryRowContext(ctx, `
		INSERT INTO ur_ingest_session_fs_path(ur_ingest_session_fs_path_id, ingest_session_id, root_path)
		VALUES (ulid(), ?1, ?2)
		RETURNING ur_ingest_session_fs_path_id
	`, sessionID, rootPath)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("rssd.InsertFsPath: %w", err)
	}
	return id, nil
}

// UniformResourceRow is the insertable shape of one uniform_resource row.
type UniformResourceRow struct {
	DeviceID           string
	SessionID          string
	FsPathID           string // may be "" (NULL)
	URI                string
	ContentDigest      string
	Content            []byte // may be nil
	Nature             string
	SizeBytes          *int64
	LastModifiedAt     string // may be "" (NULL)
	ContentFmBodyAttrs string // may be "" (NULL)
	Frontmatter        string // may be "" (NULL)
}

// InsertUniformResource implements spec.md invariant 2's idempotence: a
// SELECT on the identity columns first returns an existing row's id with
// preexisting=true; otherwise the INSERT runs, and its
// `ON CONFLICT ... DO UPDATE SET size_bytes = EXCLUDED.size_bytes RETURNING`
// clause returns the id of a conflicting row instead of failing, mirroring
// ingest/mod.rs's `INS_UR_*` statements.
func InsertUniformResource(ctx context.Context, tx *sql.Tx, r UniformResourceRow) (id string, preexisting bool, err error) {
	var fsPathArg, lastModArg, fmBodyArg, fmArg any
	if r.FsPathID != "" {
		fsPathArg = r.FsPathID
	}
	if r.LastModifiedAt != "" {
		lastModArg = r.LastModifiedAt
	}
	if r.ContentFmBodyAttrs != "" {
		fmBodyArg = r.ContentFmBodyAttrs
	}
	if r.Frontmatter != "" {
		fmArg = r.Frontmatter
	}

	// First find out whether the row already exists, so callers can
	// distinguish "inserted" from "already present" for diagnostics, the
	// way insert_uniform_resource's return value is consumed upstream.
	existingID, ok, err := QuerySingleString(ctx, tx, `
		SELECT uniform_resource_id FROM uniform_resource
		WHERE device_id = ?1 AND content_digest = ?2 AND uri = ?3
		  AND size_bytes IS ?4 AND last_modified_at IS ?5
	`, r.DeviceID, r.ContentDigest, r.URI, r.SizeBytes, lastModArg)
	if err != nil {
		return "", false, err
	}
	if ok {
		return existingID, true, nil
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO uniform_resource(
			uniform_resource_id, device_id, ingest_session_id, ingest_fs_path_id,
			uri, content_digest, content, nature, size_bytes, last_modified_at,
			content_fm_body_attrs, frontmatter
		) VALUES (ulid(), ?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9, ?10, ?11)
		ON CONFLICT(device_id, content_digest, uri, size_bytes, last_modified_at)
		DO UPDATE SET size_bytes = excluded.size_bytes
		RETURNING uniform_resource_id
	`, r.DeviceID, r.SessionID, fsPathArg, r.URI, r.ContentDigest, r.Content,
		r.Nature, r.SizeBytes, lastModArg, fmBodyArg, fmArg)

	var newID string
	if err := row.Scan(&newID); err != nil {
		return "", false, fmt.Errorf("rssd.InsertUniformResource: %w", err)
	}
	return newID, false, nil
}

// InsertUniformResourceTransform inserts a derived-form row, honouring
// spec.md invariant 3's uniqueness on (uniform_resource_id, content_digest,
// nature, size_bytes).
func InsertUniformResourceTransform(ctx context.Context, tx *sql.Tx, uniformResourceID, uri, digest string, content []byte, nature string, size int64) (string, error) {
	row := tx.QueryRowContext(ctx, `
		INSERT INTO uniform_resource_transform(
			uniform_resource_transform_id, uniform_resource_id, uri, content_digest, content, nature, size_bytes
		) VALUES (ulid(), ?1, ?2, ?3, ?4, ?5, ?6)
		ON CONFLICT(uniform_resource_id, content_digest, nature, size_bytes)
		DO UPDATE SET size_bytes = excluded.size_bytes
		RETURNING uniform_resource_transform_id
	`, uniformResourceID, uri, digest, content, nature, size)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("rssd.InsertUniformResourceTransform: %w", err)
	}
	return id, nil
}

// FsPathEntryRow is the insertable shape of one
// ur_ingest_session_fs_path_entry row.
type FsPathEntryRow struct {
	SessionID          string
	FsPathID           string
	UniformResourceID  string // may be "" (NULL)
	FilePathAbs        string
	FilePathRelParent  string
	FilePathRel        string
	FileBasename       string
	FileExtn           string // may be "" (NULL)
	CapturedExecutable string // JSON, may be "" (NULL)
	URStatus           string // may be "" (NULL)
	URDiagnostics      string // JSON, may be "" (NULL)
}

// InsertFsPathEntry inserts the per-walked-file metadata row.
func InsertFsPathEntry(ctx context.Context, tx *sql.Tx, e FsPathEntryRow) (string, error) {
	var urID, extn, capExec, status, diags any
	if e.UniformResourceID != "" {
		urID = e.UniformResourceID
	}
	if e.FileExtn != "" {
		extn = e.FileExtn
	}
	if e.CapturedExecutable != "" {
		capExec = e.CapturedExecutable
	}
	if e.URStatus != "" {
		status = e.URStatus
	}
	if e.URDiagnostics != "" {
		diags = e.URDiagnostics
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO ur_ingest_session_fs_path_entry(
			ur_ingest_session_fs_path_entry_id, ingest_session_id, ingest_fs_path_id,
			uniform_resource_id, file_path_abs, file_path_rel_parent, file_path_rel,
			file_basename, file_extn, captured_executable, ur_status, ur_diagnostics
		) VALUES (ulid(), ?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9, ?10, ?11)
		RETURNING ur_ingest_session_fs_path_entry_id
	`, e.SessionID, e.FsPathID, urID, e.FilePathAbs, e.FilePathRelParent, e.FilePathRel,
		e.FileBasename, extn, capExec, status, diags)

	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("rssd.InsertFsPathEntry: %w", err)
	}
	return id, nil
}

// InsertTaskEntry inserts a ur_ingest_session_task row, per
// original_source/src/resource_serde/src/ingest/tasks.rs.
func InsertTaskEntry(ctx context.Context, tx *sql.Tx, sessionID, capturedExecutableJSON, uniformResourceID, status, diagnostics string) (string, error) {
	var urID, statusArg, diagsArg any
	if uniformResourceID != "" {
		urID = uniformResourceID
	}
	if status != "" {
		statusArg = status
	}
	if diagnostics != "" {
		diagsArg = diagnostics
	}
	row := tx.QueryRowContext(ctx, `
		INSERT INTO ur_ingest_session_task(
			ur_ingest_session_task_id, ingest_session_id, uniform_resource_id,
			captured_executable, ur_status, ur_diagnostics
		) VALUES (ulid(), ?1, ?2, ?3, ?4, ?5)
		RETURNING ur_ingest_session_task_id
	`, sessionID, urID, capturedExecutableJSON, statusArg, diagsArg)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("rssd.InsertTaskEntry: %w", err)
	}
	return id, nil
}

// InsertIMAPAccount, InsertIMAPFolder, InsertIMAPMessage back the IMAP
// walker's three tables (SPEC_FULL.md supplemented feature 3).

func InsertIMAPAccount(ctx context.Context, tx *sql.Tx, sessionID, email, host string) (string, error) {
	row := tx.QueryRowContext(ctx, `
		INSERT INTO ur_ingest_session_imap_account(ur_ingest_session_imap_account_id, ingest_session_id, email, host)
		VALUES (ulid(), ?1, ?2, ?3)
		RETURNING ur_ingest_session_imap_account_id
	`, sessionID, email, host)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("rssd.InsertIMAPAccount: %w", err)
	}
	return id, nil
}

func InsertIMAPFolder(ctx context.Context, tx *sql.Tx, accountID, folderName string) (string, error) {
	row := tx.QueryRowContext(ctx, `
		INSERT INTO ur_ingest_session_imap_acct_folder(ur_ingest_session_imap_acct_folder_id, ingest_account_id, folder_name)
		VALUES (ulid(), ?1, ?2)
		RETURNING ur_ingest_session_imap_acct_folder_id
	`, accountID, folderName)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("rssd.InsertIMAPFolder: %w", err)
	}
	return id, nil
}

func InsertIMAPMessage(ctx context.Context, tx *sql.Tx, folderID string, uniformResourceID string, uid uint32, messageID, subject string) (string, error) {
	var urID any
	if uniformResourceID != "" {
		urID = uniformResourceID
	}
	row := tx.QueryRowContext(ctx, `
		INSERT INTO ur_ingest_session_imap_acct_folder_message(
			ur_ingest_session_imap_acct_folder_message_id, ingest_acct_folder_id,
			uniform_resource_id, message_uid, message_id, subject
		) VALUES (ulid(), ?1, ?2, ?3, ?4, ?5)
		RETURNING ur_ingest_session_imap_acct_folder_message_id
	`, folderID, urID, uid, messageID, subject)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("rssd.InsertIMAPMessage: %w", err)
	}
	return id, nil
}
