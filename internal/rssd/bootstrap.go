package rssd

// BootstrapDDL is the embedded SQL string applied idempotently on every
// session start, per spec.md 4.6 step 3 and the table list in spec.md 6.
// Kept as a single string constant (not a loose .sql asset file embedded via
// go:embed) for parity with the original's single include_str!("bootstrap.sql"),
// while remaining a plain Go source value so no filesystem lookup is needed
// at runtime.
const BootstrapDDL = `
CREATE TABLE IF NOT EXISTS device (
    device_id TEXT PRIMARY KEY DEFAULT (ulid()),
    name TEXT NOT NULL,
    state TEXT NOT NULL,
    boundary TEXT NOT NULL,
    segmentation TEXT,
    state_sysinfo TEXT,
    elaboration TEXT,
    UNIQUE(name, state, boundary)
);

CREATE TABLE IF NOT EXISTS behavior (
    behavior_id TEXT PRIMARY KEY DEFAULT (ulid()),
    device_id TEXT NOT NULL REFERENCES device(device_id),
    behavior_name TEXT NOT NULL,
    behavior_conf_json TEXT NOT NULL,
    assurance_schema_id TEXT,
    governance TEXT,
    UNIQUE(device_id, behavior_name)
);

CREATE TABLE IF NOT EXISTS ur_ingest_session (
    ur_ingest_session_id TEXT PRIMARY KEY DEFAULT (ulid()),
    device_id TEXT NOT NULL REFERENCES device(device_id),
    behavior_id TEXT REFERENCES behavior(behavior_id),
    behavior_json TEXT,
    ingest_started_at TEXT NOT NULL,
    ingest_finished_at TEXT,
    elaboration TEXT
);

CREATE TABLE IF NOT EXISTS ur_ingest_session_fs_path (
    ur_ingest_session_fs_path_id TEXT PRIMARY KEY DEFAULT (ulid()),
    ingest_session_id TEXT NOT NULL REFERENCES ur_ingest_session(ur_ingest_session_id),
    root_path TEXT NOT NULL,
    elaboration TEXT
);

CREATE TABLE IF NOT EXISTS uniform_resource (
    uniform_resource_id TEXT PRIMARY KEY DEFAULT (ulid()),
    device_id TEXT NOT NULL REFERENCES device(device_id),
    ingest_session_id TEXT NOT NULL REFERENCES ur_ingest_session(ur_ingest_session_id),
    ingest_fs_path_id TEXT REFERENCES ur_ingest_session_fs_path(ur_ingest_session_fs_path_id),
    uri TEXT NOT NULL,
    content_digest TEXT NOT NULL,
    content BLOB,
    nature TEXT,
    size_bytes INTEGER,
    last_modified_at TEXT,
    content_fm_body_attrs TEXT,
    frontmatter TEXT,
    elaboration TEXT,
    UNIQUE(device_id, content_digest, uri, size_bytes, last_modified_at)
);

CREATE TABLE IF NOT EXISTS uniform_resource_transform (
    uniform_resource_transform_id TEXT PRIMARY KEY DEFAULT (ulid()),
    uniform_resource_id TEXT NOT NULL REFERENCES uniform_resource(uniform_resource_id),
    uri TEXT NOT NULL,
    content_digest TEXT NOT NULL,
    content BLOB,
    nature TEXT,
    size_bytes INTEGER,
    elaboration TEXT,
    UNIQUE(uniform_resource_id, content_digest, nature, size_bytes)
);

CREATE TABLE IF NOT EXISTS ur_ingest_session_fs_path_entry (
    ur_ingest_session_fs_path_entry_id TEXT PRIMARY KEY DEFAULT (ulid()),
    ingest_session_id TEXT NOT NULL REFERENCES ur_ingest_session(ur_ingest_session_id),
    ingest_fs_path_id TEXT NOT NULL REFERENCES ur_ingest_session_fs_path(ur_ingest_session_fs_path_id),
    uniform_resource_id TEXT REFERENCES uniform_resource(uniform_resource_id),
    file_path_abs TEXT NOT NULL,
    file_path_rel_parent TEXT NOT NULL,
    file_path_rel TEXT NOT NULL,
    file_basename TEXT NOT NULL,
    file_extn TEXT,
    captured_executable TEXT,
    ur_status TEXT,
    ur_diagnostics TEXT,
    ur_transformations TEXT,
    elaboration TEXT
);

CREATE TABLE IF NOT EXISTS ur_ingest_session_task (
    ur_ingest_session_task_id TEXT PRIMARY KEY DEFAULT (ulid()),
    ingest_session_id TEXT NOT NULL REFERENCES ur_ingest_session(ur_ingest_session_id),
    uniform_resource_id TEXT REFERENCES uniform_resource(uniform_resource_id),
    captured_executable TEXT NOT NULL,
    ur_status TEXT,
    ur_diagnostics TEXT,
    ur_transformations TEXT,
    elaboration TEXT
);

CREATE TABLE IF NOT EXISTS assurance_schema (
    assurance_schema_id TEXT PRIMARY KEY DEFAULT (ulid()),
    assurance_type TEXT NOT NULL,
    code TEXT NOT NULL,
    code_json TEXT,
    governance TEXT
);

CREATE TABLE IF NOT EXISTS code_notebook_kernel (
    code_notebook_kernel_id TEXT PRIMARY KEY DEFAULT (ulid()),
    kernel_name TEXT NOT NULL,
    description TEXT,
    mime_type TEXT,
    file_extn TEXT,
    elaboration TEXT,
    governance TEXT
);

CREATE TABLE IF NOT EXISTS code_notebook_cell (
    code_notebook_cell_id TEXT PRIMARY KEY DEFAULT (ulid()),
    notebook_kernel_id TEXT NOT NULL REFERENCES code_notebook_kernel(code_notebook_kernel_id),
    notebook_name TEXT NOT NULL,
    cell_name TEXT NOT NULL,
    cell_governance TEXT,
    interpretable_code TEXT NOT NULL,
    interpretable_code_hash TEXT NOT NULL,
    description TEXT,
    arguments TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE(notebook_name, cell_name, interpretable_code_hash)
);

CREATE TABLE IF NOT EXISTS code_notebook_state (
    code_notebook_state_id TEXT PRIMARY KEY DEFAULT (ulid()),
    code_notebook_cell_id TEXT NOT NULL REFERENCES code_notebook_cell(code_notebook_cell_id),
    from_state TEXT NOT NULL,
    to_state TEXT NOT NULL,
    transition_result TEXT,
    transition_reason TEXT,
    transitioned_at TEXT NOT NULL DEFAULT (datetime('now')),
    elaboration TEXT
);

CREATE TABLE IF NOT EXISTS ur_ingest_resource_path_match_rule (
    ur_ingest_resource_path_match_rule_id TEXT PRIMARY KEY DEFAULT (ulid()),
    namespace TEXT NOT NULL,
    regex TEXT NOT NULL,
    flags TEXT NOT NULL,
    nature TEXT,
    priority INTEGER,
    description TEXT,
    elaboration TEXT
);

CREATE TABLE IF NOT EXISTS ur_ingest_resource_path_rewrite_rule (
    ur_ingest_resource_path_rewrite_rule_id TEXT PRIMARY KEY DEFAULT (ulid()),
    namespace TEXT NOT NULL,
    regex TEXT NOT NULL,
    replace TEXT NOT NULL,
    priority INTEGER,
    description TEXT,
    elaboration TEXT
);

-- IMAP walker backend (SUPPLEMENTED FEATURES item 3 in SPEC_FULL.md),
-- grounded on original_source's resource_imap crate.
CREATE TABLE IF NOT EXISTS ur_ingest_session_imap_account (
    ur_ingest_session_imap_account_id TEXT PRIMARY KEY DEFAULT (ulid()),
    ingest_session_id TEXT NOT NULL REFERENCES ur_ingest_session(ur_ingest_session_id),
    email TEXT NOT NULL,
    host TEXT NOT NULL,
    elaboration TEXT
);

CREATE TABLE IF NOT EXISTS ur_ingest_session_imap_acct_folder (
    ur_ingest_session_imap_acct_folder_id TEXT PRIMARY KEY DEFAULT (ulid()),
    ingest_account_id TEXT NOT NULL REFERENCES ur_ingest_session_imap_account(ur_ingest_session_imap_account_id),
    folder_name TEXT NOT NULL,
    elaboration TEXT
);

CREATE TABLE IF NOT EXISTS ur_ingest_session_imap_acct_folder_message (
    ur_ingest_session_imap_acct_folder_message_id TEXT PRIMARY KEY DEFAULT (ulid()),
    ingest_acct_folder_id TEXT NOT NULL REFERENCES ur_ingest_session_imap_acct_folder(ur_ingest_session_imap_acct_folder_id),
    uniform_resource_id TEXT REFERENCES uniform_resource(uniform_resource_id),
    message_uid INTEGER NOT NULL,
    message_id TEXT,
    subject TEXT,
    elaboration TEXT
);
`
