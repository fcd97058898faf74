package store

import "fmt"

// schemaVersion is bumped with every migration appended below.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_info (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id                   TEXT PRIMARY KEY,
	tenant               TEXT NOT NULL,
	domain               TEXT NOT NULL,
	title                TEXT NOT NULL,
	status               TEXT NOT NULL DEFAULT 'not_started',
	priority             TEXT NOT NULL DEFAULT 'none',
	planned_date         TEXT,
	target_date          TEXT,
	hard_deadline        TEXT,
	recurring_type       TEXT,
	recurring_days       TEXT,
	done                 INTEGER NOT NULL DEFAULT 0,
	completed_on         TEXT,
	external_row_id      TEXT,
	external_modified_at TEXT,
	updated_at           TEXT NOT NULL,
	sync_status          TEXT NOT NULL DEFAULT 'local_only'
);

-- At most one task may reference a given spreadsheet row per tenant.
CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_external_row
	ON tasks(tenant, external_row_id)
	WHERE external_row_id IS NOT NULL AND external_row_id != '';

CREATE INDEX IF NOT EXISTS idx_tasks_scope ON tasks(tenant, domain);

CREATE TABLE IF NOT EXISTS sync_history (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant             TEXT NOT NULL,
	domain             TEXT NOT NULL,
	started_at         TEXT NOT NULL,
	finished_at        TEXT NOT NULL,
	created            INTEGER NOT NULL DEFAULT 0,
	updated_local      INTEGER NOT NULL DEFAULT 0,
	updated_remote     INTEGER NOT NULL DEFAULT 0,
	conflicts_skipped  INTEGER NOT NULL DEFAULT 0,
	duplicates_created INTEGER NOT NULL DEFAULT 0,
	error              TEXT
);

CREATE TABLE IF NOT EXISTS sync_conflicts (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant          TEXT NOT NULL,
	domain          TEXT NOT NULL,
	task_id         TEXT NOT NULL,
	field           TEXT NOT NULL,
	canonical_value TEXT,
	remote_value    TEXT,
	recorded_at     TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_conflicts_task ON sync_conflicts(task_id);
`

// migrate creates the schema and applies any version bumps.
func (s *Store) migrate() error {
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}
	if version > schemaVersion {
		return fmt.Errorf("store schema version %d is newer than this build supports (%d)", version, schemaVersion)
	}

	// Future migrations switch on version here.

	return s.setSchemaVersion(schemaVersion)
}

func (s *Store) getSchemaVersion() (int, error) {
	var v int
	err := s.conn.QueryRow(`SELECT value FROM schema_info WHERE key = 'version'`).Scan(&v)
	if err != nil {
		// Missing row means a fresh store.
		return 0, nil
	}
	return v, nil
}

func (s *Store) setSchemaVersion(v int) error {
	_, err := s.conn.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`, v)
	return err
}
