package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is a versioned schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of all schema migrations.
var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema with batches, interface_rows and file_errors",
		SQL: `
-- One row per conversion run
CREATE TABLE IF NOT EXISTS batches (
    id TEXT PRIMARY KEY,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    succeeded INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_batches_created_at ON batches(created_at DESC);

-- Converted output rows, in submission order within a batch
CREATE TABLE IF NOT EXISTS interface_rows (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    operator TEXT,
    equipment_number TEXT,
    asset_number TEXT,
    standard TEXT,
    test_type TEXT,
    class_type TEXT,
    test_sequence TEXT,
    test_date TEXT,
    visual_pass_fail TEXT,
    line_load TEXT,
    earth_bond TEXT,
    insulation TEXT,
    earth_leakage_nc TEXT,
    earth_leakage_on TEXT,
    enclosure_leakage_nc TEXT,
    enclosure_leakage_on TEXT,
    enclosure_leakage_oe TEXT,
    applied_part_leakage_nc TEXT,
    applied_part_leakage_on TEXT,
    applied_part_leakage_oe TEXT,
    mains_contact TEXT,
    overall_pass_fail TEXT,
    FOREIGN KEY (batch_id) REFERENCES batches(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_interface_rows_batch ON interface_rows(batch_id, seq);
CREATE INDEX IF NOT EXISTS idx_interface_rows_equipment ON interface_rows(equipment_number);

-- Files that failed to convert
CREATE TABLE IF NOT EXISTS file_errors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id TEXT NOT NULL,
    file_path TEXT NOT NULL,
    message TEXT NOT NULL,
    FOREIGN KEY (batch_id) REFERENCES batches(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_file_errors_batch ON file_errors(batch_id);
`,
	},
}

// ApplyMigrations applies all pending migrations. The serializable
// transaction keeps concurrent initialization of the same database file
// from interleaving.
func (s *Store) ApplyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin exclusive transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	applied, err := appliedVersions(ctx, tx)
	if err != nil {
		return fmt.Errorf("get applied versions: %w", err)
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}
		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", migration.Version, migration.Description, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, migration.Version,
		); err != nil {
			return fmt.Errorf("record migration %d: %w", migration.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the latest applied migration version.
func (s *Store) SchemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("query latest version: %w", err)
	}
	return version, nil
}

func appliedVersions(ctx context.Context, tx *sql.Tx) (map[int]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return applied, nil
}
