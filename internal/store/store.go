// Package store persists conversion output: the shared results CSV that
// downstream systems ingest, and a SQLite audit database recording every
// batch, its rows, and its failures.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/estconvert/internal/converter"
	"github.com/harrison/estconvert/internal/models"
)

// Store manages the SQLite audit database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Batch is one recorded conversion run.
type Batch struct {
	ID        string
	CreatedAt time.Time
	Succeeded int
	Failed    int
	Rows      []*models.InterfaceRow
	Errors    []BatchError
}

// BatchError is one failed file within a recorded batch.
type BatchError struct {
	Path    string
	Message string
}

// NewStore opens (creating if needed) the audit database at dbPath and
// applies pending migrations.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == ":memory:" {
		return openAndInitStore(dbPath)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	return openAndInitStore(dbPath)
}

func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout must be set first so the remaining pragmas wait on
	// locks instead of failing. Retry with backoff covers concurrent
	// initialization of the same database file.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry executes a statement with exponential backoff on
// "database is locked" errors.
func execWithRetry(db *sql.DB, sqlText string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(sqlText)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordBatch persists a batch summary and returns the generated batch ID.
// Rows keep their submission order via the seq column.
func (s *Store) RecordBatch(ctx context.Context, summary *converter.Summary) (string, error) {
	batchID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, succeeded, failed) VALUES (?, ?, ?)`,
		batchID, summary.Succeeded, summary.Failed,
	)
	if err != nil {
		return "", fmt.Errorf("insert batch: %w", err)
	}

	rowStmt, err := tx.PrepareContext(ctx, insertRowSQL)
	if err != nil {
		return "", fmt.Errorf("prepare row insert: %w", err)
	}
	defer rowStmt.Close()

	for seq, row := range summary.Rows {
		args := append([]interface{}{batchID, seq}, columnArgs(row)...)
		if _, err := rowStmt.ExecContext(ctx, args...); err != nil {
			return "", fmt.Errorf("insert row %d: %w", seq, err)
		}
	}

	for _, fe := range summary.Errors {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO file_errors (batch_id, file_path, message) VALUES (?, ?, ?)`,
			batchID, fe.Path, fe.Err.Error(),
		)
		if err != nil {
			return "", fmt.Errorf("insert file error: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit batch: %w", err)
	}
	return batchID, nil
}

// LatestBatchID returns the most recent batch ID, or empty string when no
// batch has been recorded.
func (s *Store) LatestBatchID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM batches ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query latest batch: %w", err)
	}
	return id, nil
}

// GetBatch loads a recorded batch with its rows (in submission order) and
// failures.
func (s *Store) GetBatch(ctx context.Context, batchID string) (*Batch, error) {
	batch := &Batch{ID: batchID}
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, succeeded, failed FROM batches WHERE id = ?`, batchID,
	).Scan(&batch.CreatedAt, &batch.Succeeded, &batch.Failed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("batch %s not found", batchID)
	}
	if err != nil {
		return nil, fmt.Errorf("query batch: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, selectRowsSQL, batchID)
	if err != nil {
		return nil, fmt.Errorf("query batch rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		row := &models.InterfaceRow{}
		if err := rows.Scan(columnDests(row)...); err != nil {
			return nil, fmt.Errorf("scan batch row: %w", err)
		}
		batch.Rows = append(batch.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch rows: %w", err)
	}

	errRows, err := s.db.QueryContext(ctx,
		`SELECT file_path, message FROM file_errors WHERE batch_id = ? ORDER BY id ASC`, batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("query file errors: %w", err)
	}
	defer errRows.Close()

	for errRows.Next() {
		var be BatchError
		if err := errRows.Scan(&be.Path, &be.Message); err != nil {
			return nil, fmt.Errorf("scan file error: %w", err)
		}
		batch.Errors = append(batch.Errors, be)
	}
	if err := errRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file errors: %w", err)
	}

	return batch, nil
}

const insertRowSQL = `INSERT INTO interface_rows
	(batch_id, seq, operator, equipment_number, asset_number, standard, test_type,
	 class_type, test_sequence, test_date, visual_pass_fail, line_load, earth_bond,
	 insulation, earth_leakage_nc, earth_leakage_on, enclosure_leakage_nc,
	 enclosure_leakage_on, enclosure_leakage_oe, applied_part_leakage_nc,
	 applied_part_leakage_on, applied_part_leakage_oe, mains_contact, overall_pass_fail)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRowsSQL = `SELECT operator, equipment_number, asset_number, standard, test_type,
	 class_type, test_sequence, test_date, visual_pass_fail, line_load, earth_bond,
	 insulation, earth_leakage_nc, earth_leakage_on, enclosure_leakage_nc,
	 enclosure_leakage_on, enclosure_leakage_oe, applied_part_leakage_nc,
	 applied_part_leakage_on, applied_part_leakage_oe, mains_contact, overall_pass_fail
	FROM interface_rows WHERE batch_id = ? ORDER BY seq ASC`

func columnArgs(row *models.InterfaceRow) []interface{} {
	cols := row.Columns()
	args := make([]interface{}, len(cols))
	for i, c := range cols {
		args[i] = c
	}
	return args
}

func columnDests(row *models.InterfaceRow) []interface{} {
	return []interface{}{
		&row.Operator,
		&row.EquipmentNumber,
		&row.AssetNumber,
		&row.Standard,
		&row.TestType,
		&row.ClassType,
		&row.TestSequence,
		&row.TestDate,
		&row.VisualPassFail,
		&row.LineLoad,
		&row.EarthBond,
		&row.Insulation,
		&row.EarthLeakageNC,
		&row.EarthLeakageON,
		&row.EnclosureLeakageNC,
		&row.EnclosureLeakageON,
		&row.EnclosureLeakageOE,
		&row.AppliedPartLeakageNC,
		&row.AppliedPartLeakageON,
		&row.AppliedPartLeakageOE,
		&row.MainsContact,
		&row.OverallPassFail,
	}
}
