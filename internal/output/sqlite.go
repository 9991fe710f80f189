package output

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fpang/camtrap/internal/records"
	"github.com/rs/zerolog/log"
)

const createFileRecord = `CREATE TABLE IF NOT EXISTS file_record (
    ID INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    SourceFile TEXT,
    DateTimeOriginal TEXT,
    Date TEXT,
    Time TEXT,
    Site TEXT,
    Plot_ID TEXT,
    Camera_ID TEXT,
    "Group" TEXT,
    Species TEXT,
    Number INTEGER,
    Note TEXT,
    IndependentPhoto INTEGER,
    CreateDate TEXT,
    period_start TEXT,
    period_end TEXT
)`

const insertFileRecord = `INSERT INTO file_record (
    run_id, SourceFile, DateTimeOriginal, Date, Time, Site, Plot_ID, Camera_ID,
    "Group", Species, Number, Note, IndependentPhoto, CreateDate,
    period_start, period_end
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteWriter appends batch results to a file_record table. Rows from
// successive runs accumulate and are told apart by run_id.
type SQLiteWriter struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and ensures the table
// exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, createFileRecord); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create file_record table: %w", err)
	}

	return &SQLiteWriter{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteWriter) Path() string {
	return s.path
}

// Write inserts every record in a single transaction.
func (s *SQLiteWriter) Write(ctx context.Context, runID string, recs []*records.DraftRecord, createdAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertFileRecord)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range Rows(recs, createdAt) {
		_, err := stmt.ExecContext(ctx,
			runID,
			row.SourceFile,
			row.DateTimeOriginal,
			row.Date,
			row.Time,
			nullableString(row.Site),
			nullableString(row.PlotID),
			nullableString(row.CameraID),
			row.Group,
			row.Species,
			row.Number,
			row.Note,
			row.IndependentPhoto,
			row.CreateDate,
			nullableString(row.PeriodStart),
			nullableString(row.PeriodEnd),
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", row.SourceFile, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Info().Str("path", s.path).Str("run_id", runID).Int("records", len(recs)).Msg("SQLite records inserted")
	return nil
}

// Close closes the database.
func (s *SQLiteWriter) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
