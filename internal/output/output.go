package output

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fpang/camtrap/internal/records"
)

// Options selects the writers run by Save.
type Options struct {
	Dir          string
	CSVFileName  string
	SQLiteDBName string
	SaveSQLite   bool

	// Compress additionally bundles the written files into a zstd ZIP
	// named after the CSV file.
	Compress bool
}

// Save writes the CSV, then the SQLite table and bundle when enabled. It
// returns the paths written, in that order.
func Save(ctx context.Context, opts Options, runID string, recs []*records.DraftRecord, createdAt time.Time) ([]string, error) {
	var written []string

	csvPath := filepath.Join(opts.Dir, opts.CSVFileName)
	if err := SaveCSV(csvPath, recs, createdAt); err != nil {
		return written, err
	}
	written = append(written, csvPath)

	if opts.SaveSQLite {
		dbPath := filepath.Join(opts.Dir, opts.SQLiteDBName)
		db, err := OpenSQLite(ctx, dbPath)
		if err != nil {
			return written, err
		}
		writeErr := db.Write(ctx, runID, recs, createdAt)
		closeErr := db.Close()
		if writeErr != nil {
			return written, writeErr
		}
		if closeErr != nil {
			return written, fmt.Errorf("close sqlite db: %w", closeErr)
		}
		written = append(written, dbPath)
	}

	if opts.Compress {
		base := strings.TrimSuffix(opts.CSVFileName, filepath.Ext(opts.CSVFileName))
		zipPath := filepath.Join(opts.Dir, base+".zip")
		if err := Bundle(zipPath, written); err != nil {
			return written, err
		}
		written = append(written, zipPath)
	}

	return written, nil
}
