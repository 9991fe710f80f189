package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fpang/camtrap/internal/records"
	"github.com/rs/zerolog/log"
)

// utf8BOM makes spreadsheet applications detect UTF-8.
const utf8BOM = "\ufeff"

// WriteCSV writes a BOM, the header and one line per record.
func WriteCSV(w io.Writer, recs []*records.DraftRecord, createdAt time.Time) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range Rows(recs, createdAt) {
		if err := cw.Write(row.Strings()); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", row.SourceFile, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the records to path, creating parent directories.
func SaveCSV(path string, recs []*records.DraftRecord, createdAt time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV: %w", err)
	}
	if err := WriteCSV(f, recs, createdAt); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close CSV: %w", err)
	}

	log.Info().Str("path", path).Int("records", len(recs)).Msg("CSV written")
	return nil
}
