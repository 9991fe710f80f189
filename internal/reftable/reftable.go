// Package reftable reads the optional reference CSV that field teams keep
// next to a card dump, mapping each file name to a manually checked capture
// time.
package reftable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrMissingColumns is returned when the header has no file name column or
// no time column.
var ErrMissingColumns = errors.New("reference table is missing a file name or time column")

const utf8BOM = "\ufeff"

// Header substrings, matched against the lowercased column name. The last
// matching column wins.
var (
	fileColumnHints = []string{"filename", "檔名"}
	timeColumnHints = []string{"createdate", "datetime", "時間"}
)

// Find locates the reference table for dir: "<dir name>.csv" inside dir if
// present, otherwise the alphabetically first .csv file in dir. Names in
// exclude (compared case-insensitively) are never returned.
func Find(dir string, exclude ...string) (path string, ok bool, err error) {
	named := filepath.Join(dir, filepath.Base(filepath.Clean(dir))+".csv")
	if info, err := os.Stat(named); err == nil && !info.IsDir() && !excluded(filepath.Base(named), exclude) {
		return named, true, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, fmt.Errorf("failed to read directory: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") || excluded(e.Name(), exclude) {
			continue
		}
		candidates = append(candidates, e.Name())
	}
	if len(candidates) == 0 {
		return "", false, nil
	}

	sort.Strings(candidates)
	return filepath.Join(dir, candidates[0]), true, nil
}

func excluded(name string, exclude []string) bool {
	for _, x := range exclude {
		if strings.EqualFold(name, x) {
			return true
		}
	}
	return false
}

// Load reads the reference table at path.
func Load(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference table: %w", err)
	}
	defer f.Close()

	table, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	log.Info().Str("path", path).Int("entries", len(table)).Msg("Read reference table")
	return table, nil
}

// Read parses a reference table from r. Rows with an empty file name, or an
// empty or "nan" time, are skipped.
func Read(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingColumns
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	fileCol, timeCol := -1, -1
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		lower := strings.ToLower(strings.TrimSpace(name))
		if containsAny(lower, fileColumnHints) {
			fileCol = i
		}
		if containsAny(lower, timeColumnHints) {
			timeCol = i
		}
	}
	if fileCol < 0 || timeCol < 0 {
		return nil, ErrMissingColumns
	}

	table := make(map[string]string)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if fileCol >= len(row) || timeCol >= len(row) {
			continue
		}

		name := strings.TrimSpace(row[fileCol])
		value := strings.TrimSpace(row[timeCol])
		if name == "" || value == "" || strings.EqualFold(value, "nan") {
			continue
		}
		table[name] = value
	}

	return table, nil
}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}
