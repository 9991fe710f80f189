// Package batch runs the capture-time resolution and event deduplication
// pipeline over one directory of camera-trap media.
//
// The scanner, metadata reader, text recognizer and reference-table loader
// are injected, so the pipeline can run against fakes in tests and against
// the filehandler, ocr and reftable packages in the CLI.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fpang/camtrap/internal/filehandler"
	"github.com/fpang/camtrap/internal/records"
	"github.com/fpang/camtrap/internal/reftable"
	"github.com/fpang/camtrap/internal/tags"
	"github.com/fpang/camtrap/internal/timestamp"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultIntervalMinutes is the customary independent-event window. Run does
// not apply it; callers do.
const DefaultIntervalMinutes = 30

var (
	// ErrDirectoryNotFound is returned when the root directory does not exist.
	ErrDirectoryNotFound = errors.New("directory not found")

	// ErrNotDirectory is returned when the root path is not a directory.
	ErrNotDirectory = errors.New("path is not a directory")

	// ErrInvalidInterval is returned for a non-positive interval.
	ErrInvalidInterval = errors.New("time interval must be a positive number of minutes")
)

// Scanner lists the supported media files under root in a stable order.
type Scanner interface {
	Scan(ctx context.Context, root string) ([]string, error)
}

// ScannerFunc adapts a function to the Scanner interface.
type ScannerFunc func(ctx context.Context, root string) ([]string, error)

// Scan calls f(ctx, root).
func (f ScannerFunc) Scan(ctx context.Context, root string) ([]string, error) {
	return f(ctx, root)
}

// MetadataReader returns a file's embedded capture time and hierarchical
// tag string. An error means the file could not be read at all.
type MetadataReader interface {
	ReadMetadata(ctx context.Context, path string) (filehandler.Metadata, error)
}

// MetadataReaderFunc adapts a function to the MetadataReader interface.
type MetadataReaderFunc func(ctx context.Context, path string) (filehandler.Metadata, error)

// ReadMetadata calls f(ctx, path).
func (f MetadataReaderFunc) ReadMetadata(ctx context.Context, path string) (filehandler.Metadata, error) {
	return f(ctx, path)
}

// ReferenceLoader reads a reference table mapping file names to raw
// timestamp strings.
type ReferenceLoader interface {
	LoadReference(path string) (map[string]string, error)
}

// ReferenceLoaderFunc adapts a function to the ReferenceLoader interface.
type ReferenceLoaderFunc func(path string) (map[string]string, error)

// LoadReference calls f(path).
func (f ReferenceLoaderFunc) LoadReference(path string) (map[string]string, error) {
	return f(path)
}

// Options configures one batch run.
type Options struct {
	// Root is the directory to process.
	Root string

	// ReferencePath overrides reference-table discovery when set.
	ReferencePath string

	// ReferenceExclude lists file names discovery must never pick, such as
	// a CSV this tool wrote into Root on an earlier run.
	ReferenceExclude []string

	// IntervalMinutes is the independent-event window and must be positive.
	// Callers apply DefaultIntervalMinutes themselves.
	IntervalMinutes int

	// Workers bounds concurrent metadata and OCR calls. Zero selects
	// runtime.NumCPU().
	Workers int

	// OCRTimeout bounds each recognizer call. Zero means no timeout.
	OCRTimeout time.Duration

	Scanner    Scanner
	Metadata   MetadataReader
	Recognizer timestamp.Recognizer // optional
	Reference  ReferenceLoader      // optional
}

// Result is the output of a completed batch run.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	// Files is the number of files scanned; Skipped counts those whose
	// metadata could not be read.
	Files   int
	Skipped int

	// ReferencePath is the reference table used, empty if none.
	ReferencePath string

	Records  []*records.DraftRecord
	Warnings []string

	// Stages counts how many files were resolved by each cascade stage.
	Stages map[timestamp.Stage]int
}

// Independent returns the number of records flagged as independent events.
func (r *Result) Independent() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Independence == records.Independent {
			n++
		}
	}
	return n
}

// extraction holds the order-independent per-file work done by the worker
// pool.
type extraction struct {
	meta filehandler.Metadata
	err  error
	text *timestamp.RecognizedText
}

// Run processes every supported file under opts.Root and returns the final
// records and warnings. Per-file problems become warnings; only an invalid
// configuration, a missing root directory, a scanner failure or context
// cancellation return an error, in which case no records are returned.
func Run(ctx context.Context, opts Options) (*Result, error) {
	interval := opts.IntervalMinutes
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInterval, interval)
	}
	if opts.Scanner == nil || opts.Metadata == nil {
		return nil, errors.New("batch: scanner and metadata reader are required")
	}
	if err := checkRoot(opts.Root); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Stages:    make(map[timestamp.Stage]int),
	}
	var warnings records.WarningLog

	log.Info().
		Str("run_id", res.RunID).
		Str("root", opts.Root).
		Int("interval_minutes", interval).
		Msg("Starting batch")

	files, err := opts.Scanner.Scan(ctx, opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", opts.Root, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Files = len(files)

	if len(files) == 0 {
		warnings.Addf("WARN: no supported files found in %s", opts.Root)
		log.Warn().Str("root", opts.Root).Msg("No supported files found")
		res.Warnings = warnings.Entries()
		res.Duration = time.Since(res.StartedAt)
		return res, nil
	}

	reference := loadReference(opts, &warnings, res)
	resolver := timestamp.NewResolver(reference, opts.Recognizer, opts.OCRTimeout)

	extracted, err := extract(ctx, files, opts, resolver)
	if err != nil {
		return nil, err
	}

	var prev timestamp.Previous
	var recs []*records.DraftRecord
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := filepath.Base(path)
		ex := extracted[i]
		if ex.err != nil {
			res.Skipped++
			warnings.Addf("WARN: %s metadata extraction failed: %v", name, ex.err)
			log.Warn().Err(ex.err).Str("file", name).Msg("Skipping file, metadata extraction failed")
			continue
		}

		resolution := resolver.Resolve(ctx, signalsFor(path, ex.meta), ex.text, prev)
		for _, w := range resolution.Warnings {
			warnings.Add(w)
		}
		res.Stages[resolution.Stage]++

		parsed := tags.Parse(ex.meta.HierarchicalSubject)
		for _, issue := range parsed.Issues {
			warnings.Addf("WARN: %s %s", name, issue)
		}

		fileRecs := records.Expand(name, resolution.Time, parsed, &warnings)
		if len(fileRecs) > 0 {
			prev = prev.Next(resolution)
		}
		recs = append(recs, fileRecs...)
	}

	records.AggregatePeriods(recs)
	records.ClassifyIndependence(recs, interval)

	res.Records = recs
	res.Warnings = warnings.Entries()
	res.Duration = time.Since(res.StartedAt)

	log.Info().
		Str("run_id", res.RunID).
		Int("files", res.Files).
		Int("skipped", res.Skipped).
		Int("records", len(res.Records)).
		Int("independent", res.Independent()).
		Int("warnings", len(res.Warnings)).
		Dur("duration", res.Duration).
		Msg("Batch complete")

	return res, nil
}

// extract reads metadata, and recognized text where the cascade will need
// it, for every file on a bounded worker pool. Results are indexed by scan
// position.
func extract(ctx context.Context, files []string, opts Options, resolver *timestamp.Resolver) ([]extraction, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := make([]extraction, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			meta, err := opts.Metadata.ReadMetadata(gctx, path)
			if err != nil {
				out[i].err = err
				return nil
			}
			out[i].meta = meta

			if resolver.NeedsRecognition(signalsFor(path, meta)) {
				text, err := resolver.Recognize(gctx, path)
				out[i].text = &timestamp.RecognizedText{Text: text, Err: err}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func signalsFor(path string, meta filehandler.Metadata) timestamp.Signals {
	return timestamp.Signals{
		Filename:    filepath.Base(path),
		Path:        path,
		Embedded:    meta.CaptureTime,
		HasEmbedded: meta.HasCaptureTime,
	}
}

// loadReference finds and reads the reference table. A table that cannot be
// read is reported and treated as absent.
func loadReference(opts Options, warnings *records.WarningLog, res *Result) map[string]string {
	if opts.Reference == nil {
		return nil
	}

	path := opts.ReferencePath
	if path == "" {
		found, ok, err := reftable.Find(opts.Root, opts.ReferenceExclude...)
		if err != nil {
			warnings.Addf("WARN: failed to look for a reference table in %s: %v", opts.Root, err)
			return nil
		}
		if !ok {
			log.Debug().Str("root", opts.Root).Msg("No reference table found")
			return nil
		}
		path = found
	}

	table, err := opts.Reference.LoadReference(path)
	if err != nil {
		warnings.Addf("WARN: reference table %s unreadable, ignoring it: %v", filepath.Base(path), err)
		log.Warn().Err(err).Str("path", path).Msg("Reference table unreadable")
		return nil
	}

	res.ReferencePath = path
	log.Info().Str("path", path).Int("entries", len(table)).Msg("Loaded reference table")
	return table
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDirectoryNotFound, root)
		}
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	return nil
}
