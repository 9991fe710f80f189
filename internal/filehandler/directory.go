package filehandler

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// ScanOptions configures directory scanning behavior.
type ScanOptions struct {
	// MaxDepth limits recursion depth. 0 = unlimited, 1 = top-level only.
	MaxDepth int

	// Limit caps the number of files returned. 0 = unlimited.
	Limit int
}

// Scanner lists supported media files under a root directory.
type Scanner struct {
	Options ScanOptions
}

// Scan implements the batch scanner contract using ScanDirectoryMedia.
func (s Scanner) Scan(ctx context.Context, root string) ([]string, error) {
	return ScanDirectoryMedia(ctx, root, s.Options)
}

// ScanDirectoryMedia returns the paths of all supported images and videos
// under dirPath, sorted by path so repeated runs over an unchanged tree see
// the same order.
//
// Symlinks to files are followed; symlinks to directories are skipped to
// prevent loops. The walk stops when ctx is cancelled.
func ScanDirectoryMedia(ctx context.Context, dirPath string, opts ScanOptions) ([]string, error) {
	log.Info().
		Str("path", dirPath).
		Int("max_depth", opts.MaxDepth).
		Int("limit", opts.Limit).
		Msg("Scanning directory for media (images + videos)")

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", dirPath)
		}
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	// Absolute path for consistent depth calculation
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	baseDepth := strings.Count(absPath, string(os.PathSeparator))

	var paths []string
	var imageCount, videoCount int

	err = filepath.WalkDir(absPath, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error accessing path, skipping")
			return nil
		}

		if d.IsDir() {
			if opts.MaxDepth > 0 && path != absPath {
				depth := strings.Count(path, string(os.PathSeparator)) - baseDepth
				if depth >= opts.MaxDepth {
					return fs.SkipDir
				}
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Failed to resolve symlink, skipping")
				return nil
			}
			if target.IsDir() {
				log.Debug().Str("path", path).Msg("Skipping symlink to directory")
				return nil
			}
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		switch {
		case IsImage(ext):
			imageCount++
		case IsVideo(ext):
			videoCount++
		default:
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(paths)

	limitReached := false
	if opts.Limit > 0 && len(paths) > opts.Limit {
		paths = paths[:opts.Limit]
		limitReached = true
	}

	logEvent := log.Info().
		Int("total_files", len(paths)).
		Int("images", imageCount).
		Int("videos", videoCount).
		Str("directory", dirPath)
	if limitReached {
		logEvent.Bool("limit_reached", true)
	}
	logEvent.Msg("Directory scan complete")

	return paths, nil
}
