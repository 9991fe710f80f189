package output

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// zipMethodZstd is the ZIP compression method ID for Zstandard (APPNOTE 6.3.7).
const zipMethodZstd uint16 = 93

var registerOnce sync.Once

func registerZstd() {
	registerOnce.Do(func() {
		zip.RegisterCompressor(zipMethodZstd, func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		})
		zip.RegisterDecompressor(zipMethodZstd, func(r io.Reader) io.ReadCloser {
			dec, err := zstd.NewReader(r)
			if err != nil {
				return io.NopCloser(errReader{err})
			}
			return dec.IOReadCloser()
		})
	})
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

// Bundle writes files into a zstd-compressed ZIP at path. Entries are named
// by base name.
func Bundle(path string, files []string) error {
	registerZstd()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ZIP: %w", err)
	}

	zw := zip.NewWriter(out)
	for _, file := range files {
		if err := addToZip(zw, file); err != nil {
			zw.Close()
			out.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("close ZIP writer: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close ZIP: %w", err)
	}

	log.Info().Str("path", path).Int("entries", len(files)).Msg("Output bundle written")
	return nil
}

func addToZip(zw *zip.Writer, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	modTime := time.Now()
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}

	header := &zip.FileHeader{
		Name:   filepath.Base(file),
		Method: zipMethodZstd,
	}
	header.Modified = modTime

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create ZIP entry for %s: %w", header.Name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write to ZIP for %s: %w", header.Name, err)
	}
	return nil
}
