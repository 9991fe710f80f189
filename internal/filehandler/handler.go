package filehandler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// SupportedImageExtensions lists the still-image formats camera traps write,
// with their MIME types.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
}

// SupportedVideoExtensions lists the video formats camera traps write, with
// their MIME types.
var SupportedVideoExtensions = map[string]string{
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".mp4":  "video/mp4",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
}

// IsImage reports whether ext (with dot, any case) is a supported image.
func IsImage(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}

// IsVideo reports whether ext (with dot, any case) is a supported video.
func IsVideo(ext string) bool {
	_, ok := SupportedVideoExtensions[strings.ToLower(ext)]
	return ok
}

// IsSupported reports whether ext is a supported image or video.
func IsSupported(ext string) bool {
	return IsImage(ext) || IsVideo(ext)
}

// GetMIMEType returns the MIME type for a supported extension.
func GetMIMEType(ext string) (string, error) {
	ext = strings.ToLower(ext)
	if mime, ok := SupportedImageExtensions[ext]; ok {
		return mime, nil
	}
	if mime, ok := SupportedVideoExtensions[ext]; ok {
		return mime, nil
	}
	return "", fmt.Errorf("unsupported file type: %s", ext)
}

// Metadata is what a media file says about itself: its embedded capture
// time and its hierarchical keyword string.
type Metadata struct {
	CaptureTime    time.Time
	HasCaptureTime bool

	// CaptureTag names the tag the capture time came from, e.g.
	// "DateTimeOriginal" or "creation_time".
	CaptureTag string

	// HierarchicalSubject is the comma-joined list of hierarchical
	// keywords, e.g. "1_Site ID|JC38, 2_Animal|Mammal|Deer".
	HierarchicalSubject string
}

// Reader extracts Metadata from media files. Images are read with
// imagemeta, videos with ffprobe, and keywords from the embedded XMP packet
// or an .xmp sidecar.
type Reader struct {
	// UseFFprobe enables video capture times. NewReader sets it when
	// ffprobe is on PATH.
	UseFFprobe bool
}

// NewReader returns a Reader configured for the tools available on this
// host.
func NewReader() *Reader {
	r := &Reader{UseFFprobe: IsFFprobeAvailable()}
	if !r.UseFFprobe {
		log.Warn().Msg("ffprobe not found in PATH, video capture times will be unavailable")
	}
	return r
}

// ReadMetadata reads one file. Missing or undecodable metadata is reported
// as empty fields; an error is returned only when the file itself cannot be
// read.
func (r *Reader) ReadMetadata(ctx context.Context, path string) (Metadata, error) {
	var meta Metadata

	info, err := os.Stat(path)
	if err != nil {
		return meta, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return meta, fmt.Errorf("path is a directory: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case IsImage(ext):
		t, tag, err := ImageCaptureTime(path)
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("No EXIF capture time")
		} else {
			meta.CaptureTime, meta.CaptureTag, meta.HasCaptureTime = t, tag, true
		}
	case IsVideo(ext) && r.UseFFprobe:
		t, err := VideoCaptureTime(ctx, path)
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("No video capture time")
		} else {
			meta.CaptureTime, meta.CaptureTag, meta.HasCaptureTime = t, "creation_time", true
		}
	}

	subject, err := ReadHierarchicalSubject(path, info.Size())
	if err != nil {
		return meta, err
	}
	meta.HierarchicalSubject = subject

	log.Debug().
		Str("path", path).
		Bool("has_capture_time", meta.HasCaptureTime).
		Str("capture_tag", meta.CaptureTag).
		Str("subject", meta.HierarchicalSubject).
		Msg("Metadata extraction complete")

	return meta, nil
}

// wallClock drops any zone information, keeping the clock reading as
// written by the camera.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
