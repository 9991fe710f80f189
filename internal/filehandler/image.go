package filehandler

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// errNoCaptureTime is returned when a file carries no usable date tag.
var errNoCaptureTime = errors.New("no capture time in metadata")

// ImageCaptureTime reads the EXIF capture time of an image using the
// imagemeta library, which only reads the metadata segment rather than the
// whole file.
//
// Tags are tried in order DateTimeOriginal, CreateDate (DateTimeDigitized),
// ModifyDate (DateTime). The returned time is the camera's wall clock in
// time.UTC, and tag names the tag it came from.
func ImageCaptureTime(filePath string) (t time.Time, tag string, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	exifData, err := imagemeta.Decode(file)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	candidates := []struct {
		tag string
		t   time.Time
	}{
		{"DateTimeOriginal", exifData.DateTimeOriginal()},
		{"CreateDate", exifData.CreateDate()},
		{"ModifyDate", exifData.ModifyDate()},
	}
	for _, c := range candidates {
		if c.t.IsZero() {
			continue
		}
		log.Debug().Str("path", filePath).Str("tag", c.tag).Time("value", c.t).Msg("EXIF capture time found")
		return wallClock(c.t), c.tag, nil
	}

	return time.Time{}, "", errNoCaptureTime
}
