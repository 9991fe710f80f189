package filehandler

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// CheckFFprobeAvailable checks if ffprobe is available in the system PATH.
func CheckFFprobeAvailable() error {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		return fmt.Errorf("ffprobe not found in PATH: install FFmpeg with: brew install ffmpeg (macOS) or apt install ffmpeg (Linux)")
	}
	log.Debug().Str("path", path).Msg("ffprobe found")
	return nil
}

// IsFFprobeAvailable returns true if ffprobe is available in the system PATH.
func IsFFprobeAvailable() bool {
	return CheckFFprobeAvailable() == nil
}

// ffprobeOutput is the subset of `ffprobe -print_format json` output needed
// for capture times.
type ffprobeOutput struct {
	Format struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType string            `json:"codec_type"`
		Tags      map[string]string `json:"tags"`
	} `json:"streams"`
}

// creationTimeLayouts are the shapes containers use for creation_time.
var creationTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// VideoCaptureTime reads a video's creation_time with ffprobe, preferring
// the container-level tag and falling back to the first video stream's tag.
// AVI files from many trail cameras carry the date in "date" or
// "creation_date" instead, which are also accepted.
func VideoCaptureTime(ctx context.Context, filePath string) (time.Time, error) {
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return time.Time{}, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)
	output, err := cmd.Output()
	if err != nil {
		return time.Time{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if t, ok := creationTime(probe.Format.Tags); ok {
		return t, nil
	}
	for _, stream := range probe.Streams {
		if stream.CodecType != "video" {
			continue
		}
		if t, ok := creationTime(stream.Tags); ok {
			return t, nil
		}
	}

	return time.Time{}, errNoCaptureTime
}

// creationTimeKeys are tried in order.
var creationTimeKeys = []string{"creation_time", "creation_date", "date"}

func creationTime(tags map[string]string) (time.Time, bool) {
	for _, want := range creationTimeKeys {
		for key, value := range tags {
			if !strings.EqualFold(key, want) {
				continue
			}
			value = strings.TrimSpace(value)
			for _, layout := range creationTimeLayouts {
				if t, err := time.Parse(layout, value); err == nil {
					return wallClock(t), true
				}
			}
		}
	}
	return time.Time{}, false
}
