package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fpang/camtrap/internal/timestamp"
)

// FormatDurationShort formats a duration in a short format (M:SS or H:MM:SS).
func FormatDurationShort(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatStages renders per-stage counts in cascade order, skipping stages
// that resolved nothing, e.g. "embedded=40 ocr=2 sentinel=1".
func FormatStages(stages map[timestamp.Stage]int) string {
	var parts []string
	for _, s := range timestamp.Stages() {
		if n := stages[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", s, n))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
