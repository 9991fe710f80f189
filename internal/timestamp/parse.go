// Package timestamp decides a single capture time for a camera-trap file from
// the sources available for it: a reference table, the embedded capture
// time, text recognized from the imprinted overlay, and the previous file.
//
// All times are camera wall-clock times carried in time.UTC. No zone
// conversion is applied to any source.
package timestamp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical text form of a resolved timestamp.
const Layout = "2006-01-02 15:04:05"

// Years outside this range in recognized text are treated as misreads.
const (
	MinRecognizedYear = 1990
	MaxRecognizedYear = 2100
)

// Sentinel is substituted when no source yields a timestamp.
var Sentinel = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	colonDatePrefix = regexp.MustCompile(`^(\d{4}):(\d{1,2}):(\d{1,2})`)

	// Reference strings must use one separator throughout the date, so the
	// slash and dash shapes are separate patterns.
	referencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2}) +(\d{1,2}):(\d{1,2})(?::(\d{1,2}))?$`),
		regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2}) +(\d{1,2}):(\d{1,2})(?::(\d{1,2}))?$`),
	}

	// Ordered most to least specific.
	recognizedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\s+(\d{1,2}):(\d{1,2}):(\d{1,2})`),
		regexp.MustCompile(`(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\s+(\d{1,2}):(\d{1,2})`),
		regexp.MustCompile(`(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})`),
	}
)

// ParseReference parses a reference-table timestamp string. Accepted shapes
// are "YYYY/M/D H:M:S", "YYYY/M/D H:M", "YYYY-M-D H:M:S" and "YYYY-M-D H:M".
// A colon-delimited date prefix ("2020:06:22 09:40:12") is rewritten to the
// slash form first.
func ParseReference(value string) (time.Time, bool) {
	value = colonDatePrefix.ReplaceAllString(strings.TrimSpace(value), "$1/$2/$3")
	for _, p := range referencePatterns {
		m := p.FindStringSubmatch(value)
		if m == nil {
			continue
		}
		if t, ok := fromParts(m[1:]); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseRecognizedText scans OCR output for a date/time imprint. Each pattern
// contributes its first match only; a match with an impossible date or a year
// outside MinRecognizedYear..MaxRecognizedYear is rejected and the next, less
// specific pattern is tried.
func ParseRecognizedText(text string) (time.Time, bool) {
	for _, p := range recognizedPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		t, ok := fromParts(m[1:])
		if !ok {
			continue
		}
		if t.Year() < MinRecognizedYear || t.Year() > MaxRecognizedYear {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

// fromParts builds a time from year, month, day and optional hour, minute,
// second strings. Missing or empty time parts are zero. Dates that
// time.Date would normalize (Feb 30, 25:00) are rejected.
func fromParts(parts []string) (time.Time, bool) {
	var n [6]int
	for i := 0; i < len(n) && i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		v, err := strconv.Atoi(parts[i])
		if err != nil {
			return time.Time{}, false
		}
		n[i] = v
	}

	year, month, day, hour, minute, second := n[0], n[1], n[2], n[3], n[4], n[5]
	if month < 1 || month > 12 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
