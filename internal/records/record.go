// Package records turns parsed tags and resolved timestamps into draft
// detection records, then derives per-camera observation periods and
// independent-event flags over a whole batch.
package records

import (
	"fmt"
	"sync"
	"time"
)

// UnknownCamera groups records that carry no camera id.
const UnknownCamera = "Unknown"

// Independence is the tri-state independent-event flag. The zero value means
// classification has not run.
type Independence int8

const (
	IndependenceUnset Independence = iota
	Independent
	NotIndependent
)

func (i Independence) String() string {
	switch i {
	case Independent:
		return "independent"
	case NotIndependent:
		return "not-independent"
	default:
		return "unset"
	}
}

// Period is a camera's observation window.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the period, inclusive.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// DraftRecord is one detection: a (file, animal tag) pair that passed
// validity filtering.
type DraftRecord struct {
	SourceFile string
	Timestamp  time.Time
	Site       string
	Plot       string
	CameraID   string
	Group      string
	Species    string
	Count      int
	Note       string

	Independence Independence

	// Period is nil until AggregatePeriods runs.
	Period *Period
}

// CameraKey is the camera grouping key, UnknownCamera when CameraID is empty.
func (r *DraftRecord) CameraKey() string {
	if r.CameraID == "" {
		return UnknownCamera
	}
	return r.CameraID
}

// WarningLog is an append-only, ordered list of warnings for one batch run.
// It is safe for concurrent use.
type WarningLog struct {
	mu      sync.Mutex
	entries []string
}

// Add appends a warning.
func (w *WarningLog) Add(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, msg)
}

// Addf appends a formatted warning.
func (w *WarningLog) Addf(format string, args ...any) {
	w.Add(fmt.Sprintf(format, args...))
}

// Entries returns a copy of the warnings in the order they were added.
func (w *WarningLog) Entries() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.entries))
	copy(out, w.entries)
	return out
}

// Len returns the number of warnings.
func (w *WarningLog) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}
