package timestamp

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Stage identifies which source supplied a resolved timestamp.
type Stage int

const (
	StageReference Stage = iota + 1
	StageEmbedded
	StageRecognized
	StagePrevious
	StageSentinel
)

// Stages returns every stage in cascade order.
func Stages() []Stage {
	return []Stage{StageReference, StageEmbedded, StageRecognized, StagePrevious, StageSentinel}
}

func (s Stage) String() string {
	switch s {
	case StageReference:
		return "reference"
	case StageEmbedded:
		return "embedded"
	case StageRecognized:
		return "ocr"
	case StagePrevious:
		return "previous"
	case StageSentinel:
		return "sentinel"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Signals are the per-file inputs to resolution.
type Signals struct {
	Filename    string
	Path        string
	Embedded    time.Time
	HasEmbedded bool
}

// Recognizer returns the text recognized on a file's imprint, or "" when
// nothing was read.
type Recognizer interface {
	RecognizeText(ctx context.Context, path string) (string, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, path string) (string, error)

// RecognizeText calls f(ctx, path).
func (f RecognizerFunc) RecognizeText(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Previous carries the timestamp of the last resolved record through the
// sequential resolution pass. The zero value means no predecessor.
type Previous struct {
	Time  time.Time
	Valid bool
}

// Resolution is the outcome of resolving one file.
type Resolution struct {
	Time  time.Time
	Stage Stage

	// Warnings describe every fallback taken, in order.
	Warnings []string
}

// Resolved reports whether a real source produced the time, i.e. the
// sentinel was not substituted.
func (r Resolution) Resolved() bool {
	return r.Stage != StageSentinel
}

// Next returns the accumulator to pass to the following file, given that
// this file's resolution produced at least one record.
func (p Previous) Next(r Resolution) Previous {
	if !r.Resolved() {
		return p
	}
	return Previous{Time: r.Time, Valid: true}
}

// Resolver applies the capture-time cascade: reference table, embedded
// capture time, recognized imprint text, previous record, sentinel.
type Resolver struct {
	reference  map[string]string
	recognizer Recognizer
	timeout    time.Duration
}

// NewResolver creates a Resolver. reference maps exact file names to raw
// timestamp strings and may be nil. recognizer may be nil, in which case the
// OCR stage is skipped. A positive timeout bounds each recognizer call; a
// call that times out is treated as a miss.
func NewResolver(reference map[string]string, recognizer Recognizer, timeout time.Duration) *Resolver {
	return &Resolver{
		reference:  reference,
		recognizer: recognizer,
		timeout:    timeout,
	}
}

// Reference looks up and parses the reference-table entry for filename.
// raw is the stored string, returned even when it does not parse.
func (r *Resolver) Reference(filename string) (t time.Time, raw string, ok bool) {
	raw, found := r.reference[filename]
	if !found {
		return time.Time{}, "", false
	}
	t, ok = ParseReference(raw)
	return t, raw, ok
}

// NeedsRecognition reports whether resolving sig will reach the OCR stage.
func (r *Resolver) NeedsRecognition(sig Signals) bool {
	if _, _, ok := r.Reference(sig.Filename); ok {
		return false
	}
	return !sig.HasEmbedded && r.recognizer != nil
}

// Recognize runs the recognizer on path under the configured timeout.
// Errors and timeouts are returned to the caller, who treats them as a miss.
func (r *Resolver) Recognize(ctx context.Context, path string) (string, error) {
	if r.recognizer == nil {
		return "", nil
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.recognizer.RecognizeText(ctx, path)
}

// Resolve picks the capture time for one file. It always returns a value.
//
// recognized, when non-nil, supplies text already recognized for this file
// (for example by a prefetching worker pool) and is used instead of calling
// the recognizer.
func (r *Resolver) Resolve(ctx context.Context, sig Signals, recognized *RecognizedText, prev Previous) Resolution {
	var res Resolution

	t, raw, ok := r.Reference(sig.Filename)
	if ok {
		res.Time, res.Stage = t, StageReference
		return res
	}

	refMiss := "has no reference time"
	switch {
	case raw != "":
		refMiss = fmt.Sprintf("has unparseable reference time %q", raw)
	case len(r.reference) > 0:
		refMiss = "is not in the reference table"
	}

	if sig.HasEmbedded {
		res.Time, res.Stage = sig.Embedded, StageEmbedded
		res.warn(sig.Filename, "%s, using embedded capture time %s", refMiss, sig.Embedded.Format(Layout))
		return res
	}

	if text, ok := r.recognizedText(ctx, sig, recognized); ok {
		if t, ok := ParseRecognizedText(text); ok {
			res.Time, res.Stage = t, StageRecognized
			res.warn(sig.Filename, "has no capture time, using OCR time %s", t.Format(Layout))
			return res
		}
		log.Debug().Str("file", sig.Filename).Str("text", text).Msg("No date found in recognized text")
	}

	if prev.Valid {
		res.Time, res.Stage = prev.Time, StagePrevious
		res.warn(sig.Filename, "has no capture time, using previous record time %s", prev.Time.Format(Layout))
		return res
	}

	res.Time, res.Stage = Sentinel, StageSentinel
	res.warn(sig.Filename, "has no capture time, using %s", Sentinel.Format(Layout))
	return res
}

// RecognizedText is the outcome of a recognizer call made ahead of
// resolution.
type RecognizedText struct {
	Text string
	Err  error
}

func (r *Resolver) recognizedText(ctx context.Context, sig Signals, pre *RecognizedText) (string, bool) {
	if r.recognizer == nil && pre == nil {
		return "", false
	}

	var text string
	var err error
	if pre != nil {
		text, err = pre.Text, pre.Err
	} else {
		text, err = r.Recognize(ctx, sig.Path)
	}

	if err != nil {
		log.Warn().Err(err).Str("file", sig.Filename).Msg("Text recognition failed, treating as miss")
		return "", false
	}
	return text, text != ""
}

func (r *Resolution) warn(filename, format string, args ...any) {
	msg := fmt.Sprintf("WARN: %s ", filename) + fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	log.Warn().Str("file", filename).Str("stage", r.Stage.String()).Msg(msg)
}
