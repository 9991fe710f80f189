// Package ocr provides the text recognizers used to read the date/time
// imprint of frames that carry no usable capture time.
//
// The engine is chosen by name. The batch pipeline never interprets the
// name; it only receives the resulting timestamp.Recognizer.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fpang/camtrap/internal/filehandler"
	"github.com/fpang/camtrap/internal/timestamp"
)

// Engine names.
const (
	EngineNone      = "none"
	EngineGemini    = "gemini"
	EngineTesseract = "tesseract"
)

// ErrUnknownEngine is returned by New for an unrecognized engine name.
var ErrUnknownEngine = errors.New("unknown OCR engine")

// Engines returns the accepted engine names, sorted.
func Engines() []string {
	names := []string{EngineNone, EngineGemini, EngineTesseract}
	sort.Strings(names)
	return names
}

// ValidEngine reports whether name selects a known engine. Empty is
// accepted and means no OCR.
func ValidEngine(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EngineNone, EngineGemini, EngineTesseract:
		return true
	}
	return false
}

// ErrorKind classifies recognizer failures.
type ErrorKind int

const (
	// KindUnavailable means the engine could not be used at all, e.g. a
	// missing binary or API key.
	KindUnavailable ErrorKind = iota
	// KindTimeout means the call exceeded its deadline.
	KindTimeout
	// KindFailed means the engine ran and returned an error.
	KindFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	default:
		return "failed"
	}
}

// EngineError reports a failed recognition.
type EngineError struct {
	Engine string
	Kind   ErrorKind
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s OCR %s: %v", e.Engine, e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// newEngineError wraps err, classifying context deadline errors as
// timeouts.
func newEngineError(engine string, kind ErrorKind, err error) *EngineError {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &EngineError{Engine: engine, Kind: kind, Err: err}
}

// Config holds engine settings.
type Config struct {
	// Imprint selects the part of the frame sent to the engine.
	Imprint filehandler.ImprintOptions

	// GeminiModel overrides the Gemini model name.
	GeminiModel string

	// APIKey is the Gemini API key. When empty, auth.GetAPIKey is
	// consulted by the CLI before calling New.
	APIKey string

	// TesseractPath overrides the tesseract binary location.
	TesseractPath string

	// TesseractLang is passed as -l, e.g. "eng".
	TesseractLang string
}

// New returns the recognizer for engine. EngineNone and "" return a nil
// recognizer, which disables the OCR stage.
func New(ctx context.Context, engine string, cfg Config) (timestamp.Recognizer, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineNone:
		return nil, nil
	case EngineGemini:
		g, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	case EngineTesseract:
		tess, err := NewTesseract(cfg)
		if err != nil {
			return nil, err
		}
		return tess, nil
	default:
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownEngine, engine, strings.Join(Engines(), ", "))
	}
}
