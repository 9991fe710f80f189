package ocr

import "os"

// Gemini model IDs suited to short transcription tasks.
const (
	// ModelGemini25FlashLite is for high-throughput, lowest cost.
	ModelGemini25FlashLite = "gemini-2.5-flash-lite"

	// ModelGemini25Flash is stable, balanced performance.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini3FlashPreview is best for speed + intelligence.
	ModelGemini3FlashPreview = "gemini-3-flash-preview"
)

// DefaultModelName is the Gemini model used for imprint transcription.
// Reading a single line of burned-in text does not need a larger model.
const DefaultModelName = ModelGemini25FlashLite

// GetModelName returns the Gemini model to use, resolved from:
//  1. the configured model, if set
//  2. GEMINI_MODEL environment variable
//  3. DefaultModelName
func GetModelName(configured string) string {
	if configured != "" {
		return configured
	}
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	return DefaultModelName
}
