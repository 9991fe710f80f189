// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time.
package assets

import (
	_ "embed"
)

// ImprintSystemPrompt instructs a vision model to transcribe the date/time
// strip that trail cameras imprint on each frame.
//
//go:embed prompts/imprint-system.txt
var ImprintSystemPrompt string

// ImprintUserPrompt asks for the transcription as a JSON object with a
// single "text" field.
//
//go:embed prompts/imprint-user.txt
var ImprintUserPrompt string
