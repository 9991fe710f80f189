package ocr

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fpang/camtrap/internal/assets"
	"github.com/fpang/camtrap/internal/filehandler"
	"github.com/fpang/camtrap/internal/jsonutil"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// NewGeminiClient creates a Gemini API client for apiKey.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	return newGeminiClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func newGeminiClient(ctx context.Context, cc *genai.ClientConfig) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// Gemini transcribes imprints with a Gemini vision model.
type Gemini struct {
	client  *genai.Client
	model   string
	imprint filehandler.ImprintOptions
}

// NewGemini creates a Gemini recognizer. cfg.APIKey is required.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, newEngineError(EngineGemini, KindUnavailable, errors.New("no API key configured"))
	}
	client, err := NewGeminiClient(ctx, cfg.APIKey)
	if err != nil {
		return nil, newEngineError(EngineGemini, KindUnavailable, err)
	}
	return NewGeminiWithClient(client, cfg), nil
}

// NewGeminiWithClient wraps an existing client.
func NewGeminiWithClient(client *genai.Client, cfg Config) *Gemini {
	g := &Gemini{
		client:  client,
		model:   GetModelName(cfg.GeminiModel),
		imprint: cfg.Imprint,
	}
	log.Debug().Str("model", g.model).Str("region", cfg.Imprint.Region).Msg("Gemini OCR engine ready")
	return g
}

// imprintResponse is the JSON shape requested from the model.
type imprintResponse struct {
	Text string `json:"text"`
}

// RecognizeText sends the imprint region of path to Gemini and returns the
// transcribed text.
func (g *Gemini) RecognizeText(ctx context.Context, path string) (string, error) {
	data, err := filehandler.LoadImprint(ctx, path, g.imprint)
	if err != nil {
		return "", newEngineError(EngineGemini, KindFailed, err)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: assets.ImprintSystemPrompt}},
		},
		ResponseMIMEType: "application/json",
	}
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: data}},
		{Text: assets.ImprintUserPrompt},
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	callStart := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	duration := time.Since(callStart)
	if err != nil {
		log.Debug().Err(err).Str("file", filepath.Base(path)).Dur("duration", duration).Msg("Gemini OCR call failed")
		return "", newEngineError(EngineGemini, KindFailed, err)
	}
	if resp == nil {
		return "", newEngineError(EngineGemini, KindFailed, errors.New("received empty response from Gemini API"))
	}

	text, err := parseImprintResponse(resp.Text())
	if err != nil {
		return "", newEngineError(EngineGemini, KindFailed, err)
	}

	log.Debug().
		Str("file", filepath.Base(path)).
		Str("text", text).
		Dur("duration", duration).
		Msg("Gemini OCR response received")

	return text, nil
}

// parseImprintResponse extracts the transcription from a model reply.
// Replies that are not JSON are taken as the transcription itself.
func parseImprintResponse(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	resp, err := jsonutil.ParseJSON[imprintResponse](raw)
	if err != nil {
		if errors.Is(err, jsonutil.ErrNoJSON) {
			return raw, nil
		}
		return "", fmt.Errorf("failed to parse imprint response: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
