package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fpang/camtrap/internal/auth"
	"github.com/fpang/camtrap/internal/config"
	"github.com/fpang/camtrap/internal/ocr"
	"github.com/fpang/camtrap/internal/timestamp"
	"github.com/rs/zerolog/log"
)

// NewRecognizer builds the configured OCR engine. The Gemini API key is
// only looked up when the Gemini engine is selected. A nil recognizer
// means OCR is disabled.
func NewRecognizer(ctx context.Context, cfg *config.Config) (timestamp.Recognizer, error) {
	engine := strings.ToLower(strings.TrimSpace(cfg.Processing.OCREngine))

	var apiKey string
	if engine == ocr.EngineGemini {
		key, err := auth.GetAPIKey(ctx, auth.Options{SSMParam: cfg.OCR.APIKeySSM})
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve API key: %w", err)
		}
		apiKey = key
	}

	rec, err := ocr.New(ctx, engine, cfg.EngineConfig(apiKey))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		log.Info().Msg("OCR disabled, imprint text will not be used for capture times")
		return nil, nil
	}

	log.Info().Str("engine", engine).Msg("OCR engine initialized")
	return rec, nil
}
