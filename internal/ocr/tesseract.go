package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fpang/camtrap/internal/filehandler"
	"github.com/rs/zerolog/log"
)

// Tesseract transcribes imprints with a local tesseract binary. The imprint
// is piped through stdin, so no temporary files are written.
type Tesseract struct {
	path    string
	lang    string
	imprint filehandler.ImprintOptions
}

// NewTesseract locates the tesseract binary.
func NewTesseract(cfg Config) (*Tesseract, error) {
	path := cfg.TesseractPath
	if path == "" {
		found, err := exec.LookPath("tesseract")
		if err != nil {
			return nil, newEngineError(EngineTesseract, KindUnavailable,
				fmt.Errorf("tesseract not found in PATH: install with: brew install tesseract (macOS) or apt install tesseract-ocr (Linux)"))
		}
		path = found
	}

	lang := cfg.TesseractLang
	if lang == "" {
		lang = "eng"
	}

	log.Debug().Str("path", path).Str("lang", lang).Msg("Tesseract OCR engine ready")
	return &Tesseract{path: path, lang: lang, imprint: cfg.Imprint}, nil
}

// RecognizeText runs tesseract on the imprint region of path.
func (t *Tesseract) RecognizeText(ctx context.Context, path string) (string, error) {
	data, err := filehandler.LoadImprint(ctx, path, t.imprint)
	if err != nil {
		return "", newEngineError(EngineTesseract, KindFailed, err)
	}

	// --psm 6: treat the strip as a single uniform block of text.
	cmd := exec.CommandContext(ctx, t.path, "stdin", "stdout", "-l", t.lang, "--psm", "6")
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", newEngineError(EngineTesseract, KindFailed, ctx.Err())
		}
		return "", newEngineError(EngineTesseract, KindFailed,
			fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())))
	}

	text := strings.Join(strings.Fields(string(output)), " ")
	log.Debug().Str("file", filepath.Base(path)).Str("text", text).Msg("Tesseract OCR complete")
	return text, nil
}
