package ocr

import (
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func TestNewEngineSelection(t *testing.T) {
	ctx := context.Background()

	for _, engine := range []string{"", "none", " NONE "} {
		rec, err := New(ctx, engine, Config{})
		if err != nil || rec != nil {
			t.Errorf("New(%q) = (%v, %v), want (nil, nil)", engine, rec, err)
		}
	}

	if _, err := New(ctx, "paddle", Config{}); !errors.Is(err, ErrUnknownEngine) {
		t.Errorf("New(paddle) error = %v, want ErrUnknownEngine", err)
	}

	_, err := New(ctx, EngineGemini, Config{})
	var engineErr *EngineError
	if !errors.As(err, &engineErr) || engineErr.Kind != KindUnavailable {
		t.Errorf("New(gemini) without key error = %v, want unavailable EngineError", err)
	}
}

func TestValidEngine(t *testing.T) {
	tests := map[string]bool{
		"":          true,
		"none":      true,
		"gemini":    true,
		"Tesseract": true,
		"easyocr":   false,
	}
	for name, want := range tests {
		if got := ValidEngine(name); got != want {
			t.Errorf("ValidEngine(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestEngineErrorTimeout(t *testing.T) {
	err := newEngineError(EngineGemini, KindFailed, context.DeadlineExceeded)
	if err.Kind != KindTimeout {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTimeout)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("EngineError does not unwrap to context.DeadlineExceeded")
	}
	if !strings.Contains(err.Error(), "gemini OCR timeout") {
		t.Errorf("Error() = %q, want engine and kind", err.Error())
	}
}

func TestParseImprintResponse(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`{"text": " 2021-07-04 18:22:01 25C "}`, "2021-07-04 18:22:01 25C", false},
		{"```json\n{\"text\": \"\"}\n```", "", false},
		{"2021-07-04 18:22:01", "2021-07-04 18:22:01", false},
		{"", "", false},
		{`{"text": `, "", true},
	}

	for _, tt := range tests {
		got, err := parseImprintResponse(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseImprintResponse(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseImprintResponse(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestGeminiRecognizeText(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"text\": \"MOULTRIE 2021-07-04 18:22:01\"}"}]}}]}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	client, err := newGeminiClient(ctx, &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	if err != nil {
		t.Fatalf("newGeminiClient() error = %v", err)
	}

	imgPath := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(imgPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 64, 48))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	g := NewGeminiWithClient(client, Config{GeminiModel: ModelGemini25FlashLite})
	text, err := g.RecognizeText(ctx, imgPath)
	if err != nil {
		t.Fatalf("RecognizeText() error = %v", err)
	}
	if text != "MOULTRIE 2021-07-04 18:22:01" {
		t.Errorf("RecognizeText() = %q, want %q", text, "MOULTRIE 2021-07-04 18:22:01")
	}
	if !strings.Contains(gotPath, ModelGemini25FlashLite) {
		t.Errorf("request path = %q, want model %s", gotPath, ModelGemini25FlashLite)
	}
}

func TestGetModelName(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "")
	if got := GetModelName(""); got != DefaultModelName {
		t.Errorf("GetModelName(\"\") = %q, want %q", got, DefaultModelName)
	}

	t.Setenv("GEMINI_MODEL", ModelGemini25Flash)
	if got := GetModelName(""); got != ModelGemini25Flash {
		t.Errorf("GetModelName(\"\") with env = %q, want %q", got, ModelGemini25Flash)
	}
	if got := GetModelName("custom"); got != "custom" {
		t.Errorf("GetModelName(custom) = %q, want custom", got)
	}
}
