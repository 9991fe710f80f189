package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fpang/camtrap/internal/ocr"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Processing.TimeInterval != DefaultTimeInterval {
		t.Errorf("TimeInterval = %d, want %d", cfg.Processing.TimeInterval, DefaultTimeInterval)
	}
	if cfg.Output.CSVFileName != "exif_data.csv" || cfg.Output.SQLiteDBName != "exif_data.sqlite" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if !cfg.Output.SQLiteEnabled() {
		t.Error("SQLiteEnabled() = false, want true by default")
	}
	if cfg.Processing.OCREngine != ocr.EngineNone {
		t.Errorf("OCREngine = %q, want %q", cfg.Processing.OCREngine, ocr.EngineNone)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
paths:
  input: /data/JC38
  output: /data/out
processing:
  time_interval: 60
  workers: 4
  ocr_engine: tesseract
  ocr_timeout: 10s
output:
  save_sqlite: false
  compress: true
  s3_bucket: camtrap-results
ocr:
  imprint_region: bottom
  imprint_fraction: 0.1
logging:
  level: debug
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Paths.Input != "/data/JC38" || cfg.OutputDir() != "/data/out" {
		t.Errorf("Paths = %+v", cfg.Paths)
	}
	if cfg.Processing.TimeInterval != 60 || cfg.Processing.Workers != 4 {
		t.Errorf("Processing = %+v", cfg.Processing)
	}
	if cfg.Processing.OCRTimeout != 10*time.Second {
		t.Errorf("OCRTimeout = %s, want 10s", cfg.Processing.OCRTimeout)
	}
	if cfg.Output.SQLiteEnabled() {
		t.Error("SQLiteEnabled() = true, want false")
	}
	if cfg.Output.CSVFileName != DefaultCSVFileName {
		t.Errorf("CSVFileName = %q, want default", cfg.Output.CSVFileName)
	}
	if cfg.Output.S3Prefix != DefaultS3Prefix {
		t.Errorf("S3Prefix = %q, want default", cfg.Output.S3Prefix)
	}
	opts := cfg.OCR.ImprintOptions()
	if opts.Region != "bottom" || opts.Fraction != 0.1 {
		t.Errorf("ImprintOptions() = %+v", opts)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestParseEmptyAndUnknownKeys(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if cfg.Processing.TimeInterval != DefaultTimeInterval {
		t.Errorf("TimeInterval = %d, want default", cfg.Processing.TimeInterval)
	}

	if _, err := Parse([]byte("processing:\n  interval: 5\n")); err == nil {
		t.Error("Parse() error = nil, want error for unknown key")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing input", func(c *Config) { c.Paths.Input = "" }, "paths.input"},
		{"negative interval", func(c *Config) { c.Processing.TimeInterval = -5 }, "time_interval"},
		{"negative workers", func(c *Config) { c.Processing.Workers = -1 }, "workers"},
		{"unknown engine", func(c *Config) { c.Processing.OCREngine = "easyocr" }, "unknown OCR engine"},
		{"bad region", func(c *Config) { c.OCR.ImprintRegion = "left" }, "imprint_region"},
		{"bad fraction", func(c *Config) { c.OCR.ImprintFraction = 2 }, "imprint_fraction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Paths.Input = "/data"
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %q, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camtrap.yaml")
	if err := os.WriteFile(path, []byte("paths:\n  input: /data/site\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Paths.Input != "/data/site" || cfg.OutputDir() != filepath.Join("/data/site", DefaultOutputSubdir) {
		t.Errorf("Paths = %+v, OutputDir() = %q", cfg.Paths, cfg.OutputDir())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() error = nil for missing file")
	}
}
