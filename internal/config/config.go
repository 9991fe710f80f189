// Package config loads camtrap's YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fpang/camtrap/internal/filehandler"
	"github.com/fpang/camtrap/internal/ocr"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultTimeInterval = 30
	DefaultCSVFileName  = "exif_data.csv"
	DefaultSQLiteDBName = "exif_data.sqlite"
	DefaultOCRTimeout   = 30 * time.Second
	DefaultS3Prefix     = "camtrap"

	// DefaultOutputSubdir is created under the input directory when no
	// output directory is configured.
	DefaultOutputSubdir = "camtrap_output"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full configuration file.
type Config struct {
	Paths      Paths      `yaml:"paths"`
	Processing Processing `yaml:"processing"`
	Output     Output     `yaml:"output"`
	OCR        OCR        `yaml:"ocr"`
	Logging    Logging    `yaml:"logging"`
}

// Paths holds the input and output locations.
type Paths struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`

	// Reference overrides reference-table discovery.
	Reference string `yaml:"reference"`
}

// Processing holds batch settings.
type Processing struct {
	// TimeInterval is the independent-event window in minutes.
	TimeInterval int           `yaml:"time_interval"`
	Workers      int           `yaml:"workers"`
	OCREngine    string        `yaml:"ocr_engine"`
	OCRTimeout   time.Duration `yaml:"ocr_timeout"`

	// MaxDepth limits recursion below the input directory; 0 is unlimited.
	MaxDepth int `yaml:"max_depth"`
}

// Output selects the writers.
type Output struct {
	CSVFileName  string `yaml:"csv_file_name"`
	SQLiteDBName string `yaml:"sqlite_db_name"`
	SaveSQLite   *bool  `yaml:"save_sqlite"`
	Compress     bool   `yaml:"compress"`
	S3Bucket     string `yaml:"s3_bucket"`
	S3Prefix     string `yaml:"s3_prefix"`
}

// SQLiteEnabled reports whether the SQLite writer runs. Unset means on.
func (o Output) SQLiteEnabled() bool {
	return o.SaveSQLite == nil || *o.SaveSQLite
}

// OCR holds engine settings.
type OCR struct {
	GeminiModel   string `yaml:"gemini_model"`
	APIKeySSM     string `yaml:"api_key_ssm_param"`
	TesseractPath string `yaml:"tesseract_path"`
	TesseractLang string `yaml:"tesseract_lang"`

	// ImprintRegion is full, top or bottom.
	ImprintRegion   string  `yaml:"imprint_region"`
	ImprintFraction float64 `yaml:"imprint_fraction"`
}

// Logging holds log settings.
type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path and fills defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML and fills defaults. Unknown keys are rejected; an
// empty document yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Processing.TimeInterval == 0 {
		c.Processing.TimeInterval = DefaultTimeInterval
	}
	if c.Processing.OCREngine == "" {
		c.Processing.OCREngine = ocr.EngineNone
	}
	if c.Processing.OCRTimeout == 0 {
		c.Processing.OCRTimeout = DefaultOCRTimeout
	}
	if c.Output.CSVFileName == "" {
		c.Output.CSVFileName = DefaultCSVFileName
	}
	if c.Output.SQLiteDBName == "" {
		c.Output.SQLiteDBName = DefaultSQLiteDBName
	}
	if c.Output.S3Prefix == "" {
		c.Output.S3Prefix = DefaultS3Prefix
	}
}

// OutputDir returns Paths.Output, falling back to DefaultOutputSubdir under
// the input directory.
func (c *Config) OutputDir() string {
	if c.Paths.Output != "" {
		return c.Paths.Output
	}
	return filepath.Join(c.Paths.Input, DefaultOutputSubdir)
}

// Validate rejects values the batch cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Paths.Input == "" {
		errs = append(errs, errors.New("paths.input is required"))
	}
	if c.Processing.TimeInterval <= 0 {
		errs = append(errs, fmt.Errorf("processing.time_interval must be positive, got %d", c.Processing.TimeInterval))
	}
	if c.Processing.Workers < 0 {
		errs = append(errs, fmt.Errorf("processing.workers must not be negative, got %d", c.Processing.Workers))
	}
	if c.Processing.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("processing.max_depth must not be negative, got %d", c.Processing.MaxDepth))
	}
	if c.Processing.OCRTimeout < 0 {
		errs = append(errs, fmt.Errorf("processing.ocr_timeout must not be negative, got %s", c.Processing.OCRTimeout))
	}
	if !ocr.ValidEngine(c.Processing.OCREngine) {
		errs = append(errs, fmt.Errorf("%w: %q", ocr.ErrUnknownEngine, c.Processing.OCREngine))
	}
	if f := c.OCR.ImprintFraction; f < 0 || f > 1 {
		errs = append(errs, fmt.Errorf("ocr.imprint_fraction must be within [0, 1], got %g", f))
	}
	switch strings.ToLower(c.OCR.ImprintRegion) {
	case "", filehandler.RegionFull, filehandler.RegionTop, filehandler.RegionBottom:
	default:
		errs = append(errs, fmt.Errorf("ocr.imprint_region must be full, top or bottom, got %q", c.OCR.ImprintRegion))
	}
	if c.Output.CSVFileName == "" {
		errs = append(errs, errors.New("output.csv_file_name must not be empty"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// ImprintOptions converts the OCR section to filehandler options.
func (o OCR) ImprintOptions() filehandler.ImprintOptions {
	return filehandler.ImprintOptions{
		Region:   strings.ToLower(o.ImprintRegion),
		Fraction: o.ImprintFraction,
	}
}

// EngineConfig builds the ocr.Config for the configured engine. apiKey is
// resolved by the caller.
func (c *Config) EngineConfig(apiKey string) ocr.Config {
	return ocr.Config{
		Imprint:       c.OCR.ImprintOptions(),
		GeminiModel:   c.OCR.GeminiModel,
		APIKey:        apiKey,
		TesseractPath: c.OCR.TesseractPath,
		TesseractLang: c.OCR.TesseractLang,
	}
}
