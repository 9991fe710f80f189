package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWritesLogFile(t *testing.T) {
	saved := log.Logger
	savedLevel := zerolog.GlobalLevel()
	defer func() {
		log.Logger = saved
		zerolog.SetGlobalLevel(savedLevel)
	}()

	path := filepath.Join(t.TempDir(), "logs", "camtrap.log")
	closer, err := Init("debug", path)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	log.Debug().Str("file", "IMG_0001.JPG").Msg("probe")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, data)
	}
	if entry["message"] != "probe" || entry["file"] != "IMG_0001.JPG" {
		t.Errorf("log entry = %v", entry)
	}
}

func TestInitLevelFromEnv(t *testing.T) {
	saved := log.Logger
	savedLevel := zerolog.GlobalLevel()
	defer func() {
		log.Logger = saved
		zerolog.SetGlobalLevel(savedLevel)
	}()

	t.Setenv(EnvLogLevel, "error")
	if _, err := Init("", ""); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if got := zerolog.GlobalLevel(); got != zerolog.ErrorLevel {
		t.Errorf("GlobalLevel() = %v, want error", got)
	}
}

func TestStartupLoggerLog(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	NewStartupLogger("camtrap").
		Version("dev").
		Run("run-1", time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)).
		Input("root", "/data/site").
		Output("csv", "/data/out/exif_data.csv").
		Feature("sqlite", true).
		Config("ocrEngine", "none").
		Log()

	var entry struct {
		Message string            `json:"message"`
		Run     map[string]string `json:"run"`
		Inputs  map[string]string `json:"inputs"`
		Outputs map[string]string `json:"outputs"`
		Feature map[string]bool   `json:"features"`
		Config  map[string]string `json:"config"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v (%s)", err, buf.String())
	}
	if entry.Message != "Batch starting" {
		t.Errorf("message = %q", entry.Message)
	}
	if entry.Run["runId"] != "run-1" || entry.Run["version"] != "dev" {
		t.Errorf("run = %v", entry.Run)
	}
	if entry.Inputs["root"] != "/data/site" || entry.Outputs["csv"] != "/data/out/exif_data.csv" {
		t.Errorf("inputs = %v, outputs = %v", entry.Inputs, entry.Outputs)
	}
	if !entry.Feature["sqlite"] || entry.Config["ocrEngine"] != "none" {
		t.Errorf("features = %v, config = %v", entry.Feature, entry.Config)
	}
}
