package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fpang/camtrap/internal/batch"
	"github.com/fpang/camtrap/internal/cli"
	"github.com/fpang/camtrap/internal/config"
	"github.com/fpang/camtrap/internal/filehandler"
	"github.com/fpang/camtrap/internal/logging"
	"github.com/fpang/camtrap/internal/metrics"
	"github.com/fpang/camtrap/internal/output"
	"github.com/fpang/camtrap/internal/reftable"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// processFlags holds the process command's flag values. File settings are
// only overridden by flags the user actually set.
type processFlags struct {
	configPath string
	input      string
	output     string
	reference  string
	interval   int
	engine     string
	workers    int
	ocrTimeout time.Duration
	maxDepth   int
	skipSQLite bool
	compress   bool
	s3Bucket   string
	s3Prefix   string
	logLevel   string
	metrics    string
}

func newProcessCmd() *cobra.Command {
	f := &processFlags{}
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Index one directory of camera-trap media",
		Long: `Process scans a directory of camera-trap media, resolves each file's capture
time and writes the resulting event table.

Capture times come from, in order: a reference CSV in the directory, the
embedded EXIF or container time, the imprint text read by OCR, the previous
record, and finally 2000-01-01 00:00:00. OCR is off by default, so the
imprint stage is skipped unless --ocr selects an engine.

Results go to --output, or to a camtrap_output folder inside the input
directory when no output directory is given.

Examples:
  camtrap process -i /data/JC38
  camtrap process -i /data/JC38 -o /data/out -t 60
  camtrap process -i /data/JC38 --ocr tesseract --ocr-timeout 20s
  camtrap process --config camtrap.yaml --s3-bucket camtrap-results`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fl.StringVarP(&f.input, "input", "i", "", "Directory containing camera-trap media")
	fl.StringVarP(&f.output, "output", "o", "", "Output directory (default: <input>/camtrap_output)")
	fl.StringVar(&f.reference, "reference", "", "Reference CSV of file names and capture times (default: discovered in the input directory)")
	fl.IntVarP(&f.interval, "time-interval", "t", config.DefaultTimeInterval, "Independent-event interval in minutes")
	fl.StringVar(&f.engine, "ocr", "none", "OCR engine for imprint text: none, gemini or tesseract (default none skips the OCR stage)")
	fl.IntVar(&f.workers, "workers", 0, "Concurrent metadata and OCR workers (0 = number of CPUs)")
	fl.DurationVar(&f.ocrTimeout, "ocr-timeout", config.DefaultOCRTimeout, "Timeout for each OCR call")
	fl.IntVar(&f.maxDepth, "max-depth", 0, "Maximum recursion depth (0 = unlimited)")
	fl.BoolVar(&f.skipSQLite, "skip-sqlite", false, "Do not write the SQLite database")
	fl.BoolVar(&f.compress, "compress", false, "Also bundle the outputs into a zstd ZIP")
	fl.StringVar(&f.s3Bucket, "s3-bucket", "", "Upload outputs to this S3 bucket")
	fl.StringVar(&f.s3Prefix, "s3-prefix", "", "Key prefix for S3 uploads")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fl.StringVar(&f.metrics, "metrics", "", "Write an EMF metrics summary to this file (- for stdout)")

	return cmd
}

// apply overlays the flags the user set onto cfg.
func (f *processFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.Paths.Input = f.input
	}
	if changed("output") {
		cfg.Paths.Output = f.output
	}
	if changed("reference") {
		cfg.Paths.Reference = f.reference
	}
	if changed("time-interval") {
		cfg.Processing.TimeInterval = f.interval
	}
	if changed("ocr") {
		cfg.Processing.OCREngine = f.engine
	}
	if changed("workers") {
		cfg.Processing.Workers = f.workers
	}
	if changed("ocr-timeout") {
		cfg.Processing.OCRTimeout = f.ocrTimeout
	}
	if changed("max-depth") {
		cfg.Processing.MaxDepth = f.maxDepth
	}
	if changed("skip-sqlite") {
		save := !f.skipSQLite
		cfg.Output.SaveSQLite = &save
	}
	if changed("compress") {
		cfg.Output.Compress = f.compress
	}
	if changed("s3-bucket") {
		cfg.Output.S3Bucket = f.s3Bucket
	}
	if changed("s3-prefix") {
		cfg.Output.S3Prefix = f.s3Prefix
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
}

func runProcess(cmd *cobra.Command, f *processFlags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	f.apply(cmd, cfg)

	closer, err := logging.Init(cfg.Logging.Level, cfg.Logging.File)
	defer closer.Close()
	if err != nil {
		log.Warn().Err(err).Msg("Logging to console only")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	root, err := cli.ResolveDirectory(cfg.Paths.Input)
	if err != nil {
		return err
	}
	cfg.Paths.Input = root

	ctx := cmd.Context()
	recognizer, err := cli.NewRecognizer(ctx, cfg)
	if err != nil {
		return err
	}

	logStartup(cfg)
	out := cmd.OutOrStdout()
	cli.PrintBanner(out, root, cfg.Processing.OCREngine, cfg.Processing.TimeInterval)

	opts := batch.Options{
		Root:             root,
		ReferencePath:    cfg.Paths.Reference,
		ReferenceExclude: []string{cfg.Output.CSVFileName},
		IntervalMinutes:  cfg.Processing.TimeInterval,
		Workers:          cfg.Processing.Workers,
		OCRTimeout:       cfg.Processing.OCRTimeout,
		Scanner:          filehandler.Scanner{Options: filehandler.ScanOptions{MaxDepth: cfg.Processing.MaxDepth}},
		Metadata:         filehandler.NewReader(),
		Recognizer:       recognizer,
		Reference:        batch.ReferenceLoaderFunc(reftable.Load),
	}

	res, err := batch.Run(ctx, opts)
	if err != nil {
		return err
	}

	written, err := output.Save(ctx, output.Options{
		Dir:          cfg.OutputDir(),
		CSVFileName:  cfg.Output.CSVFileName,
		SQLiteDBName: cfg.Output.SQLiteDBName,
		SaveSQLite:   cfg.Output.SQLiteEnabled(),
		Compress:     cfg.Output.Compress,
	}, res.RunID, res.Records, res.StartedAt)
	if err != nil {
		return err
	}

	var uploaded []string
	if cfg.Output.S3Bucket != "" {
		uploaded, err = upload(ctx, cfg, res.RunID, written)
		if err != nil {
			return err
		}
	}

	cli.PrintSummary(out, res, written, uploaded)

	if f.metrics != "" {
		if err := writeMetrics(f.metrics, cfg, res); err != nil {
			log.Warn().Err(err).Msg("Failed to write metrics")
		}
	}
	return nil
}

func logStartup(cfg *config.Config) {
	sl := logging.NewStartupLogger("camtrap process").
		Version(version).
		Input("root", cfg.Paths.Input).
		Output("dir", cfg.OutputDir()).
		Output("csv", cfg.Output.CSVFileName).
		Feature("sqlite", cfg.Output.SQLiteEnabled()).
		Feature("compress", cfg.Output.Compress).
		Feature("s3", cfg.Output.S3Bucket != "").
		Config("ocrEngine", cfg.Processing.OCREngine).
		Config("timeInterval", fmt.Sprintf("%d", cfg.Processing.TimeInterval)).
		Config("ocrTimeout", cfg.Processing.OCRTimeout.String())
	if cfg.Paths.Reference != "" {
		sl.Input("reference", cfg.Paths.Reference)
	}
	if cfg.Output.SQLiteEnabled() {
		sl.Output("sqlite", cfg.Output.SQLiteDBName)
	}
	if cfg.Output.S3Bucket != "" {
		sl.Output("s3", cfg.Output.S3Bucket+"/"+cfg.Output.S3Prefix)
	}
	if cfg.OCR.APIKeySSM != "" {
		sl.SSMParam("geminiApiKey", cfg.OCR.APIKeySSM)
	}
	sl.Log()
}

func upload(ctx context.Context, cfg *config.Config, runID string, files []string) ([]string, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Debug().Str("region", awsCfg.Region).Msg("AWS config loaded")

	u := output.NewUploader(s3.NewFromConfig(awsCfg), cfg.Output.S3Bucket, cfg.Output.S3Prefix)
	return u.Upload(ctx, runID, files)
}

func writeMetrics(dest string, cfg *config.Config, res *batch.Result) error {
	var w io.Writer = os.Stdout
	if dest != "-" {
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open metrics file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return recordBatch(w, cfg, res)
}

// recordBatch emits one EMF document summarizing res.
func recordBatch(w io.Writer, cfg *config.Config, res *batch.Result) error {
	rec := metrics.New(w, metrics.Namespace).
		Dimension("Command", "process").
		Dimension("OCREngine", strings.ToLower(cfg.Processing.OCREngine)).
		Count("FilesScanned", res.Files).
		Count("FilesSkipped", res.Skipped).
		Count("Records", len(res.Records)).
		Count("IndependentEvents", res.Independent()).
		Count("Warnings", len(res.Warnings)).
		Metric("DurationMs", float64(res.Duration.Milliseconds()), metrics.UnitMilliseconds).
		Property("runId", res.RunID).
		Property("root", cfg.Paths.Input)
	for stage, n := range res.Stages {
		rec.Count("Stage_"+stage.String(), n)
	}
	return rec.Flush()
}
