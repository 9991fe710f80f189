package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fpang/camtrap/internal/batch"
	"github.com/fpang/camtrap/internal/ocr"
)

const rule = "============================================"

// PrintBanner writes the run header.
func PrintBanner(w io.Writer, root, engine string, interval int) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Camera Trap Event Indexer")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Directory: %s\n", root)
	fmt.Fprintf(w, "Independent interval: %d min\n", interval)
	if engine == "" || strings.EqualFold(engine, ocr.EngineNone) {
		fmt.Fprintln(w, "OCR engine: none (imprint stage skipped)")
	} else {
		fmt.Fprintf(w, "OCR engine: %s\n", engine)
	}
	fmt.Fprintln(w, "--------------------------------------------")
}

// PrintSummary writes the run totals, the files written and every warning.
func PrintSummary(w io.Writer, res *batch.Result, written, uploaded []string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run: %s\n", res.RunID)
	fmt.Fprintf(w, "Files scanned: %d (skipped %d)\n", res.Files, res.Skipped)
	fmt.Fprintf(w, "Records: %d (independent %d)\n", len(res.Records), res.Independent())
	fmt.Fprintf(w, "Time sources: %s\n", FormatStages(res.Stages))
	if res.ReferencePath != "" {
		fmt.Fprintf(w, "Reference table: %s\n", res.ReferencePath)
	}
	fmt.Fprintf(w, "Elapsed: %s\n", FormatDurationShort(res.Duration))

	if len(written) > 0 {
		fmt.Fprintln(w, "--------------------------------------------")
		for _, path := range written {
			fmt.Fprintf(w, "Wrote %s\n", path)
		}
		for _, key := range uploaded {
			fmt.Fprintf(w, "Uploaded %s\n", key)
		}
	}

	if len(res.Warnings) > 0 {
		fmt.Fprintln(w, "--------------------------------------------")
		fmt.Fprintf(w, "Warnings (%d):\n", len(res.Warnings))
		for _, warning := range res.Warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
	}
	fmt.Fprintln(w, rule)
}
