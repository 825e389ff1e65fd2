package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/neurolocus/internal/model"
	"github.com/ppiankov/neurolocus/internal/pipeline"
	"github.com/ppiankov/neurolocus/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	outXLSX      string
	batchTimeout time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Localize many notes from a file in parallel",
	Long: `Batch localizes one note per line of the input file:
- blank lines and lines starting with # are skipped
- repeated notes are localized once
- one JSON and one Markdown report is written per note
- an optional XLSX workbook summarizes the whole batch

Example:
  neurolocus batch notes.txt
  neurolocus batch notes.txt --concurrency 8 --output-dir ./reports
  neurolocus batch notes.txt --xlsx summary.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers, else CPU count)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./neurolocus-reports", "output directory for reports")
	batchCmd.Flags().StringVar(&outXLSX, "xlsx", "", "write a summary workbook to this path")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	addCommonFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	kb, err := loadKnowledge(cfg)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Neurolocus Batch Localization\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Knowledge:    %s\n", kb.Version())
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p := pipeline.NewPipeline(kb, cfg, logger)

	// narratives call a remote API; plain localization is not throttled
	var rps float64
	if cfg.LLM.Provider != "" {
		rps = cfg.RateLimiting.RequestsPerSecond
	}
	processor := worker.NewBatchProcessor(p, workers, rps, cfg.RateLimiting.BurstSize)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	summary := summarizeBatch(results, p.Renderer(), outputDir)

	if outXLSX != "" {
		if err := p.Renderer().RenderWorkbook(summary.reports, outXLSX); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote workbook: %s\n", outXLSX)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:      %d notes\n", len(results))
	fmt.Fprintf(os.Stderr, "  Localized:  %d\n", summary.localized)
	fmt.Fprintf(os.Stderr, "  Failures:   %d\n", summary.failures)
	fmt.Fprintf(os.Stderr, "  Output:     %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if summary.failures > 0 {
		return fmt.Errorf("%d of %d notes failed", summary.failures, len(results))
	}
	return nil
}

type batchSummary struct {
	reports   []*model.Report
	localized int
	failures  int
}

// summarizeBatch writes per-note reports and counts outcomes
func summarizeBatch(results []*worker.NoteResult, renderer *pipeline.Renderer, dir string) batchSummary {
	var s batchSummary
	for _, result := range results {
		if result.Error != nil {
			s.failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Subject, result.Error)
			continue
		}
		s.reports = append(s.reports, result.Report)

		slug := sanitizeFilename(result.Subject)
		jsonPath := filepath.Join(dir, slug+".json")
		mdPath := filepath.Join(dir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			s.failures++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Subject, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			s.failures++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Subject, err)
			continue
		}

		s.localized++
		fmt.Fprintf(os.Stderr, "✓ %s: %s\n", result.Subject, oneLine(result.Report.Result))
	}
	return s
}

func oneLine(res *model.ParsedResult) string {
	level := string(res.Level)
	if level == "" {
		level = "no level"
	}
	if res.Syndrome == nil {
		return fmt.Sprintf("%s, %d findings", level, res.FindingCount())
	}
	return fmt.Sprintf("%s, %s (%.2f)", level, res.Syndrome.Name, res.Syndrome.MatchScore)
}

// sanitizeFilename turns a subject into a safe base file name
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")
	if s == "" {
		s = "note"
	}

	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
