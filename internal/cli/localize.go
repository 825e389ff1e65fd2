package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/neurolocus/internal/extract"
	"github.com/ppiankov/neurolocus/internal/model"
	"github.com/ppiankov/neurolocus/internal/pipeline"
)

var (
	outJSON         string
	outMD           string
	inputFile       string
	transcriptFile  string
	htmlInput       bool
	localizeTimeout time.Duration
	noCache         bool
	noFooter        bool
	noColor         bool
	allOccurrences  bool
	strictSides     bool
	llmEnabled      bool
	llmProvider     string
	llmModel        string
)

var localizeCmd = &cobra.Command{
	Use:   "localize [text...]",
	Short: "Localize the findings of one clinical note",
	Long: `Localize extracts cranial nerve, long-tract and localizing signs from
clinical text, infers the brainstem level, matches classical syndromes
and prints a ranked differential.

The note is taken from the arguments, --file, --transcript or stdin.

Example:
  neurolocus localize "left CN III palsy with right hemiparesis"
  neurolocus localize --file note.txt --json report.json --md report.md
  neurolocus localize --file note.html --html
  neurolocus localize --transcript interview.json
  neurolocus localize "right facial droop, left hemiparesis" --llm --llm-provider ollama`,
	RunE: runLocalize,
}

func init() {
	rootCmd.AddCommand(localizeCmd)

	localizeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	localizeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	localizeCmd.Flags().StringVarP(&inputFile, "file", "f", "", "read the note from a file (- for stdin)")
	localizeCmd.Flags().StringVar(&transcriptFile, "transcript", "", "read a JSON interview transcript ([{role, content}])")
	localizeCmd.Flags().BoolVar(&htmlInput, "html", false, "treat the input as HTML and localize its visible text")
	localizeCmd.Flags().DurationVar(&localizeTimeout, "timeout", time.Minute, "overall timeout, including the LLM narrative")

	addCommonFlags(localizeCmd)
}

// addCommonFlags registers the flags shared by localize and batch
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result memoization")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable coloured terminal output")
	cmd.Flags().BoolVar(&allOccurrences, "all-occurrences", false, "resolve every mention of a finding, one finding per side")
	cmd.Flags().BoolVar(&strictSides, "strict-laterality", false, "require ipsilateral and contralateral findings on consistent sides")

	cmd.Flags().BoolVar(&llmEnabled, "llm", false, "add an LLM narrative to the report")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

// applyFlags layers the command flags over the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *model.Config) error {
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if noColor {
		cfg.Output.Color = false
	}
	if allOccurrences {
		cfg.Extraction.AllOccurrences = true
	}
	if strictSides {
		cfg.Matching.StrictLaterality = true
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	if !llmEnabled {
		cfg.LLM.Provider = ""
		return nil
	}

	if cmd.Flags().Changed("llm-provider") || cfg.LLM.Provider == "" {
		cfg.LLM.Provider = llmProvider
	}
	if cmd.Flags().Changed("llm-model") || cfg.LLM.Model == "" {
		cfg.LLM.Model = llmModel
	}
	cfg.LLM.Strict = true

	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY (or NEUROLOCUS_LLM_API_KEY) environment variable not set")
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
	return nil
}

func runLocalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	text, subject, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	kb, err := loadKnowledge(cfg)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), localizeTimeout)
	defer cancel()

	p := pipeline.NewPipeline(kb, cfg, logger)
	report := p.Analyze(ctx, subject, text)

	if verbose {
		res := report.Result
		fmt.Fprintf(os.Stderr, "✓ Knowledge Base %s\n", report.KnowledgeVersion)
		fmt.Fprintf(os.Stderr, "✓ Extracted %d cranial nerve, %d tract and %d additional findings\n",
			len(res.CranialNerves), len(res.Tracts), len(res.Additional))
		if report.Narrative != nil && report.Narrative.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated narrative using %s/%s\n", report.Narrative.Provider, report.Narrative.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

// readInput resolves the note text from arguments, --file, --transcript or stdin
func readInput(args []string, stdin io.Reader) (text, subject string, err error) {
	switch {
	case transcriptFile != "":
		raw, err := os.ReadFile(transcriptFile)
		if err != nil {
			return "", "", fmt.Errorf("read transcript: %w", err)
		}
		var messages []pipeline.Message
		if err := json.Unmarshal(raw, &messages); err != nil {
			return "", "", fmt.Errorf("parse transcript %s: %w", transcriptFile, err)
		}
		return pipeline.TranscriptText(messages), transcriptFile, nil

	case inputFile != "":
		var raw []byte
		if inputFile == "-" {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(inputFile)
		}
		if err != nil {
			return "", "", fmt.Errorf("read note: %w", err)
		}
		text, subject = string(raw), inputFile

	case len(args) > 0:
		text, subject = strings.Join(args, " "), "command line"

	default:
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		text, subject = string(raw), "stdin"
	}

	if htmlInput {
		visible, err := extract.VisibleText(text)
		if err != nil {
			return "", "", fmt.Errorf("parse HTML: %w", err)
		}
		text = visible
	}
	return text, subject, nil
}
