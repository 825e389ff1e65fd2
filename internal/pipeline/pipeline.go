package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/neurolocus/internal/cache"
	"github.com/ppiankov/neurolocus/internal/knowledge"
	"github.com/ppiankov/neurolocus/internal/llm"
	"github.com/ppiankov/neurolocus/internal/model"
)

// Pipeline localizes notes and renders reports
type Pipeline struct {
	localizer  *Localizer
	renderer   *Renderer
	summarizer *llm.Summarizer // nil when no LLM provider is configured
	logger     *zap.Logger
	config     *model.Config
}

// NewPipeline creates a pipeline over kb with the given configuration
func NewPipeline(kb *knowledge.Base, cfg *model.Config, logger *zap.Logger) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM), syndromeNames(kb))
		if err != nil {
			logger.Warn("LLM narrative disabled", zap.Error(err))
		} else {
			summarizer = s
		}
	}

	return &Pipeline{
		localizer: NewLocalizer(kb, cfg,
			WithCache(cache.New(cfg.Cache), cfg.Cache.MemoryTTL),
			WithLogger(logger),
		),
		renderer:   NewRenderer(cfg.Output.IncludeFooter, cfg.Output.Color),
		summarizer: summarizer,
		logger:     logger,
		config:     cfg,
	}
}

// Localizer returns the underlying localizer
func (p *Pipeline) Localizer() *Localizer {
	return p.localizer
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Analyze localizes text and wraps the result in a report.
// The optional narrative is generated afterwards and never changes the result.
func (p *Pipeline) Analyze(ctx context.Context, subject, text string) *model.Report {
	report := &model.Report{
		Subject:          subject,
		Input:            text,
		GeneratedAt:      time.Now().UTC(),
		KnowledgeVersion: p.localizer.Knowledge().Version(),
		Result:           p.localizer.Localize(text),
		Principles:       model.DefaultPrinciples(),
	}

	if p.summarizer != nil && p.summarizer.IsEnabled() {
		narrative, err := p.summarizer.GenerateNarrative(ctx, *report)
		if err != nil {
			p.logger.Warn("narrative generation failed", zap.String("subject", subject), zap.Error(err))
		} else if narrative != nil {
			report.Narrative = narrative
		}
	}

	return report
}

// RenderReport writes the requested outputs and prints a terminal summary
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	if report.Narrative != nil && report.Narrative.Enabled && mdPath != "" {
		narrativePath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
		if err := p.renderer.RenderText(llm.RenderSeparateMarkdown(report.Narrative), narrativePath); err != nil {
			p.logger.Warn("failed to write narrative", zap.String("path", narrativePath), zap.Error(err))
		} else if verbose {
			fmt.Printf("✓ Wrote LLM narrative: %s\n", narrativePath)
		}
	}

	p.renderer.RenderSummary(nil, report)
	return nil
}

func syndromeNames(kb *knowledge.Base) []string {
	syndromes := kb.Syndromes()
	names := make([]string, len(syndromes))
	for i, s := range syndromes {
		names[i] = s.Name
	}
	return names
}
