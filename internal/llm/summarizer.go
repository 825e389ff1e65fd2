package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/neurolocus/internal/model"
)

// Summarizer attaches an optional narrative to reports
type Summarizer struct {
	provider Provider
	config   Config
	known    []string
}

// NewSummarizer creates a summarizer; known lists every Knowledge Base syndrome name
func NewSummarizer(config Config, known []string) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{
		provider: provider,
		config:   config,
		known:    append([]string(nil), known...),
	}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GenerateNarrative returns nil when disabled. Provider failures are reported
// as warnings on the narrative so localization output is never lost.
func (s *Summarizer) GenerateNarrative(ctx context.Context, report model.Report) (*model.Narrative, error) {
	if s.provider == nil {
		return nil, nil
	}

	if !s.provider.IsAvailable(ctx) {
		return &model.Narrative{
			Enabled:  false,
			Provider: s.provider.Name(),
			Strict:   s.config.Strict,
			Warnings: []string{fmt.Sprintf("Provider %s is not available", s.provider.Name())},
		}, nil
	}

	resp, err := s.provider.Narrate(ctx, NarrateRequest{
		Report:           report,
		AllowedSyndromes: AllowedSyndromes(report.Result),
		KnownSyndromes:   s.known,
		Model:            s.config.Model,
		MaxTokens:        s.config.MaxTokens,
	})
	if err != nil {
		return &model.Narrative{
			Enabled:  true,
			Provider: s.provider.Name(),
			Model:    s.config.Model,
			Strict:   s.config.Strict,
			Warnings: []string{fmt.Sprintf("Narrative generation failed: %v", err)},
		}, nil
	}

	warnings := []string{fmt.Sprintf("Tokens used: %d", resp.TokensUsed)}
	if len(resp.NamedSyndromes) > 0 {
		warnings = append(warnings, fmt.Sprintf("Verified %d syndrome names: %s", len(resp.NamedSyndromes), strings.Join(resp.NamedSyndromes, ", ")))
	}

	return &model.Narrative{
		Enabled:   true,
		Provider:  s.provider.Name(),
		Model:     resp.Model,
		Strict:    s.config.Strict,
		SummaryMD: resp.Summary,
		Warnings:  warnings,
	}, nil
}

// RenderSeparateMarkdown renders a narrative as its own Markdown document
func RenderSeparateMarkdown(n *model.Narrative) string {
	if n == nil || !n.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Narrative\n\n")
	b.WriteString("> **GENERATED CONTENT.** Level, syndrome and differential were determined independently by deterministic rules; this text only restates them.\n\n")
	fmt.Fprintf(&b, "- **Provider:** %s\n", n.Provider)
	if n.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", n.Model)
	}
	fmt.Fprintf(&b, "- **Strict syndrome allowlist:** %t\n\n", n.Strict)

	if n.SummaryMD == "" {
		b.WriteString("_No narrative generated._\n")
	} else {
		b.WriteString(n.SummaryMD)
		b.WriteString("\n")
	}

	if len(n.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range n.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
