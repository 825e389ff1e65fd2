// Package llm writes an optional narrative for a localization report.
// The narrative is produced after localization and never changes the result.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/neurolocus/internal/model"
)

// Provider is a chat model that can narrate a report
type Provider interface {
	// Name returns the provider name
	Name() string

	// Narrate writes a short narrative of the report
	Narrate(ctx context.Context, req NarrateRequest) (*NarrateResponse, error)

	// IsAvailable checks that the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// NarrateRequest is the input for one narrative
type NarrateRequest struct {
	Report model.Report

	// AllowedSyndromes are the only syndromes the narrative may name:
	// the best match and the differential of the report.
	AllowedSyndromes []string

	// KnownSyndromes is every syndrome of the Knowledge Base, used to detect leaks
	KnownSyndromes []string

	Prompt    string // overrides the default prompt when set
	Model     string
	MaxTokens int
}

// NarrateResponse is the provider output
type NarrateResponse struct {
	Summary        string
	NamedSyndromes []string // known syndromes the narrative mentions
	Model          string
	TokensUsed     int
}

// Config holds provider configuration
type Config struct {
	Provider   string // "openai", "ollama" or "" (disabled)
	Model      string
	APIKey     string
	BaseURL    string
	Timeout    int // seconds
	Strict     bool
	MaxTokens  int
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns the disabled configuration with strict mode on
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		Strict:    true,
		MaxTokens: 600,
	}
}

// AllowedSyndromes lists the syndromes a narrative of result may name
func AllowedSyndromes(result *model.ParsedResult) []string {
	if result == nil {
		return nil
	}
	var names []string
	if result.Syndrome != nil {
		names = append(names, result.Syndrome.Name)
	}
	for _, d := range result.Differential {
		if !contains(names, d.Name) {
			names = append(names, d.Name)
		}
	}
	return names
}

// BuildPrompt constructs the default narrative prompt
func BuildPrompt(report model.Report, allowed []string) string {
	res := report.Result
	if res == nil {
		res = model.NewParsedResult()
	}

	var b strings.Builder
	b.WriteString(`You are summarizing a deterministic brainstem lesion localization. The localization is a fixed rule-based result; it is NOT a diagnosis.

CRITICAL RULES:
1. You MUST ONLY name syndromes from this allowed list:
`)
	b.WriteString(joinList(allowed, "(No syndromes; do not name any)"))
	b.WriteString(`

2. DO NOT add findings, levels or syndromes that are not listed below.
3. Describe the result as localization support, never as a confirmed diagnosis.
4. Mention laterality (ipsilateral cranial nerve, contralateral long tract) when it is present.

Localization:
`)
	fmt.Fprintf(&b, "- Subject: %s\n", report.Subject)
	fmt.Fprintf(&b, "- Level: %s\n", levelOrNone(res.Level))
	fmt.Fprintf(&b, "- Overall confidence: %.2f\n", res.Confidence)
	if res.Syndrome != nil {
		fmt.Fprintf(&b, "- Best match: %s (%d/%d findings)\n", res.Syndrome.Name, res.Syndrome.Matched, res.Syndrome.Required)
	} else {
		b.WriteString("- Best match: none above threshold\n")
	}

	b.WriteString("\nFindings:\n")
	for _, f := range res.CranialNerves {
		fmt.Fprintf(&b, "- %s %s (%s)\n", f.Side, f.CN, f.Name)
	}
	for _, f := range res.Tracts {
		fmt.Fprintf(&b, "- %s %s\n", f.Side, f.Name)
	}
	for _, f := range res.Additional {
		fmt.Fprintf(&b, "- %s %s\n", f.Side, f.Name)
	}
	if res.FindingCount() == 0 {
		b.WriteString("- none\n")
	}

	if len(res.Differential) > 0 {
		b.WriteString("\nDifferential:\n")
		for i, d := range res.Differential {
			fmt.Fprintf(&b, "%d. %s (%s, confidence %.2f)\n", i+1, d.Name, d.Level, d.Confidence)
		}
	}

	b.WriteString("\nProvide a 3-4 sentence clinical summary of the localization.")
	return b.String()
}

func joinList(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString("\n- ")
		b.WriteString(item)
	}
	return b.String()
}

func levelOrNone(l model.Level) string {
	if l == model.LevelNone {
		return "not inferred"
	}
	return string(l)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
