package llm

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/neurolocus/internal/util"
)

// OpenAIProvider narrates reports through an OpenAI-compatible chat API
type OpenAIProvider struct {
	client *openai.Client
	config Config
	name   string
}

// NewOpenAIProvider creates a provider; an API key is required
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.HTTPProxy != "" || config.HTTPSProxy != "" {
		clientConfig.HTTPClient = &http.Client{
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		}
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   "openai",
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable lists models as a lightweight reachability check
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Narrate asks the chat model for a narrative and enforces the syndrome allowlist in strict mode
func (p *OpenAIProvider) Narrate(ctx context.Context, req NarrateRequest) (*NarrateResponse, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Report, req.AllowedSyndromes)
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 600
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You summarize rule-based neurological localizations. You never diagnose and never name syndromes outside the allowed list.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", p.name)
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	named := NamedSyndromes(summary, req.KnownSyndromes)

	if p.config.Strict {
		for _, name := range named {
			if !contains(req.AllowedSyndromes, name) {
				return nil, fmt.Errorf("SYNDROME LEAK: narrative names %q, which is not in the result", name)
			}
		}
	}

	return &NarrateResponse{
		Summary:        summary,
		NamedSyndromes: named,
		Model:          model,
		TokensUsed:     resp.Usage.TotalTokens,
	}, nil
}

// NamedSyndromes returns the known syndromes mentioned in text.
// A syndrome is recognized by its distinctive part, e.g. "Weber" for "Weber Syndrome".
func NamedSyndromes(text string, known []string) []string {
	lower := strings.ToLower(text)
	var named []string
	for _, name := range known {
		key := syndromeKey(name)
		if key == "" {
			continue
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\b`)
		if re.MatchString(lower) {
			named = append(named, name)
		}
	}
	return named
}

// syndromeKey strips the trailing "Syndrome ..." from a syndrome name
func syndromeKey(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if i := strings.Index(lower, " syndrome"); i > 0 {
		lower = lower[:i]
	}
	return strings.TrimSpace(lower)
}
