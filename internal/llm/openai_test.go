package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/neurolocus/internal/model"
)

var knownSyndromes = []string{
	"Weber Syndrome",
	"Claude Syndrome",
	"Millard-Gubler Syndrome",
	"Foville Syndrome",
	"Lateral Pontine Syndrome",
	"Wallenberg Syndrome (Lateral Medullary)",
	"Medial Medullary Syndrome (Dejerine Syndrome)",
}

func chatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			_ = json.NewEncoder(w).Encode(openai.ModelsList{})
			return
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected /chat/completions, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %q", got)
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, "MUST ONLY name syndromes") {
			t.Errorf("Expected system and user messages with the allowlist rule, got %+v", req.Messages)
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			}},
			Usage: openai.Usage{TotalTokens: 120},
		})
	}))
}

func weberReport() model.Report {
	res := model.NewParsedResult()
	res.Level = model.LevelMidbrain
	res.Syndrome = &model.SyndromeMatch{
		SyndromeDef: model.SyndromeDef{Name: "Weber Syndrome", Level: model.LevelMidbrain},
		MatchScore:  1,
		Matched:     2,
		Required:    2,
	}
	res.Differential = []model.DifferentialEntry{
		{Name: "Weber Syndrome", Level: model.LevelMidbrain, Matched: 2, Required: 2, Confidence: 0.5},
		{Name: "Claude Syndrome", Level: model.LevelMidbrain, Matched: 1, Required: 2, Confidence: 0.25},
	}
	return model.Report{Subject: "case-1", Result: res}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newTestProvider(t *testing.T, url string, strict bool) *OpenAIProvider {
	t.Helper()
	p, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: url, Model: "gpt-4o-mini", Timeout: 5, Strict: strict})
	if err != nil {
		t.Fatalf("NewOpenAIProvider failed: %v", err)
	}
	return p
}

func TestOpenAIProvider_Narrate(t *testing.T) {
	server := chatServer(t, "Findings support a left midbrain lesion consistent with Weber syndrome; Claude syndrome is less likely.", http.StatusOK)
	defer server.Close()

	report := weberReport()
	resp, err := newTestProvider(t, server.URL, true).Narrate(context.Background(), NarrateRequest{
		Report:           report,
		AllowedSyndromes: AllowedSyndromes(report.Result),
		KnownSyndromes:   knownSyndromes,
	})
	if err != nil {
		t.Fatalf("Narrate failed: %v", err)
	}
	if resp.Model != "gpt-4o-mini" {
		t.Errorf("Expected model gpt-4o-mini, got %s", resp.Model)
	}
	if resp.TokensUsed != 120 {
		t.Errorf("Expected 120 tokens, got %d", resp.TokensUsed)
	}
	if want := []string{"Weber Syndrome", "Claude Syndrome"}; !equalStrings(resp.NamedSyndromes, want) {
		t.Errorf("Expected named %v, got %v", want, resp.NamedSyndromes)
	}
}

func TestOpenAIProvider_StrictRejectsLeak(t *testing.T) {
	server := chatServer(t, "This could also be Wallenberg syndrome.", http.StatusOK)
	defer server.Close()

	report := weberReport()
	req := NarrateRequest{
		Report:           report,
		AllowedSyndromes: AllowedSyndromes(report.Result),
		KnownSyndromes:   knownSyndromes,
	}

	_, err := newTestProvider(t, server.URL, true).Narrate(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "SYNDROME LEAK") {
		t.Fatalf("Expected SYNDROME LEAK error, got %v", err)
	}

	resp, err := newTestProvider(t, server.URL, false).Narrate(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected non-strict narration to pass, got %v", err)
	}
	if want := []string{"Wallenberg Syndrome (Lateral Medullary)"}; !equalStrings(resp.NamedSyndromes, want) {
		t.Errorf("Expected named %v, got %v", want, resp.NamedSyndromes)
	}
}

func TestOpenAIProvider_APIError(t *testing.T) {
	server := chatServer(t, "", http.StatusTooManyRequests)
	defer server.Close()

	_, err := newTestProvider(t, server.URL, true).Narrate(context.Background(), NarrateRequest{Report: weberReport()})
	if err == nil || !strings.Contains(err.Error(), "openai API error") {
		t.Errorf("Expected openai API error, got %v", err)
	}
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Error("Expected error without an API key")
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	if err != nil || p != nil {
		t.Errorf("Expected no provider and no error, got %v, %v", p, err)
	}

	p, err = NewProvider(Config{Provider: "ollama"})
	if err != nil {
		t.Fatalf("Expected ollama provider, got %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Expected name ollama, got %s", p.Name())
	}

	if _, err := NewProvider(Config{Provider: "anthropic"}); err == nil {
		t.Error("Expected error for unsupported provider")
	}
}

func TestNamedSyndromes(t *testing.T) {
	text := "Lateral pontine involvement; medial medullary pattern not seen. Dejerine is unrelated."
	got := NamedSyndromes(text, knownSyndromes)
	want := []string{"Lateral Pontine Syndrome", "Medial Medullary Syndrome (Dejerine Syndrome)"}
	if !equalStrings(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if got := NamedSyndromes("no syndromes here", knownSyndromes); len(got) != 0 {
		t.Errorf("Expected no syndromes, got %v", got)
	}
	if got := syndromeKey("Millard-Gubler Syndrome"); got != "millard-gubler" {
		t.Errorf("Expected key millard-gubler, got %s", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	report := weberReport()
	report.Result.CranialNerves = []model.NerveFinding{{CN: "CN III", Finding: model.Finding{Name: "Oculomotor", Side: model.SideLeft}}}

	prompt := BuildPrompt(report, AllowedSyndromes(report.Result))
	for _, want := range []string{
		"CRITICAL RULES",
		"- Weber Syndrome",
		"- Claude Syndrome",
		"Level: midbrain",
		"Best match: Weber Syndrome (2/2 findings)",
		"- left CN III (Oculomotor)",
		"NOT a diagnosis",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}

	empty := BuildPrompt(model.Report{}, nil)
	for _, want := range []string{"No syndromes; do not name any", "Level: not inferred"} {
		if !strings.Contains(empty, want) {
			t.Errorf("Empty prompt missing %q", want)
		}
	}
}
