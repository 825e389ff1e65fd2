package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/ppiankov/neurolocus/internal/model"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"note-1":          "note-1",
		"notes/a b:c.txt": "notes_a-b_c.txt",
		"  ..  ":          "note",
		"":                "note",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
	if got := sanitizeFilename(strings.Repeat("x", 150)); len(got) != 100 {
		t.Errorf("expected 100 chars, got %d", len(got))
	}
}

func TestReadInput(t *testing.T) {
	defer func() { inputFile, transcriptFile, htmlInput = "", "", false }()

	text, subject, err := readInput([]string{"left", "ptosis"}, nil)
	if err != nil || text != "left ptosis" || subject != "command line" {
		t.Errorf("args: got %q %q %v", text, subject, err)
	}

	text, subject, err = readInput(nil, strings.NewReader("right hemiparesis"))
	if err != nil || text != "right hemiparesis" || subject != "stdin" {
		t.Errorf("stdin: got %q %q %v", text, subject, err)
	}

	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "note.html")
	if err := os.WriteFile(htmlPath, []byte("<html><head><title>x</title></head><body><p>left ptosis</p><script>right()</script></body></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	inputFile, htmlInput = htmlPath, true
	text, subject, err = readInput(nil, nil)
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if !strings.Contains(text, "left ptosis") || strings.Contains(text, "right") {
		t.Errorf("html: unexpected visible text %q", text)
	}
	if subject != htmlPath {
		t.Errorf("html: subject %q", subject)
	}
	inputFile, htmlInput = "", false

	transcript := filepath.Join(dir, "interview.json")
	if err := os.WriteFile(transcript, []byte(`[{"role":"patient","content":"left ptosis"},{"role":"x","content":7},{"role":"doctor","content":"right hemiparesis"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	transcriptFile = transcript
	text, _, err = readInput(nil, nil)
	if err != nil || text != "left ptosis right hemiparesis" {
		t.Errorf("transcript: got %q %v", text, err)
	}

	transcriptFile = filepath.Join(dir, "missing.json")
	if _, _, err := readInput(nil, nil); err == nil {
		t.Error("expected error for missing transcript")
	}
}

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".neurolocus", "config.yaml")

	if err := initConfigFile(path); err != nil {
		t.Fatalf("initConfigFile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# Neurolocus configuration", "window_chars: 30", "requests_per_second: 20"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("config file missing %q", want)
		}
	}

	if err := initConfigFile(path); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestLoadConfig_EnvAndFile(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "extraction:\n  window_chars: 12\ncache:\n  memory_ttl: 5m\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NEUROLOCUS_MATCHING_STRICT_LATERALITY", "true")
	t.Setenv("NEUROLOCUS_LLM_API_KEY", "sk-test")

	cfgFile = path
	defer func() { cfgFile = "" }()
	initConfig()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Extraction.WindowChars != 12 {
		t.Errorf("window_chars from file: got %d", cfg.Extraction.WindowChars)
	}
	if cfg.Cache.MemoryTTL.Minutes() != 5 {
		t.Errorf("memory_ttl from file: got %v", cfg.Cache.MemoryTTL)
	}
	if !cfg.Matching.StrictLaterality {
		t.Error("strict_laterality from env not applied")
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("api key from env: got %q", cfg.LLM.APIKey)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default addr lost: %q", cfg.Server.Addr)
	}
	if redact(cfg).LLM.APIKey == "sk-test" {
		t.Error("redact must hide the api key")
	}
}

func TestApplyFlags(t *testing.T) {
	defer func() { noCache, strictSides, llmEnabled = false, false, false }()

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "openai"
	noCache, strictSides = true, true

	if err := applyFlags(localizeCmd, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Enabled || !cfg.Matching.StrictLaterality {
		t.Error("flags not applied")
	}
	if cfg.LLM.Provider != "" {
		t.Error("provider must be cleared when --llm is off")
	}

	t.Setenv("OPENAI_API_KEY", "")
	llmEnabled = true
	cfg = model.DefaultConfig()
	if err := applyFlags(localizeCmd, cfg); err == nil {
		t.Error("expected error for openai without a key")
	}
}

func TestLocalizeCommand(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	t.Setenv("HOME", t.TempDir())

	out := filepath.Join(t.TempDir(), "report.json")
	rootCmd.SetArgs([]string{"localize", "--no-cache", "--no-color", "--json", out, "left CN III palsy with right hemiparesis"})
	rootCmd.SetOut(&bytes.Buffer{})
	defer func() { outJSON, noCache, noColor = "", false, false }()

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("localize: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var report model.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatal(err)
	}
	if report.Result == nil || report.Result.Syndrome == nil || report.Result.Syndrome.Name != "Weber Syndrome" {
		t.Errorf("expected Weber Syndrome, got %+v", report.Result)
	}
	if report.Subject != "command line" {
		t.Errorf("subject: %q", report.Subject)
	}
}

func TestKBValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	bad := "version: x\nsyndromes:\n  - name: S\n    level: pons\n    findings:\n      - {refs: [nope], role: ipsi, label: n}\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"kb", "validate", path})
	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "configuration error") {
		t.Errorf("expected configuration error, got %v", err)
	}
}
