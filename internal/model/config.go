package model

import "time"

// Config is the complete runtime configuration.
// Hierarchy (highest first): CLI flags, NEUROLOCUS_* env vars, config file, defaults.
type Config struct {
	Knowledge    KnowledgeConfig    `yaml:"knowledge" mapstructure:"knowledge"`
	Extraction   ExtractionConfig   `yaml:"extraction" mapstructure:"extraction"`
	Matching     MatchingConfig     `yaml:"matching" mapstructure:"matching"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// KnowledgeConfig selects the Knowledge Base
type KnowledgeConfig struct {
	// Path to a YAML Knowledge Base. Empty uses the embedded default.
	Path string `yaml:"path" mapstructure:"path"`
}

// ExtractionConfig tunes the lexical finding extractor
type ExtractionConfig struct {
	WindowChars    int  `yaml:"window_chars" mapstructure:"window_chars"`       // side-resolution window on each side of a match
	AllOccurrences bool `yaml:"all_occurrences" mapstructure:"all_occurrences"` // resolve every mention, one finding per distinct side
}

// MatchingConfig tunes the syndrome matcher
type MatchingConfig struct {
	// StrictLaterality requires ipsi tags on the lesion side and contra tags opposite it.
	StrictLaterality bool `yaml:"strict_laterality" mapstructure:"strict_laterality"`
}

// CacheConfig controls result memoization
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // empty disables the disk layer
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch workers
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig controls per-client HTTP rate limiting
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// LLMConfig controls the optional report narrative
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // "openai", "ollama" or "" (disabled)
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	Strict     bool   `yaml:"strict" mapstructure:"strict"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
	Color         bool `yaml:"color" mapstructure:"color"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			WindowChars: 30,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 20,
			BurstSize:         40,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 600,
			Strict:    true,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			Color:         true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
