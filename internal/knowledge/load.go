package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/brainstem.yaml
var embeddedBrainstem []byte

var (
	defaultOnce sync.Once
	defaultBase *Base
	defaultErr  error
)

// Default returns the embedded brainstem Knowledge Base, parsed once per process
func Default() (*Base, error) {
	defaultOnce.Do(func() {
		defaultBase, defaultErr = parse(embeddedBrainstem, "embedded")
	})
	return defaultBase, defaultErr
}

// Parse decodes and validates a YAML Knowledge Base document
func Parse(raw []byte) (*Base, error) {
	return parse(raw, "")
}

// LoadFile reads, decodes and validates a YAML Knowledge Base file
func LoadFile(path string) (*Base, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	return parse(raw, path)
}

// Load returns the file at path, or the embedded default when path is empty
func Load(path string) (*Base, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// EmbeddedYAML returns a copy of the embedded Knowledge Base document
func EmbeddedYAML() []byte {
	return append([]byte(nil), embeddedBrainstem...)
}

func parse(raw []byte, source string) (*Base, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, &ConfigurationError{Source: source, Problems: []string{fmt.Sprintf("decode yaml: %v", err)}}
	}

	b, err := New(data)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) && cfgErr.Source == "" {
			cfgErr.Source = source
		}
		return nil, err
	}
	return b, nil
}
