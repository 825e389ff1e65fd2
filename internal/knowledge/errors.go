package knowledge

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports a Knowledge Base that must not be served:
// a syndrome or territory references an id that does not exist, two
// definitions share an identity, or a field holds an invalid value.
type ConfigurationError struct {
	Source   string   // file or "embedded"; empty when built from Data directly
	Problems []string // one entry per problem, in discovery order
}

func (e *ConfigurationError) Error() string {
	prefix := "knowledge base configuration error"
	if e.Source != "" {
		prefix = fmt.Sprintf("%s (%s)", prefix, e.Source)
	}
	if len(e.Problems) == 1 {
		return prefix + ": " + e.Problems[0]
	}
	return fmt.Sprintf("%s: %d problems:\n  - %s", prefix, len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

// IsConfigurationError reports whether err wraps a *ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
