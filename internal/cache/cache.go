// Package cache memoizes localization results by Knowledge Base version and input text
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/neurolocus/internal/model"
)

// Cache stores opaque encoded results
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key identifies the result of localizing text against one Knowledge Base version.
// A new version never sees results computed by an older one.
func Key(kbVersion, text string) string {
	hash := sha256.Sum256([]byte(text))
	return "neurolocus:v1:" + kbVersion + ":" + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg: memory only, memory over disk, or nil when disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, cleanupInterval(cfg.MemoryTTL))
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 10 * time.Minute
	}
	return ttl / 2
}
