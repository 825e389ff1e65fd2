package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/neurolocus/internal/model"
)

func TestKey(t *testing.T) {
	a := Key("2025.1", "left CN VI palsy")
	b := Key("2025.1", "left CN VI palsy")
	if a != b {
		t.Errorf("Expected stable keys, got %s and %s", a, b)
	}
	if !strings.HasPrefix(a, "neurolocus:v1:2025.1:") {
		t.Errorf("Unexpected key prefix: %s", a)
	}
	if Key("2025.2", "left CN VI palsy") == a {
		t.Error("Expected a new Knowledge Base version to change the key")
	}
	if Key("2025.1", "right CN VI palsy") == a {
		t.Error("Expected different text to change the key")
	}
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}

	value := []byte(`{"level":"pons"}`)
	if err := c.Set("k", value, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value[0] = 'X'

	got, ok := c.Get("k")
	if !ok || string(got) != `{"level":"pons"}` {
		t.Errorf("Expected stored copy, got %q (%v)", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("short", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Error("Expected entry to expire")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("test", "ptosis")

	if err := c.Set(key, []byte("result"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(key)
	if !ok || string(got) != "result" {
		t.Errorf("Expected result, got %q (%v)", got, ok)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected exactly one file, got %d", len(entries))
	}
	if strings.Contains(entries[0].Name(), ":") {
		t.Errorf("Expected colons to be replaced in file name, got %s", entries[0].Name())
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}
}

func TestDiskCache_ExpiredAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	_ = c.Set("old", []byte("v"), time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get("old"); ok {
		t.Error("Expected expired entry to miss")
	}
	if _, err := os.Stat(c.path("old")); !os.IsNotExist(err) {
		t.Error("Expected expired entry file to be removed")
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("Expected corrupt entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	// simulate a previous process that only left the disk entry
	if err := NewDiskCache(dir, time.Hour).Set("k", []byte("from disk"), 0); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get("k")
	if !ok || string(got) != "from disk" {
		t.Fatalf("Expected disk hit, got %q (%v)", got, ok)
	}
	if _, ok := c.memory.Get("k"); !ok {
		t.Error("Expected disk hit to be promoted to memory")
	}

	if err := c.Clear(); err != nil {
		t.Errorf("Clear failed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after clear")
	}
}

func TestNew(t *testing.T) {
	if c := New(model.CacheConfig{Enabled: false}); c != nil {
		t.Error("Expected nil cache when disabled")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}).(*MemoryCache); !ok {
		t.Error("Expected memory cache without a directory")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, Dir: t.TempDir()}).(*LayeredCache); !ok {
		t.Error("Expected layered cache with a directory")
	}
}
