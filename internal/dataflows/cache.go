package dataflows

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache is a file-backed response cache keyed by provider, method and
// request parameters. Entries expire by file mtime; a disabled cache
// is a no-op so call sites never branch on it.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

func NewCache(dir string, ttl time.Duration, enabled bool) *Cache {
	return &Cache{dir: dir, ttl: ttl, enabled: enabled}
}

func (c *Cache) key(provider, method string, params any) string {
	data, _ := json.Marshal(params)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s_%s_%x.json", provider, method, sum[:8])
}

// Get loads a non-expired entry into result and reports whether it hit.
func (c *Cache) Get(provider, method string, params, result any) bool {
	if !c.enabled {
		return false
	}
	path := filepath.Join(c.dir, c.key(provider, method, params))
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > c.ttl {
		os.Remove(path)
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, result) == nil
}

// Set stores an entry. Cache writes are best effort.
func (c *Cache) Set(provider, method string, params, data any) error {
	if !c.enabled {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, c.key(provider, method, params)), payload, 0o644)
}
