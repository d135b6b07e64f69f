package build

import (
	"encoding/hex"
	"os"
	"sort"
	"sync"

	"golang.org/x/crypto/blake2b"
)

const cacheVersion = 1

// Cache remembers the digest of every source compiled successfully, so an
// incremental build can skip files whose input and settings are unchanged.
type Cache struct {
	path string

	mu      sync.Mutex
	entries map[string]string
	dirty   bool
}

type manifest struct {
	Version int               `yaml:"version"`
	Entries map[string]string `yaml:"entries"`
}

// OpenCache loads the manifest at path. A missing file, or one written by a
// different cache version, starts empty.
func OpenCache(path string) (*Cache, error) {
	var m manifest
	if err := readYAML(path, &m); err != nil {
		return nil, err
	}
	c := &Cache{path: path, entries: m.Entries}
	if m.Version != cacheVersion || c.entries == nil {
		c.entries = make(map[string]string)
	}
	return c, nil
}

// Digest hashes a source together with the settings that shape its output.
func Digest(settings string, src []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(settings))
	h.Write([]byte{0})
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}

// Fresh reports whether key was last compiled with the same digest.
func (c *Cache) Fresh(key, digest string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key] == digest
}

// Record stores the digest of a successful compile.
func (c *Cache) Record(key, digest string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[key] != digest {
		c.entries[key] = digest
		c.dirty = true
	}
}

// Forget drops key, e.g. after a failed or protected compile.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.dirty = true
	}
}

// Keys returns the cached source keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes the manifest if anything changed.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	m := manifest{Version: cacheVersion, Entries: c.entries}
	if err := writeYAML(c.path, m, 0o644); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
