package quantize

import (
	"fmt"
	"os"
	"path/filepath"
)

// Cache is an explicit, session-injected LUT cache rather than a
// module-level singleton. It is opened lazily and, once a LUT file exists,
// is read-only: concurrent sessions may share the same directory safely.
type Cache struct {
	dir string
}

// NewCache returns a Cache rooted at dir. dir is created on first write,
// not at construction.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// LUT returns the cached byte slice for key, building and persisting it
// via build if absent. The write is atomic: build's output is written to a
// temp file in dir and renamed into place, so concurrent builders never
// observe a partial file.
func (c *Cache) LUT(key string, build func() []byte) ([]byte, error) {
	path := c.path(key)

	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("quantize: read cache %s: %w", path, err)
	}

	data := build()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("quantize: create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, "lut-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("quantize: create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("quantize: write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("quantize: close temp cache file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("quantize: rename cache file into place: %w", err)
	}

	return data, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("lut-%s.bin", key))
}
