package util

import (
	"fmt"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// FileCache memory-maps source files on first read and serves every
// subsequent read from the mapping, avoiding a fresh copy per parse.
// Safe for concurrent use.
type FileCache struct {
	mu      sync.RWMutex
	entries map[string]mmap.MMap
}

// NewFileCache returns an empty FileCache.
func NewFileCache() *FileCache {
	return &FileCache{entries: make(map[string]mmap.MMap)}
}

// Read returns path's contents, mapping the file on first access. The
// returned slice is only valid until Invalidate or Close is called for
// path.
func (c *FileCache) Read(path string) ([]byte, error) {
	c.mu.RLock()
	if m, ok := c.entries[path]; ok {
		c.mu.RUnlock()
		return []byte(m), nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.entries[path]; ok {
		return []byte(m), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("filecache: opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("filecache: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		// mmap.Map rejects zero-length files; there is nothing to map.
		c.entries[path] = nil
		return nil, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("filecache: mapping %s: %w", path, err)
	}
	c.entries[path] = m
	return []byte(m), nil
}

// Invalidate unmaps path, if cached, so the next Read re-reads it from
// disk. Used when a file-watch event reports a change.
func (c *FileCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.entries[path]; ok {
		if m != nil {
			_ = m.Unmap()
		}
		delete(c.entries, path)
	}
}

// Close unmaps every cached file. The FileCache must not be used after
// Close returns.
func (c *FileCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for path, m := range c.entries {
		if m != nil {
			if err := m.Unmap(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		delete(c.entries, path)
	}
	return firstErr
}
