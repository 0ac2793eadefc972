// Package images caches downloaded raster bytes on disk so re-imports
// skip unchanged downloads.
package images

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/logging"
)

// entry tracks one cached image.
type entry struct {
	localPath  string
	size       int64
	lastAccess time.Time
}

// Cache manages locally cached image files, bounded by total size.
type Cache struct {
	dir     string
	maxSize int64

	mu      sync.Mutex
	entries map[string]*entry
	size    int64
}

// New creates an image cache rooted at dir.
func New(dir string, maxSize int64) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create image cache dir: %w", err)
	}
	c := &Cache{
		dir:     dir,
		maxSize: maxSize,
		entries: make(map[string]*entry),
	}
	c.scan()
	return c, nil
}

// scan picks up files left by a previous run.
func (c *Cache) scan() {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasSuffix(de.Name(), ".tmp") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		c.entries[de.Name()] = &entry{
			localPath:  filepath.Join(c.dir, de.Name()),
			size:       info.Size(),
			lastAccess: info.ModTime(),
		}
		c.size += info.Size()
	}
}

// cacheKey converts an image id to a filesystem-safe name.
func cacheKey(id string) string {
	r := strings.NewReplacer("/", "_", ":", "_", ";", "_")
	return r.Replace(id)
}

// Get returns the local path for a cached image id.
func (c *Cache) Get(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey(id)]
	if !ok {
		return "", false
	}
	e.lastAccess = time.Now()
	return e.localPath, true
}

// Put stores image bytes, evicting least-recently-used entries when the
// size bound would be exceeded. Writes are atomic (temp then rename).
func (c *Cache) Put(id string, r io.Reader) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(id)
	localPath := filepath.Join(c.dir, key)
	tmpPath := localPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	written, err := io.Copy(f, r)
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("write image %s: %w", id, err)
	}

	for c.maxSize > 0 && c.size+written > c.maxSize {
		if !c.evictOldest() {
			break
		}
	}

	if err := os.Rename(tmpPath, localPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename image %s: %w", id, err)
	}

	if old, ok := c.entries[key]; ok {
		c.size -= old.size
	}
	c.entries[key] = &entry{
		localPath:  localPath,
		size:       written,
		lastAccess: time.Now(),
	}
	c.size += written

	return localPath, nil
}

// evictOldest removes the least recently used entry. Returns false when
// the cache is empty.
func (c *Cache) evictOldest() bool {
	var oldestKey string
	var oldest *entry
	for k, e := range c.entries {
		if oldest == nil || e.lastAccess.Before(oldest.lastAccess) {
			oldestKey, oldest = k, e
		}
	}
	if oldest == nil {
		return false
	}

	os.Remove(oldest.localPath)
	c.size -= oldest.size
	delete(c.entries, oldestKey)
	logging.Debug("evicted cached image", zap.String("key", oldestKey))
	return true
}

// Size returns the current total cached bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
