// Package local stores snapshots as JSON files on the local filesystem.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/scene"
)

// Config holds local backend settings.
type Config struct {
	Path string `json:"path"`
}

// Store keeps one JSON file per logical root under a directory.
type Store struct {
	dir string
}

// New creates a local snapshot store, creating the directory if needed.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot dir %s: %w", cfg.Path, err)
	}
	return &Store{dir: cfg.Path}, nil
}

// fileFor maps a root name to a filesystem-safe JSON path.
func (s *Store) fileFor(root string) string {
	return filepath.Join(s.dir, safeName(root)+".json")
}

// safeName replaces path-hostile characters in a root name.
func safeName(root string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", ";", "_")
	return r.Replace(root)
}

// Load reads and decodes the snapshot for a root. Returns an error
// satisfying errors.Is(err, fs.ErrNotExist) when absent.
func (s *Store) Load(_ context.Context, root string) (*scene.Node, error) {
	data, err := os.ReadFile(s.fileFor(root))
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", root, err)
	}
	var tree scene.Node
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", root, err)
	}
	return &tree, nil
}

// Save encodes and writes the snapshot atomically (temp file then
// rename).
func (s *Store) Save(_ context.Context, root string, tree *scene.Node) error {
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", root, err)
	}

	path := s.fileFor(root)
	tmp, err := os.CreateTemp(s.dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", root, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, strings.NewReader(string(data))); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot %s: %w", root, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot %s: %w", root, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename snapshot %s: %w", root, err)
	}
	return nil
}

// List returns the stored root names.
func (s *Store) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var roots []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		roots = append(roots, strings.TrimSuffix(name, ".json"))
	}
	return roots, nil
}

// Delete removes the snapshot for a root. Missing snapshots are not an
// error.
func (s *Store) Delete(_ context.Context, root string) error {
	if err := os.Remove(s.fileFor(root)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete snapshot %s: %w", root, err)
	}
	return nil
}

// Type returns "local".
func (s *Store) Type() string { return "local" }

// Close is a no-op for the local backend.
func (s *Store) Close() error { return nil }
