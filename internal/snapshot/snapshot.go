// Package snapshot persists generated scene trees between import runs,
// keyed by logical root name (page, screen or component). The previous
// run's tree is the backup the merge engine reconciles against.
package snapshot

import (
	"context"
	"fmt"

	"github.com/Nate-Bowman/UnityFigmaBridge/internal/scene"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/snapshot/local"
	"github.com/Nate-Bowman/UnityFigmaBridge/internal/snapshot/s3"
)

// Store persists scene trees by root name. Implementations must return
// an error satisfying errors.Is(err, fs.ErrNotExist) from Load when no
// snapshot exists for the root.
type Store interface {
	// Load retrieves the snapshot for a logical root.
	Load(ctx context.Context, root string) (*scene.Node, error)

	// Save overwrites the snapshot for a logical root. Callers save only
	// after a successful generation so a failed run never clobbers the
	// last good backup.
	Save(ctx context.Context, root string, tree *scene.Node) error

	// List returns the root names with stored snapshots.
	List(ctx context.Context) ([]string, error)

	// Delete removes the snapshot for a logical root.
	Delete(ctx context.Context, root string) error

	// Type returns the backend type identifier ("local", "s3").
	Type() string

	// Close releases any resources held by the store.
	Close() error
}

// Config selects and configures a snapshot backend.
type Config struct {
	Backend string // "local" or "s3"

	// local
	Path string

	// s3
	S3Endpoint  string
	S3Bucket    string
	S3Prefix    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
}

// New creates a Store from config.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "local":
		return local.New(local.Config{Path: cfg.Path})
	case "s3":
		return s3.New(ctx, s3.Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
		})
	default:
		return nil, fmt.Errorf("unknown snapshot backend: %s", cfg.Backend)
	}
}
