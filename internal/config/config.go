// Package config loads bridge configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all bridge configuration.
type Config struct {
	// Figma API
	APIBaseURL string
	Token      string
	FileKey    string

	// Pages to import (Figma page node ids). Empty = all pages.
	Pages []string

	// Server rendering
	RenderScale  float64
	RenderFormat string // png, svg, jpg

	// Layout
	CenterPivot bool

	// Logging
	LogLevel  string
	LogFormat string

	// Metrics (empty = disabled)
	MetricsAddr string

	// Snapshot storage ("local" or "s3")
	SnapshotBackend string
	SnapshotPath    string

	// S3 snapshot backend
	S3Endpoint  string
	S3Bucket    string
	S3Prefix    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool

	// Image cache
	ImageCacheDir     string
	ImageCacheMaxSize int64
}

// Load reads configuration from environment variables with defaults.
// The Figma token and file key are left optional here; commands that
// talk to the API validate them before use.
func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL:   envOr("FIGMA_API_URL", "https://api.figma.com"),
		Token:        envOr("FIGMA_TOKEN", ""),
		FileKey:      envOr("FIGMA_FILE_KEY", ""),
		Pages:        envList("FIGMA_PAGES"),
		RenderScale:  envFloat("FIGMA_RENDER_SCALE", 1.0),
		RenderFormat: envOr("FIGMA_RENDER_FORMAT", "png"),
		CenterPivot:  envBool("FIGMA_CENTER_PIVOT", false),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "console"),

		MetricsAddr: envOr("METRICS_ADDR", ""),

		SnapshotBackend: envOr("SNAPSHOT_BACKEND", "local"),
		SnapshotPath:    envOr("SNAPSHOT_PATH", ".figma-bridge/snapshots"),

		S3Endpoint:  envOr("S3_ENDPOINT", ""),
		S3Bucket:    envOr("S3_BUCKET", ""),
		S3Prefix:    envOr("S3_PREFIX", "snapshots/"),
		S3AccessKey: envOr("S3_ACCESS_KEY", ""),
		S3SecretKey: envOr("S3_SECRET_KEY", ""),
		S3Region:    envOr("S3_REGION", "us-east-1"),
		S3UseSSL:    envBool("S3_USE_SSL", true),

		ImageCacheDir:     envOr("IMAGE_CACHE_DIR", ".figma-bridge/images"),
		ImageCacheMaxSize: envInt64("IMAGE_CACHE_MAX_SIZE", 512*1024*1024),
	}

	if cfg.SnapshotBackend != "local" && cfg.SnapshotBackend != "s3" {
		return nil, fmt.Errorf("unknown SNAPSHOT_BACKEND %q (want local or s3)", cfg.SnapshotBackend)
	}
	if cfg.SnapshotBackend == "s3" && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when SNAPSHOT_BACKEND=s3")
	}
	if cfg.RenderScale <= 0 {
		return nil, fmt.Errorf("FIGMA_RENDER_SCALE must be positive")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
