package config

import (
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIBaseURL != "https://api.figma.com" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.SnapshotBackend != "local" {
		t.Errorf("SnapshotBackend = %q, want local", cfg.SnapshotBackend)
	}
	if cfg.RenderScale != 1.0 || cfg.RenderFormat != "png" {
		t.Errorf("render defaults = %v/%q", cfg.RenderScale, cfg.RenderFormat)
	}
	if cfg.Pages != nil {
		t.Errorf("Pages = %v, want nil (all pages)", cfg.Pages)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FIGMA_TOKEN", "figd_test")
	t.Setenv("FIGMA_FILE_KEY", "abc123")
	t.Setenv("FIGMA_PAGES", "1:1, 1:2,")
	t.Setenv("FIGMA_RENDER_SCALE", "2.0")
	t.Setenv("FIGMA_CENTER_PIVOT", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Token != "figd_test" || cfg.FileKey != "abc123" {
		t.Errorf("credentials = %q/%q", cfg.Token, cfg.FileKey)
	}
	if want := []string{"1:1", "1:2"}; !reflect.DeepEqual(cfg.Pages, want) {
		t.Errorf("Pages = %v, want %v", cfg.Pages, want)
	}
	if cfg.RenderScale != 2.0 {
		t.Errorf("RenderScale = %v, want 2", cfg.RenderScale)
	}
	if !cfg.CenterPivot {
		t.Error("CenterPivot not set")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown backend", "SNAPSHOT_BACKEND", "ftp"},
		{"s3 without bucket", "SNAPSHOT_BACKEND", "s3"},
		{"non-positive scale", "FIGMA_RENDER_SCALE", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load accepted %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestEnvHelpersFallBack(t *testing.T) {
	t.Setenv("TEST_BOOL", "not-a-bool")
	if envBool("TEST_BOOL", true) != true {
		t.Error("envBool should fall back on parse failure")
	}
	t.Setenv("TEST_INT", "xyz")
	if envInt64("TEST_INT", 42) != 42 {
		t.Error("envInt64 should fall back on parse failure")
	}
	if envOr("TEST_UNSET_KEY", "fallback") != "fallback" {
		t.Error("envOr should fall back when unset")
	}
}
