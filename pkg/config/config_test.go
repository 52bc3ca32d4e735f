package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/annoview/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "annoview.toml", `
[layout]
canvas_width = 1024
arc_spacing = 12.5

[cache]
backend = "none"

[watch]
debounce = "250ms"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layout.CanvasWidth != 1024 {
		t.Errorf("CanvasWidth = %v, want 1024", cfg.Layout.CanvasWidth)
	}
	if cfg.Layout.ArcSpacing != 12.5 {
		t.Errorf("ArcSpacing = %v, want 12.5", cfg.Layout.ArcSpacing)
	}
	if cfg.Layout.MarginY != Default().Layout.MarginY {
		t.Errorf("unset keys should keep their default")
	}
	if cfg.Cache.Backend != BackendNone {
		t.Errorf("Cache.Backend = %q", cfg.Cache.Backend)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Watch.Debounce)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "annoview.yaml", `
layout:
  canvas_width: 640
store:
  backend: mongo
  mongo_uri: mongodb://localhost:27017
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layout.CanvasWidth != 640 {
		t.Errorf("CanvasWidth = %v, want 640", cfg.Layout.CanvasWidth)
	}
	if cfg.Store.Backend != BackendMongo || cfg.Store.MongoDB != "annoview" {
		t.Errorf("Store = %+v", cfg.Store)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	for _, tc := range []struct{ name, content string }{
		{"bad.toml", "[layout]\ncanvas_wdth = 3\n"},
		{"bad.yml", "layout:\n  canvas_wdth: 3\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.name, tc.content))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Fatalf("Load() error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvRedisAddr, "redis.internal:6379")
	t.Setenv(EnvServerURL, "https://docs.example.org")
	path := writeFile(t, "annoview.toml", "[cache]\nbackend = \"redis\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.RedisAddr != "redis.internal:6379" {
		t.Errorf("RedisAddr = %q", cfg.Cache.RedisAddr)
	}
	if cfg.Client.BaseURL != "https://docs.example.org" {
		t.Errorf("BaseURL = %q", cfg.Client.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"redis without addr", func(c *Config) { c.Cache.Backend = BackendRedis }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"mongo without uri", func(c *Config) { c.Store.Backend = BackendMongo }},
		{"unknown store", func(c *Config) { c.Store.Backend = "s3" }},
		{"bad client url", func(c *Config) { c.Client.BaseURL = "ftp://x" }},
		{"bad layout", func(c *Config) { c.Layout.CanvasWidth = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Validate() = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatTOML, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			want := Default()
			want.Layout.CanvasWidth = 999
			data, err := Encode(want, format)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got := Default()
			if err := Decode(data, format, &got); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got.Layout.CanvasWidth != 999 || got.Server.Addr != want.Server.Addr {
				t.Errorf("round trip lost values: %+v", got)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{
		"a.toml": FormatTOML,
		"a.YAML": FormatYAML,
		"a.yml":  FormatYAML,
		"a":      FormatTOML,
	}
	for path, want := range cases {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
