package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/strata/pkg/cache"
	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() is invalid: %v", err)
	}
	if cfg.Layout.RankSep != 50 || cfg.Layout.NodeSep != 50 || cfg.Layout.EdgeSep != 20 {
		t.Errorf("layout defaults = %+v", cfg.Layout)
	}
	if cfg.Cache.Backend != cache.BackendFile || cfg.Cache.TTL != cache.TTLLayout {
		t.Errorf("cache defaults = %+v", cfg.Cache)
	}
	if cfg.Server.Workers < 1 || cfg.Server.Timeout <= 0 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "strata.toml", `
[layout]
rankdir = "LR"
ranksep = 40
ranker = "longest-path"

[cache]
backend = "null"
ttl = "72h"

[server]
addr = ":9090"
workers = 2
timeout = "5s"
cors_origins = ["https://a.example", "https://b.example"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Layout.RankDir != "LR" || cfg.Layout.RankSep != 40 || cfg.Layout.Ranker != "longest-path" {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Layout.NodeSep != 50 {
		t.Errorf("NodeSep = %v, want default 50", cfg.Layout.NodeSep)
	}
	if cfg.Cache.Backend != cache.BackendNull || cfg.Cache.TTL != 72*time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.Workers != 2 || cfg.Server.Timeout != 5*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if !slices.Equal(cfg.Server.CORSOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}

	l := cfg.Layout.Label()
	if l.RankDir != graph.RankDirLR || l.Ranker != graph.RankerLongestPath {
		t.Errorf("Label() = %+v", l)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "strata.yaml", `
layout:
  align: ul
  marginx: 12
cache:
  backend: redis
  redis_url: "redis://localhost:6379/1"
server:
  max_body_bytes: 1024
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Layout.Align != "ul" || cfg.Layout.MarginX != 12 {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	opts := cfg.Cache.Options()
	if opts.Backend != cache.BackendRedis || opts.RedisURL != "redis://localhost:6379/1" {
		t.Errorf("Options() = %+v", opts)
	}
	if cfg.Server.MaxBodyBytes != 1024 {
		t.Errorf("MaxBodyBytes = %d", cfg.Server.MaxBodyBytes)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "strata.toml", `
[layout]
rankdir = "lr"
[server]
workers = 2
`)
	t.Setenv("STRATA_LAYOUT_RANKDIR", "bt")
	t.Setenv("STRATA_LAYOUT_NODESEP", "15.5")
	t.Setenv("STRATA_SERVER_WORKERS", "8")
	t.Setenv("STRATA_SERVER_TIMEOUT", "1m")
	t.Setenv("STRATA_CORS_ORIGINS", "https://x.example, https://y.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Layout.RankDir != "bt" || cfg.Layout.NodeSep != 15.5 {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Server.Workers != 8 || cfg.Server.Timeout != time.Minute {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if !slices.Equal(cfg.Server.CORSOrigins, []string{"https://x.example", "https://y.example"}) {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		env  map[string]string
		code errors.Code
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.toml") },
			code: errors.ErrCodeFileNotFound,
		},
		{
			name: "unknown extension",
			path: func(t *testing.T) string { return writeFile(t, "strata.ini", "x=1") },
			code: errors.ErrCodeInvalidFormat,
		},
		{
			name: "malformed toml",
			path: func(t *testing.T) string { return writeFile(t, "strata.toml", "[layout\n") },
			code: errors.ErrCodeInvalidFormat,
		},
		{
			name: "malformed yaml",
			path: func(t *testing.T) string { return writeFile(t, "strata.yml", "layout: [") },
			code: errors.ErrCodeInvalidFormat,
		},
		{
			name: "bad rankdir",
			path: func(t *testing.T) string { return writeFile(t, "strata.toml", "[layout]\nrankdir = \"diagonal\"\n") },
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "redis without url",
			path: func(t *testing.T) string { return writeFile(t, "strata.toml", "[cache]\nbackend = \"redis\"\n") },
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "unknown backend",
			path: func(t *testing.T) string { return "" },
			env:  map[string]string{"STRATA_CACHE_BACKEND": "memcached"},
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "bad env number",
			path: func(t *testing.T) string { return "" },
			env:  map[string]string{"STRATA_SERVER_WORKERS": "many"},
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "zero workers",
			path: func(t *testing.T) string { return "" },
			env:  map[string]string{"STRATA_SERVER_WORKERS": "0"},
			code: errors.ErrCodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.path(t))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestAcyclicerSpelling(t *testing.T) {
	for in, want := range map[string]graph.Acyclicer{
		"dfs":    graph.AcyclicerDFS,
		"DFS":    graph.AcyclicerDFS,
		"greedy": graph.AcyclicerGreedy,
		"":       graph.AcyclicerDFS,
	} {
		if got := (LayoutConfig{Acyclicer: in}).Label().Acyclicer; got != want {
			t.Errorf("acyclicer %q -> %q, want %q", in, got, want)
		}
	}
}
