// Package config loads strata settings from a TOML or YAML file, a .env file
// and STRATA_* environment variables.
//
// Precedence, lowest first: [Default], the configuration file, the
// environment (including variables set by .env). Options inside an input
// graph document override the layout section for that graph only.
//
// Example strata.toml:
//
//	[layout]
//	rankdir = "lr"
//	ranksep = 40
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "72h"
//
//	[server]
//	addr = ":8080"
//	workers = 4
//	cors_origins = ["https://example.com"]
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/strata/pkg/cache"
	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout"
)

// EnvPrefix prefixes every environment variable read by [Load].
const EnvPrefix = "STRATA_"

// Config is the complete configuration.
type Config struct {
	Layout LayoutConfig `toml:"layout" yaml:"layout"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
	Server ServerConfig `toml:"server" yaml:"server"`
}

// LayoutConfig holds default graph options. Zero values select the engine
// defaults.
type LayoutConfig struct {
	RankDir   string  `toml:"rankdir" yaml:"rankdir"`
	Align     string  `toml:"align" yaml:"align"`
	NodeSep   float64 `toml:"nodesep" yaml:"nodesep"`
	EdgeSep   float64 `toml:"edgesep" yaml:"edgesep"`
	RankSep   float64 `toml:"ranksep" yaml:"ranksep"`
	MarginX   float64 `toml:"marginx" yaml:"marginx"`
	MarginY   float64 `toml:"marginy" yaml:"marginy"`
	Acyclicer string  `toml:"acyclicer" yaml:"acyclicer"`
	Ranker    string  `toml:"ranker" yaml:"ranker"`
}

// CacheConfig selects the result cache backend.
type CacheConfig struct {
	Backend         string        `toml:"backend" yaml:"backend"`
	Dir             string        `toml:"dir" yaml:"dir"`
	RedisURL        string        `toml:"redis_url" yaml:"redis_url"`
	MongoURI        string        `toml:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase   string        `toml:"mongo_database" yaml:"mongo_database"`
	MongoCollection string        `toml:"mongo_collection" yaml:"mongo_collection"`
	TTL             time.Duration `toml:"ttl" yaml:"ttl"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
	// Workers bounds the number of layouts computed at once.
	Workers int `toml:"workers" yaml:"workers"`
	// Queue bounds the number of async jobs waiting for a worker.
	Queue        int           `toml:"queue" yaml:"queue"`
	Timeout      time.Duration `toml:"timeout" yaml:"timeout"`
	MaxBodyBytes int64         `toml:"max_body_bytes" yaml:"max_body_bytes"`
	CORSOrigins  []string      `toml:"cors_origins" yaml:"cors_origins"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			RankDir:   string(graph.RankDirTB),
			NodeSep:   layout.DefaultNodeSep,
			EdgeSep:   layout.DefaultEdgeSep,
			RankSep:   layout.DefaultRankSep,
			Acyclicer: "dfs",
			Ranker:    string(graph.RankerNetworkSimplex),
		},
		Cache: CacheConfig{
			Backend: cache.BackendFile,
			TTL:     cache.TTLLayout,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			Workers:      4,
			Queue:        64,
			Timeout:      30 * time.Second,
			MaxBodyBytes: 4 << 20,
			CORSOrigins:  []string{"*"},
		},
	}
}

// Load builds the configuration from path, then applies .env and STRATA_*
// environment overrides. An empty path skips the file. The format follows
// the extension: .toml, .yaml or .yml.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "read config")
		}
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read config")
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "config %s: unsupported extension %q (want .toml, .yaml or .yml)", path, ext)
	}
	return nil
}

// loadDotEnv sets variables from a .env file without overriding ones that
// are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || stderrors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errors.Wrap(errors.ErrCodeInvalidFormat, err, "load %s", path)
}

type envVar struct {
	name string
	dst  any
}

func (c *Config) envVars() []envVar {
	return []envVar{
		{"LAYOUT_RANKDIR", &c.Layout.RankDir},
		{"LAYOUT_ALIGN", &c.Layout.Align},
		{"LAYOUT_NODESEP", &c.Layout.NodeSep},
		{"LAYOUT_EDGESEP", &c.Layout.EdgeSep},
		{"LAYOUT_RANKSEP", &c.Layout.RankSep},
		{"LAYOUT_MARGINX", &c.Layout.MarginX},
		{"LAYOUT_MARGINY", &c.Layout.MarginY},
		{"LAYOUT_ACYCLICER", &c.Layout.Acyclicer},
		{"LAYOUT_RANKER", &c.Layout.Ranker},
		{"CACHE_BACKEND", &c.Cache.Backend},
		{"CACHE_DIR", &c.Cache.Dir},
		{"CACHE_TTL", &c.Cache.TTL},
		{"REDIS_URL", &c.Cache.RedisURL},
		{"MONGO_URI", &c.Cache.MongoURI},
		{"MONGO_DATABASE", &c.Cache.MongoDatabase},
		{"MONGO_COLLECTION", &c.Cache.MongoCollection},
		{"SERVER_ADDR", &c.Server.Addr},
		{"SERVER_WORKERS", &c.Server.Workers},
		{"SERVER_QUEUE", &c.Server.Queue},
		{"SERVER_TIMEOUT", &c.Server.Timeout},
		{"SERVER_MAX_BODY_BYTES", &c.Server.MaxBodyBytes},
		{"CORS_ORIGINS", &c.Server.CORSOrigins},
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, ev := range c.envVars() {
		key := EnvPrefix + ev.name
		raw, ok := lookup(key)
		if !ok {
			continue
		}
		if err := setValue(ev.dst, strings.TrimSpace(raw)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s=%q", key, raw)
		}
	}
	return nil
}

func setValue(dst any, raw string) error {
	var err error
	switch p := dst.(type) {
	case *string:
		*p = raw
	case *float64:
		*p, err = strconv.ParseFloat(raw, 64)
	case *int:
		*p, err = strconv.Atoi(raw)
	case *int64:
		*p, err = strconv.ParseInt(raw, 10, 64)
	case *time.Duration:
		*p, err = time.ParseDuration(raw)
	case *[]string:
		*p = (*p)[:0]
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				*p = append(*p, s)
			}
		}
	default:
		panic(fmt.Sprintf("config: unsupported field type %T", dst))
	}
	return err
}

// Validate checks every section.
func (c *Config) Validate() error {
	label := c.Layout.Label()
	if err := layout.ValidateOptions(&label); err != nil {
		return err
	}

	switch c.Cache.Backend {
	case "", cache.BackendFile, cache.BackendNull:
	case cache.BackendRedis:
		if err := errors.ValidateURL(c.Cache.RedisURL, "redis", "rediss"); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "cache.redis_url")
		}
	case cache.BackendMongo:
		if err := errors.ValidateURL(c.Cache.MongoURI, "mongodb", "mongodb+srv"); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "cache.mongo_uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}

	switch {
	case c.Server.Workers < 1:
		return errors.New(errors.ErrCodeInvalidInput, "server.workers must be at least 1")
	case c.Server.Queue < 0:
		return errors.New(errors.ErrCodeInvalidInput, "server.queue must not be negative")
	case c.Server.Timeout <= 0:
		return errors.New(errors.ErrCodeInvalidInput, "server.timeout must be positive")
	case c.Server.MaxBodyBytes <= 0:
		return errors.New(errors.ErrCodeInvalidInput, "server.max_body_bytes must be positive")
	}
	return nil
}

// Label converts the layout section into graph defaults.
func (l LayoutConfig) Label() graph.GraphLabel {
	return graph.GraphLabel{
		RankDir:   graph.RankDir(strings.ToLower(l.RankDir)),
		Align:     graph.Align(strings.ToLower(l.Align)),
		NodeSep:   l.NodeSep,
		EdgeSep:   l.EdgeSep,
		RankSep:   l.RankSep,
		MarginX:   l.MarginX,
		MarginY:   l.MarginY,
		Acyclicer: acyclicer(l.Acyclicer),
		Ranker:    graph.Ranker(strings.ToLower(l.Ranker)),
	}
}

// acyclicer maps the "dfs" spelling onto the zero value.
func acyclicer(s string) graph.Acyclicer {
	s = strings.ToLower(s)
	if s == "dfs" {
		return graph.AcyclicerDFS
	}
	return graph.Acyclicer(s)
}

// Options converts the cache section for [cache.Open].
func (c CacheConfig) Options() cache.Options {
	return cache.Options{
		Backend:         c.Backend,
		Dir:             c.Dir,
		RedisURL:        c.RedisURL,
		MongoURI:        c.MongoURI,
		MongoDatabase:   c.MongoDatabase,
		MongoCollection: c.MongoCollection,
	}
}
