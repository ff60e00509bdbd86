// Package cache stores computed layouts and rendered drawings.
//
// # Backends
//
// All backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: a shared cache for several API servers
//   - [MongoCache]: a persistent store with a TTL index
//   - [NullCache]: caching disabled
//
// [Open] picks a backend from [Options].
//
// # Keys
//
// Keys are built by a [Keyer] from the SHA-256 hash of the canonical input
// plus every option that changes the result, so a key never outlives the
// data it addresses. [ScopedKeyer] prefixes keys for separate namespaces.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/strata/pkg/errors"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
// Get reports a miss with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Maintainer is implemented by backends that support the `cache` CLI
// command.
type Maintainer interface {
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)
	// Stats describes the current contents.
	Stats(ctx context.Context) (Stats, error)
}

// Stats summarizes a cache. Bytes is 0 when the backend cannot tell.
type Stats struct {
	Backend  string
	Location string
	Entries  int
	Bytes    int64
}

// Time-to-live for each kind of entry.
const (
	TTLLayout = 7 * 24 * time.Hour
	TTLRender = 24 * time.Hour
)

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendNull  = "null"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Options selects and configures a backend.
type Options struct {
	Backend         string
	Dir             string
	RedisURL        string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// DefaultDir returns the per-user cache directory, ~/.cache/strata on Linux.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "strata"), nil
}

// Open creates the backend named by opts.Backend. An empty backend means
// the file cache.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		dir := opts.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, errors.Wrap(codeFor(err), err, "locate cache directory")
			}
			dir = d
		}
		c, err := NewFileCache(dir)
		if err != nil {
			return nil, errors.Wrap(codeFor(err), err, "open cache directory %s", dir)
		}
		return c, nil
	case BackendNull:
		return NewNullCache(), nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, opts.RedisURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMongo:
		c, err := NewMongoCache(ctx, opts.MongoURI, opts.MongoDatabase, opts.MongoCollection)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", opts.Backend)
	}
}

func codeFor(err error) errors.Code {
	if c := errors.CodeOf(err); c != "" {
		return c
	}
	if os.IsNotExist(err) {
		return errors.ErrCodeFileNotFound
	}
	return errors.ErrCodeInternal
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey addresses the layout of the graph with the given canonical
	// hash.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	// RenderKey addresses a drawing of the layout with the given hash.
	RenderKey(layoutHash string, opts RenderKeyOpts) string
}

// LayoutKeyOpts holds the engine settings that are not part of the graph
// document itself.
type LayoutKeyOpts struct {
	DisableOrderHeuristic bool
	// Version invalidates entries written by other engine versions.
	Version string
}

// RenderKeyOpts identifies one drawing of a layout.
type RenderKeyOpts struct {
	Format string
	Engine string
}

// DefaultKeyer produces keys of the form "layout:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

func (DefaultKeyer) RenderKey(layoutHash string, opts RenderKeyOpts) string {
	return hashKey("render", layoutHash, opts)
}

func (s Stats) String() string {
	return fmt.Sprintf("%s cache at %s: %d entries, %d bytes", s.Backend, s.Location, s.Entries, s.Bytes)
}
