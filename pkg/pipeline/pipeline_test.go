package pipeline

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/strata/pkg/cache"
	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/observability"
	"github.com/matzehuels/strata/pkg/render"
)

const twoNodes = `{
  "nodes": [{"id": "a", "width": 50, "height": 100}, {"id": "b", "width": 50, "height": 100}],
  "edges": [{"from": "a", "to": "b"}]
}`

// memCache is an in-memory cache that counts its traffic.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = append([]byte(nil), data...)
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func newTestRunner(c cache.Cache) (*Runner, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	return NewRunner(c, nil, logger), &buf
}

func TestRunnerLayout(t *testing.T) {
	ctx := context.Background()
	mc := newMemCache()
	r, logs := newTestRunner(mc)

	res, err := r.LayoutReader(ctx, strings.NewReader(twoNodes), Options{})
	if err != nil {
		t.Fatalf("LayoutReader: %v", err)
	}
	if res.Cached {
		t.Error("first run should not be cached")
	}
	if res.Layout.Width != 50 || res.Layout.Height != 250 {
		t.Errorf("canvas = %vx%v, want 50x250", res.Layout.Width, res.Layout.Height)
	}
	if a := res.Layout.Node("a"); a == nil || a.X != 25 || a.Y != 50 {
		t.Errorf("a = %+v", a)
	}
	if res.Stats.NodeCount != 2 || res.Stats.EdgeCount != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if len(res.GraphHash) != 64 {
		t.Errorf("GraphHash = %q", res.GraphHash)
	}
	if mc.sets != 1 {
		t.Errorf("cache sets = %d, want 1", mc.sets)
	}
	if !strings.Contains(logs.String(), "layout complete") || !strings.Contains(logs.String(), "cached=false") {
		t.Errorf("missing completion log:\n%s", logs.String())
	}

	// Reformatted input has the same canonical form and hits the cache.
	again, err := r.LayoutReader(ctx, strings.NewReader(strings.ReplaceAll(twoNodes, "\n", "")), Options{})
	if err != nil {
		t.Fatalf("second LayoutReader: %v", err)
	}
	if !again.Cached {
		t.Error("second run should be cached")
	}
	if !bytes.Equal(again.Data, res.Data) {
		t.Error("cached data differs from computed data")
	}
	if again.GraphHash != res.GraphHash {
		t.Error("graph hash should not depend on formatting")
	}

	// Refresh recomputes and rewrites.
	fresh, err := r.LayoutReader(ctx, strings.NewReader(twoNodes), Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Cached || mc.sets != 2 {
		t.Errorf("refresh: cached=%v sets=%d", fresh.Cached, mc.sets)
	}

	// Other defaults produce another key.
	other, err := r.LayoutReader(ctx, strings.NewReader(twoNodes), Options{Defaults: graph.GraphLabel{RankDir: graph.RankDirLR}})
	if err != nil {
		t.Fatal(err)
	}
	if other.Cached {
		t.Error("different defaults must not share a cache entry")
	}
	if other.Layout.Width != 150 {
		t.Errorf("lr canvas width = %v, want 150", other.Layout.Width)
	}
}

func TestRunnerLayoutErrors(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRunner(nil)

	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{"malformed", `{`, errors.ErrCodeInvalidFormat},
		{"unknown node", `{"nodes": [{"id": "a"}], "edges": [{"from": "a", "to": "b"}]}`, errors.ErrCodeInvalidFormat},
		{"bad option", `{"options": {"rankdir": "up"}, "nodes": [{"id": "a"}]}`, errors.ErrCodeInvalidInput},
		{"negative minlen", `{"nodes": [{"id": "a"}, {"id": "b"}], "edges": [{"from": "a", "to": "b", "minlen": -1}]}`, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.LayoutReader(ctx, strings.NewReader(tt.doc), Options{})
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := r.LayoutReader(cancelled, strings.NewReader(twoNodes), Options{})
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("cancelled context: err = %v, want TIMEOUT", err)
	}
}

func TestRunnerLayoutFileMissing(t *testing.T) {
	r, _ := newTestRunner(nil)
	_, err := r.LayoutFile(context.Background(), t.TempDir()+"/missing.json", Options{})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestRunnerPhaseLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	r := NewRunner(nil, nil, logger)

	if _, err := r.LayoutReader(context.Background(), strings.NewReader(twoNodes), Options{}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"phase=acyclic", "phase=position", "layout complete"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("debug log missing %q", want)
		}
	}
}

func TestRunnerProgress(t *testing.T) {
	r, _ := newTestRunner(newMemCache())
	var phases []string
	opts := Options{Progress: func(phase string) { phases = append(phases, phase) }}

	if _, err := r.LayoutReader(context.Background(), strings.NewReader(twoNodes), opts); err != nil {
		t.Fatal(err)
	}
	if len(phases) == 0 || phases[0] != "makeSpaceForEdgeLabels" {
		t.Fatalf("phases = %v", phases)
	}

	phases = nil
	res, err := r.LayoutReader(context.Background(), strings.NewReader(twoNodes), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Cached || len(phases) != 0 {
		t.Errorf("cached = %v, phases = %v; want a cache hit without progress", res.Cached, phases)
	}
}

func TestRunnerRender(t *testing.T) {
	ctx := context.Background()
	mc := newMemCache()
	r, _ := newTestRunner(mc)

	res, err := r.LayoutReader(ctx, strings.NewReader(twoNodes), Options{})
	if err != nil {
		t.Fatal(err)
	}

	svg, cached, err := r.Render(ctx, res.Layout, render.Options{Engine: "Native"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if cached || !bytes.HasPrefix(svg, []byte("<svg")) {
		t.Errorf("first render: cached=%v\n%s", cached, svg)
	}
	again, cached, err := r.Render(ctx, res.Layout, render.Options{Format: "svg", Engine: "native"})
	if err != nil {
		t.Fatal(err)
	}
	if !cached || !bytes.Equal(svg, again) {
		t.Error("second render should come from the cache")
	}

	dot, _, err := r.Render(ctx, res.Layout, render.Options{Format: "dot"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(dot, []byte("digraph")) {
		t.Errorf("dot output:\n%s", dot)
	}

	if _, _, err := r.Render(ctx, res.Layout, render.Options{Format: "png", Engine: "native"}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("native png: err = %v", err)
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	starts, completes int
	lastCached        bool
}

func (h *countingHooks) OnLayoutStart(context.Context, int, int) { h.starts++ }
func (h *countingHooks) OnLayoutComplete(_ context.Context, _ time.Duration, cached bool, _ error) {
	h.completes++
	h.lastCached = cached
}

func TestRunnerHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	r, _ := newTestRunner(newMemCache())
	ctx := context.Background()
	for range 2 {
		if _, err := r.LayoutReader(ctx, strings.NewReader(twoNodes), Options{}); err != nil {
			t.Fatal(err)
		}
	}
	if hooks.starts != 2 || hooks.completes != 2 || !hooks.lastCached {
		t.Errorf("hooks = %+v", hooks)
	}
}
