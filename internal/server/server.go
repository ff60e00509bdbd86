// Package server exposes the layout pipeline over HTTP.
//
// Routes:
//
//	POST /v1/layout     lay out a graph document and return the layout
//	POST /v1/jobs       queue a graph document, returns {"id": ...}
//	GET  /v1/jobs/{id}  job status and, once done, its layout
//	GET  /healthz       liveness
//
// Synchronous layouts share a fixed pool of workers with queued jobs. When
// every worker is busy POST /v1/layout fails fast with 503 instead of
// queueing, and POST /v1/jobs fails with 503 once the job queue is full.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/strata/pkg/config"
	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/observability"
	"github.com/matzehuels/strata/pkg/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	cfg      config.ServerConfig
	defaults graph.GraphLabel
	logger   *log.Logger

	workers *semaphore.Weighted
	jobs    *jobStore

	// base is the parent context of queued jobs. It is cancelled on shutdown.
	base    context.Context
	stop    context.CancelFunc
	running sync.WaitGroup
}

// New creates a server that lays out graphs with runner. Graph options the
// request leaves unset are taken from defaults.
func New(runner *pipeline.Runner, cfg config.ServerConfig, defaults graph.GraphLabel, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	base, stop := context.WithCancel(context.Background())
	return &Server{
		runner:   runner,
		cfg:      cfg,
		defaults: defaults,
		logger:   logger,
		workers:  semaphore.NewWeighted(int64(workers)),
		jobs:     newJobStore(cfg.Queue),
		base:     base,
		stop:     stop,
	}
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, cachedHeader, graphHashHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.healthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.layout)
		r.Post("/jobs", s.submitJob)
		r.Get("/jobs/{id}", s.getJob)
	})
	return r
}

// ListenAndServe serves the API on the configured address until ctx is
// cancelled, then drains in-flight requests and cancels queued jobs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr, "workers", s.cfg.Workers, "queue", s.cfg.Queue)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.Close()
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeUnavailable, err, "listen on %s", s.cfg.Addr)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close cancels queued jobs and waits for running ones to return.
func (s *Server) Close() {
	s.stop()
	s.running.Wait()
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// layout computes a layout synchronously on one of the workers.
func (s *Server) layout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !s.workers.TryAcquire(1) {
		observability.HTTP().OnRejected(r.Context(), r.Method, r.URL.Path)
		s.writeError(w, r, errors.New(errors.ErrCodeUnavailable, "all layout workers are busy, retry later or submit a job"))
		return
	}
	defer s.workers.Release(1)

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout)
	defer cancel()

	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	res, err := s.runner.LayoutReader(ctx, body, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set(cachedHeader, strconv.FormatBool(res.Cached))
	w.Header().Set(graphHashHeader, res.GraphHash)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}

// options reads the per-request pipeline switches from the query string.
func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	opts := pipeline.Options{Defaults: s.defaults}
	q := r.URL.Query()
	for name, dst := range map[string]*bool{
		"refresh":            &opts.Refresh,
		"no_order_heuristic": &opts.DisableOrderHeuristic,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "query parameter %s: %q is not a boolean", name, raw)
		}
		*dst = v
	}
	return opts, nil
}

const (
	cachedHeader    = "X-Strata-Cached"
	graphHashHeader = "X-Strata-Graph-Hash"
)

type apiError struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := toAPIError(err)
	status := errors.HTTPStatus(body.Code)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
	}
	writeJSON(w, status, errorResponse{Error: body})
}

func toAPIError(err error) apiError {
	code := errors.CodeOf(err)
	if code == "" {
		return apiError{Code: errors.ErrCodeInternal, Message: "internal error"}
	}
	return apiError{Code: code, Message: errors.UserMessage(err)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
