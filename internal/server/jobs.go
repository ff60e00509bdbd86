package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/observability"
	"github.com/matzehuels/strata/pkg/pipeline"
)

// JobStatus is the lifecycle state of an async layout job.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// jobRetention is how long finished jobs stay readable.
const jobRetention = time.Hour

// Job is the API view of an async layout.
type Job struct {
	ID         string          `json:"id"`
	Status     JobStatus       `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Cached     bool            `json:"cached,omitempty"`
	GraphHash  string          `json:"graph_hash,omitempty"`
	Error      *apiError       `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

func (j *Job) finished() bool { return j.Status == JobDone || j.Status == JobFailed }

// jobStore tracks jobs in memory. At most limit jobs may be unfinished.
type jobStore struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	pending int
	limit   int
	now     func() time.Time
}

func newJobStore(limit int) *jobStore {
	return &jobStore{jobs: make(map[string]*Job), limit: limit, now: time.Now}
}

func (st *jobStore) add() (Job, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.prune()
	if st.pending >= st.limit {
		return Job{}, errors.New(errors.ErrCodeUnavailable, "job queue is full (%d pending)", st.pending)
	}
	j := &Job{ID: uuid.NewString(), Status: JobQueued, CreatedAt: st.now().UTC()}
	st.jobs[j.ID] = j
	st.pending++
	return *j, nil
}

func (st *jobStore) get(id string) (Job, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	j, ok := st.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

func (st *jobStore) start(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if j, ok := st.jobs[id]; ok {
		j.Status = JobRunning
	}
}

func (st *jobStore) finish(id string, res *pipeline.Result, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	j, ok := st.jobs[id]
	if !ok || j.finished() {
		return
	}
	now := st.now().UTC()
	j.FinishedAt = &now
	st.pending--
	if err != nil {
		j.Status = JobFailed
		e := toAPIError(err)
		j.Error = &e
		return
	}
	j.Status = JobDone
	j.Cached = res.Cached
	j.GraphHash = res.GraphHash
	j.Result = res.Data
}

// prune drops finished jobs older than jobRetention. Callers hold mu.
func (st *jobStore) prune() {
	cutoff := st.now().Add(-jobRetention)
	for id, j := range st.jobs {
		if j.finished() && j.FinishedAt.Before(cutoff) {
			delete(st.jobs, id)
		}
	}
}

// submitJob decodes the document up front so malformed input fails the
// request itself, then lays the graph out in the background.
func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	g, err := io.ReadGraph(body, io.WithDefaults(opts.Defaults))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	job, err := s.jobs.add()
	if err != nil {
		observability.HTTP().OnRejected(r.Context(), r.Method, r.URL.Path)
		s.writeError(w, r, err)
		return
	}
	s.logger.Debug("job queued", "job", job.ID, "nodes", g.NodeCount(), "edges", g.EdgeCount())

	s.running.Add(1)
	go s.runJob(job.ID, g, opts)

	w.Header().Set("Location", "/v1/jobs/"+job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) runJob(id string, g *graph.Graph, opts pipeline.Options) {
	defer s.running.Done()
	// A panicking layout fails its job, not the process.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", "job", id, "panic", r, "stack", string(debug.Stack()))
			s.jobs.finish(id, nil, errors.New(errors.ErrCodeInternal, "layout panicked: %v", r))
		}
	}()

	if err := s.workers.Acquire(s.base, 1); err != nil {
		s.jobs.finish(id, nil, errors.Wrap(errors.ErrCodeUnavailable, err, "server shutting down"))
		return
	}
	defer s.workers.Release(1)

	s.jobs.start(id)
	ctx, cancel := context.WithTimeout(s.base, s.cfg.Timeout)
	defer cancel()

	res, err := s.runner.Layout(ctx, g, opts)
	if err != nil {
		s.logger.Warn("job failed", "job", id, "error", err)
	}
	s.jobs.finish(id, res, err)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.jobs.get(id)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeJobNotFound, "job %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, job)
}
