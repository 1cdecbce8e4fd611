package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/aretw0/cascade/internal/logging"
	"github.com/aretw0/cascade/internal/presentation/graph"
	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/flow"
	"github.com/aretw0/cascade/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pipeline is the part of the cascade engine served over HTTP.
type Pipeline interface {
	Graph() *flow.Graph
	RunArtifact(ctx context.Context, path string) (*domain.RunReport, error)
}

// Server exposes the flow, the stored runs and on-demand artifact runs.
type Server struct {
	Pipeline Pipeline
	Runs     ports.RunStore
	Metrics  http.Handler
	// Root confines POST /runs inputs; relative artifact paths are joined to it.
	Root   string
	Logger *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithRunStore serves stored reports under /runs.
func WithRunStore(s ports.RunStore) Option {
	return func(srv *Server) {
		srv.Runs = s
	}
}

// WithMetrics mounts a metrics handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(srv *Server) {
		srv.Metrics = h
	}
}

// WithRoot sets the directory that POST /runs inputs must live in.
func WithRoot(dir string) Option {
	return func(srv *Server) {
		srv.Root = dir
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		srv.Logger = logger
	}
}

// NewHandler creates the HTTP handler for a pipeline.
func NewHandler(p Pipeline, opts ...Option) http.Handler {
	s := &Server{
		Pipeline: p,
		Root:     ".",
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Get("/flow", s.GetFlow)
	r.Get("/flow/mermaid", s.GetFlowMermaid)

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.ListRuns)
		r.Post("/", s.CreateRun)
		r.Get("/{runID}", s.GetRun)
		r.Get("/{runID}/mermaid", s.GetRunMermaid)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FlowResponse describes the flow graph.
type FlowResponse struct {
	Steps   []string            `json:"steps"`
	Entries []string            `json:"entries"`
	Edges   map[string][]string `json:"edges"`
}

// RunResponse is a run report with its derived status.
type RunResponse struct {
	*domain.RunReport
	Status domain.RunStatus `json:"status"`
}

// CreateRunRequest is the body of POST /runs.
type CreateRunRequest struct {
	Artifact string `json:"artifact"`
}

// GetFlow handles GET /flow.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	g := s.Pipeline.Graph()
	writeJSON(w, http.StatusOK, FlowResponse{
		Steps:   g.Steps(),
		Entries: g.Entries(),
		Edges:   g.Edges(),
	})
}

// GetFlowMermaid handles GET /flow/mermaid.
func (s *Server) GetFlowMermaid(w http.ResponseWriter, r *http.Request) {
	writeText(w, graph.GenerateMermaid(s.Pipeline.Graph(), nil))
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	if s.Runs == nil {
		writeJSON(w, http.StatusOK, []string{})
		return
	}
	ids, err := s.Runs.List(r.Context())
	if err != nil {
		s.Logger.Error("ListRuns failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// GetRun handles GET /runs/{runID}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{RunReport: report, Status: report.Status()})
}

// GetRunMermaid handles GET /runs/{runID}/mermaid.
func (s *Server) GetRunMermaid(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeText(w, graph.GenerateMermaid(s.Pipeline.Graph(), graph.OverlayFromReport(report)))
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*domain.RunReport, bool) {
	if s.Runs == nil {
		writeError(w, http.StatusNotFound, "run store not configured")
		return nil, false
	}
	runID := chi.URLParam(r, "runID")
	report, err := s.Runs.Load(r.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found: "+runID)
			return nil, false
		}
		s.Logger.Error("GetRun failed", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return nil, false
	}
	return report, true
}

// CreateRun handles POST /runs. It runs the artifact synchronously.
func (s *Server) CreateRun(w http.ResponseWriter, r *http.Request) {
	var body CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Artifact == "" || !filepath.IsLocal(body.Artifact) {
		writeError(w, http.StatusBadRequest, "artifact must be a relative path inside the repository")
		return
	}

	report, err := s.Pipeline.RunArtifact(r.Context(), filepath.Join(s.Root, body.Artifact))
	if err != nil {
		s.Logger.Warn("CreateRun failed", "artifact", body.Artifact, "error", err)
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, RunResponse{RunReport: report, Status: report.Status()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
