// Package api exposes the review HTTP surface: read views of the store plus
// the two review actions, flag overrides and recompute triggers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/peerview-cli/internal/model"
	"github.com/sells-group/peerview-cli/internal/pipeline"
)

// Store is the slice of persistence the API serves.
type Store interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListSearchResults(ctx context.Context, projectID string) ([]model.SearchResult, error)
	ListMetricRecords(ctx context.Context, projectID string) ([]model.MetricRecord, error)
	GetBenchmarkSummary(ctx context.Context, projectID string) (*model.BenchmarkSummary, error)
	UpdateBenchmarkFlag(ctx context.Context, recordID string, flag model.DataQuality) error
}

// Recomputer triggers a metrics+benchmark recompute for one project. The
// compute stage satisfies this.
type Recomputer interface {
	Run(ctx context.Context, projectID string) (*pipeline.ComputeSummary, error)
}

// Server holds the router and its dependencies.
type Server struct {
	store   Store
	compute Recomputer
	log     *zap.Logger
}

// NewServer creates a Server. compute may be nil, which disables the
// recompute endpoint.
func NewServer(st Store, compute Recomputer) *Server {
	return &Server{
		store:   st,
		compute: compute,
		log:     zap.L().With(zap.String("phase", "serve")),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", s.handleListProjects)
		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", s.handleGetProject)
			r.Get("/results", s.handleListResults)
			r.Get("/metrics", s.handleListMetrics)
			r.Get("/benchmark", s.handleGetBenchmark)
			r.Post("/recompute", s.handleRecompute)
		})
	})
	r.Put("/metrics/{recordID}/flag", s.handleUpdateFlag)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	s.respond(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if project == nil {
		s.respond(w, http.StatusNotFound, map[string]string{"error": "project not found"})
		return
	}
	s.respond(w, http.StatusOK, project)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.ListSearchResults(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if results == nil {
		results = []model.SearchResult{}
	}
	s.respond(w, http.StatusOK, results)
}

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListMetricRecords(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if records == nil {
		records = []model.MetricRecord{}
	}
	s.respond(w, http.StatusOK, records)
}

func (s *Server) handleGetBenchmark(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.GetBenchmarkSummary(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if summary == nil {
		s.respond(w, http.StatusNotFound, map[string]string{"error": "no benchmark summary"})
		return
	}
	s.respond(w, http.StatusOK, summary)
}

// handleUpdateFlag applies a reviewer's override of a record's benchmark
// eligibility.
func (s *Server) handleUpdateFlag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Flag string `json:"flag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	flag := model.DataQuality(req.Flag)
	if flag != model.QualityTrusted && flag != model.QualityLow {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "flag must be trusted or low"})
		return
	}

	if err := s.store.UpdateBenchmarkFlag(r.Context(), chi.URLParam(r, "recordID"), flag); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"flag": req.Flag})
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	if s.compute == nil {
		s.respond(w, http.StatusNotImplemented, map[string]string{"error": "recompute disabled"})
		return
	}

	summary, err := s.compute.Run(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, summary)
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.Error("request failed", zap.Error(err))
	s.respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
