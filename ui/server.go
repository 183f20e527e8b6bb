// Package ui exposes the analysis engine over HTTP as JSON endpoints.
package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"abx/app"
	"abx/internal/analysis"
	"abx/internal/logging"
	"abx/ports"
)

// Server wires the chi router to the analysis engine and readout service.
type Server struct {
	router      *chi.Mux
	readouts    *app.ReadoutService
	repo        ports.ReportRepository
	diagnostics analysis.DiagnosticsConfig
	log         *logging.Logger
}

// NewServer builds the router. repo and log may be nil; readout persistence
// and the GET endpoints require a repository.
func NewServer(diagnostics analysis.DiagnosticsConfig, repo ports.ReportRepository, log *logging.Logger) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		readouts:    app.NewReadoutService(diagnostics, repo, log),
		repo:        repo,
		diagnostics: diagnostics,
		log:         log.Child("ui"),
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/welch", s.handleWelch)
		r.Post("/ratio", s.handleRatio)
		r.Post("/cuped", s.handleCUPED)
		r.Post("/sequential/bernoulli", s.handleSequentialBernoulli)
		r.Post("/sequential/diff", s.handleSequentialDiff)
		r.Post("/srm", s.handleSRM)
		r.Post("/srm/diagnose", s.handleSRMDiagnose)
		r.Post("/triggered", s.handleTriggered)
		r.Post("/power/mean", s.handlePowerMean)
		r.Post("/power/prop", s.handlePowerProp)
		r.Post("/readouts", s.handleRunReadout)
		r.Get("/readouts/{id}", s.handleGetReadout)
		r.Get("/experiments/{experiment}/readouts", s.handleListReadouts)
	})
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving on addr.
func (s *Server) Start(addr string) error {
	s.log.Info("listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}
