package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molgraph/internal/interfaces/http/handlers"
	"github.com/turtacn/molgraph/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies required
// to construct the HTTP route tree.
type RouterConfig struct {
	StructureHandler *handlers.StructureHandler
	HealthHandler    *handlers.HealthHandler

	// Logging defaults to middleware.DefaultLoggingConfig when SkipPaths is nil.
	Logging        middleware.LoggingConfig
	Logger         logging.Logger
	Metrics        *prometheus.StructureMetrics
	MetricsHandler http.Handler
	MaxBodySize    int64
}

// NewRouter constructs the complete HTTP route tree from the given configuration.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(cfg.Metrics))
	if cfg.Logger != nil {
		logCfg := cfg.Logging
		if logCfg.SkipPaths == nil {
			logCfg = middleware.DefaultLoggingConfig()
		}
		r.Use(middleware.RequestLogging(cfg.Logger, logCfg))
	}

	// --- Probes ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// --- API v1 ---
	r.Route("/api/v1", func(api chi.Router) {
		if cfg.MaxBodySize > 0 {
			api.Use(middleware.MaxBodySize(cfg.MaxBodySize))
		}
		registerStructureRoutes(api, cfg.StructureHandler)
	})

	return r
}

// registerStructureRoutes mounts model resource endpoints under /models and
// the catalogue under /search.
func registerStructureRoutes(r chi.Router, h *handlers.StructureHandler) {
	if h == nil {
		return
	}
	r.Get("/search", h.Search)

	r.Route("/models", func(mr chi.Router) {
		mr.Get("/", h.List)
		mr.Post("/", h.Ingest)

		mr.Route("/{id}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Delete("/", h.Delete)
			item.Get("/summary", h.Summary)
			item.Get("/export", h.Export)
			item.Get("/atoms", h.SelectAtoms)
			item.Get("/events", h.Events)

			item.Post("/small-molecules", h.AddSmallMolecule)
			item.Delete("/small-molecules/{moleculeID}", h.RemoveSmallMolecule)

			item.Route("/chains/{chainID}", func(cr chi.Router) {
				cr.Post("/beta-strands", h.AddBetaStrand)
				cr.Post("/helices", h.AddHelix)
			})
		})
	})
}

//Personal.AI order the ending
