package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.observeMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	if s.metricsCfg.Enabled && s.gatherer != nil {
		r.Handle(s.metricsPath(), promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/kinds", s.handleListKinds)
		r.Get("/inventory", s.handleListInventory)

		r.Route("/modules", func(r chi.Router) {
			r.Get("/", s.handleListModules)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetModule)
				r.Get("/properties/{name}", s.handleGetProperty)
				r.Put("/properties/{name}", s.handleSetProperty)
				r.Get("/properties/{name}/history", s.handlePropertyHistory)
			})
		})
	})

	return r
}

func (s *Server) metricsPath() string {
	if s.metricsCfg.Path == "" {
		return "/metrics"
	}
	return s.metricsCfg.Path
}
