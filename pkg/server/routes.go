package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kylerisse/pingboard/pkg/syncer"
)

// routes builds the API handler.
//
//	GET  /healthz      liveness probe, no auth
//	GET  /metrics      Prometheus text, no auth
//	GET  /data.json    full snapshot
//	GET  /api/summary  total/online/offline counts
//	POST /save         full overwrite, rate limited
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(noCacheMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", s.handlePrometheus)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)

		r.Get(syncer.SnapshotPath, s.handleData)
		r.Get("/api/summary", s.handleSummaryAPI)
		r.With(newRateLimitMiddleware(s.limiter)).Post(syncer.SavePath, s.handleSave)
	})

	return r
}
