package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rentrihub/pkg/platform/middleware"
)

const requestTimeout = 30 * time.Second

// NewRouter assembles the full route tree with the shared middleware chain.
func NewRouter(h *Handler, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/certificates", func(r chi.Router) {
		r.Post("/", h.handleIngestCertificate)
		r.Put("/{certificateID}/site", h.handleConfigureSite)
	})

	r.Route("/registri", func(r chi.Router) {
		r.Post("/", h.handleCreateRegistro)
		r.Post("/{registroID}/remote", h.handleCreateRemote)
		r.Post("/{registroID}/push", h.handlePush)
		r.Post("/{registroID}/pull", h.handlePull)
	})

	r.Post("/sync/pull", h.handlePullAll)

	return r
}
