// Package httptransport composes the HTTP surface: the shared middleware
// chain, the per-area handlers, and the operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	connectionhandler "kesher/internal/connection/handler"
	"kesher/internal/platform/metrics"
	"kesher/internal/platform/middleware"
	profileedithandler "kesher/internal/profileedit/handler"
	shadchanhandler "kesher/internal/shadchan/handler"
	suppressionhandler "kesher/internal/suppression/handler"
	visibilityhandler "kesher/internal/visibility/handler"
)

// Deps carries everything the router needs. ShadchanTokenHash may be empty,
// which disables the second admin factor; Health may be nil.
type Deps struct {
	Connections  *connectionhandler.Handler
	Visibility   *visibilityhandler.Handler
	ProfileEdits *profileedithandler.Handler
	Suppressions *suppressionhandler.Handler
	Shadchan     *shadchanhandler.Handler

	JWTValidator      middleware.JWTValidator
	ShadchanTokenHash string
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
	Health            func() error
}

// NewRouter wires all endpoints behind the platform middleware chain. User
// routes require a verified identity; shadchan routes additionally require
// the admin role and, when configured, the shared shadchan token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", handleHealth(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(deps.JWTValidator, deps.Logger))

		deps.Connections.Register(r)
		deps.Visibility.Register(r)
		deps.ProfileEdits.Register(r)
		deps.Suppressions.Register(r)
	})

	r.Route("/shadchan", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(deps.JWTValidator, deps.Logger))
		r.Use(middleware.RequireAdmin(deps.Logger))
		r.Use(middleware.RequireShadchanToken(deps.ShadchanTokenHash, deps.Logger))

		deps.Shadchan.Register(r)
		deps.ProfileEdits.RegisterAdmin(r)
	})

	return r
}

func handleHealth(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			if err := check(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
