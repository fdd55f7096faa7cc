package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/linklab/linkdex/internal/httpserver/deps"
	"github.com/linklab/linkdex/internal/httpserver/handlers"
	"github.com/linklab/linkdex/internal/httpserver/mw"
)

// Timeout is per-route rather than global so the long-lived WebSocket
// connection is not cut off.
func init() { Register(registerLinks, middleware.Timeout(10*time.Second)) }

func registerLinks(r chi.Router, d deps.Deps) {
	// Reads are public.
	r.Get("/api/links", handlers.ListLinks(d))
	r.Get("/api/categories", handlers.ListCategories(d))

	// Mutations are gated by host/IP restrictions and rate limited.
	guarded := r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.RateBurst,
			RefillPerIPPerMin: d.RatePerMin,
			MaxEntries:        4096,
			SweepInterval:     time.Minute,
			IdleTTL:           15 * time.Minute,
			TrustProxy:        d.TrustProxy,
		}),
	)
	guarded.Post("/api/links", handlers.CreateLink(d))
	guarded.Put("/api/links/{id}", handlers.UpdateLink(d))
	guarded.Delete("/api/links/{id}", handlers.DeleteLink(d))
}
