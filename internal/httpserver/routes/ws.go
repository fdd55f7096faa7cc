package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/linklab/linkdex/internal/httpserver/deps"
)

func init() { Register(registerWS) }

// The live-update channel is public read-only: clients can only receive
// updates and ask for syncs.
func registerWS(r chi.Router, d deps.Deps) {
	r.Get("/api/ws", d.Hub.Handler())
}
