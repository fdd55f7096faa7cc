package handlers

import (
	"net/http"

	"github.com/linklab/linkdex/internal/httpserver/deps"
	"github.com/linklab/linkdex/internal/logger"
)

// Reload triggers a manual catalog reload (shard re-walk + categories.yaml).
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual catalog reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte("reload triggered\n"))
		default:
			d.Logger.Warn("catalog reload already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("reload already in progress, please wait\n"))
		}
	}
}
