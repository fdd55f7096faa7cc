package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/linklab/linkdex/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	LinksLoaded *int   `json:"links_loaded,omitempty"`
	LastReload  string `json:"last_reload,omitempty"`
	Clients     *int   `json:"clients,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Error       string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the health of the directory's moving parts: the shard store,
// the live-update hub and the optional Redis cache.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		linksCount := d.Mirror.Count()
		lastReload := d.Mirror.GetLastReload()
		lastReloadStr := "never"
		if !lastReload.IsZero() {
			lastReloadStr = lastReload.Format("2006-01-02 15:04:05")
		}
		clients := d.Hub.ConnCount()

		components := map[string]componentStatus{
			"store": {
				OK:          !lastReload.IsZero(),
				LinksLoaded: &linksCount,
				LastReload:  lastReloadStr,
			},
			"hub": {
				OK:      true,
				Clients: &clients,
			},
			"redis": checkRedis(d),
		}

		response := infraResponse{
			Mode:       determineMode(components),
			Version:    d.Mirror.Version(),
			Components: components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func determineMode(components map[string]componentStatus) string {
	if store, exists := components["store"]; exists && !store.OK {
		return "critical" // collection never loaded
	}
	if redis, exists := components["redis"]; exists && !redis.OK {
		return "degraded" // cache down, shards still serve everything
	}
	return "ok"
}

func checkRedis(d deps.Deps) componentStatus {
	if d.Cache == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "listing-cache-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.Cache.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "listing-cache-disabled",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true}
}
