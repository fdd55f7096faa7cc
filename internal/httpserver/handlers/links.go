package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linklab/linkdex/internal/domain"
	"github.com/linklab/linkdex/internal/httpserver/deps"
	"github.com/linklab/linkdex/internal/logger"
)

// linkRequest is the mutation payload for create and update.
type linkRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	URL         string          `json:"url"`
	Icon        string          `json:"icon"`
	IconType    domain.IconType `json:"iconType"`
	Tags        []string        `json:"tags"`
	Featured    bool            `json:"featured"`
	Category    string          `json:"category"`
}

type listResponse struct {
	Items   []*domain.Link `json:"items"`
	Total   int            `json:"total"`
	Version string         `json:"version,omitempty"`
}

// ListLinks returns the full collection assembled from all shards. The Redis
// cache is consulted first (best effort); the shard files remain the source
// of truth.
func ListLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if d.Cache != nil {
			if items, version, err := d.Cache.GetCollection(ctx); err == nil && items != nil {
				writeJSON(w, http.StatusOK, listResponse{Items: items, Total: len(items), Version: version})
				return
			} else if err != nil {
				d.Logger.Debug("cache lookup failed, reading shards", logger.Error(err))
			}
		}

		items, err := d.Repo.ListAll(ctx)
		if err != nil {
			writeDomainError(w, d.Logger, err)
			return
		}

		version := d.Mirror.Version()
		if d.Cache != nil {
			if err := d.Cache.SaveCollection(ctx, items, version); err != nil {
				d.Logger.Debug("failed to populate cache", logger.Error(err))
			}
		}

		writeJSON(w, http.StatusOK, listResponse{Items: items, Total: len(items), Version: version})
	}
}

// CreateLink validates the payload, enforces collection-wide URL uniqueness,
// persists the new item and broadcasts it as an incremental update.
func CreateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req linkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body", "")
			return
		}

		link := domain.NewLink(req.Title, req.Description, req.URL, req.Icon, req.IconType, req.Tags, req.Featured, req.Category)
		if err := link.Validate(); err != nil {
			writeDomainError(w, d.Logger, err)
			return
		}

		exists, err := d.Repo.URLExists(ctx, link.URL, "")
		if err != nil {
			writeDomainError(w, d.Logger, err)
			return
		}
		if exists {
			writeDomainError(w, d.Logger, domain.ErrDuplicateURL)
			return
		}

		if err := d.Repo.Add(ctx, link); err != nil {
			writeDomainError(w, d.Logger, err)
			return
		}

		d.Hub.BroadcastUpdate(ctx, []*domain.Link{link}, true)
		invalidateCache(ctx, d)

		d.Logger.Info("link created",
			logger.String("id", link.ID),
			logger.String("category", link.Category))
		writeJSON(w, http.StatusCreated, link)
	}
}

// UpdateLink patches an existing item, moving it between shards when the
// category changed.
func UpdateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		var req linkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body", "")
			return
		}

		patch := &domain.Link{
			ID:          id,
			Title:       req.Title,
			Description: req.Description,
			URL:         req.URL,
			Icon:        req.Icon,
			IconType:    req.IconType,
			Tags:        req.Tags,
			Featured:    req.Featured,
			Category:    req.Category,
		}
		if err := patch.Validate(); err != nil {
			writeDomainError(w, d.Logger, err)
			return
		}

		exists, err := d.Repo.URLExists(ctx, patch.URL, id)
		if err != nil {
			writeDomainError(w, d.Logger, err)
			return
		}
		if exists {
			writeDomainError(w, d.Logger, domain.ErrDuplicateURL)
			return
		}

		updated, err := d.Repo.Update(ctx, id, patch)
		if err != nil {
			writeDomainError(w, d.Logger, err)
			return
		}

		d.Hub.BroadcastUpdate(ctx, []*domain.Link{updated}, true)
		invalidateCache(ctx, d)

		d.Logger.Info("link updated",
			logger.String("id", id),
			logger.String("category", updated.Category))
		writeJSON(w, http.StatusOK, updated)
	}
}

// DeleteLink removes an item. Deleting an unknown id answers 404, never 500.
func DeleteLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		deleted, err := d.Repo.Delete(ctx, id)
		if err != nil {
			writeDomainError(w, d.Logger, err)
			return
		}
		if !deleted {
			writeDomainError(w, d.Logger, domain.ErrNotFound)
			return
		}

		d.Hub.BroadcastRemove(ctx, id)
		invalidateCache(ctx, d)

		d.Logger.Info("link deleted", logger.String("id", id))
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// invalidateCache drops the cached aggregate after a successful mutation.
// Best effort: a cache failure never fails the request.
func invalidateCache(ctx context.Context, d deps.Deps) {
	if d.Cache == nil {
		return
	}
	if err := d.Cache.Invalidate(ctx); err != nil {
		d.Logger.Debug("failed to invalidate cache", logger.Error(err))
	}
}
