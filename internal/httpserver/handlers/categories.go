package handlers

import (
	"net/http"

	"github.com/linklab/linkdex/internal/domain"
	"github.com/linklab/linkdex/internal/httpserver/deps"
)

type categoriesResponse struct {
	Categories []*domain.Category `json:"categories"`
}

// ListCategories returns the category descriptors with live item counts.
// Descriptors come from the mirror, which the scheduler keeps in sync with
// categories.yaml and the shard files on disk.
func ListCategories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, categoriesResponse{
			Categories: d.Mirror.GetCategories(),
		})
	}
}
