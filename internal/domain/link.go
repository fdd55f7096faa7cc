package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IconType selects how a link's icon field is interpreted by viewers.
type IconType string

const (
	IconImage IconType = "image"
	IconText  IconType = "text"
)

// Link represents one entry of the directory.
// Category doubles as the storage routing key: it names the shard file
// the item lives in ("dev" or "design/tools" for nested categories).
type Link struct {
	// ID is the canonical unique identifier, generated once at creation.
	ID string `json:"id"`

	// Title is the display name. Never empty for a persisted link.
	Title string `json:"title"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// URL is the absolute target URL. Unique across the whole collection,
	// not just within a category.
	URL string `json:"url"`

	// Icon and IconType are presentation only.
	Icon     string   `json:"icon,omitempty"`
	IconType IconType `json:"iconType,omitempty"`

	// Tags keep insertion order for display; matching treats them as a set.
	Tags []string `json:"tags,omitempty"`

	// Featured flags the link for promotional placement.
	Featured bool `json:"featured,omitempty"`

	// Category is the shard identifier the item currently lives in.
	Category string `json:"category"`

	// CreatedAt is set once at creation. UpdatedAt is refreshed on every mutation.
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewLink builds a persistable link from validated input:
// fresh ID, CreatedAt == UpdatedAt.
func NewLink(title, description, rawURL, icon string, iconType IconType, tags []string, featured bool, category string) *Link {
	now := time.Now().UTC()
	return &Link{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		URL:         rawURL,
		Icon:        icon,
		IconType:    iconType,
		Tags:        tags,
		Featured:    featured,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Touch refreshes UpdatedAt.
func (l *Link) Touch() {
	l.UpdatedAt = time.Now().UTC()
}

// Validate checks the fields a caller must supply. It does not check
// cross-collection invariants (URL uniqueness) - that is repository territory.
func (l *Link) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if strings.TrimSpace(l.URL) == "" {
		return &ValidationError{Field: "url", Reason: "url is required"}
	}
	if err := ValidateURL(l.URL); err != nil {
		return err
	}
	if strings.TrimSpace(l.Category) == "" {
		return &ValidationError{Field: "category", Reason: "category is required"}
	}
	if err := ValidateCategoryID(l.Category); err != nil {
		return err
	}
	switch l.IconType {
	case "", IconImage, IconText:
	default:
		return &ValidationError{Field: "iconType", Reason: "iconType must be \"image\" or \"text\""}
	}
	return nil
}

// ValidateURL requires an absolute http(s) URL with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "url", Reason: "url is not a valid URL"}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "url", Reason: "url must be an absolute http(s) URL"}
	}
	return nil
}
