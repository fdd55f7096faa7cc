package domain

import (
	"strings"
)

// Category describes one shard of the directory: a named grouping of links.
// The ID doubles as the shard routing key ("dev", or "design/tools" for a
// sub-category one level deep).
type Category struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Order       int    `json:"order" yaml:"order"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`

	// Count is derived from the shard's current contents, never persisted.
	Count int `json:"count" yaml:"-"`
}

// SplitCategoryID splits a category identifier into its top-level part and
// optional sub-category. "design/tools" -> ("design", "tools"), "dev" -> ("dev", "").
func SplitCategoryID(id string) (top, sub string) {
	if i := strings.IndexByte(id, '/'); i >= 0 {
		return id[:i], id[i+1:]
	}
	return id, ""
}

// ValidateCategoryID accepts "name" or "top/sub" identifiers made of
// filesystem-safe characters. At most one level of nesting is allowed because
// shards live at most one directory deep.
func ValidateCategoryID(id string) error {
	if id == "" {
		return &ValidationError{Field: "category", Reason: "category is required"}
	}
	parts := strings.Split(id, "/")
	if len(parts) > 2 {
		return &ValidationError{Field: "category", Reason: "category may nest at most one level (top/sub)"}
	}
	for _, p := range parts {
		if p == "" {
			return &ValidationError{Field: "category", Reason: "category segments must not be empty"}
		}
		if p == "." || p == ".." {
			return &ValidationError{Field: "category", Reason: "category must not contain path traversal segments"}
		}
		for _, r := range p {
			if !isCategoryRune(r) {
				return &ValidationError{Field: "category", Reason: "category may only contain letters, digits, '-', '_' and '.'"}
			}
		}
	}
	return nil
}

func isCategoryRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.':
		return true
	}
	return false
}
