package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "categories.yaml"))

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() of missing file should not error, got %v", err)
	}
	if len(config.Categories) != 0 {
		t.Errorf("Load() = %d categories, want 0", len(config.Categories))
	}
}

func TestLoadEmptyPathIsEmpty(t *testing.T) {
	config, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load() with empty path should not error, got %v", err)
	}
	if len(config.Categories) != 0 {
		t.Errorf("Load() = %d categories, want 0", len(config.Categories))
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	yaml := `categories:
  - id: dev
    name: Development
    description: Tools and references
    order: 1
    icon: code
    color: "#336699"
  - id: design/tools
    name: Design Tools
    order: 2
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(config.Categories) != 2 {
		t.Fatalf("Load() = %d categories, want 2", len(config.Categories))
	}

	first := config.Categories[0]
	if first.ID != "dev" || first.Name != "Development" || first.Order != 1 || first.Color != "#336699" {
		t.Errorf("first category = %+v, want dev/Development/1/#336699", first)
	}
	if config.Categories[1].ID != "design/tools" {
		t.Errorf("second category id = %q, want design/tools", config.Categories[1].ID)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	if err := os.WriteFile(path, []byte("categories: [not: {valid"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Load() of malformed yaml should error")
	}
}
