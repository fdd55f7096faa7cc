package file

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/linklab/linkdex/internal/domain"
	"github.com/linklab/linkdex/internal/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), logger.New("error", false))
}

func TestShardPath(t *testing.T) {
	s := NewStore("/content", logger.New("error", false))

	tests := []struct {
		category string
		want     string
	}{
		{"dev", filepath.Join("/content", "dev.json")},
		{"design/tools", filepath.Join("/content", "category", "design", "tools.json")},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			if got := s.ShardPath(tt.category); got != tt.want {
				t.Errorf("ShardPath(%q) = %q, want %q", tt.category, got, tt.want)
			}
		})
	}
}

func TestReadMissingShardIsEmpty(t *testing.T) {
	s := newTestStore(t)

	items, err := s.Read(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Read() of missing shard should not error, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Read() of missing shard = %d items, want 0", len(items))
	}
}

func TestReadCorruptShardIsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.ShardPath("broken"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := s.Read(context.Background(), "broken")
	if err != nil {
		t.Fatalf("Read() of corrupt shard should degrade, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Read() of corrupt shard = %d items, want 0", len(items))
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := []*domain.Link{
		domain.NewLink("B", "", "https://b.example.com", "", "", []string{"x", "y"}, true, "dev"),
		domain.NewLink("A", "desc", "https://a.example.com", "icon.png", domain.IconImage, nil, false, "dev"),
	}

	if err := s.Write(ctx, "dev", want); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	got, err := s.Read(ctx, "dev")
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("Read() returned %d items, want %d", len(got), len(want))
	}
	for i := range want {
		// Timestamps survive JSON with UTC locations, so deep equality holds.
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Errorf("item %d mismatch:\n got  %+v\n want %+v", i, got[i], want[i])
		}
	}
}

func TestWriteCreatesNestedDirectories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	items := []*domain.Link{domain.NewLink("T", "", "https://t.example.com", "", "", nil, false, "design/tools")}
	if err := s.Write(ctx, "design/tools", items); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(s.Root(), "category", "design", "tools.json")); err != nil {
		t.Errorf("nested shard file not created: %v", err)
	}
}

func TestListCategories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	shards := []string{"dev", "ai", "design/tools", "design/fonts"}
	for _, c := range shards {
		if err := s.Write(ctx, c, nil); err != nil {
			t.Fatalf("Write(%q) failed: %v", c, err)
		}
	}
	// Non-json noise should be ignored.
	if err := os.WriteFile(filepath.Join(s.Root(), "README.md"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories() failed: %v", err)
	}

	want := []string{"ai", "design/fonts", "design/tools", "dev"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListCategories() = %v, want %v", got, want)
	}
}

func TestListCategoriesMissingRoot(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "does-not-exist"), logger.New("error", false))

	got, err := s.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories() on missing root should not error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListCategories() = %v, want empty", got)
	}
}
