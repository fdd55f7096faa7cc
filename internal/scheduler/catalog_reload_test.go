package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/linklab/linkdex/internal/domain"
	"github.com/linklab/linkdex/internal/index"
	"github.com/linklab/linkdex/internal/logger"
	"github.com/linklab/linkdex/internal/store/file"
)

type fakeBroadcaster struct {
	mirror *index.Mirror
	calls  int
}

func (f *fakeBroadcaster) BroadcastUpdate(_ context.Context, items []*domain.Link, _ bool) string {
	f.calls++
	version := time.Now().UTC().Format(time.RFC3339Nano)
	f.mirror.ReplaceAll(items, version)
	return version
}

func writeShard(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newReloader(t *testing.T, root, categoriesFile string) (*CatalogReloader, *index.Mirror, *fakeBroadcaster) {
	t.Helper()
	log := logger.New("error", false)
	store := file.NewStore(root, log)
	repo := file.NewRepository(store, log)
	mirror := index.NewMirror()
	hub := &fakeBroadcaster{mirror: mirror}
	cr := NewCatalogReloader(categoriesFile, repo, store, mirror, nil, hub, log,
		time.Hour, make(chan struct{}))
	return cr, mirror, hub
}

func TestReloadPopulatesMirror(t *testing.T) {
	root := t.TempDir()
	writeShard(t, root, "dev.json",
		`[{"id":"l1","title":"One","url":"https://one.example.com","category":"dev"}]`)
	writeShard(t, root, filepath.Join("category", "design", "tools.json"),
		`[{"id":"l2","title":"Two","url":"https://two.example.com","category":"design/tools"}]`)

	categoriesFile := filepath.Join(root, "categories.yaml")
	if err := os.WriteFile(categoriesFile,
		[]byte("categories:\n  - id: dev\n    name: Development\n    order: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cr, mirror, hub := newReloader(t, root, categoriesFile)

	if err := cr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() failed: %v", err)
	}

	if mirror.Count() != 2 {
		t.Errorf("mirror has %d links, want 2", mirror.Count())
	}
	if hub.calls != 1 {
		t.Errorf("broadcast calls = %d, want 1", hub.calls)
	}
	if mirror.Version() == "" {
		t.Error("reload should stamp a version")
	}

	categories := mirror.GetCategories()
	if len(categories) != 2 {
		t.Fatalf("mirror has %d categories, want 2", len(categories))
	}
	if categories[0].ID != "dev" || categories[0].Name != "Development" {
		t.Errorf("first category = %+v, want declared dev entry", categories[0])
	}
}

func TestReloadUnchangedIsNoOp(t *testing.T) {
	root := t.TempDir()
	writeShard(t, root, "dev.json",
		`[{"id":"l1","title":"One","url":"https://one.example.com","category":"dev"}]`)

	cr, mirror, hub := newReloader(t, root, "")

	if err := cr.Reload(context.Background()); err != nil {
		t.Fatalf("first Reload() failed: %v", err)
	}
	version := mirror.Version()

	if err := cr.Reload(context.Background()); err != nil {
		t.Fatalf("second Reload() failed: %v", err)
	}

	if hub.calls != 1 {
		t.Errorf("broadcast calls = %d, want 1 (unchanged reload must not rebroadcast)", hub.calls)
	}
	if mirror.Version() != version {
		t.Errorf("version changed on a no-op reload: %q -> %q", version, mirror.Version())
	}
}

func TestReloadPicksUpOutOfBandEdits(t *testing.T) {
	root := t.TempDir()
	writeShard(t, root, "dev.json",
		`[{"id":"l1","title":"One","url":"https://one.example.com","category":"dev"}]`)

	cr, mirror, hub := newReloader(t, root, "")
	if err := cr.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Simulate an editor adding a link directly to the shard file.
	writeShard(t, root, "dev.json",
		`[{"id":"l1","title":"One","url":"https://one.example.com","category":"dev"},
		  {"id":"l2","title":"Two","url":"https://two.example.com","category":"dev"}]`)

	if err := cr.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	if mirror.Count() != 2 {
		t.Errorf("mirror has %d links after edit, want 2", mirror.Count())
	}
	if hub.calls != 2 {
		t.Errorf("broadcast calls = %d, want 2", hub.calls)
	}
}

func TestReloadFailsOnBadCategoriesFile(t *testing.T) {
	root := t.TempDir()
	categoriesFile := filepath.Join(root, "categories.yaml")
	if err := os.WriteFile(categoriesFile, []byte("categories: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	cr, _, _ := newReloader(t, root, categoriesFile)
	if err := cr.Reload(context.Background()); err == nil {
		t.Error("Reload() with malformed categories file should error")
	}
}

func TestManualTriggerReloads(t *testing.T) {
	root := t.TempDir()
	writeShard(t, root, "dev.json", `[]`)

	log := logger.New("error", false)
	store := file.NewStore(root, log)
	repo := file.NewRepository(store, log)
	mirror := index.NewMirror()
	hub := &fakeBroadcaster{mirror: mirror}
	trigger := make(chan struct{}, 1)
	cr := NewCatalogReloader("", repo, store, mirror, nil, hub, log, time.Hour, trigger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := cr.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer cr.Stop()

	writeShard(t, root, "dev.json",
		`[{"id":"l1","title":"One","url":"https://one.example.com","category":"dev"}]`)
	trigger <- struct{}{}

	deadline := time.After(5 * time.Second)
	for mirror.Count() != 1 {
		select {
		case <-deadline:
			t.Fatalf("mirror has %d links after manual trigger, want 1", mirror.Count())
		case <-time.After(10 * time.Millisecond):
		}
	}
}
