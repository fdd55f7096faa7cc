package catalog

import (
	"testing"
)

func TestMapMergesDeclaredAndDiscovered(t *testing.T) {
	config := &Config{Categories: []CategoryEntry{
		{ID: "dev", Name: "Development", Order: 1},
		{ID: "ai", Name: "AI", Order: 2},
	}}
	shards := []string{"ai", "dev", "misc"}

	got := NewMapper().Map(config, shards)
	if len(got) != 3 {
		t.Fatalf("Map() = %d categories, want 3", len(got))
	}

	// Declared ordering first, synthesized shard last.
	if got[0].ID != "dev" || got[1].ID != "ai" || got[2].ID != "misc" {
		t.Errorf("Map() order = %s/%s/%s, want dev/ai/misc", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].Name != "Development" {
		t.Errorf("declared name = %q, want Development", got[0].Name)
	}
	if got[2].Name != "misc" {
		t.Errorf("synthesized name = %q, want the shard id", got[2].Name)
	}
	if got[2].Order <= got[1].Order {
		t.Errorf("synthesized order %d should come after declared %d", got[2].Order, got[1].Order)
	}
}

func TestMapKeepsDeclaredWithoutShard(t *testing.T) {
	config := &Config{Categories: []CategoryEntry{
		{ID: "upcoming", Name: "Upcoming", Order: 5},
	}}

	got := NewMapper().Map(config, nil)
	if len(got) != 1 {
		t.Fatalf("Map() = %d categories, want 1", len(got))
	}
	if got[0].ID != "upcoming" {
		t.Errorf("Map()[0].ID = %q, want upcoming", got[0].ID)
	}
}

func TestMapDefaultsNameToID(t *testing.T) {
	config := &Config{Categories: []CategoryEntry{{ID: "dev"}}}

	got := NewMapper().Map(config, []string{"dev"})
	if got[0].Name != "dev" {
		t.Errorf("Map() name = %q, want id fallback", got[0].Name)
	}
}
