package catalog

import (
	"sort"

	"github.com/linklab/linkdex/internal/domain"
)

// Mapper merges declared category metadata with the shard identifiers
// actually present on disk.
type Mapper struct{}

// NewMapper creates a category mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map returns one descriptor per existing shard, enriched with declared
// metadata when categories.yaml knows the id. Shards without a declaration get
// a synthesized descriptor (id as name) ordered after all declared ones.
// Declared categories whose shard does not exist yet are kept too - the shard
// is created lazily on first write.
func (m *Mapper) Map(config *Config, shardIDs []string) []*domain.Category {
	declared := make(map[string]CategoryEntry, len(config.Categories))
	maxOrder := 0
	for _, entry := range config.Categories {
		declared[entry.ID] = entry
		if entry.Order > maxOrder {
			maxOrder = entry.Order
		}
	}

	seen := make(map[string]bool, len(shardIDs))
	categories := make([]*domain.Category, 0, len(shardIDs)+len(config.Categories))

	for _, id := range shardIDs {
		seen[id] = true
		if entry, ok := declared[id]; ok {
			categories = append(categories, entryToCategory(entry))
			continue
		}
		maxOrder++
		categories = append(categories, &domain.Category{
			ID:    id,
			Name:  id,
			Order: maxOrder,
		})
	}

	for _, entry := range config.Categories {
		if !seen[entry.ID] {
			categories = append(categories, entryToCategory(entry))
		}
	}

	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Order != categories[j].Order {
			return categories[i].Order < categories[j].Order
		}
		return categories[i].ID < categories[j].ID
	})
	return categories
}

func entryToCategory(entry CategoryEntry) *domain.Category {
	name := entry.Name
	if name == "" {
		name = entry.ID
	}
	return &domain.Category{
		ID:          entry.ID,
		Name:        name,
		Description: entry.Description,
		Order:       entry.Order,
		Icon:        entry.Icon,
		Color:       entry.Color,
	}
}
