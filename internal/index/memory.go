package index

import (
	"sort"
	"sync"
	"time"

	"github.com/linklab/linkdex/internal/domain"
)

// Mirror is the in-memory copy of the full link collection plus the current
// version token. It is owned by the app and handed to the broadcaster and the
// scheduler at construction - there is no package-level singleton. The
// scheduler and the broadcast path are the only writers.
type Mirror struct {
	mu         sync.RWMutex
	links      map[string]*domain.Link // ID -> Link
	categories []*domain.Category      // declared + discovered descriptors, sorted by Order
	version    string                  // opaque token for client reconciliation
	lastReload time.Time
}

// NewMirror creates an empty collection mirror.
func NewMirror() *Mirror {
	return &Mirror{
		links: make(map[string]*domain.Link),
	}
}

// ReplaceAll swaps in a full snapshot of the collection and advances the
// version token.
func (m *Mirror) ReplaceAll(items []*domain.Link, version string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.links = make(map[string]*domain.Link, len(items))
	for _, item := range items {
		m.links[item.ID] = item
	}
	m.version = version
	m.lastReload = time.Now()
}

// MergeByID applies an incremental delta: changed items replace (or join) the
// current set by id. Deletions are not expressed through merges; the scheduler
// reconciles removals on its next full refresh.
func (m *Mirror) MergeByID(items []*domain.Link, version string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range items {
		m.links[item.ID] = item
	}
	m.version = version
}

// Remove drops an item from the mirror and advances the version token.
func (m *Mirror) Remove(id, version string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.links, id)
	m.version = version
}

// GetAll returns the collection ordered by category then creation time,
// so repeated reads yield a stable listing.
func (m *Mirror) GetAll() []*domain.Link {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*domain.Link, 0, len(m.links))
	for _, item := range m.links {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// Get retrieves one item by id.
func (m *Mirror) Get(id string) (*domain.Link, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.links[id]
	return item, ok
}

// Count returns the number of items currently mirrored.
func (m *Mirror) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}

// Version returns the current version token ("" before the first refresh).
func (m *Mirror) Version() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// UpdateCategories replaces the category descriptors.
func (m *Mirror) UpdateCategories(categories []*domain.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = categories
}

// GetCategories returns the current descriptors with live counts stamped in.
func (m *Mirror) GetCategories() []*domain.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int, len(m.categories))
	for _, item := range m.links {
		counts[item.Category]++
	}

	out := make([]*domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		cc := *c
		cc.Count = counts[c.ID]
		out = append(out, &cc)
	}
	return out
}

// GetLastReload returns the time of the last full refresh.
func (m *Mirror) GetLastReload() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastReload
}
