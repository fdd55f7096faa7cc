package file

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/linklab/linkdex/internal/domain"
	"github.com/linklab/linkdex/internal/logger"
)

// Repository implements link CRUD across the sharded store.
//
// Mutations follow "read whole shard, mutate in memory, write whole shard".
// A process-local mutex serializes mutations so two in-flight requests
// cannot silently drop each other's writes; there is no cross-process
// locking, so concurrent writers from separate instances still race
// (last write wins).
type Repository struct {
	store  *Store
	logger logger.Logger

	mu sync.Mutex // serializes mutations within this process
}

// Located pairs a link with the shard it was found in, since the id alone
// does not indicate location.
type Located struct {
	Link     *domain.Link
	Category string
}

// NewRepository creates a repository over the given shard store.
func NewRepository(store *Store, log logger.Logger) *Repository {
	return &Repository{store: store, logger: log}
}

// Add appends the link to its category's shard. The shard file is created on
// demand for a new category.
func (r *Repository) Add(ctx context.Context, link *domain.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.store.Read(ctx, link.Category)
	if err != nil {
		return err
	}
	items = append(items, link)
	return r.store.Write(ctx, link.Category, items)
}

// FindByID scans every shard concurrently until the id is found.
// Returns nil (no error) when the id is unknown.
func (r *Repository) FindByID(ctx context.Context, id string) (*Located, error) {
	categories, err := r.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	results := make([]*Located, len(categories))
	for i, category := range categories {
		i, category := i, category
		g.Go(func() error {
			items, err := r.store.Read(gctx, category)
			if err != nil {
				return err
			}
			for _, item := range items {
				if item.ID == id {
					results[i] = &Located{Link: item, Category: category}
					return nil
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, res := range results {
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}

// Update patches the link with the given id. When the patch moves the link to
// a different category the move is a delete-from-old plus insert-into-new
// (two whole-shard writes), keeping shard files consistent with the items
// they contain. UpdatedAt is always refreshed. Returns ErrNotFound when the
// id is unknown.
func (r *Repository) Update(ctx context.Context, id string, patch *domain.Link) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	located, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if located == nil {
		return nil, domain.ErrNotFound
	}

	updated := *located.Link
	updated.Title = patch.Title
	updated.Description = patch.Description
	updated.URL = patch.URL
	updated.Icon = patch.Icon
	updated.IconType = patch.IconType
	updated.Tags = patch.Tags
	updated.Featured = patch.Featured
	updated.Category = patch.Category
	updated.Touch()

	if patch.Category != located.Category {
		// Cross-shard move: insert into the new shard first, then remove from
		// the old one. A failure between the two writes leaves a transient
		// duplicate rather than a lost item.
		newItems, err := r.store.Read(ctx, patch.Category)
		if err != nil {
			return nil, err
		}
		newItems = append(newItems, &updated)
		if err := r.store.Write(ctx, patch.Category, newItems); err != nil {
			return nil, err
		}

		oldItems, err := r.store.Read(ctx, located.Category)
		if err != nil {
			return nil, err
		}
		if err := r.store.Write(ctx, located.Category, removeByID(oldItems, id)); err != nil {
			return nil, err
		}
		return &updated, nil
	}

	items, err := r.store.Read(ctx, located.Category)
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		if item.ID == id {
			items[i] = &updated
			break
		}
	}
	if err := r.store.Write(ctx, located.Category, items); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the link from its shard. Returns false when the id is
// unknown; deleting an already-deleted id is not an error.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	located, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if located == nil {
		return false, nil
	}

	items, err := r.store.Read(ctx, located.Category)
	if err != nil {
		return false, err
	}
	if err := r.store.Write(ctx, located.Category, removeByID(items, id)); err != nil {
		return false, err
	}
	return true, nil
}

// URLExists reports whether any link in any shard already uses the URL.
// excludeID lets an update skip the item being edited.
func (r *Repository) URLExists(ctx context.Context, url, excludeID string) (bool, error) {
	items, err := r.ListAll(ctx)
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if item.URL == url && item.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// ListAll reads every shard concurrently and concatenates the results,
// stamping each item's Category to the shard it was read from. The stamp
// guards against stale category values stored inside a shard file.
func (r *Repository) ListAll(ctx context.Context) ([]*domain.Link, error) {
	categories, err := r.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	perShard := make([][]*domain.Link, len(categories))
	for i, category := range categories {
		i, category := i, category
		g.Go(func() error {
			items, err := r.store.Read(gctx, category)
			if err != nil {
				return err
			}
			for _, item := range items {
				item.Category = category
			}
			perShard[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]*domain.Link, 0, 64)
	for _, items := range perShard {
		all = append(all, items...)
	}
	return all, nil
}

// CountByCategory returns the number of items per existing shard.
func (r *Repository) CountByCategory(ctx context.Context) (map[string]int, error) {
	items, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, 16)
	for _, item := range items {
		counts[item.Category]++
	}
	return counts, nil
}

func removeByID(items []*domain.Link, id string) []*domain.Link {
	out := make([]*domain.Link, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}
