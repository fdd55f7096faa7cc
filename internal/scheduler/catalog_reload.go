package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/linklab/linkdex/internal/domain"
	"github.com/linklab/linkdex/internal/index"
	"github.com/linklab/linkdex/internal/logger"
	"github.com/linklab/linkdex/internal/sources/catalog"
	"github.com/linklab/linkdex/internal/store/file"
	redisstore "github.com/linklab/linkdex/internal/store/redis"
)

// Broadcaster pushes a reconciled collection to connected clients.
// Satisfied by ws.Hub.
type Broadcaster interface {
	BroadcastUpdate(ctx context.Context, items []*domain.Link, incremental bool) string
}

// CatalogReloader periodically re-walks the shard files and reloads
// categories.yaml, refreshing the collection mirror (and the Redis cache,
// best effort). It exists to pick up out-of-band edits to the content
// directory; API mutations keep the mirror current on their own.
type CatalogReloader struct {
	loader        *catalog.Loader
	mapper        *catalog.Mapper
	repo          *file.Repository
	store         *file.Store
	mirror        *index.Mirror
	cache         *redisstore.Cache // nil when the cache is disabled
	hub           Broadcaster       // nil in tests
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewCatalogReloader creates a reloader; call Start to run it.
func NewCatalogReloader(
	categoriesFile string,
	repo *file.Repository,
	store *file.Store,
	mirror *index.Mirror,
	cache *redisstore.Cache,
	hub Broadcaster,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *CatalogReloader {
	return &CatalogReloader{
		loader:        catalog.NewLoader(categoriesFile),
		mapper:        catalog.NewMapper(),
		repo:          repo,
		store:         store,
		mirror:        mirror,
		cache:         cache,
		hub:           hub,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads immediately, then refreshes on every tick and on every manual
// trigger until Stop or ctx cancellation.
func (cr *CatalogReloader) Start(ctx context.Context) error {
	if err := cr.Reload(ctx); err != nil {
		return fmt.Errorf("initial catalog reload failed: %w", err)
	}

	ticker := time.NewTicker(cr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cr.Reload(ctx); err != nil {
					cr.logger.Error("failed to reload catalog",
						logger.Error(err))
				}
			case <-cr.manualTrigger:
				cr.logger.Info("manual catalog reload triggered")
				if err := cr.Reload(ctx); err != nil {
					cr.logger.Error("failed to reload catalog",
						logger.Error(err))
				}
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader.
func (cr *CatalogReloader) Stop() {
	close(cr.stopCh)
}

// Reload re-reads everything from disk and reconciles the mirror. When the
// on-disk collection differs from the mirrored one, the change is broadcast
// to connected clients as a full update.
func (cr *CatalogReloader) Reload(ctx context.Context) error {
	items, err := cr.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list links: %w", err)
	}

	shardIDs, err := cr.store.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	config, err := cr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load category metadata: %w", err)
	}

	categories := cr.mapper.Map(config, shardIDs)
	cr.mirror.UpdateCategories(categories)

	if collectionEqual(cr.mirror.GetAll(), items) && cr.mirror.Version() != "" {
		cr.logger.Debug("catalog unchanged on reload",
			logger.Int("links", len(items)),
			logger.Int("categories", len(categories)))
		return nil
	}

	if cr.hub != nil {
		version := cr.hub.BroadcastUpdate(ctx, items, false)
		cr.logger.Info("catalog reloaded",
			logger.Int("links", len(items)),
			logger.Int("categories", len(categories)),
			logger.String("version", version))
	} else {
		cr.mirror.ReplaceAll(items, "")
	}

	// Refresh the Redis cache (best effort).
	if cr.cache != nil {
		if err := cr.cache.SaveCollection(ctx, cr.mirror.GetAll(), cr.mirror.Version()); err != nil {
			cr.logger.Warn("failed to refresh redis cache",
				logger.Error(err))
		}
	}

	return nil
}

// collectionEqual compares two collections by their canonical JSON form.
// Cheap at directory scale and avoids a field-by-field walk.
func collectionEqual(a, b []*domain.Link) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[string]*domain.Link, len(a))
	for _, item := range a {
		byID[item.ID] = item
	}
	for _, item := range b {
		other, ok := byID[item.ID]
		if !ok {
			return false
		}
		aj, _ := json.Marshal(other)
		bj, _ := json.Marshal(item)
		if !bytes.Equal(aj, bj) {
			return false
		}
	}
	return true
}
