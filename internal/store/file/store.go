package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/linklab/linkdex/internal/domain"
	"github.com/linklab/linkdex/internal/logger"
)

// NestedDir is the directory under the content root that holds two-level
// category shards: <root>/category/<top>/<sub>.json.
const NestedDir = "category"

// Store maps category identifiers to shard files and performs whole-file
// read/write of those shards. One JSON file per category; shards are created
// lazily on first write.
type Store struct {
	root   string
	logger logger.Logger
}

// NewStore creates a shard store rooted at the given content directory.
func NewStore(root string, log logger.Logger) *Store {
	return &Store{root: root, logger: log}
}

// Root returns the content directory the store operates on.
func (s *Store) Root() string { return s.root }

// ShardPath resolves a category identifier to its shard file path.
// Root-level categories map to <root>/<category>.json, nested ones to
// <root>/category/<top>/<sub>.json.
func (s *Store) ShardPath(category string) string {
	top, sub := domain.SplitCategoryID(category)
	if sub == "" {
		return filepath.Join(s.root, top+".json")
	}
	return filepath.Join(s.root, NestedDir, top, sub+".json")
}

// Read returns the full contents of a category shard. A missing shard is an
// empty shard, not an error. A corrupt or unreadable shard also degrades to
// empty (with a warn log) so one bad category cannot take down the whole
// directory listing.
func (s *Store) Read(ctx context.Context, category string) ([]*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.ShardPath(category))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read shard, treating as empty",
				logger.String("category", category),
				logger.Error(err))
		}
		return []*domain.Link{}, nil
	}

	var items []*domain.Link
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("corrupt shard, treating as empty",
			logger.String("category", category),
			logger.Error(err))
		return []*domain.Link{}, nil
	}
	if items == nil {
		items = []*domain.Link{}
	}
	return items, nil
}

// Write serializes the full item array as pretty JSON, creating parent
// directories as needed. Unlike Read, failures here are surfaced to the
// caller: a lost write is a real error.
func (s *Store) Write(ctx context.Context, category string, items []*domain.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if items == nil {
		items = []*domain.Link{}
	}

	path := s.ShardPath(category)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &domain.StorageError{Category: category, Op: "write", Err: fmt.Errorf("mkdir: %w", err)}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return &domain.StorageError{Category: category, Op: "write", Err: fmt.Errorf("marshal: %w", err)}
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &domain.StorageError{Category: category, Op: "write", Err: err}
	}
	return nil
}

// ListCategories discovers all existing shards by walking the content
// directory: root-level *.json files plus one level of subdirectories under
// category/, whose files become "parent/child" identifiers. The walk - not a
// registry - is the source of truth for what categories exist.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &domain.StorageError{Category: "", Op: "list", Err: err}
	}

	var categories []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), ".json"); ok {
			categories = append(categories, name)
		}
	}

	nested, err := os.ReadDir(filepath.Join(s.root, NestedDir))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read nested category directory",
				logger.Error(err))
		}
		sort.Strings(categories)
		return categories, nil
	}

	for _, top := range nested {
		if !top.IsDir() {
			continue
		}
		subs, err := os.ReadDir(filepath.Join(s.root, NestedDir, top.Name()))
		if err != nil {
			s.logger.Warn("failed to read category subdirectory, skipping",
				logger.String("category", top.Name()),
				logger.Error(err))
			continue
		}
		for _, sub := range subs {
			if sub.IsDir() {
				continue
			}
			if name, ok := strings.CutSuffix(sub.Name(), ".json"); ok {
				categories = append(categories, top.Name()+"/"+name)
			}
		}
	}

	sort.Strings(categories)
	return categories, nil
}
