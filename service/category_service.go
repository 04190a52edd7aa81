// file: service/category_service.go

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"go-catalog-api/logger"
	"go-catalog-api/model"
	"go-catalog-api/repository"
	"sort"
	"time"
)

// CategoryService serves a store's category tree using a cache-aside strategy.
type CategoryService struct {
	repo  repository.ICategoryRepository
	cache ICacheClient
	ttl   time.Duration
}

func NewCategoryService(repo repository.ICategoryRepository, cache ICacheClient, ttl time.Duration) *CategoryService {
	return &CategoryService{repo: repo, cache: cache, ttl: ttl}
}

func categoryCacheKey(storeID int64) string {
	return fmt.Sprintf("category:%d", storeID)
}

// ListCategories returns the root categories of a store with their
// sub-categories nested.
func (s *CategoryService) ListCategories(ctx context.Context, storeID int64) ([]*model.Category, error) {
	cacheKey := categoryCacheKey(storeID)
	log := logger.Log.WithField("store_id", storeID)

	// 1. Try the cache.
	if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
		var tree []*model.Category
		if err := json.Unmarshal([]byte(cached), &tree); err == nil {
			return tree, nil
		}
		log.Warn("Discarding undecodable category cache entry")
	}

	// 2. Cache miss. Build from the database.
	rows, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	tree := BuildCategoryTree(rows)

	// 3. Store for later requests. A failed write only costs a future miss.
	if data, err := json.Marshal(tree); err == nil {
		if err := s.cache.Set(ctx, cacheKey, data, s.ttl).Err(); err != nil {
			log.WithError(err).Warn("Failed to cache category tree")
		}
	}
	return tree, nil
}

// BuildCategoryTree nests flat rows under their parents. Rows whose parent is
// missing are promoted to roots. Siblings are ordered by position then name.
func BuildCategoryTree(rows []model.CategoryRow) []*model.Category {
	nodes := make(map[int64]*model.Category, len(rows))
	for _, r := range rows {
		nodes[r.ID] = &model.Category{
			ID:            r.ID,
			Name:          r.Name,
			Description:   r.Description,
			Position:      r.Position,
			SubCategories: []*model.Category{},
		}
	}

	roots := []*model.Category{}
	for _, r := range rows {
		node := nodes[r.ID]
		if parent, ok := nodes[r.ParentID.Int64]; r.ParentID.Valid && ok && r.ParentID.Int64 != r.ID {
			parent.SubCategories = append(parent.SubCategories, node)
			continue
		}
		roots = append(roots, node)
	}

	sortCategories(roots)
	return roots
}

func sortCategories(list []*model.Category) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Position != list[j].Position {
			return list[i].Position < list[j].Position
		}
		return list[i].Name < list[j].Name
	})
	for _, c := range list {
		sortCategories(c.SubCategories)
	}
}
