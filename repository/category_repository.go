package repository

import (
	"context"
	"go-catalog-api/logger"
	"go-catalog-api/model"

	"github.com/jmoiron/sqlx"
)

type ICategoryRepository interface {
	ListByStore(ctx context.Context, storeID int64) ([]model.CategoryRow, error)
}

type CategoryRepository struct {
	DB *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

// ListByStore returns the flat category rows of a store, roots first.
func (r *CategoryRepository) ListByStore(ctx context.Context, storeID int64) ([]model.CategoryRow, error) {
	log := logger.Log.WithField("store_id", storeID)
	log.Info("Executing query to list categories by store")

	rows := []model.CategoryRow{}
	query := `
		SELECT id, store_id, parent_id, name, description, position
		FROM categories
		WHERE store_id = $1
		ORDER BY parent_id NULLS FIRST, position, name`
	if err := r.DB.SelectContext(ctx, &rows, query, storeID); err != nil {
		log.WithError(err).Error("Failed to execute list categories query")
		return nil, err
	}
	return rows, nil
}
