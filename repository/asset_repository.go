package repository

import (
	"context"
	"go-catalog-api/model"

	"github.com/jmoiron/sqlx"
)

type IAssetRepository interface {
	GetByID(ctx context.Context, storeID, id int64) (*model.Asset, error)
}

type AssetRepository struct {
	DB *sqlx.DB
}

func NewAssetRepository(db *sqlx.DB) *AssetRepository {
	return &AssetRepository{DB: db}
}

// GetByID loads one asset scoped to storeID. Assets of other stores are
// reported as ErrNotFound.
func (r *AssetRepository) GetByID(ctx context.Context, storeID, id int64) (*model.Asset, error) {
	var asset model.Asset
	query := `SELECT id, store_id, uri, metadata, position, created_at FROM assets WHERE id = $1 AND store_id = $2`
	if err := r.DB.GetContext(ctx, &asset, query, id, storeID); err != nil {
		return nil, translate(err)
	}
	return &asset, nil
}
