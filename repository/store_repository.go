package repository

import (
	"context"
	"database/sql"
	"go-catalog-api/logger"
	"go-catalog-api/model"

	"github.com/sirupsen/logrus"
)

type IStoreRepository interface {
	CreateStore(ctx context.Context, tx *sql.Tx, store *model.Store) error
	GetDefaultStoreID(ctx context.Context, ownerID int64) (int64, error)
	IsOwner(ctx context.Context, storeID, ownerID int64) (bool, error)
}

type StoreRepository struct {
	DB *sql.DB
}

func NewStoreRepository(db *sql.DB) *StoreRepository {
	return &StoreRepository{DB: db}
}

func (r *StoreRepository) CreateStore(ctx context.Context, tx *sql.Tx, store *model.Store) error {
	log := logger.Log.WithFields(logrus.Fields{
		"owner_id": store.OwnerID,
		"name":     store.Name,
	})
	log.Info("Executing query to create a new store")

	query := `INSERT INTO stores (owner_id, name) VALUES ($1, $2) RETURNING id, created_at`
	err := tx.QueryRowContext(ctx, query, store.OwnerID, store.Name).Scan(&store.ID, &store.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create store query")
		return translate(err)
	}
	return nil
}

// GetDefaultStoreID returns the oldest store owned by ownerID.
func (r *StoreRepository) GetDefaultStoreID(ctx context.Context, ownerID int64) (int64, error) {
	var id int64
	query := `SELECT id FROM stores WHERE owner_id = $1 ORDER BY id LIMIT 1`
	if err := r.DB.QueryRowContext(ctx, query, ownerID).Scan(&id); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

// IsOwner reports whether storeID exists and belongs to ownerID.
func (r *StoreRepository) IsOwner(ctx context.Context, storeID, ownerID int64) (bool, error) {
	var owned bool
	query := `SELECT EXISTS (SELECT 1 FROM stores WHERE id = $1 AND owner_id = $2)`
	if err := r.DB.QueryRowContext(ctx, query, storeID, ownerID).Scan(&owned); err != nil {
		logger.Log.WithError(err).WithField("store_id", storeID).Error("Failed to execute store ownership query")
		return false, err
	}
	return owned, nil
}
