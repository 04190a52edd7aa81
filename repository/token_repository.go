// file: repository/token_repository.go

package repository

import (
	"context"
	"database/sql"
	"errors"
	"go-catalog-api/logger"
	"go-catalog-api/model"

	"github.com/sirupsen/logrus"
)

// ITokenRepository defines the contract for refresh token database operations.
type ITokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	CreateTx(ctx context.Context, tx *sql.Tx, token *model.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, tx *sql.Tx, id int64) error
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)
}

// TokenRepository implements ITokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const insertRefreshToken = `INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3) RETURNING id, revoked, created_at`

func insertToken(ctx context.Context, q rowQuerier, token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    token.UserID,
		"expires_at": token.ExpiresAt,
	})
	log.Info("Executing query to create a new refresh token")

	err := q.QueryRowContext(ctx, insertRefreshToken, token.UserID, token.Token, token.ExpiresAt).
		Scan(&token.ID, &token.Revoked, &token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create refresh token query")
		return translate(err)
	}
	return nil
}

// Create inserts a new, non-revoked refresh token record.
func (r *TokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return insertToken(ctx, r.DB, token)
}

// CreateTx is Create bound to an open transaction.
func (r *TokenRepository) CreateTx(ctx context.Context, tx *sql.Tx, token *model.RefreshToken) error {
	return insertToken(ctx, tx, token)
}

// GetByToken retrieves a refresh token record by its token string.
func (r *TokenRepository) GetByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	rt := &model.RefreshToken{}
	query := `SELECT id, user_id, token, expires_at, revoked, created_at FROM refresh_tokens WHERE token = $1`
	err := r.DB.QueryRowContext(ctx, query, token).
		Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.Revoked, &rt.CreatedAt)
	if err != nil {
		err = translate(err)
		if !errors.Is(err, ErrNotFound) {
			logger.Log.WithError(err).Error("Failed to execute get refresh token query")
		}
		return nil, err
	}
	return rt, nil
}

// Revoke marks a still-active record revoked. It returns ErrNotFound when the
// record does not exist or was already revoked, so two concurrent rotations of
// the same token cannot both succeed.
func (r *TokenRepository) Revoke(ctx context.Context, tx *sql.Tx, id int64) error {
	log := logger.Log.WithField("token_id", id)
	log.Info("Executing query to revoke a refresh token")

	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1 AND revoked = FALSE`
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute revoke refresh token query")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAllForUser revokes every active token of a user. This is used for
// logging out from all sessions.
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to revoke all refresh tokens for a user")

	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND revoked = FALSE`
	res, err := r.DB.ExecContext(ctx, query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute revoke refresh tokens query")
		return 0, err
	}
	return res.RowsAffected()
}
