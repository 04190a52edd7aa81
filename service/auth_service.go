package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-catalog-api/config"
	"go-catalog-api/logger"
	"go-catalog-api/model"
	"go-catalog-api/repository"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthService owns credentials, token issuance, refresh-token rotation and
// session authentication.
type AuthService struct {
	db        *sql.DB
	userRepo  repository.IUserRepository
	storeRepo repository.IStoreRepository
	tokenRepo repository.ITokenRepository
	cfg       config.JWTConfig
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(
	db *sql.DB,
	userRepo repository.IUserRepository,
	storeRepo repository.IStoreRepository,
	tokenRepo repository.ITokenRepository,
	cfg config.JWTConfig,
) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		db:        db,
		userRepo:  userRepo,
		storeRepo: storeRepo,
		tokenRepo: tokenRepo,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// burnCompare spends the same bcrypt work as a real comparison so unknown
// emails take as long to reject as wrong passwords.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.cfg.BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

func (s *AuthService) keyFor(kind model.TokenKind) ([]byte, time.Duration) {
	if kind == model.KindRefresh {
		return []byte(s.cfg.RefreshSecret), s.cfg.RefreshTTL
	}
	return []byte(s.cfg.AccessSecret), s.cfg.AccessTTL
}

func (s *AuthService) issue(kind model.TokenKind, userID int64, email string) (string, time.Time, error) {
	key, ttl := s.keyFor(kind)
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := &model.AppClaims{
		Email: email,
		Type:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to sign JWT")
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return tokenString, expiresAt, nil
}

func (s *AuthService) IssueAccessToken(userID int64, email string) (string, error) {
	token, _, err := s.issue(model.KindAccess, userID, email)
	return token, err
}

func (s *AuthService) IssueRefreshToken(userID int64, email string) (string, time.Time, error) {
	return s.issue(model.KindRefresh, userID, email)
}

// ParseToken verifies signature, algorithm and expiry with the secret of kind
// and rejects tokens whose type claim names another kind.
func (s *AuthService) ParseToken(tokenString string, kind model.TokenKind) (*model.AppClaims, error) {
	key, _ := s.keyFor(kind)
	claims := &model.AppClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Type != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", jwt.ErrTokenInvalidClaims, kind, claims.Type)
	}
	return claims, nil
}

// Authenticate resolves an access token to the caller's identity. Every
// failure collapses into ErrUnauthorized.
func (s *AuthService) Authenticate(tokenString string) (*model.Identity, error) {
	claims, err := s.ParseToken(tokenString, model.KindAccess)
	if err != nil {
		logger.Log.WithError(err).Debug("Access token rejected")
		return nil, ErrUnauthorized
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return &model.Identity{ID: id, Email: claims.Email}, nil
}

// Login verifies the credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	log := logger.Log.WithField("email", email)

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.burnCompare(password)
			log.Info("Login attempt for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("could not load user: %w", err)
	}
	if !s.CheckPasswordHash(password, user.Password) {
		log.Info("Login attempt with wrong password")
		return nil, ErrInvalidCredentials
	}

	// no token is issued, let alone persisted, for a user without a store
	storeID, err := s.storeRepo.GetDefaultStoreID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("could not load store: %w", err)
	}

	accessToken, err := s.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refreshToken, expiresAt, err := s.IssueRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	record := &model.RefreshToken{UserID: user.ID, Token: refreshToken, ExpiresAt: expiresAt}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("could not persist refresh token: %w", err)
	}

	log.WithField("user_id", user.ID).Info("User logged in")
	return &model.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
		StoreID:      storeID,
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked and its successor inserted in one transaction.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	claims, err := s.ParseToken(refreshToken, model.KindRefresh)
	if err != nil {
		logger.Log.WithError(err).Debug("Refresh token rejected")
		return nil, ErrInvalidRefreshToken
	}

	record, err := s.tokenRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("could not load refresh token: %w", err)
	}

	log := logger.Log.WithFields(logrus.Fields{
		"token_id": record.ID,
		"user_id":  record.UserID,
	})

	if !record.Active(s.now()) || claims.Subject != strconv.FormatInt(record.UserID, 10) {
		log.Warn("Refresh token is revoked, expired or does not match its owner")
		return nil, ErrInvalidRefreshToken
	}

	accessToken, err := s.IssueAccessToken(record.UserID, claims.Email)
	if err != nil {
		return nil, err
	}
	newRefresh, expiresAt, err := s.IssueRefreshToken(record.UserID, claims.Email)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.tokenRepo.Revoke(ctx, tx, record.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Refresh token was rotated concurrently")
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("could not revoke refresh token: %w", err)
	}

	successor := &model.RefreshToken{UserID: record.UserID, Token: newRefresh, ExpiresAt: expiresAt}
	if err := s.tokenRepo.CreateTx(ctx, tx, successor); err != nil {
		return nil, fmt.Errorf("could not persist rotated refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	log.Info("Refresh token rotated")
	return &model.TokenPair{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

// Logout revokes every active refresh token of userID.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	n, err := s.tokenRepo.RevokeAllForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("could not revoke refresh tokens: %w", err)
	}
	logger.Log.WithFields(logrus.Fields{"user_id": userID, "revoked": n}).Info("User logged out")
	return nil
}
