package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-catalog-api/logger"
	"go-catalog-api/model"
	"go-catalog-api/repository"
	"strings"
)

// PasswordHasher hashes plaintext passwords for storage.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// UserService handles registration and profile lookups.
type UserService struct {
	db        *sql.DB
	userRepo  repository.IUserRepository
	storeRepo repository.IStoreRepository
	hasher    PasswordHasher
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, userRepo repository.IUserRepository, storeRepo repository.IStoreRepository, hasher PasswordHasher) *UserService {
	return &UserService{
		db:        db,
		userRepo:  userRepo,
		storeRepo: storeRepo,
		hasher:    hasher,
	}
}

// Register creates the user and their first store in a single transaction.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	log := logger.Log.WithField("email", email)

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	user := &model.User{Email: email, Password: hash, Name: strings.TrimSpace(req.Name)}
	if err := s.userRepo.CreateUser(ctx, tx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("could not create user: %w", err)
	}

	store := &model.Store{OwnerID: user.ID, Name: defaultStoreName(user)}
	if err := s.storeRepo.CreateStore(ctx, tx, store); err != nil {
		return nil, fmt.Errorf("could not create store: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	log.WithField("user_id", user.ID).Info("User registered")
	return &model.RegisterResponse{User: user, StoreID: store.ID}, nil
}

func defaultStoreName(u *model.User) string {
	owner := u.Name
	if owner == "" {
		owner, _, _ = strings.Cut(u.Email, "@")
	}
	return owner + "'s store"
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// AuthorizeStore returns ErrStoreNotFound unless storeID belongs to userID.
// Someone else's store is reported exactly like a missing one.
func (s *UserService) AuthorizeStore(ctx context.Context, userID, storeID int64) error {
	owned, err := s.storeRepo.IsOwner(ctx, storeID, userID)
	if err != nil {
		return fmt.Errorf("could not check store ownership: %w", err)
	}
	if !owned {
		logger.Log.WithField("user_id", userID).WithField("store_id", storeID).Warn("Store access denied")
		return ErrStoreNotFound
	}
	return nil
}
