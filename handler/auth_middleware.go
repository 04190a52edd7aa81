package handler

import (
	"context"
	"go-catalog-api/common"
	"go-catalog-api/model"
	"net/http"
	"strconv"
	"strings"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
	StoreIDKey  contextKey = "storeID"
)

const storeIDHeader = "x-store-id"

// Authenticator resolves an access token to the caller.
type Authenticator interface {
	Authenticate(token string) (*model.Identity, error)
}

// AuthMiddleware requires a valid bearer access token. Every failure gets the
// same 401 so callers cannot tell a missing token from a forged one.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				common.Unauthorized().Send(w)
				return
			}

			identity, err := auth.Authenticate(strings.TrimSpace(token))
			if err != nil {
				common.Unauthorized().Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StoreAuthorizer confirms the caller may act on a store.
type StoreAuthorizer interface {
	AuthorizeStore(ctx context.Context, userID, storeID int64) error
}

// StoreIDMiddleware rejects requests without a numeric x-store-id header, or
// naming a store the caller does not own, before any business logic runs. It
// must sit behind AuthMiddleware.
func StoreIDMiddleware(stores StoreAuthorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(storeIDHeader))
			if raw == "" {
				common.NewValidationError([]common.FieldError{{Field: storeIDHeader, Message: "is required"}}).Send(w)
				return
			}
			storeID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || storeID <= 0 {
				common.NewValidationError([]common.FieldError{{Field: storeIDHeader, Message: "must be numeric"}}).Send(w)
				return
			}

			identity, ok := identityFrom(r)
			if !ok {
				common.Unauthorized().Send(w)
				return
			}
			if err := stores.AuthorizeStore(r.Context(), identity.ID, storeID); err != nil {
				mapServiceError(err).Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), StoreIDKey, storeID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFrom(r *http.Request) (*model.Identity, bool) {
	identity, ok := r.Context().Value(IdentityKey).(*model.Identity)
	return identity, ok && identity != nil
}

func storeIDFrom(r *http.Request) (int64, bool) {
	storeID, ok := r.Context().Value(StoreIDKey).(int64)
	return storeID, ok
}
