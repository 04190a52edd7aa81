package handler

import (
	"errors"
	"go-catalog-api/common"
	"go-catalog-api/service"
	"net/http"
)

// ErrorHandlingMiddleware adapts handlers that return *common.AppError. It is
// the one place an error turns into a response.
func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// mapServiceError translates domain errors into their HTTP class. Anything
// unrecognised is a 500 with a generic message.
func mapServiceError(err error) *common.AppError {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return common.NewAppError(http.StatusUnauthorized, "Invalid email or password", err)
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return common.NewAppError(http.StatusUnauthorized, "Invalid or expired refresh token", err)
	case errors.Is(err, service.ErrUnauthorized):
		return common.Unauthorized()
	case errors.Is(err, service.ErrEmailTaken):
		return common.NewAppError(http.StatusConflict, "Email is already registered", err)
	case errors.Is(err, service.ErrUserNotFound):
		return common.NewAppError(http.StatusNotFound, "User not found", err)
	case errors.Is(err, service.ErrStoreNotFound):
		return common.NewAppError(http.StatusNotFound, "Store not found", err)
	case errors.Is(err, service.ErrSchemaNotFound):
		return common.NewAppError(http.StatusNotFound, "Schema not found", err)
	default:
		return common.Internal(err)
	}
}
