package handler

import (
	"context"
	"go-catalog-api/common"
	"go-catalog-api/model"
	"net/http"
)

// AuthUseCase is what the auth endpoints need from the service layer.
type AuthUseCase interface {
	Login(ctx context.Context, email, password string) (*model.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error)
	Logout(ctx context.Context, userID int64) error
}

type AuthHandler struct {
	service AuthUseCase
}

func NewAuthHandler(service AuthUseCase) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login godoc
// @Summary      Log in
// @Description  Verifies the credentials and returns an access token, a refresh token, the user and their default store id.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials body model.LoginRequest true "Email and password"
// @Success      200  {object}  model.LoginResponse
// @Failure      400  {object}  common.AppError "Malformed or invalid body"
// @Failure      401  {object}  common.AppError "Invalid email or password"
// @Failure      500  {object}  common.AppError
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(err)
	}

	common.WriteSuccess(w, http.StatusOK, resp, "Login successful")
	return nil
}

// Refresh godoc
// @Summary      Rotate the refresh token
// @Description  Exchanges a valid refresh token for a new access and refresh token. The presented token is revoked.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body model.RefreshRequest true "Refresh token"
// @Success      200  {object}  model.TokenPair
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError "Invalid, expired or revoked refresh token"
// @Failure      500  {object}  common.AppError
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		return mapServiceError(err)
	}

	common.WriteSuccess(w, http.StatusOK, pair, "Token refreshed")
	return nil
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes every refresh token of the current user.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	identity, ok := identityFrom(r)
	if !ok {
		return common.Unauthorized()
	}

	if err := h.service.Logout(r.Context(), identity.ID); err != nil {
		return mapServiceError(err)
	}

	common.WriteSuccess(w, http.StatusOK, nil, "Logged out")
	return nil
}
