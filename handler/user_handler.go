package handler

import (
	"context"
	"go-catalog-api/common"
	"go-catalog-api/model"
	"net/http"
)

type UserUseCase interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.RegisterResponse, error)
	GetProfile(ctx context.Context, userID int64) (*model.User, error)
}

type UserHandler struct {
	service UserUseCase
}

func NewUserHandler(service UserUseCase) *UserHandler {
	return &UserHandler{service: service}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a user together with a generated store.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        user body model.RegisterRequest true "New user"
// @Success      201  {object}  model.RegisterResponse
// @Failure      400  {object}  common.AppError "Validation failed"
// @Failure      409  {object}  common.AppError "Email is already registered"
// @Failure      500  {object}  common.AppError
// @Router       /users/register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	common.WriteSuccess(w, http.StatusCreated, resp, "User registered")
	return nil
}

// Me godoc
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.User
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	identity, ok := identityFrom(r)
	if !ok {
		return common.Unauthorized()
	}

	user, err := h.service.GetProfile(r.Context(), identity.ID)
	if err != nil {
		return mapServiceError(err)
	}

	common.WriteSuccess(w, http.StatusOK, user, "")
	return nil
}
