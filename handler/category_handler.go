package handler

import (
	"context"
	"go-catalog-api/common"
	"go-catalog-api/model"
	"net/http"
)

type CategoryLister interface {
	ListCategories(ctx context.Context, storeID int64) ([]*model.Category, error)
}

type CategoryHandler struct {
	service CategoryLister
}

func NewCategoryHandler(service CategoryLister) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// List godoc
// @Summary      Category tree of a store
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        x-store-id header string true "Store id"
// @Success      200  {array}   model.Category
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /category [get]
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) *common.AppError {
	storeID, ok := storeIDFrom(r)
	if !ok {
		return common.NewValidationError([]common.FieldError{{Field: storeIDHeader, Message: "is required"}})
	}

	tree, err := h.service.ListCategories(r.Context(), storeID)
	if err != nil {
		return mapServiceError(err)
	}

	common.WriteSuccess(w, http.StatusOK, tree, "")
	return nil
}
