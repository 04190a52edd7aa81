package handler

import (
	"context"
	"fmt"
	"go-catalog-api/common"
	"go-catalog-api/logger"
	"go-catalog-api/model"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
)

type AssetResolver interface {
	ResolveAssets(ctx context.Context, storeID int64, ids []int64) []*model.AssetView
}

type AssetHandler struct {
	service AssetResolver
}

func NewAssetHandler(service AssetResolver) *AssetHandler {
	return &AssetHandler{service: service}
}

// All godoc
// @Summary      Resolve a batch of assets
// @Description  Returns the requested assets with a fetchable assetUrl. Assets that cannot be found or signed are left out.
// @Tags         assets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        x-store-id header string true "Store id"
// @Param        body body model.AssetBatchRequest true "Asset ids"
// @Success      200  {array}   model.AssetView
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /asset/all [post]
func (h *AssetHandler) All(w http.ResponseWriter, r *http.Request) *common.AppError {
	storeID, ok := storeIDFrom(r)
	if !ok {
		return common.NewValidationError([]common.FieldError{{Field: storeIDHeader, Message: "is required"}})
	}

	var req model.AssetBatchRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	ids := make([]int64, 0, len(req.AssetIDs))
	for i, raw := range req.AssetIDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return common.NewValidationError([]common.FieldError{{
				Field:   fmt.Sprintf("assetIds[%d]", i),
				Message: "must be a 64-bit integer",
			}})
		}
		ids = append(ids, id)
	}

	views := h.service.ResolveAssets(r.Context(), storeID, ids)
	logger.Log.WithFields(logrus.Fields{
		"store_id":  storeID,
		"requested": len(ids),
		"resolved":  len(views),
	}).Info("Asset batch resolved")

	common.WriteSuccess(w, http.StatusOK, views, "")
	return nil
}
