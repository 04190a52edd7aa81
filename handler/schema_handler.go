package handler

import (
	"context"
	"encoding/json"
	"go-catalog-api/common"
	"go-catalog-api/model"
	"net/http"
	"strings"
)

type SchemaProvider interface {
	AmazonSchema(ctx context.Context, productType string) (json.RawMessage, error)
	OndcSchema(ctx context.Context, code string) (*model.ChannelSchema, error)
	ShopifySchema(ctx context.Context, code string) (*model.ChannelSchema, error)
}

type SchemaHandler struct {
	service SchemaProvider
}

func NewSchemaHandler(service SchemaProvider) *SchemaHandler {
	return &SchemaHandler{service: service}
}

func schemaType(r *http.Request) (string, *common.AppError) {
	t := strings.TrimSpace(r.URL.Query().Get("type"))
	if t == "" {
		return "", common.NewValidationError([]common.FieldError{{Field: "type", Message: "is required"}})
	}
	return t, nil
}

// Amazon godoc
// @Summary      Amazon product type definition
// @Description  Returns the Selling Partner API product type definition unchanged.
// @Tags         schema
// @Produce      json
// @Security     BearerAuth
// @Param        type query string true "Product type, e.g. SHIRT"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /schema/amazon [get]
func (h *SchemaHandler) Amazon(w http.ResponseWriter, r *http.Request) *common.AppError {
	productType, appErr := schemaType(r)
	if appErr != nil {
		return appErr
	}

	schema, err := h.service.AmazonSchema(r.Context(), productType)
	if err != nil {
		return mapServiceError(err)
	}

	common.WriteSuccess(w, http.StatusOK, schema, "")
	return nil
}

// Ondc godoc
// @Summary      ONDC category schema
// @Tags         schema
// @Produce      json
// @Security     BearerAuth
// @Param        type query string true "ONDC category code"
// @Success      200  {object}  model.ChannelSchema
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /schema/ondc [get]
func (h *SchemaHandler) Ondc(w http.ResponseWriter, r *http.Request) *common.AppError {
	code, appErr := schemaType(r)
	if appErr != nil {
		return appErr
	}

	schema, err := h.service.OndcSchema(r.Context(), code)
	if err != nil {
		return mapServiceError(err)
	}

	common.WriteSuccess(w, http.StatusOK, schema, "")
	return nil
}

// Shopify godoc
// @Summary      Shopify taxonomy category schema
// @Tags         schema
// @Produce      json
// @Security     BearerAuth
// @Param        type query string true "Taxonomy category code, e.g. aa-1"
// @Success      200  {object}  model.ChannelSchema
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /schema/shopify [get]
func (h *SchemaHandler) Shopify(w http.ResponseWriter, r *http.Request) *common.AppError {
	code, appErr := schemaType(r)
	if appErr != nil {
		return appErr
	}

	schema, err := h.service.ShopifySchema(r.Context(), code)
	if err != nil {
		return mapServiceError(err)
	}

	common.WriteSuccess(w, http.StatusOK, schema, "")
	return nil
}
