package service

import (
	"context"
	"encoding/json"
	"go-catalog-api/model"
	"strings"
)

// SchemaService routes schema requests to the projector of each channel.
type SchemaService struct {
	amazon  *AmazonSchemaProvider
	ondc    *OndcProjector
	shopify *ShopifyProjector
}

func NewSchemaService(amazon *AmazonSchemaProvider, ondc *OndcProjector, shopify *ShopifyProjector) *SchemaService {
	return &SchemaService{amazon: amazon, ondc: ondc, shopify: shopify}
}

func (s *SchemaService) AmazonSchema(ctx context.Context, productType string) (json.RawMessage, error) {
	return s.amazon.Schema(ctx, strings.ToUpper(strings.TrimSpace(productType)))
}

func (s *SchemaService) OndcSchema(ctx context.Context, code string) (*model.ChannelSchema, error) {
	return s.ondc.Project(ctx, strings.TrimSpace(code))
}

func (s *SchemaService) ShopifySchema(ctx context.Context, code string) (*model.ChannelSchema, error) {
	return s.shopify.Project(ctx, strings.TrimSpace(code))
}
