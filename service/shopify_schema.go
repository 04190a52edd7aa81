package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-catalog-api/logger"
	"go-catalog-api/model"
	"net/http"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	shopifyCategoryKeyPrefix = "shopify:taxonomy:category:"
	shopifyIndexKey          = "shopify:taxonomy:index"
)

// taxonomyIndex lists every code of the cached taxonomy. It is written in the
// same MULTI/EXEC as the categories, with the same TTL.
type taxonomyIndex struct {
	Version string   `json:"version"`
	Codes   []string `json:"codes"`
}

// ShopifyTaxonomyCache serves taxonomy categories from Redis. On a cold cache
// it downloads the published taxonomy once, validates it and caches every
// category for ttl.
type ShopifyTaxonomyCache struct {
	cache      IBatchCacheClient
	httpClient *http.Client
	url        string
	ttl        time.Duration
	group      singleflight.Group
}

func NewShopifyTaxonomyCache(cache IBatchCacheClient, httpClient *http.Client, url string, ttl time.Duration) *ShopifyTaxonomyCache {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ShopifyTaxonomyCache{cache: cache, httpClient: httpClient, url: url, ttl: ttl}
}

// Category returns the cached category for code or ErrSchemaNotFound.
func (c *ShopifyTaxonomyCache) Category(ctx context.Context, code string) (*model.ShopifyCategory, error) {
	cached, err := c.cache.Get(ctx, shopifyCategoryKeyPrefix+code).Result()
	switch {
	case err == nil:
		var category model.ShopifyCategory
		if err := json.Unmarshal([]byte(cached), &category); err != nil {
			return nil, fmt.Errorf("shopify: decode cached category %q: %w", code, err)
		}
		return &category, nil
	case !errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("shopify: read cached category %q: %w", code, err)
	}

	index, err := c.index(ctx)
	if err != nil {
		return nil, err
	}
	if index != nil && !slices.Contains(index.Codes, code) {
		return nil, ErrSchemaNotFound
	}

	// Nothing is cached, or code is listed but its key was evicted.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do("taxonomy", func() (interface{}, error) {
		return c.load(loadCtx)
	})
	if err != nil {
		return nil, err
	}
	category, ok := v.(map[string]*model.ShopifyCategory)[code]
	if !ok {
		return nil, ErrSchemaNotFound
	}
	return category, nil
}

// index returns nil when no usable index is cached.
func (c *ShopifyTaxonomyCache) index(ctx context.Context) (*taxonomyIndex, error) {
	raw, err := c.cache.Get(ctx, shopifyIndexKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("shopify: read taxonomy index: %w", err)
	}

	var index taxonomyIndex
	if err := json.Unmarshal([]byte(raw), &index); err != nil {
		logger.Log.WithError(err).Warn("Discarding unreadable Shopify taxonomy index")
		return nil, nil
	}
	return &index, nil
}

func (c *ShopifyTaxonomyCache) load(ctx context.Context) (map[string]*model.ShopifyCategory, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shopify: fetch taxonomy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shopify: fetch taxonomy: unexpected status %d", resp.StatusCode)
	}

	var taxonomy model.ShopifyTaxonomy
	if err := json.NewDecoder(resp.Body).Decode(&taxonomy); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedTaxonomy, err)
	}
	if err := taxonomy.Validate(); err != nil {
		return nil, err
	}

	byCode := make(map[string]*model.ShopifyCategory)
	index := taxonomyIndex{Version: taxonomy.Version}
	payloads := make([][]byte, 0)
	for vi := range taxonomy.Verticals {
		for ci := range taxonomy.Verticals[vi].Categories {
			category := &taxonomy.Verticals[vi].Categories[ci]
			data, err := json.Marshal(category)
			if err != nil {
				return nil, err
			}
			byCode[category.Code()] = category
			index.Codes = append(index.Codes, category.Code())
			payloads = append(payloads, data)
		}
	}
	indexData, err := json.Marshal(index)
	if err != nil {
		return nil, err
	}

	_, err = c.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, code := range index.Codes {
			pipe.Set(ctx, shopifyCategoryKeyPrefix+code, payloads[i], c.ttl)
		}
		pipe.Set(ctx, shopifyIndexKey, indexData, c.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("shopify: cache taxonomy: %w", err)
	}

	logger.Log.WithField("version", taxonomy.Version).WithField("categories", len(byCode)).Info("Shopify taxonomy cached")
	return byCode, nil
}

// ShopifyProjector builds the Shopify field schema of a taxonomy category.
// Every field is optional; the taxonomy says nothing about requiredness.
type ShopifyProjector struct {
	taxonomy *ShopifyTaxonomyCache
}

func NewShopifyProjector(taxonomy *ShopifyTaxonomyCache) *ShopifyProjector {
	return &ShopifyProjector{taxonomy: taxonomy}
}

func (p *ShopifyProjector) Project(ctx context.Context, code string) (*model.ChannelSchema, error) {
	category, err := p.taxonomy.Category(ctx, code)
	if err != nil {
		return nil, err
	}

	fields := make(model.FieldSet, 0, len(category.Attributes))
	for _, attr := range category.Attributes {
		field := model.Field{
			Name:  attr.Handle,
			Title: attr.Name,
			Type:  "string",
		}
		if len(attr.Values) > 0 {
			field.Enum = make([]string, len(attr.Values))
			field.EnumNames = make([]string, len(attr.Values))
			for i, v := range attr.Values {
				field.Enum[i] = v.Handle
				field.EnumNames[i] = v.Name
			}
		}
		fields = append(fields, field)
	}

	return &model.ChannelSchema{
		Channel:     model.ChannelShopify,
		Code:        category.Code(),
		Title:       category.Name,
		Description: category.FullName,
		Required:    []string{},
		Attributes:  fields,
	}, nil
}
