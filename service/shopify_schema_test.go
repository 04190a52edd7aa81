package service

import (
	"context"
	"errors"
	"fmt"
	"go-catalog-api/model"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const taxonomyDoc = `{
  "version": "2024-07",
  "verticals": [{
    "name": "Apparel & Accessories",
    "prefix": "aa",
    "categories": [{
      "id": "gid://shopify/TaxonomyCategory/aa-1",
      "name": "Clothing",
      "full_name": "Apparel & Accessories > Clothing",
      "attributes": [
        {"id": "gid://shopify/TaxonomyAttribute/1", "name": "Color", "handle": "color",
         "values": [
           {"id": "gid://shopify/TaxonomyValue/1", "name": "Red", "handle": "color__red"},
           {"id": "gid://shopify/TaxonomyValue/2", "name": "Blue", "handle": "color__blue"}
         ]},
        {"id": "gid://shopify/TaxonomyAttribute/2", "name": "Fabric", "handle": "fabric", "values": []}
      ]
    }]
  }]
}`

func taxonomyServer(t *testing.T, body string, status int) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// memoryCache is an IBatchCacheClient backed by a map, with a clock the test
// moves by hand.
type memoryCache struct {
	mu      sync.Mutex
	now     time.Time
	values  map[string]string
	expires map[string]time.Time
	batches int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{now: time.Now(), values: map[string]string{}, expires: map[string]time.Time{}}
}

func (c *memoryCache) Get(_ context.Context, key string) *redis.StringCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if exp, has := c.expires[key]; !ok || (has && !c.now.Before(exp)) {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value, expiration)
	return redis.NewStatusResult("OK", nil)
}

func (c *memoryCache) TxPipelined(_ context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	pipe := &memoryPipeline{}
	if err := fn(pipe); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, w := range pipe.writes {
		c.set(w.key, w.value, w.expiration)
	}
	c.batches++
	return nil, nil
}

func (c *memoryCache) set(key string, value interface{}, expiration time.Duration) {
	switch v := value.(type) {
	case []byte:
		c.values[key] = string(v)
	case string:
		c.values[key] = v
	default:
		c.values[key] = fmt.Sprint(v)
	}
	delete(c.expires, key)
	if expiration > 0 {
		c.expires[key] = c.now.Add(expiration)
	}
}

func (c *memoryCache) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *memoryCache) evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	delete(c.expires, key)
}

type pendingWrite struct {
	key        string
	value      interface{}
	expiration time.Duration
}

// memoryPipeline queues SETs until the surrounding TxPipelined applies them.
type memoryPipeline struct {
	redis.Pipeliner
	writes []pendingWrite
}

func (p *memoryPipeline) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	p.writes = append(p.writes, pendingWrite{key: key, value: value, expiration: expiration})
	return redis.NewStatusResult("", nil)
}

func TestShopifyProjector_ColdCache(t *testing.T) {
	ctx := context.Background()
	srv, hits := taxonomyServer(t, taxonomyDoc, http.StatusOK)
	cache := newMemoryCache()

	projector := NewShopifyProjector(NewShopifyTaxonomyCache(cache, srv.Client(), srv.URL, time.Hour))
	schema, err := projector.Project(ctx, "aa-1")
	require.NoError(t, err)

	assert.Equal(t, model.ChannelShopify, schema.Channel)
	assert.Equal(t, "aa-1", schema.Code)
	assert.Equal(t, "Clothing", schema.Title)
	assert.Equal(t, []string{}, schema.Required)

	color, ok := schema.Attributes.Get("color")
	require.True(t, ok)
	assert.Equal(t, "Color", color.Title)
	assert.False(t, color.Required)
	assert.Equal(t, []string{"color__red", "color__blue"}, color.Enum)
	assert.Equal(t, []string{"Red", "Blue"}, color.EnumNames)

	fabric, ok := schema.Attributes.Get("fabric")
	require.True(t, ok)
	assert.Nil(t, fabric.Enum)

	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Equal(t, 1, cache.batches)
	assert.Equal(t, cache.expires[shopifyIndexKey], cache.expires[shopifyCategoryKeyPrefix+"aa-1"])

	index, err := cache.Get(ctx, shopifyIndexKey).Result()
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"2024-07","codes":["aa-1"]}`, index)

	// served from Redis from now on
	_, err = projector.Project(ctx, "aa-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestShopifyProjector_WarmCache(t *testing.T) {
	ctx := context.Background()
	srv, hits := taxonomyServer(t, taxonomyDoc, http.StatusOK)

	cached := `{"id":"gid://shopify/TaxonomyCategory/aa-1","name":"Clothing","attributes":[{"name":"Color","handle":"color","values":[{"name":"Red","handle":"color__red"}]}]}`
	cache := new(mockCache)
	cache.On("Get", ctx, shopifyCategoryKeyPrefix+"aa-1").Return(redis.NewStringResult(cached, nil)).Once()

	projector := NewShopifyProjector(NewShopifyTaxonomyCache(cache, srv.Client(), srv.URL, time.Hour))
	schema, err := projector.Project(ctx, "aa-1")
	require.NoError(t, err)
	assert.Equal(t, "aa-1", schema.Code)
	assert.Len(t, schema.Attributes, 1)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
	cache.AssertNotCalled(t, "TxPipelined", mock.Anything)
}

func TestShopifyProjector_UnknownCode(t *testing.T) {
	ctx := context.Background()

	t.Run("loaded taxonomy does not refetch", func(t *testing.T) {
		srv, hits := taxonomyServer(t, taxonomyDoc, http.StatusOK)
		projector := NewShopifyProjector(NewShopifyTaxonomyCache(newMemoryCache(), srv.Client(), srv.URL, time.Hour))

		_, err := projector.Project(ctx, "aa-1")
		require.NoError(t, err)

		_, err = projector.Project(ctx, "zz-9")
		assert.ErrorIs(t, err, ErrSchemaNotFound)
		assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	})

	t.Run("cold taxonomy without the code", func(t *testing.T) {
		srv, hits := taxonomyServer(t, taxonomyDoc, http.StatusOK)
		projector := NewShopifyProjector(NewShopifyTaxonomyCache(newMemoryCache(), srv.Client(), srv.URL, time.Hour))

		_, err := projector.Project(ctx, "zz-9")
		assert.ErrorIs(t, err, ErrSchemaNotFound)
		assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	})
}

func TestShopifyTaxonomyCache_ReloadsMissingCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("evicted category of a live index is refetched", func(t *testing.T) {
		srv, hits := taxonomyServer(t, taxonomyDoc, http.StatusOK)
		cache := newMemoryCache()
		taxonomy := NewShopifyTaxonomyCache(cache, srv.Client(), srv.URL, time.Hour)

		_, err := taxonomy.Category(ctx, "aa-1")
		require.NoError(t, err)

		cache.evict(shopifyCategoryKeyPrefix + "aa-1")
		category, err := taxonomy.Category(ctx, "aa-1")
		require.NoError(t, err)
		assert.Equal(t, "Clothing", category.Name)
		assert.Equal(t, int32(2), atomic.LoadInt32(hits))
	})

	t.Run("index and categories expire together", func(t *testing.T) {
		srv, hits := taxonomyServer(t, taxonomyDoc, http.StatusOK)
		cache := newMemoryCache()
		taxonomy := NewShopifyTaxonomyCache(cache, srv.Client(), srv.URL, time.Hour)

		_, err := taxonomy.Category(ctx, "aa-1")
		require.NoError(t, err)

		cache.advance(time.Hour - time.Second)
		_, err = taxonomy.Category(ctx, "aa-1")
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(hits))

		cache.advance(time.Second)
		_, err = taxonomy.Category(ctx, "aa-1")
		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(hits))
	})

	t.Run("unreadable index triggers a reload", func(t *testing.T) {
		srv, hits := taxonomyServer(t, taxonomyDoc, http.StatusOK)
		cache := newMemoryCache()
		cache.Set(ctx, shopifyIndexKey, "not json", time.Hour)

		_, err := NewShopifyTaxonomyCache(cache, srv.Client(), srv.URL, time.Hour).Category(ctx, "aa-1")
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	})
}

func TestShopifyTaxonomyCache_BadUpstream(t *testing.T) {
	ctx := context.Background()
	newCache := func() *mockCache {
		cache := new(mockCache)
		cache.On("Get", ctx, mock.Anything).Return(redis.NewStringResult("", redis.Nil))
		return cache
	}

	t.Run("malformed document", func(t *testing.T) {
		srv, _ := taxonomyServer(t, `{"version":"x","verticals":[{"categories":[{"id":"","name":""}]}]}`, http.StatusOK)
		_, err := NewShopifyTaxonomyCache(newCache(), srv.Client(), srv.URL, time.Hour).Category(ctx, "aa-1")
		assert.ErrorIs(t, err, model.ErrMalformedTaxonomy)
	})

	t.Run("upstream error", func(t *testing.T) {
		srv, _ := taxonomyServer(t, "oops", http.StatusBadGateway)
		_, err := NewShopifyTaxonomyCache(newCache(), srv.Client(), srv.URL, time.Hour).Category(ctx, "aa-1")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrSchemaNotFound))
	})

	t.Run("batch write failure", func(t *testing.T) {
		srv, _ := taxonomyServer(t, taxonomyDoc, http.StatusOK)
		cache := newCache()
		cache.On("TxPipelined", mock.Anything).Return(errors.New("EXECABORT")).Once()

		_, err := NewShopifyTaxonomyCache(cache, srv.Client(), srv.URL, time.Hour).Category(ctx, "aa-1")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrSchemaNotFound))
		cache.AssertExpectations(t)
	})

	t.Run("redis failure", func(t *testing.T) {
		cache := new(mockCache)
		cache.On("Get", ctx, mock.Anything).Return(redis.NewStringResult("", errors.New("connection refused")))
		_, err := NewShopifyTaxonomyCache(cache, nil, "http://unused", time.Hour).Category(ctx, "aa-1")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrSchemaNotFound))
	})
}
