package app

import (
	"go-catalog-api/config"
	"go-catalog-api/logger"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WiresRouter(t *testing.T) {
	logger.Init()

	database, _, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	presigner := s3.NewPresignClient(s3.New(s3.Options{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("k", "s", ""),
	}))

	cfg := &config.Config{
		JWT:   config.JWTConfig{AccessSecret: "a", RefreshSecret: "b", AccessTTL: time.Minute, RefreshTTL: time.Hour, BcryptCost: 4},
		S3:    config.S3Config{PresignTTL: time.Hour},
		Cache: config.CacheConfig{CategoryTTL: time.Minute},
	}

	application := New(cfg, database, rdb, presigner)
	require.NotNil(t, application.Router)

	rr := httptest.NewRecorder()
	application.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	application.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
