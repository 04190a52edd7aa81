package handler

import (
	"encoding/json"
	"errors"
	"go-catalog-api/common"
	"go-catalog-api/model"
	"go-catalog-api/service"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func serve(h func(http.ResponseWriter, *http.Request) *common.AppError, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ErrorHandlingMiddleware(h).ServeHTTP(rr, r)
	return rr
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(mockAuthUseCase)
		svc.On("Login", mock.Anything, "a@b.co", "password123").Return(&model.LoginResponse{
			AccessToken:  "access",
			RefreshToken: "refresh",
			User:         &model.User{ID: 7, Email: "a@b.co"},
			StoreID:      42,
		}, nil).Once()

		rr := serve(NewAuthHandler(svc).Login, newRequest(http.MethodPost, "/auth/login", `{"email":"a@b.co","password":"password123"}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.True(t, env.Success)
		assert.JSONEq(t, `{"accessToken":"access","refreshToken":"refresh","storeId":"42",
			"user":{"id":"7","email":"a@b.co","createdAt":"0001-01-01T00:00:00Z","updatedAt":"0001-01-01T00:00:00Z"}}`, string(env.Data))
	})

	t.Run("wrong credentials", func(t *testing.T) {
		svc := new(mockAuthUseCase)
		svc.On("Login", mock.Anything, "a@b.co", "nope").Return(nil, service.ErrInvalidCredentials).Once()

		rr := serve(NewAuthHandler(svc).Login, newRequest(http.MethodPost, "/auth/login", `{"email":"a@b.co","password":"nope"}`))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.False(t, env.Success)
		assert.Equal(t, "Invalid email or password", env.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(mockAuthUseCase)
		rr := serve(NewAuthHandler(svc).Login, newRequest(http.MethodPost, "/auth/login", `{"email":`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid request body", decodeEnvelope(t, rr).Message)
		svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := serve(NewAuthHandler(new(mockAuthUseCase)).Login, newRequest(http.MethodPost, "/auth/login", `{"email":"not-an-email"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.Equal(t, "Validation failed", env.Message)
		require.Len(t, env.Errors, 2)
		assert.Equal(t, "email", env.Errors[0].Field)
		assert.Equal(t, "password", env.Errors[1].Field)
	})

	t.Run("unexpected failure does not leak", func(t *testing.T) {
		svc := new(mockAuthUseCase)
		svc.On("Login", mock.Anything, "a@b.co", "password123").Return(nil, errors.New("pq: connection refused")).Once()

		rr := serve(NewAuthHandler(svc).Login, newRequest(http.MethodPost, "/auth/login", `{"email":"a@b.co","password":"password123"}`))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "pq:")
	})
}

func TestAuthHandler_RefreshAndLogout(t *testing.T) {
	t.Run("refresh rotates", func(t *testing.T) {
		svc := new(mockAuthUseCase)
		svc.On("Refresh", mock.Anything, "old").Return(&model.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, nil).Once()

		rr := serve(NewAuthHandler(svc).Refresh, newRequest(http.MethodPost, "/auth/refresh", `{"refreshToken":"old"}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"accessToken":"a2","refreshToken":"r2"}`, string(decodeEnvelope(t, rr).Data))
	})

	t.Run("refresh with revoked token", func(t *testing.T) {
		svc := new(mockAuthUseCase)
		svc.On("Refresh", mock.Anything, "old").Return(nil, service.ErrInvalidRefreshToken).Once()

		rr := serve(NewAuthHandler(svc).Refresh, newRequest(http.MethodPost, "/auth/refresh", `{"refreshToken":"old"}`))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("logout uses the caller identity", func(t *testing.T) {
		svc := new(mockAuthUseCase)
		svc.On("Logout", mock.Anything, int64(7)).Return(nil).Once()

		rr := serve(NewAuthHandler(svc).Logout, withIdentity(newRequest(http.MethodPost, "/auth/logout", ""), 7))
		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("logout without identity", func(t *testing.T) {
		rr := serve(NewAuthHandler(new(mockAuthUseCase)).Logout, newRequest(http.MethodPost, "/auth/logout", ""))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestUserHandler(t *testing.T) {
	t.Run("register returns 201", func(t *testing.T) {
		svc := new(mockUserUseCase)
		req := model.RegisterRequest{Email: "new@b.co", Password: "password123", Name: "New"}
		svc.On("Register", mock.Anything, req).Return(&model.RegisterResponse{User: &model.User{ID: 9, Email: "new@b.co"}, StoreID: 10}, nil).Once()

		rr := serve(NewUserHandler(svc).Register, newRequest(http.MethodPost, "/users/register", `{"email":"new@b.co","password":"password123","name":"New"}`))

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Contains(t, string(decodeEnvelope(t, rr).Data), `"storeId":"10"`)
		assert.NotContains(t, rr.Body.String(), "password")
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		svc := new(mockUserUseCase)
		svc.On("Register", mock.Anything, mock.Anything).Return(nil, service.ErrEmailTaken).Once()

		rr := serve(NewUserHandler(svc).Register, newRequest(http.MethodPost, "/users/register", `{"email":"a@b.co","password":"password123"}`))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("short password", func(t *testing.T) {
		rr := serve(NewUserHandler(new(mockUserUseCase)).Register, newRequest(http.MethodPost, "/users/register", `{"email":"a@b.co","password":"short"}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		env := decodeEnvelope(t, rr)
		require.Len(t, env.Errors, 1)
		assert.Equal(t, "password", env.Errors[0].Field)
	})

	t.Run("me", func(t *testing.T) {
		svc := new(mockUserUseCase)
		svc.On("GetProfile", mock.Anything, int64(7)).Return(&model.User{ID: 7, Email: "a@b.co", Password: "hash"}, nil).Once()

		rr := serve(NewUserHandler(svc).Me, withIdentity(newRequest(http.MethodGet, "/users/me", ""), 7))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "hash")
	})

	t.Run("me for a deleted user", func(t *testing.T) {
		svc := new(mockUserUseCase)
		svc.On("GetProfile", mock.Anything, int64(7)).Return(nil, service.ErrUserNotFound).Once()

		rr := serve(NewUserHandler(svc).Me, withIdentity(newRequest(http.MethodGet, "/users/me", ""), 7))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestAssetHandler_All(t *testing.T) {
	t.Run("resolves ids", func(t *testing.T) {
		svc := new(mockAssetResolver)
		svc.On("ResolveAssets", mock.Anything, int64(5), []int64{1, 9223372036854775807}).Return([]*model.AssetView{
			{ID: 1, URI: "s3://b/k", AssetURL: "https://signed"},
		}).Once()

		r := withStoreID(newRequest(http.MethodPost, "/asset/all", `{"assetIds":["1","9223372036854775807"]}`), 5)
		rr := serve(NewAssetHandler(svc).All, r)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[{"id":"1","metadata":null,"position":0,"uri":"s3://b/k","assetUrl":"https://signed"}]`, string(decodeEnvelope(t, rr).Data))
	})

	t.Run("empty result is an empty array", func(t *testing.T) {
		svc := new(mockAssetResolver)
		svc.On("ResolveAssets", mock.Anything, int64(5), []int64{1}).Return([]*model.AssetView{}).Once()

		rr := serve(NewAssetHandler(svc).All, withStoreID(newRequest(http.MethodPost, "/asset/all", `{"assetIds":["1"]}`), 5))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "[]", string(decodeEnvelope(t, rr).Data))
	})

	t.Run("non numeric id", func(t *testing.T) {
		rr := serve(NewAssetHandler(new(mockAssetResolver)).All, withStoreID(newRequest(http.MethodPost, "/asset/all", `{"assetIds":["abc"]}`), 5))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("id overflowing int64", func(t *testing.T) {
		rr := serve(NewAssetHandler(new(mockAssetResolver)).All, withStoreID(newRequest(http.MethodPost, "/asset/all", `{"assetIds":["99999999999999999999"]}`), 5))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "assetIds[0]", decodeEnvelope(t, rr).Errors[0].Field)
	})

	t.Run("empty list", func(t *testing.T) {
		rr := serve(NewAssetHandler(new(mockAssetResolver)).All, withStoreID(newRequest(http.MethodPost, "/asset/all", `{"assetIds":[]}`), 5))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCategoryHandler_List(t *testing.T) {
	svc := new(mockCategoryLister)
	svc.On("ListCategories", mock.Anything, int64(5)).Return([]*model.Category{
		{ID: 1, Name: "Clothing", SubCategories: []*model.Category{{ID: 2, Name: "Shirts", SubCategories: []*model.Category{}}}},
	}, nil).Once()

	rr := serve(NewCategoryHandler(svc).List, withStoreID(newRequest(http.MethodGet, "/category", ""), 5))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"id":"1","name":"Clothing","position":0,"subCategories":[{"id":"2","name":"Shirts","position":0,"subCategories":[]}]}]`,
		string(decodeEnvelope(t, rr).Data))

	failing := new(mockCategoryLister)
	failing.On("ListCategories", mock.Anything, int64(5)).Return(nil, errors.New("db down")).Once()
	rr = serve(NewCategoryHandler(failing).List, withStoreID(newRequest(http.MethodGet, "/category", ""), 5))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Something went wrong", decodeEnvelope(t, rr).Message)
}

func TestSchemaHandler(t *testing.T) {
	t.Run("amazon passthrough", func(t *testing.T) {
		svc := new(mockSchemaProvider)
		svc.On("AmazonSchema", mock.Anything, "SHIRT").Return(json.RawMessage(`{"productType":"SHIRT"}`), nil).Once()

		rr := serve(NewSchemaHandler(svc).Amazon, newRequest(http.MethodGet, "/schema/amazon?type=SHIRT", ""))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"productType":"SHIRT"}`, string(decodeEnvelope(t, rr).Data))
	})

	t.Run("missing type", func(t *testing.T) {
		rr := serve(NewSchemaHandler(new(mockSchemaProvider)).Ondc, newRequest(http.MethodGet, "/schema/ondc", ""))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "type", decodeEnvelope(t, rr).Errors[0].Field)
	})

	t.Run("ondc projection keeps field order", func(t *testing.T) {
		svc := new(mockSchemaProvider)
		svc.On("OndcSchema", mock.Anything, "T-SHIRT").Return(&model.ChannelSchema{
			Channel:  model.ChannelONDC,
			Code:     "T-SHIRT",
			Required: []string{"color"},
			Attributes: model.FieldSet{
				{Name: "size", Title: "Size", Type: "string"},
				{Name: "color", Title: "Color", Type: "string", Required: true, Enum: []string{"red"}, EnumNames: []string{"Red"}},
			},
		}, nil).Once()

		rr := serve(NewSchemaHandler(svc).Ondc, newRequest(http.MethodGet, "/schema/ondc?type=T-SHIRT", ""))
		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Less(t, strings.Index(body, `"size"`), strings.Index(body, `"color":{`))
	})

	t.Run("unknown shopify code", func(t *testing.T) {
		svc := new(mockSchemaProvider)
		svc.On("ShopifySchema", mock.Anything, "zz-9").Return(nil, service.ErrSchemaNotFound).Once()

		rr := serve(NewSchemaHandler(svc).Shopify, newRequest(http.MethodGet, "/schema/shopify?type=zz-9", ""))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("upstream failure is a 500", func(t *testing.T) {
		svc := new(mockSchemaProvider)
		svc.On("AmazonSchema", mock.Anything, "SHIRT").Return(nil, errors.New("amazon: unexpected status 503")).Once()

		rr := serve(NewSchemaHandler(svc).Amazon, newRequest(http.MethodGet, "/schema/amazon?type=SHIRT", ""))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "503")
	})
}
