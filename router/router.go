package router

import (
	_ "go-catalog-api/docs"
	"go-catalog-api/handler"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	User          *handler.UserHandler
	Asset         *handler.AssetHandler
	Category      *handler.CategoryHandler
	Schema        *handler.SchemaHandler
	Authenticator handler.Authenticator
	Stores        handler.StoreAuthorizer
}

func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handler.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handler.HealthCheck)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Public routes
	r.Post("/auth/login", handler.ErrorHandlingMiddleware(h.Auth.Login))
	r.Post("/auth/refresh", handler.ErrorHandlingMiddleware(h.Auth.Refresh))
	r.Post("/users/register", handler.ErrorHandlingMiddleware(h.User.Register))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(handler.AuthMiddleware(h.Authenticator))

		r.Post("/auth/logout", handler.ErrorHandlingMiddleware(h.Auth.Logout))
		r.Get("/users/me", handler.ErrorHandlingMiddleware(h.User.Me))

		r.Route("/schema", func(r chi.Router) {
			r.Get("/amazon", handler.ErrorHandlingMiddleware(h.Schema.Amazon))
			r.Get("/ondc", handler.ErrorHandlingMiddleware(h.Schema.Ondc))
			r.Get("/shopify", handler.ErrorHandlingMiddleware(h.Schema.Shopify))
		})

		// Store-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(handler.StoreIDMiddleware(h.Stores))

			r.Post("/asset/all", handler.ErrorHandlingMiddleware(h.Asset.All))
			r.Get("/category", handler.ErrorHandlingMiddleware(h.Category.List))
		})
	})

	return r
}
