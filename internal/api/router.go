package api

import (
	"net/http"
	"time"

	"expense_tracker/internal/api/handler"
	"expense_tracker/internal/api/middleware"
	"expense_tracker/internal/app/service"
	"expense_tracker/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	CORSOrigins  []string
	CookieSecure bool
}

func NewRouter(
	cfg RouterConfig,
	tokens *security.TokenService,
	authService *service.AuthService,
	entryService *service.EntryService,
	userService *service.UserService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true, // The session travels in a cookie
		MaxAge:           300,
	}))

	// Reachability check for every route below. Endpoints still resolve the
	// caller themselves.
	r.Use(middleware.Gate(tokens))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	handler.NewPageHandler(tokens).RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		authHandler := handler.NewAuthHandler(authService, tokens, cfg.CookieSecure)
		authHandler.RegisterRoutes(api)

		entryHandler := handler.NewEntryHandler(entryService, tokens)
		api.Route("/entries", entryHandler.RegisterRoutes)

		userHandler := handler.NewUserHandler(userService, tokens)
		api.Route("/users", userHandler.RegisterRoutes)
	})

	return r
}
