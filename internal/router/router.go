package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-contacts-api/config"
	"github.com/FACorreiaa/go-contacts-api/internal/api/auth"
	"github.com/FACorreiaa/go-contacts-api/internal/api/contact"
	"github.com/FACorreiaa/go-contacts-api/internal/api/user"
)

// Config contains dependencies needed for the router setup.
type Config struct {
	AuthHandler    *auth.AuthHandler
	UserHandler    *user.UserHandler
	ContactHandler *contact.ContactHandler
	Guard          *auth.Guard
	Limiter        *auth.RateLimiter
	Limits         config.AuthConfig
}

// SetupRouter wires all application routes. Server-wide middleware
// (RequestID, RealIP, logging, recovery) is applied before mounting this
// router in main.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	authLimit := cfg.Limits.RateLimit.AuthRequests
	userLimit := cfg.Limits.RateLimit.UserRequests

	r.Route("/api/v1", func(r chi.Router) {

		// Public auth routes. All of them are abuse-prone, so each carries
		// its own fixed-window budget.
		r.Group(func(r chi.Router) {
			r.With(cfg.Limiter.Limit("signup", authLimit)).Post("/auth/signup", cfg.AuthHandler.Signup)
			r.With(cfg.Limiter.Limit("login", authLimit)).Post("/auth/login", cfg.AuthHandler.Login)
			r.Get("/auth/verifyemail/{token}", cfg.AuthHandler.VerifyEmail)
			r.With(cfg.Limiter.Limit("resend", authLimit)).Post("/auth/resend-verification", cfg.AuthHandler.ResendVerification)
			r.With(cfg.Limiter.Limit("reset_request", authLimit)).Post("/auth/password-reset", cfg.AuthHandler.RequestReset)
			r.With(cfg.Limiter.Limit("reset_confirm", authLimit)).Post("/auth/password-reset/confirm", cfg.AuthHandler.ConfirmReset)
		})

		// Protected routes.
		r.Group(func(r chi.Router) {
			r.Use(cfg.Guard.Authenticate)

			r.With(cfg.Limiter.Limit("me", userLimit)).Get("/users/me", cfg.UserHandler.Me)
			r.Patch("/users/avatar", cfg.UserHandler.UpdateAvatar)

			r.Route("/contacts", func(r chi.Router) {
				r.Post("/", cfg.ContactHandler.Create)
				r.Get("/", cfg.ContactHandler.List)
				r.Get("/search", cfg.ContactHandler.Search)
				r.Get("/birthdays", cfg.ContactHandler.Birthdays)
				r.Get("/{contactID}", cfg.ContactHandler.Get)
				r.Put("/{contactID}", cfg.ContactHandler.Update)
				r.Delete("/{contactID}", cfg.ContactHandler.Delete)
			})
		})

		// Admin routes.
		r.Group(func(r chi.Router) {
			r.Use(cfg.Guard.Authenticate)
			r.Use(auth.RequireAdmin)

			r.Put("/users/{userID}/role", cfg.UserHandler.UpdateRole)
		})
	})

	return r
}
