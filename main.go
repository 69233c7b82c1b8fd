package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/FACorreiaa/go-contacts-api/app/db"
	"github.com/FACorreiaa/go-contacts-api/app/kv"
	appLogger "github.com/FACorreiaa/go-contacts-api/app/logger"
	"github.com/FACorreiaa/go-contacts-api/app/tracer"
	"github.com/FACorreiaa/go-contacts-api/config"
	"github.com/FACorreiaa/go-contacts-api/internal/api/auth"
	"github.com/FACorreiaa/go-contacts-api/internal/api/contact"
	"github.com/FACorreiaa/go-contacts-api/internal/api/user"
	api "github.com/FACorreiaa/go-contacts-api/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger(cfg.Mode)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := tracer.InitTracingAndMetrics(":9090", logger); err != nil {
		logger.Error("Failed to initialize tracing and metrics", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Database setup ---
	connURL := database.ConnectionURL(&cfg)
	if err := database.RunMigrations(connURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(connURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Volatile store setup ---
	// Redis backs the identity cache, the rate limiter and the reset records.
	// If it is down at startup the process still comes up on the in-process
	// store; single-instance semantics, acceptable for local runs.
	var store kv.Store
	redisClient, err := kv.NewRedisClient(ctx, cfg.Repositories.Redis.Addr,
		cfg.Repositories.Redis.Password, cfg.Repositories.Redis.DB, logger)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-process store", slog.Any("error", err))
		store = kv.NewMemoryStore()
	} else {
		defer redisClient.Close()
		store = kv.NewRedisStore(redisClient)
	}

	// --- Dependency injection ---
	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		logger.Error("Failed to initialize token service", slog.Any("error", err))
		os.Exit(1)
	}
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	mailer := auth.NewLogMailer(logger)

	userRepo := auth.NewPostgresUserRepo(pool, logger)
	identityCache := auth.NewIdentityCache(store, cfg.Auth.IdentityCacheTTL, logger)
	guard := auth.NewGuard(tokens, identityCache, userRepo, logger)
	limiter := auth.NewRateLimiter(store, cfg.Auth.RateLimit.Window, logger)
	resetFlow := auth.NewPasswordResetFlow(tokens, store, userRepo, identityCache, hasher, mailer, logger)
	authService := auth.NewAuthService(userRepo, hasher, tokens, identityCache, mailer, logger)

	authHandler := auth.NewAuthHandler(authService, resetFlow, logger)
	userHandler := user.NewUserHandler(userRepo, identityCache, &user.DiscardAvatarStorage{BaseURL: "http://localhost:8000"}, logger)
	contactRepo := contact.NewPostgresContactRepo(pool, logger)
	contactHandler := contact.NewContactHandler(contactRepo, logger)

	mainRouter := api.SetupRouter(&api.Config{
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		ContactHandler: contactHandler,
		Guard:          guard,
		Limiter:        limiter,
		Limits:         cfg.Auth,
	})

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(cfg.Server.Timeout))
	router.Use(middleware.Compress(5, "application/json"))
	router.Mount("/", mainRouter)

	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger(mode string) *slog.Logger {
	if mode == "development" || mode == "" {
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		return slog.New(tint.NewHandler(os.Stdout, tintOpts))
	}
	jsonOpts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
}
