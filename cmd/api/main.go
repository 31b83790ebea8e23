// @title                       Thing Library API
// @version                     1.0
// @description                 Lend things, post requests and share them with groups.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

//go:generate swag init -g main.go -d ./,../../internal,../../pkg -o ../../docs

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fkhayef/thinglibrary/docs"
	"github.com/fkhayef/thinglibrary/internal/admin"
	"github.com/fkhayef/thinglibrary/internal/auth"
	"github.com/fkhayef/thinglibrary/internal/config"
	"github.com/fkhayef/thinglibrary/internal/database"
	"github.com/fkhayef/thinglibrary/internal/group"
	"github.com/fkhayef/thinglibrary/internal/item"
	"github.com/fkhayef/thinglibrary/internal/metrics"
	"github.com/fkhayef/thinglibrary/internal/profile"
	"github.com/fkhayef/thinglibrary/internal/share"
	"github.com/fkhayef/thinglibrary/pkg/logging"
	mw "github.com/fkhayef/thinglibrary/pkg/middleware"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)
	if envErr != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("Connected to database successfully")

	if cfg.MigrationsEnabled {
		if err := database.Migrate(db); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	r := newRouter(cfg, db, logger, metrics.New())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}

// newRouter wires every feature onto one chi router
func newRouter(cfg *config.Config, db *sql.DB, logger *slog.Logger, m *metrics.Metrics) chi.Router {
	// Auth feature
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authService := auth.NewService(auth.NewRepository(db), tokens)
	authHandler := auth.NewHandler(authService)

	// Profile feature
	profileService := profile.NewService(profile.NewRepository(db))
	profileHandler := profile.NewHandler(profileService)

	// Item feature
	itemRepo := item.NewRepository(db)
	itemService := item.NewService(itemRepo, m)
	itemHandler := item.NewHandler(itemService)

	// Group feature
	groupService := group.NewService(group.NewRepository(db), m, cfg.PublicOrigin)
	groupHandler := group.NewHandler(groupService)

	// Share feature (item owners and group memberships injected)
	shareService := share.NewService(share.NewRepository(db), itemRepo, groupService, m)
	shareHandler := share.NewHandler(shareService)

	adminHandler := admin.NewHandler(groupService, itemService, profileService, shareService, cfg.PublicOrigin)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(m.Instrument)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsEnabled {
		r.Handle("/metrics", m.Handler())
	}

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	requireAuth := mw.Authenticate(tokens)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes(requireAuth))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			// Mount feature routers
			r.Mount("/profiles", profileHandler.Routes())
			r.Mount("/items", itemHandler.Routes())
			r.Mount("/groups", groupHandler.Routes())
			r.Mount("/memberships", groupHandler.MembershipRoutes())
			r.Mount("/shares", shareHandler.Routes())
			r.Mount("/rpc", groupHandler.RPCRoutes())

			r.With(mw.RequireAdmin(profileService)).Mount("/admin", adminHandler.Routes())
		})
	})

	return r
}
