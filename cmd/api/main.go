//	@title			NotionV2 Clone API
//	@version		1.0.0
//	@description	Backend for the NotionV2 workspace: accounts, avatars and file attachments.
//
//	@host		localhost:3001
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/notionv2/service/internal/auth"
	"github.com/notionv2/service/internal/config"
	"github.com/notionv2/service/internal/db"
	"github.com/notionv2/service/internal/files"
	"github.com/notionv2/service/internal/health"
	"github.com/notionv2/service/internal/response"
	"github.com/notionv2/service/internal/storage"
	"github.com/notionv2/service/internal/token"
	"github.com/notionv2/service/internal/user"

	_ "github.com/notionv2/service/docs/swagger"
)

const (
	appName    = "NotionV2 Clone API"
	appVersion = "1.0.0"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)
	response.ExposeInternalErrors(cfg.IsDevelopment())

	if err := run(cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) {
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return err
	}

	if cfg.Storage.Driver == storage.DriverRemote && cfg.Storage.EnsureBucket {
		if err := storage.EnsureBucket(ctx, cfg.Storage.Remote, !cfg.IsProduction()); err != nil {
			return err
		}
	}

	registry := storage.NewRegistry(config.StorageSettings)
	store, err := registry.Provider(ctx)
	if err != nil {
		return err
	}
	slog.Info("storage ready", "driver", cfg.Storage.Driver)

	// Wire dependencies: repository → service → handler
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	userSvc := user.NewService(user.NewRepository(pool), store)
	authSvc := auth.NewService(userSvc, tokens)

	router := newRouter(cfg, routerDeps{
		tokens: tokens,
		auth:   auth.NewHandler(authSvc),
		users:  user.NewHandler(userSvc, cfg.MaxUploadBytes),
		files:  files.NewHandler(store, cfg.MaxUploadBytes),
		health: health.NewHandler(pool, appName, appVersion),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr(), "env", cfg.AppEnv)
		slog.Info("swagger UI available", "url", "http://localhost:"+cfg.Port+"/swagger/")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutting down gracefully", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("server stopped")
	return nil
}
