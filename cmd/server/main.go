// Command server starts the identity-rename HTTP service.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/cache"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/config"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/invalidation"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/migrate"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/repository/postgres"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/rewrite"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/server/httpapi"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// main loads configuration, runs migrations, wires the rename service and
// starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Server.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Migrate {
		if err := migrate.Up(ctx, cfg.Database.DSN); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
	}

	// DB pool
	db, err := postgres.New(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	users := postgres.NewUserRepo(db)
	redirects := postgres.NewRedirectRepo(db)
	comments := postgres.NewCommentStore(db)
	messages := postgres.NewMessageStore(db)
	publications := postgres.NewPublicationStore(db)

	// One shared cache instance, injected everywhere it is needed.
	sharedCache := cache.New(cfg.Cache.DefaultTTL)
	invalidator := invalidation.New(sharedCache, logger)
	rewriter := rewrite.New(logger, comments, messages, publications)

	renameSvc := service.NewRenameService(
		db, users, rewriter, invalidator, redirects, logger, cfg.Redirects.ExpiryHorizon,
	)

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(httpapi.Recover(logger), httpapi.Logging(logger))
	httpapi.New(renameSvc, invalidator).Register(e)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- e.Start(cfg.Server.Addr)
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
