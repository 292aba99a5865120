package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/config"
	"bookshelf/internal/httpx"
	"bookshelf/internal/image"
	"bookshelf/internal/platform/logging"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, ready, closeStore, err := openBookStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	backend, err := openImageBackend(ctx, cfg)
	if err != nil {
		return err
	}

	var limiter *httpx.RateLimitMiddleware
	if cfg.RateLimitRPS > 0 {
		limiter = httpx.NewRateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	handler := newRouter(routerDeps{
		books:   book.NewHTTPHandler(book.NewService(repo, book.NewSchema(nil)), logger),
		images:  image.NewHTTPHandler(image.NewStore(backend, cfg.MaxFileSize, cfg.UploadURL), logger),
		ready:   ready,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", cfg.Addr,
			"store_driver", cfg.StoreDriver,
			"image_backend", cfg.ImageBackend,
			"upload_dir", cfg.UploadDir,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openBookStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (book.Repository, func(context.Context) error, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory book store; data is lost on restart")
		return book.NewMemoryRepo(), func(context.Context) error { return nil }, func() {}, nil
	}

	pool, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("database connection OK", "dsn", config.RedactDSN(cfg.DatabaseDSN))
	return book.NewPostgresRepo(pool, cfg.DBTimeout), pool.Ping, pool.Close, nil
}

func openDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database (%s): %w", config.RedactDSN(dsn), err)
	}
	return pool, nil
}

func openImageBackend(ctx context.Context, cfg config.Config) (image.Backend, error) {
	if cfg.ImageBackend == config.ImageBackendMinio {
		return image.NewMinioBackend(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	}
	return image.NewDiskBackend(cfg.UploadDir)
}
