package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/storeit/internal/auth"
	"github.com/abduss/storeit/internal/bucket"
	"github.com/abduss/storeit/internal/config"
	"github.com/abduss/storeit/internal/file"
	"github.com/abduss/storeit/internal/logger"
	"github.com/abduss/storeit/internal/server"
	"github.com/abduss/storeit/internal/storage"
	"github.com/abduss/storeit/internal/viewcache"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	zl, err := logger.Init()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		zl.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.Migrate {
		if err := storage.Migrate(cfg.Postgres.MigrationURL(), zl); err != nil {
			zl.Fatal("migrate database", zap.Error(err))
		}
	}

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres, zl)
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	objects, err := newBucketStore(ctx, cfg.ObjectStore)
	if err != nil {
		zl.Fatal("init object store", zap.String("driver", cfg.ObjectStore.Driver), zap.Error(err))
	}

	fileRepo := file.NewRepository(dbPool)
	registration := file.NewRegistrationService(fileRepo, objects, zl.Named("registration"), cfg.Storage.MaxUploadBytes)
	query := file.NewQueryService(fileRepo, objects, zl.Named("query"))
	mutation := file.NewMutationService(fileRepo, objects, zl.Named("mutation"))
	accounting := file.NewAccountingService(fileRepo, zl.Named("accounting"), cfg.Storage.CapacityBytes)
	views := viewcache.New(cfg.ViewCache.Size, cfg.ViewCache.TTL)

	router := server.NewRouter(server.Dependencies{
		Config:      cfg,
		DB:          fileRepo,
		Bucket:      objects,
		AuthService: auth.NewService(cfg.Auth),
		Files:       file.NewHandler(registration, query, mutation, accounting, views),
		Query:       query,
		Accounting:  accounting,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zl.Info("StoreIt API listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zl.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown error", zap.Error(err))
	}
}

func newBucketStore(ctx context.Context, cfg config.ObjectStoreConfig) (bucket.Store, error) {
	switch cfg.Driver {
	case config.DriverS3:
		client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return bucket.NewS3Store(client, cfg.S3.Bucket, cfg.PublicBaseURL), nil
	default:
		store, err := bucket.NewMinIOStore(cfg.MinIO, cfg.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx, cfg.MinIO.Region); err != nil {
			return nil, err
		}
		return store, nil
	}
}
