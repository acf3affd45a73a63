package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Clark-Hu/room-catalog/internal/catalog"
	"github.com/Clark-Hu/room-catalog/internal/config"
	"github.com/Clark-Hu/room-catalog/internal/furniture"
	httpserver "github.com/Clark-Hu/room-catalog/internal/http"
	"github.com/Clark-Hu/room-catalog/internal/logging"
	"github.com/Clark-Hu/room-catalog/internal/mongostore"
	"github.com/Clark-Hu/room-catalog/internal/repository"
	"github.com/Clark-Hu/room-catalog/internal/store"
)

// backend bundles whichever persistence driver was configured.
type backend struct {
	designs catalog.DesignStore
	users   catalog.UserDirectory
	health  httpserver.HealthChecker
	close   func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer be.close()

	furnitureClient, err := buildFurnitureClient(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init furniture client", zap.Error(err))
	}

	svc := catalog.New(be.designs, be.users, furnitureClient, logger.Named("catalog"), catalog.Options{
		StoreTimeout:     time.Duration(cfg.StoreTimeoutMS) * time.Millisecond,
		FurnitureTimeout: time.Duration(cfg.FurnitureTimeoutSecs) * time.Second,
		MaxPageLimit:     cfg.MaxPageLimit,
	})
	server := httpserver.New(cfg, svc, be.health, logger.Named("http"))

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	dbCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.DBConnTimeoutSecs)*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverMongo:
		ms, err := mongostore.Connect(dbCtx, cfg.MongoURL, cfg.MongoDatabase, mongostore.Options{
			ConnTimeout: time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
			MaxRetries:  cfg.RatingMaxRetries,
			Logger:      logger.Named("mongostore"),
		})
		if err != nil {
			return nil, err
		}
		return &backend{
			designs: ms,
			users:   ms,
			health:  ms,
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = ms.Close(closeCtx)
			},
		}, nil
	default:
		st, err := store.New(dbCtx, cfg.DBURL, store.Options{
			MaxConns:               int32(cfg.DBMaxConns),
			MinConns:               int32(cfg.DBMinConns),
			MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
			MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
			ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
			StatementCacheCapacity: cfg.DBStatementCache,
			Logger:                 logger.Named("store"),
		})
		if err != nil {
			return nil, err
		}
		repo := repository.New(st)
		return &backend{designs: repo.Designs, users: repo.Users, health: st, close: st.Close}, nil
	}
}

func buildFurnitureClient(ctx context.Context, cfg config.Config, logger *zap.Logger) (furniture.Client, error) {
	httpClient, err := furniture.NewHTTPClient(cfg.FurnitureURL, cfg.FurnitureAPIKey,
		time.Duration(cfg.FurnitureTimeoutSecs)*time.Second, logger.Named("furniture"))
	if err != nil {
		return nil, err
	}
	if !cfg.CacheEnabled() {
		return httpClient, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	cached := furniture.NewCachedClient(httpClient, rdb, time.Duration(cfg.FurnitureCacheTTLSecs)*time.Second, logger.Named("furniture-cache"))

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := cached.Ping(pingCtx); err != nil {
		logger.Warn("redis unreachable; furniture lookups fall back to the catalog", zap.Error(err))
	}
	return cached, nil
}
