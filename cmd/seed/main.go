// Command seed loads users and designs from a JSON fixture into the
// configured store.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/room-catalog/internal/config"
	"github.com/Clark-Hu/room-catalog/internal/domain"
	"github.com/Clark-Hu/room-catalog/internal/logging"
	"github.com/Clark-Hu/room-catalog/internal/mongostore"
	"github.com/Clark-Hu/room-catalog/internal/repository"
	"github.com/Clark-Hu/room-catalog/internal/store"
)

// seeder is the write surface both drivers expose for loading fixtures.
type seeder interface {
	UpsertUser(ctx context.Context, p domain.UserProfile) error
	CreateDesign(ctx context.Context, d fixtureDesign) (string, error)
	UpsertRating(ctx context.Context, id string, entry domain.RatingEntry, check func(domain.Design) error) (domain.RatingSummary, error)
}

type postgresSeeder struct{ repo *repository.Repository }

func (s postgresSeeder) UpsertUser(ctx context.Context, p domain.UserProfile) error {
	return s.repo.Users.Upsert(ctx, p)
}

func (s postgresSeeder) CreateDesign(ctx context.Context, d fixtureDesign) (string, error) {
	created, err := s.repo.Designs.Create(ctx, repository.DesignCreateParams{
		CreatedBy:   d.CreatedBy,
		Name:        d.Name,
		Description: d.Description,
		IsPublic:    d.IsPublic,
		Shape:       d.Shape,
		Room:        d.Room,
		Placements:  d.Placements,
		CreatedAt:   d.CreatedAt,
	})
	return created.ID, err
}

func (s postgresSeeder) UpsertRating(ctx context.Context, id string, entry domain.RatingEntry, check func(domain.Design) error) (domain.RatingSummary, error) {
	return s.repo.Designs.UpsertRating(ctx, id, entry, check)
}

type mongoSeeder struct{ *mongostore.Store }

func (s mongoSeeder) CreateDesign(ctx context.Context, d fixtureDesign) (string, error) {
	design := domain.Design{
		CreatedBy:   d.CreatedBy,
		Name:        d.Name,
		Description: d.Description,
		IsPublic:    d.IsPublic,
		Shape:       d.Shape,
		Room:        d.Room,
		Placements:  d.Placements,
	}
	if d.CreatedAt != nil {
		design.CreatedAt = d.CreatedAt.UTC()
	}
	created, err := s.Create(ctx, design)
	return created.ID, err
}

func main() {
	path := flag.String("file", "db/seed/designs.json", "fixture to load")
	flag.Parse()

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

	fx, err := loadFixture(*path)
	if err != nil {
		logger.Fatal("load fixture", zap.String("file", *path), zap.Error(err))
	}

	connCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.DBConnTimeoutSecs)*time.Second)
	defer cancel()

	var sd seeder
	switch cfg.StoreDriver {
	case config.DriverMongo:
		ms, err := mongostore.Connect(connCtx, cfg.MongoURL, cfg.MongoDatabase, mongostore.Options{
			MaxRetries: cfg.RatingMaxRetries,
			Logger:     logger,
		})
		if err != nil {
			logger.Fatal("connect mongo", zap.Error(err))
		}
		defer func() { _ = ms.Close(context.Background()) }()
		sd = mongoSeeder{ms}
	default:
		st, err := store.New(connCtx, cfg.DBURL, store.Options{StatementCacheCapacity: -1, Logger: logger})
		if err != nil {
			logger.Fatal("connect postgres", zap.Error(err))
		}
		defer st.Close()
		sd = postgresSeeder{repository.New(st)}
	}

	if err := seed(ctx, sd, fx, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

func seed(ctx context.Context, sd seeder, fx fixture, logger *zap.Logger) error {
	for _, u := range fx.Users {
		if err := sd.UpsertUser(ctx, u.profile()); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	for _, d := range fx.Designs {
		id, err := sd.CreateDesign(ctx, d)
		if err != nil {
			return err
		}
		var summary domain.RatingSummary
		for _, r := range d.Ratings {
			summary, err = sd.UpsertRating(ctx, id, domain.RatingEntry{
				UserID:  r.UserID,
				Value:   r.Value,
				Comment: r.Comment,
				Date:    now,
			}, nil)
			if err != nil {
				return err
			}
		}
		logger.Info("seeded design",
			zap.String("id", id),
			zap.String("name", d.Name),
			zap.Int("ratings", summary.Count),
			zap.Float64("average", summary.Average))
	}
	logger.Info("seed complete", zap.Int("users", len(fx.Users)), zap.Int("designs", len(fx.Designs)))
	return nil
}
