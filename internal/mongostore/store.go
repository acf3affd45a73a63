// Package mongostore keeps designs as single documents with their ratings
// embedded. Rating writes use optimistic concurrency on a version counter.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	designsCollection = "designs"
	usersCollection   = "users"
)

// ErrConflict is returned when a rating write keeps losing the version race.
var ErrConflict = errors.New("mongostore: concurrent update conflict")

// Options controls connection and retry behaviour.
type Options struct {
	ConnTimeout time.Duration
	MaxRetries  int
	Logger      *zap.Logger
}

// Store owns the Mongo client and the collections the catalog reads.
type Store struct {
	client     *mongo.Client
	designs    *mongo.Collection
	users      *mongo.Collection
	logger     *zap.Logger
	connTO     time.Duration
	maxRetries int
}

// Connect dials uri, verifies connectivity and ensures indexes on database.
func Connect(ctx context.Context, uri, database string, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}

	connCtx := ctx
	if opts.ConnTimeout > 0 {
		var cancel context.CancelFunc
		connCtx, cancel = context.WithTimeout(ctx, opts.ConnTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(connCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:     client,
		designs:    db.Collection(designsCollection),
		users:      db.Collection(usersCollection),
		logger:     logger,
		connTO:     opts.ConnTimeout,
		maxRetries: opts.MaxRetries,
	}
	if err := s.ensureIndexes(connCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("mongostore: connection established", zap.String("database", database))
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "shape", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "averageRating", Value: -1}, {Key: "ratingCount", Value: -1}}},
	}
	if _, err := s.designs.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create design indexes: %w", err)
	}
	return nil
}

// HealthCheck pings the primary.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("mongostore not initialized")
	}
	checkCtx := ctx
	if s.connTO > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, s.connTO)
		defer cancel()
	}
	return s.client.Ping(checkCtx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	s.logger.Info("mongostore: disconnecting")
	return s.client.Disconnect(ctx)
}
