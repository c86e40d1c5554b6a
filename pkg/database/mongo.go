package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
	MaxRetries     int
	RetryInterval  time.Duration
}

// DefaultMongoConfig returns default MongoDB configuration
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:            "mongodb://localhost:27017",
		Database:       "servus",
		MaxPoolSize:    100,
		ConnectTimeout: 10 * time.Second,
		MaxRetries:     3,
		RetryInterval:  time.Second,
	}
}

// MongoDB wraps a connected client and its database handle
type MongoDB struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects to MongoDB and pings the primary, retrying on failure
func NewMongo(ctx context.Context, cfg *MongoConfig) (*MongoDB, error) {
	if cfg == nil {
		cfg = DefaultMongoConfig()
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		err = client.Ping(pingCtx, readpref.Primary())
		cancel()
		if err == nil {
			return &MongoDB{client: client, db: client.Database(cfg.Database)}, nil
		}
		if attempt < cfg.MaxRetries {
			select {
			case <-ctx.Done():
				_ = client.Disconnect(context.Background())
				return nil, ctx.Err()
			case <-time.After(cfg.RetryInterval):
			}
		}
	}

	_ = client.Disconnect(context.Background())
	return nil, fmt.Errorf("ping mongodb after %d attempts: %w", cfg.MaxRetries+1, err)
}

// Database returns the configured database
func (m *MongoDB) Database() *mongo.Database {
	return m.db
}

// Collection returns a collection of the configured database
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// HealthCheck pings the primary
func (m *MongoDB) HealthCheck(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the given indexes per collection. Existing indexes
// with the same definition are left untouched.
func (m *MongoDB) EnsureIndexes(ctx context.Context, indexes map[string][]mongo.IndexModel) error {
	for coll, models := range indexes {
		if len(models) == 0 {
			continue
		}
		if _, err := m.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Close disconnects the client
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
