// Package storage opens the configured backend and hands out the stores the
// flows depend on.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"reviewme/internal/auth"
	"reviewme/internal/reviews"
	"reviewme/pkg/database"
	"reviewme/pkg/utils"
)

type Stores struct {
	Users   auth.UserStore
	Reviews reviews.Store
	Backend string

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func (s *Stores) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *Stores) Close(ctx context.Context) error {
	return s.close(ctx)
}

// Open picks MongoDB for mongodb:// URLs and SQLite for anything else.
func Open(ctx context.Context, cfg *utils.Config) (*Stores, error) {
	if cfg.UsesMongo() {
		return openMongo(ctx, cfg)
	}
	return openSQLite(cfg.StoreURL)
}

func openSQLite(path string) (*Stores, error) {
	db, err := database.Open(database.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("path", path).Msg("using sqlite store")
	return SQLite(db), nil
}

// SQLite wraps an already migrated database.
func SQLite(db *sql.DB) *Stores {
	return &Stores{
		Users:   auth.NewRepo(db),
		Reviews: reviews.NewRepo(db),
		Backend: "sqlite",
		ping:    db.PingContext,
		close:   func(context.Context) error { return db.Close() },
	}
}

func openMongo(ctx context.Context, cfg *utils.Config) (*Stores, error) {
	client, db, err := database.OpenMongo(ctx, database.MongoConfig{URI: cfg.StoreURL, Database: cfg.MongoDatabase})
	if err != nil {
		return nil, err
	}
	if err := database.EnsureMongoIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Info().Str("database", cfg.MongoDatabase).Msg("using mongodb store")
	return Mongo(client, db), nil
}

func Mongo(client *mongo.Client, db *mongo.Database) *Stores {
	return &Stores{
		Users:   auth.NewMongoRepo(db),
		Reviews: reviews.NewMongoRepo(db),
		Backend: "mongodb",
		ping:    func(ctx context.Context) error { return client.Ping(ctx, nil) },
		close:   client.Disconnect,
	}
}
