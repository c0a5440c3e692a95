package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/panda19/prisonscore/internal/model"
	"github.com/panda19/prisonscore/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Each record is a single JSON string, so SET replaces it atomically.
type Storage struct {
	client *redis.Client
	cfg    Config
	logger *slog.Logger
}

// Connect opens a client from cfg and verifies it with a ping
func Connect(cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// New creates a new Redis storage instance
func New(cfg Config, logger *slog.Logger) (*Storage, error) {
	client, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, logger *slog.Logger) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context, id model.ProfileID) (*model.Record, error) {
	data, err := s.client.Get(ctx, s.profileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Error("corrupt profile record",
			slog.String("profile_id", id.String()),
			slog.String("error", err.Error()),
		)
		return nil, model.ErrProfileNotFound
	}
	return &rec, nil
}

func (s *Storage) Save(ctx context.Context, rec *model.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.profileKey(rec.ID), data, 0).Err()
}

func (s *Storage) Delete(ctx context.Context, id model.ProfileID) error {
	return s.client.Del(ctx, s.profileKey(id)).Err()
}
