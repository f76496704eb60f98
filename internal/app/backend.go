// Package app assembles the storage, queue and rate-limit backends selected by configuration.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"classattend/internal/attendance"
	"classattend/internal/config"
	"classattend/internal/httpapi"
	"classattend/internal/httpmiddleware"
	"classattend/internal/queue"
	"classattend/internal/roster"
	"classattend/internal/store"
	"classattend/internal/store/memstore"
	"classattend/internal/store/mongostore"
	"classattend/internal/store/pgstore"
)

// Backend holds the repositories and infrastructure clients shared by the binaries.
type Backend struct {
	Roster  roster.Repository
	Records attendance.Repository
	Queue   queue.Queue
	Redis   *store.Redis
	Health  map[string]httpapi.HealthCheck

	closers []func(context.Context) error
	log     *zap.Logger
}

// Open connects to the configured store and queue. On error everything opened so far is closed.
func Open(ctx context.Context, cfg config.App, log *zap.Logger) (_ *Backend, err error) {
	b := &Backend{Health: map[string]httpapi.HealthCheck{}, log: log}
	defer func() {
		if err != nil {
			b.Close(context.Background())
		}
	}()

	switch cfg.StoreBackend {
	case "postgres":
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.onClose(func(context.Context) error { return db.Close() })
		st, err := pgstore.New(ctx, db.Client)
		if err != nil {
			return nil, err
		}
		b.Roster, b.Records = st, st
		b.Health["db"] = db.Healthy
	case "mongo":
		m, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		b.onClose(m.Close)
		st, err := mongostore.New(ctx, m.Database)
		if err != nil {
			return nil, err
		}
		b.Roster, b.Records = st, st
		b.Health["mongo"] = m.Healthy
	case "memory":
		st := memstore.New()
		b.Roster, b.Records = st, st
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.QueueBackend == "redis" || cfg.RateLimitBackend == "redis" {
		b.Redis = store.NewRedis(store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		b.onClose(func(context.Context) error { return b.Redis.Close() })
		b.Health["redis"] = b.Redis.Healthy
		if err := b.Redis.Ping(ctx); err != nil {
			// the queue reconnects on its own; start degraded rather than refuse to boot
			log.Warn("redis not reachable", zap.Error(err))
		}
	}

	switch cfg.QueueBackend {
	case "redis":
		b.Queue = queue.NewRedisQueue(b.Redis.Client, cfg.QueueKey)
	case "memory":
		b.Queue = queue.NewInMemory(64)
	default:
		return nil, fmt.Errorf("unknown QUEUE_BACKEND %q", cfg.QueueBackend)
	}

	log.Info("backend ready",
		zap.String("store", cfg.StoreBackend),
		zap.String("queue", cfg.QueueBackend),
	)
	return b, nil
}

// Limiter returns the request limiter for cfg, or nil when rate limiting is disabled.
func (b *Backend) Limiter(cfg config.App) httpmiddleware.Limiter {
	if cfg.RateLimitPerMin <= 0 {
		return nil
	}
	if cfg.RateLimitBackend == "redis" && b.Redis != nil {
		return httpmiddleware.NewRedisWindow(b.Redis.Client, cfg.RateLimitPerMin)
	}
	return httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
}

func (b *Backend) onClose(fn func(context.Context) error) {
	b.closers = append(b.closers, fn)
}

// Close releases clients in reverse order of opening.
func (b *Backend) Close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil && b.log != nil {
			b.log.Warn("close failed", zap.Error(err))
		}
	}
	b.closers = nil
}
