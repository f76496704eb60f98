package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisOptions selects the redis instance backing the event queue and the shared rate limiter.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// Redis wraps the client shared by the queue and the limiter.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds a client. The read timeout must outlast the queue's BRPOP block
// or idle consumers see spurious i/o timeouts.
func NewRedis(opts RedisOptions) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  6 * time.Second,
		WriteTimeout: time.Second,
		PoolSize:     20,
		MinIdleConns: 2,
	})
	return &Redis{Client: client}
}

// Ping fails when redis is unreachable within two seconds.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return errors.Wrapf(r.Client.Ping(ctx).Err(), "ping redis %s", r.Client.Options().Addr)
}

// Healthy is Ping as a bool for /healthz.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
