package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classattend/internal/config"
	"classattend/internal/httpmiddleware"
	"classattend/internal/queue"
)

func TestOpenMemory(t *testing.T) {
	cfg := config.App{StoreBackend: "memory", QueueBackend: "memory", RateLimitBackend: "memory", RateLimitPerMin: 10}
	b, err := Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer b.Close(context.Background())

	assert.NotNil(t, b.Roster)
	assert.NotNil(t, b.Records)
	assert.IsType(t, &queue.InMemory{}, b.Queue)
	assert.Nil(t, b.Redis)
	assert.Empty(t, b.Health)
	assert.IsType(t, &httpmiddleware.TokenBucket{}, b.Limiter(cfg))

	cfg.RateLimitPerMin = 0
	assert.Nil(t, b.Limiter(cfg))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.App{StoreBackend: "cassandra"}, zap.NewNop())
	assert.ErrorContains(t, err, "STORE_BACKEND")

	_, err = Open(context.Background(), config.App{StoreBackend: "memory", QueueBackend: "kafka"}, zap.NewNop())
	assert.ErrorContains(t, err, "QUEUE_BACKEND")
}
