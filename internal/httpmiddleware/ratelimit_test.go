package httpmiddleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTokenBucketRefills(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	l := NewTokenBucket(2, 60)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "1.2.3.4")
		assert.NoError(t, err)
		assert.Equal(t, want, ok, "request %d", i)
	}
	ok, _ := l.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "buckets are per key")

	now = now.Add(2 * time.Second) // 60/min refills a token per second
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)
}

func TestTokenBucketEvictsIdleBuckets(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		want    int
	}{
		{name: "within window", advance: time.Second, want: 2},
		{name: "past window", advance: 3 * time.Second, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
			l := NewTokenBucket(2, 60) // refill window is two seconds
			l.now = func() time.Time { return now }
			ctx := context.Background()

			_, _ = l.Allow(ctx, "1.2.3.4")
			_, _ = l.Allow(ctx, "5.6.7.8")
			now = now.Add(tt.advance)
			ok, err := l.Allow(ctx, "5.6.7.8")
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Len(t, l.state, tt.want)
		})
	}
}

type stubLimiter struct {
	ok  bool
	err error
}

func (s stubLimiter) Allow(context.Context, string) (bool, error) { return s.ok, s.err }

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name     string
		limiter  Limiter
		wantCode int
	}{
		{name: "allowed", limiter: stubLimiter{ok: true}, wantCode: http.StatusOK},
		{name: "limited", limiter: stubLimiter{}, wantCode: http.StatusTooManyRequests},
		{name: "fails open", limiter: stubLimiter{err: errors.New("redis down")}, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RateLimit(tt.limiter, zap.NewNop()))
			r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
