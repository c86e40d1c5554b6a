package middleware

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/servus/pkg/redis"
)

// Run with: INTEGRATION_TEST=true TEST_REDIS_ADDR=<host:port> go test ./pkg/middleware/... -run Integration
func TestRedisLimiter_Integration_ConcurrentLogins(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	ctx := context.Background()
	cfg := redis.DefaultConfig()
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	client, err := redis.NewClient(ctx, cfg)
	require.NoError(t, err)
	defer client.Close()

	prefix := fmt.Sprintf("servus:test:ratelimit:%d:", time.Now().UnixNano())
	rl := NewRedisLimiter(client, RateLimitConfig{Attempts: 5, Window: time.Minute, KeyPrefix: prefix})
	defer client.Del(ctx, prefix+"10.0.0.1")

	const requests = 100
	var allowed, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, wait, err := rl.Allow(ctx, "10.0.0.1")
			if err != nil {
				t.Errorf("Allow: %v", err)
				return
			}
			if ok {
				atomic.AddInt32(&allowed, 1)
				return
			}
			if wait <= 0 || wait > time.Minute {
				t.Errorf("retry after %v outside window", wait)
			}
			atomic.AddInt32(&rejected, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), allowed)
	assert.Equal(t, int32(requests-5), rejected)
}
