package papersources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow(), "burst exhausted")
}

func TestRateLimiterWait(t *testing.T) {
	rl := NewRateLimiter(100, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(context.Background()))
	}
	// Two waits at 100 req/s should take roughly 20ms.
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimiterWaitCancelled(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	require.True(t, rl.Allow()) // drain the bucket

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	require.Error(t, err)
}

func TestRateLimiterTokens(t *testing.T) {
	rl := NewRateLimiter(1, 5)
	assert.InDelta(t, 5, rl.Tokens(), 0.1)

	rl.Allow()
	assert.InDelta(t, 4, rl.Tokens(), 0.1)
}
