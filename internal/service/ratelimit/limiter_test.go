package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowConsumesCapacity(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("yahoo", 2, 1))
	assert.True(t, l.Allow("yahoo", 2, 1))
	assert.False(t, l.Allow("yahoo", 2, 1))
	assert.True(t, l.Allow("other", 2, 1), "buckets are per key")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("yahoo", 2, 1))
	assert.False(t, l.Allow("yahoo", 2, 1))
}

func TestLimiter_WaitBlocksUntilRefill(t *testing.T) {
	l := New()
	require.NoError(t, l.Wait(context.Background(), "yahoo", 1, 20))

	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), "yahoo", 1, 20))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := New()
	require.True(t, l.Allow("yahoo", 1, 0.01))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx, "yahoo", 1, 0.01), context.DeadlineExceeded)
}
