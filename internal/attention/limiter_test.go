package attention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsUpToMax(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiterWithClock(2, 5*time.Minute, func() time.Time { return now })

	_, err := limiter.TryConsume("u1:c1")
	require.NoError(t, err)
	retryAt, err := limiter.TryConsume("u1:c1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(5*time.Minute), retryAt, "second send starts the cooldown")
}

func TestLimiterRejectsThirdWithinCooldown(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiterWithClock(2, 5*time.Minute, func() time.Time { return now })

	_, err := limiter.TryConsume("u1:c1")
	require.NoError(t, err)
	_, err = limiter.TryConsume("u1:c1")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	retryAt, err := limiter.TryConsume("u1:c1")
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, now.Add(4*time.Minute), retryAt)
}

func TestLimiterResetsAfterCooldown(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiterWithClock(2, 5*time.Minute, func() time.Time { return now })

	_, err := limiter.TryConsume("u1:c1")
	require.NoError(t, err)
	_, err = limiter.TryConsume("u1:c1")
	require.NoError(t, err)
	_, err = limiter.TryConsume("u1:c1")
	require.ErrorIs(t, err, ErrRateLimited)

	now = now.Add(5*time.Minute + time.Second)
	_, err = limiter.TryConsume("u1:c1")
	require.NoError(t, err, "counter restarts at 1 after the cooldown elapses")
	_, err = limiter.TryConsume("u1:c1")
	require.NoError(t, err)
	_, err = limiter.TryConsume("u1:c1")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLimiterWithClock(2, 5*time.Minute, func() time.Time { return now })

	_, err := limiter.TryConsume("u1:c1")
	require.NoError(t, err)
	_, err = limiter.TryConsume("u1:c1")
	require.NoError(t, err)
	_, err = limiter.TryConsume("u1:c1")
	require.ErrorIs(t, err, ErrRateLimited)

	_, err = limiter.TryConsume("u1:c2")
	assert.NoError(t, err, "a different conversation has its own budget")
}
