package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWait_PacesAcquisitions(t *testing.T) {
	t.Parallel()

	// 10 req/s with a single-token burst: the second acquisition waits
	// roughly one interval.
	l := New(10)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestWait_BoundsRateOverWindow(t *testing.T) {
	t.Parallel()

	// Five acquisitions at 20 req/s: one immediate token plus four refills
	// at 50ms each, so at least ~200ms in total.
	l := New(20)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	require.GreaterOrEqual(t, time.Since(start), 160*time.Millisecond)
}

func TestWait_ZeroRateIsUnlimited(t *testing.T) {
	t.Parallel()

	l := New(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 1000; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	require.Less(t, time.Since(start), time.Second)
}

func TestWait_HonorsContext(t *testing.T) {
	t.Parallel()

	l := New(1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	require.Error(t, err)
}
