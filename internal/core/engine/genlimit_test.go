package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestGenLimiter(tl *fakeTimeline) *GenLimiter {
	l := NewGenLimiter(3, 350*time.Millisecond, 5*time.Second, 2*time.Minute, 2.0, 0.1)
	l.Clock = tl.Clock
	l.Sleep = tl.Sleep
	l.Rand = func() float64 { return 0.5 } // midpoint of [0,1): zero jitter
	return l
}

func TestGenLimiterMinInterval(t *testing.T) {
	tl := newFakeTimeline()
	l := newTestGenLimiter(tl)
	ctx := context.Background()

	require.NoError(t, l.Admit(ctx, false))
	l.Record(true)

	tl.advance(100 * time.Millisecond)
	require.NoError(t, l.Admit(ctx, false))
	require.Len(t, tl.sleeps, 1)
	require.Equal(t, 250*time.Millisecond, tl.sleeps[0])
}

func TestGenLimiterNoWaitAfterInterval(t *testing.T) {
	tl := newFakeTimeline()
	l := newTestGenLimiter(tl)
	ctx := context.Background()

	require.NoError(t, l.Admit(ctx, false))
	l.Record(true)

	tl.advance(400 * time.Millisecond)
	require.NoError(t, l.Admit(ctx, false))
	require.Empty(t, tl.sleeps)
}

func TestGenLimiterPerSecondCap(t *testing.T) {
	tl := newFakeTimeline()
	l := newTestGenLimiter(tl)
	ctx := context.Background()

	// Three concurrent callers issued at the same instant.
	for i := 0; i < 3; i++ {
		l.Record(true)
	}

	// Interval pacing is satisfied but the 1-second window holds 3.
	tl.advance(400 * time.Millisecond)
	require.NoError(t, l.Admit(ctx, false))
	require.Len(t, tl.sleeps, 1)
	require.Equal(t, time.Second+100*time.Millisecond, tl.sleeps[0])
}

func TestGenLimiterBackoffGrowth(t *testing.T) {
	tl := newFakeTimeline()
	l := newTestGenLimiter(tl)
	ctx := context.Background()

	// First retry: base delay.
	require.NoError(t, l.Admit(ctx, true))
	require.Equal(t, 5*time.Second, tl.sleeps[0])

	// Second retry compounds off the delay actually taken.
	require.NoError(t, l.Admit(ctx, true))
	require.Equal(t, 10*time.Second, tl.sleeps[1])

	require.NoError(t, l.Admit(ctx, true))
	require.Equal(t, 40*time.Second, tl.sleeps[2])

	require.Equal(t, 3, l.Stats().ConsecutiveFailures)
}

func TestGenLimiterBackoffCapped(t *testing.T) {
	tl := newFakeTimeline()
	l := newTestGenLimiter(tl)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		require.NoError(t, l.Admit(ctx, true))
	}
	for _, d := range tl.sleeps {
		require.LessOrEqual(t, d, 2*time.Minute)
	}
	require.Equal(t, 2*time.Minute, tl.sleeps[len(tl.sleeps)-1])
}

func TestGenLimiterJitterBounds(t *testing.T) {
	for _, r := range []float64{0, 0.999} {
		tl := newFakeTimeline()
		l := newTestGenLimiter(tl)
		l.Rand = func() float64 { return r }

		require.NoError(t, l.Admit(context.Background(), true))
		d := tl.sleeps[0]
		require.GreaterOrEqual(t, d, time.Duration(float64(5*time.Second)*0.9))
		require.LessOrEqual(t, d, time.Duration(float64(5*time.Second)*1.1))
	}
}

func TestGenLimiterSuccessResetsBackoff(t *testing.T) {
	tl := newFakeTimeline()
	l := newTestGenLimiter(tl)
	ctx := context.Background()

	require.NoError(t, l.Admit(ctx, true))
	require.NoError(t, l.Admit(ctx, true))
	require.Equal(t, 2, l.Stats().ConsecutiveFailures)

	l.Record(true)
	stats := l.Stats()
	require.Equal(t, 0, stats.ConsecutiveFailures)
	require.Equal(t, 5*time.Second, stats.CurrentDelay)

	// A fresh throttle starts over from base.
	require.NoError(t, l.Admit(ctx, true))
	require.Equal(t, 5*time.Second, tl.sleeps[len(tl.sleeps)-1])
}

func TestGenLimiterPassiveResetAfterCooldown(t *testing.T) {
	tl := newFakeTimeline()
	l := newTestGenLimiter(tl)
	ctx := context.Background()

	require.NoError(t, l.Admit(ctx, false))
	l.Record(false)
	l.RecordThrottle()
	require.Equal(t, 1, l.Stats().ConsecutiveFailures)

	// More than 5s since the last request: the next normal admission
	// clears the stale failure state.
	tl.advance(6 * time.Second)
	require.NoError(t, l.Admit(ctx, false))
	require.Equal(t, 0, l.Stats().ConsecutiveFailures)
}

func TestGenLimiterNoPassiveResetWithinCooldown(t *testing.T) {
	tl := newFakeTimeline()
	l := newTestGenLimiter(tl)
	ctx := context.Background()

	require.NoError(t, l.Admit(ctx, false))
	l.Record(false)
	l.RecordThrottle()

	tl.advance(2 * time.Second)
	require.NoError(t, l.Admit(ctx, false))
	require.Equal(t, 1, l.Stats().ConsecutiveFailures)
}

func TestGenLimiterNilSafe(t *testing.T) {
	var l *GenLimiter
	require.NoError(t, l.Admit(context.Background(), false))
	l.Record(true)
	l.RecordThrottle()
	require.Equal(t, GenLimiterStats{}, l.Stats())
}
