package engine

import (
	"context"
	"sync"
	"time"
)

// Riot personal API keys allow 20 requests per second and 100 per two
// minutes. Both windows must have headroom before a request is issued.
const (
	DefaultRiotPerSecond = 20
	DefaultRiotPer2Min   = 100

	riotSecondWindow = time.Second
	riot2MinWindow   = 2 * time.Minute

	// Sleeping slightly past the window edge avoids re-checking on the
	// exact boundary and observing the same full window again.
	windowOvershoot = 100 * time.Millisecond
)

// RiotLimiter paces outbound Riot API requests against two sliding windows.
// Admit blocks until both windows have headroom; Record stamps an issued
// request into both. Admission and recording are deliberately decoupled so a
// caller whose request fails before reaching the wire can skip recording.
type RiotLimiter struct {
	PerSecond int
	Per2Min   int

	// Clock and Sleep are injectable for tests. Nil means real time.
	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	lastSecond []time.Time
	last2Min   []time.Time
}

// NewRiotLimiter returns a limiter with the given caps, applying the Riot
// personal-key defaults for non-positive values.
func NewRiotLimiter(perSecond, per2Min int) *RiotLimiter {
	if perSecond <= 0 {
		perSecond = DefaultRiotPerSecond
	}
	if per2Min <= 0 {
		per2Min = DefaultRiotPer2Min
	}
	return &RiotLimiter{PerSecond: perSecond, Per2Min: per2Min}
}

// Admit blocks until both windows have headroom, or the context is done.
// It never fails for quota reasons; local quota exhaustion is always
// resolved by delay. The mutex is held across the waits so concurrent
// admitters cannot both observe a non-full window and proceed.
func (l *RiotLimiter) Admit(ctx context.Context) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.lastSecond) >= l.PerSecond {
		if err := l.wait(ctx, riotSecondWindow+windowOvershoot); err != nil {
			return err
		}
		l.prune(l.now())
	}

	if len(l.last2Min) >= l.Per2Min {
		oldest := l.last2Min[0]
		wait := riot2MinWindow + windowOvershoot - l.now().Sub(oldest)
		if wait > 0 {
			if err := l.wait(ctx, wait); err != nil {
				return err
			}
		}
		l.prune(l.now())
	}

	return nil
}

// Record stamps the current time into both windows. Callers invoke it only
// after Admit returned and a request was actually issued.
func (l *RiotLimiter) Record() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.lastSecond = append(l.lastSecond, now)
	l.last2Min = append(l.last2Min, now)
}

// RiotLimiterStats reports current window occupancy.
type RiotLimiterStats struct {
	LastSecond     int `json:"requests_last_second"`
	Last2Min       int `json:"requests_last_2_minutes"`
	PerSecondLimit int `json:"per_second_limit"`
	Per2MinLimit   int `json:"per_2min_limit"`
}

// Stats returns pruned window occupancy for health reporting.
func (l *RiotLimiter) Stats() RiotLimiterStats {
	if l == nil {
		return RiotLimiterStats{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	return RiotLimiterStats{
		LastSecond:     len(l.lastSecond),
		Last2Min:       len(l.last2Min),
		PerSecondLimit: l.PerSecond,
		Per2MinLimit:   l.Per2Min,
	}
}

// prune drops entries older than each window's duration. Entries are
// appended in time order, so pruning cuts a prefix.
func (l *RiotLimiter) prune(now time.Time) {
	l.lastSecond = pruneWindow(l.lastSecond, now, riotSecondWindow)
	l.last2Min = pruneWindow(l.last2Min, now, riot2MinWindow)
}

func (l *RiotLimiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}

func (l *RiotLimiter) wait(ctx context.Context, d time.Duration) error {
	if l.Sleep != nil {
		return l.Sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}

func pruneWindow(entries []time.Time, now time.Time, window time.Duration) []time.Time {
	cut := 0
	for cut < len(entries) && now.Sub(entries[cut]) >= window {
		cut++
	}
	if cut == 0 {
		return entries
	}
	return append(entries[:0], entries[cut:]...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
