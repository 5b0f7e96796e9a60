package engine

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Conservative pacing for the generation API. Throttling responses from the
// model service are bursty, so retries back off on a seconds scale while
// steady-state traffic only needs sub-second smoothing.
const (
	DefaultGenPerSecond   = 3
	DefaultGenMinInterval = 350 * time.Millisecond

	DefaultBackoffBase       = 5 * time.Second
	DefaultBackoffMax        = 2 * time.Minute
	DefaultBackoffMultiplier = 2.0
	DefaultJitterFraction    = 0.1

	// A quiet stretch after a throttle means the upstream has recovered;
	// outstanding failures no longer justify inflated delays.
	genFailureCooldown = 5 * time.Second
)

// GenLimiter paces generation API requests and owns the process-wide backoff
// state. Admit has two asymmetric paths: steady-state pacing (minimum
// inter-request interval plus a one-second cap) and explicit retry backoff
// with jitter, triggered by callers that detected a throttling response.
type GenLimiter struct {
	PerSecond         int
	MinInterval       time.Duration
	BackoffBase       time.Duration
	BackoffMax        time.Duration
	BackoffMultiplier float64
	JitterFraction    float64

	// Clock, Sleep, and Rand are injectable for tests. Rand returns a
	// uniform value in [0,1); nil means math/rand.
	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
	Rand  func() float64

	mu                  sync.Mutex
	lastSecond          []time.Time
	lastRequest         time.Time
	consecutiveFailures int
	currentDelay        time.Duration
}

// NewGenLimiter returns a limiter with defaults applied for non-positive
// values.
func NewGenLimiter(perSecond int, minInterval, backoffBase, backoffMax time.Duration, multiplier, jitter float64) *GenLimiter {
	if perSecond <= 0 {
		perSecond = DefaultGenPerSecond
	}
	if minInterval <= 0 {
		minInterval = DefaultGenMinInterval
	}
	if backoffBase <= 0 {
		backoffBase = DefaultBackoffBase
	}
	if backoffMax <= 0 {
		backoffMax = DefaultBackoffMax
	}
	if multiplier <= 0 {
		multiplier = DefaultBackoffMultiplier
	}
	if jitter < 0 {
		jitter = DefaultJitterFraction
	}
	return &GenLimiter{
		PerSecond:         perSecond,
		MinInterval:       minInterval,
		BackoffBase:       backoffBase,
		BackoffMax:        backoffMax,
		BackoffMultiplier: multiplier,
		JitterFraction:    jitter,
		currentDelay:      backoffBase,
	}
}

// Admit blocks until a request may be issued. With isRetry set it applies
// exponential backoff instead of interval pacing: the failure count is
// incremented first, the capped delay is widened by ±JitterFraction, and the
// jittered value (not the raw one) becomes the new current delay so repeated
// retries compound off the sleep actually taken.
func (l *GenLimiter) Admit(ctx context.Context, isRetry bool) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if isRetry {
		l.consecutiveFailures++
		delay := l.backoffDelay()
		if err := l.wait(ctx, delay); err != nil {
			return err
		}
		l.currentDelay = delay
		return nil
	}

	// A single old throttle must not inflate delay on an otherwise
	// healthy stream.
	if l.consecutiveFailures > 0 && !l.lastRequest.IsZero() && now.Sub(l.lastRequest) > genFailureCooldown {
		l.resetBackoff()
	}

	l.lastSecond = pruneWindow(l.lastSecond, now, riotSecondWindow)

	if !l.lastRequest.IsZero() {
		if since := now.Sub(l.lastRequest); since < l.MinInterval {
			if err := l.wait(ctx, l.MinInterval-since); err != nil {
				return err
			}
		}
	}

	if len(l.lastSecond) >= l.PerSecond {
		if err := l.wait(ctx, riotSecondWindow+windowOvershoot); err != nil {
			return err
		}
		l.lastSecond = pruneWindow(l.lastSecond, l.now(), riotSecondWindow)
	}

	return nil
}

// Record stamps an issued request. A success after outstanding failures
// resets the backoff state to its base delay.
func (l *GenLimiter) Record(success bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.lastRequest = now
	l.lastSecond = append(l.lastSecond, now)

	if success && l.consecutiveFailures > 0 {
		l.resetBackoff()
	}
}

// RecordThrottle notes a throttling response detected outside Admit. The
// next Admit(ctx, true) compounds from the increased failure count.
func (l *GenLimiter) RecordThrottle() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.consecutiveFailures++
}

// GenLimiterStats reports pacing occupancy and backoff state.
type GenLimiterStats struct {
	LastSecond          int           `json:"requests_last_second"`
	PerSecondLimit      int           `json:"per_second_limit"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	CurrentDelay        time.Duration `json:"current_delay"`
}

// Stats returns current pacing and backoff state for health reporting.
func (l *GenLimiter) Stats() GenLimiterStats {
	if l == nil {
		return GenLimiterStats{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastSecond = pruneWindow(l.lastSecond, l.now(), riotSecondWindow)
	return GenLimiterStats{
		LastSecond:          len(l.lastSecond),
		PerSecondLimit:      l.PerSecond,
		ConsecutiveFailures: l.consecutiveFailures,
		CurrentDelay:        l.currentDelay,
	}
}

// backoffDelay computes the jittered delay for the current failure count.
// Callers must hold the mutex and have incremented the failure count.
func (l *GenLimiter) backoffDelay() time.Duration {
	base := l.currentDelay
	if base <= 0 {
		base = l.backoffBase()
	}

	raw := float64(base) * math.Pow(l.multiplier(), float64(l.consecutiveFailures-1))
	if max := float64(l.backoffMax()); raw > max {
		raw = max
	}

	jitter := raw * l.JitterFraction * (2*l.rand() - 1)
	delay := time.Duration(raw + jitter)
	if delay < 0 {
		delay = 0
	}
	return delay
}

func (l *GenLimiter) resetBackoff() {
	l.consecutiveFailures = 0
	l.currentDelay = l.backoffBase()
}

func (l *GenLimiter) backoffBase() time.Duration {
	if l.BackoffBase > 0 {
		return l.BackoffBase
	}
	return DefaultBackoffBase
}

func (l *GenLimiter) backoffMax() time.Duration {
	if l.BackoffMax > 0 {
		return l.BackoffMax
	}
	return DefaultBackoffMax
}

func (l *GenLimiter) multiplier() float64 {
	if l.BackoffMultiplier > 0 {
		return l.BackoffMultiplier
	}
	return DefaultBackoffMultiplier
}

func (l *GenLimiter) rand() float64 {
	if l.Rand != nil {
		return l.Rand()
	}
	return rand.Float64()
}

func (l *GenLimiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}

func (l *GenLimiter) wait(ctx context.Context, d time.Duration) error {
	if l.Sleep != nil {
		return l.Sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}
