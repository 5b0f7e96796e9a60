// Package progress fans analysis progress events out to stream subscribers.
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/riftrewind/riftrewind/internal/core"
)

// Queue and keepalive defaults. The queue is small on purpose: subscribers
// that fall behind get the newest events, not a full replay.
const (
	DefaultQueueSize = 16
	DefaultKeepalive = 30 * time.Second
)

// Subscription is one subscriber's view of an analysis stream. Events are
// pulled with Next; a silent stream synthesizes keepalive events so HTTP
// intermediaries do not drop the connection.
type Subscription struct {
	analysisID string
	ch         chan core.ProgressEvent
	keepalive  time.Duration
	clock      func() time.Time
}

// Next blocks for the next event, a keepalive after a quiet interval, or
// context cancellation. Keepalives carry the analysis id and no progress.
func (s *Subscription) Next(ctx context.Context) (core.ProgressEvent, error) {
	timer := time.NewTimer(s.keepalive)
	defer timer.Stop()

	select {
	case ev := <-s.ch:
		return ev, nil
	case <-timer.C:
		return core.ProgressEvent{
			AnalysisID: s.analysisID,
			Step:       core.StepKeepalive,
			Timestamp:  s.clock(),
		}, nil
	case <-ctx.Done():
		return core.ProgressEvent{}, ctx.Err()
	}
}

// Hub broadcasts pipeline progress. One subscriber per analysis id; Publish
// never blocks, dropping the oldest queued event when a subscriber lags.
// The latest event is retained per analysis so late subscribers and result
// polls can see where a run currently stands.
type Hub struct {
	QueueSize int
	Keepalive time.Duration

	Clock func() time.Time

	mu     sync.Mutex
	subs   map[string]*Subscription
	latest map[string]core.ProgressEvent
}

// NewHub returns a Hub with default queue and keepalive settings.
func NewHub() *Hub {
	return &Hub{
		QueueSize: DefaultQueueSize,
		Keepalive: DefaultKeepalive,
		subs:      make(map[string]*Subscription),
		latest:    make(map[string]core.ProgressEvent),
	}
}

// Subscribe attaches the single subscriber for an analysis, replacing any
// previous one. If events were already published, the latest is queued
// immediately so the subscriber does not start blind.
func (h *Hub) Subscribe(analysisID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscription{
		analysisID: analysisID,
		ch:         make(chan core.ProgressEvent, h.queueSize()),
		keepalive:  h.keepaliveInterval(),
		clock:      h.now,
	}
	h.subs[analysisID] = sub

	if ev, ok := h.latest[analysisID]; ok {
		sub.ch <- ev
	}
	return sub
}

// Unsubscribe detaches the subscriber and drops the retained snapshot.
func (h *Hub) Unsubscribe(analysisID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, analysisID)
	delete(h.latest, analysisID)
}

// Publish records the event as the latest for the analysis and queues it to
// the subscriber, if any. A full queue sheds its oldest entry first.
func (h *Hub) Publish(analysisID, step string, percent int, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ev := core.ProgressEvent{
		AnalysisID: analysisID,
		Step:       step,
		Percent:    percent,
		Message:    message,
		Timestamp:  h.now(),
	}
	h.latest[analysisID] = ev

	sub, ok := h.subs[analysisID]
	if !ok {
		return
	}
	for {
		select {
		case sub.ch <- ev:
			return
		default:
			select {
			case <-sub.ch:
			default:
			}
		}
	}
}

// Latest returns the most recent event for an analysis, if any was published
// and the analysis has not been unsubscribed.
func (h *Hub) Latest(analysisID string) (core.ProgressEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ev, ok := h.latest[analysisID]
	return ev, ok
}

func (h *Hub) queueSize() int {
	if h.QueueSize > 0 {
		return h.QueueSize
	}
	return DefaultQueueSize
}

func (h *Hub) keepaliveInterval() time.Duration {
	if h.Keepalive > 0 {
		return h.Keepalive
	}
	return DefaultKeepalive
}

func (h *Hub) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}
