package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/riftrewind/riftrewind/internal/core"
)

// Discovery paging and sampling parameters. The ceiling bounds the id scan
// for players with deep histories; the sample bounds classification cost to
// a handful of governed detail fetches.
const (
	DefaultDiscoveryCeiling = 300
	DefaultPageSize         = 100
	DefaultSampleSize       = 50
	DefaultBatchSize        = 10
)

// MatchSource lists and fetches matches. The riot client implements it;
// implementations own their own rate governance.
type MatchSource interface {
	MatchIDsByPUUID(ctx context.Context, puuid string, start, count int, startTime time.Time) ([]string, error)
	MatchByID(ctx context.Context, matchID string) (*core.Match, error)
}

// MatchCache is the durable match payload cache consulted before any detail
// fetch. Cache failures degrade to misses, so implementations never block a
// fetch path.
type MatchCache interface {
	GetMatch(ctx context.Context, matchID string, ttl time.Duration) (*core.Match, error)
	PutMatch(ctx context.Context, match *core.Match) error
	PutMatchBatch(ctx context.Context, matches []*core.Match) error
}

// Selector discovers a player's recent match ids and picks which ones to
// analyze. Discovery pages ids oldest-bound by maxAge; selection samples the
// most recent ids, classifies them by queue, and applies a pure strategy
// decision over the observed ranked ratio.
type Selector struct {
	Source   MatchSource
	Cache    MatchCache
	MatchTTL time.Duration

	Ceiling    int
	PageSize   int
	SampleSize int
	BatchSize  int

	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewSelector returns a Selector with paging defaults applied.
func NewSelector(source MatchSource, cache MatchCache, matchTTL time.Duration) *Selector {
	return &Selector{
		Source:     source,
		Cache:      cache,
		MatchTTL:   matchTTL,
		Ceiling:    DefaultDiscoveryCeiling,
		PageSize:   DefaultPageSize,
		SampleSize: DefaultSampleSize,
		BatchSize:  DefaultBatchSize,
	}
}

// DiscoverAndSelect pages the player's match ids, then decides which to
// analyze. Histories at or under targetCount skip classification entirely.
// Returned ids preserve server recency order, most recent first.
func (s *Selector) DiscoverAndSelect(ctx context.Context, puuid string, targetCount int, maxAge time.Duration) (core.MatchSelection, error) {
	ids, err := s.discover(ctx, puuid, maxAge)
	if err != nil {
		return core.MatchSelection{}, fmt.Errorf("discover match ids: %w", err)
	}

	if len(ids) <= targetCount {
		return core.MatchSelection{
			SelectedIDs:    ids,
			Strategy:       core.StrategyAllAvailable,
			TotalAvailable: len(ids),
		}, nil
	}

	sampleSize := s.sampleSize()
	if sampleSize > len(ids) {
		sampleSize = len(ids)
	}
	categories, err := s.classify(ctx, ids[:sampleSize])
	if err != nil {
		return core.MatchSelection{}, fmt.Errorf("classify sample: %w", err)
	}

	var ranked, normal []string
	for _, id := range ids[:sampleSize] {
		switch categories[id] {
		case core.CategoryRanked:
			ranked = append(ranked, id)
		case core.CategoryNormal:
			normal = append(normal, id)
		}
	}

	// Failed or unrecognized classifications count against the ratio; the
	// denominator is always the full sample.
	ratio := float64(len(ranked)) / float64(sampleSize)
	unsampled := ids[sampleSize:]

	strategy := decideStrategy(ratio, len(ids), targetCount)

	var selected []string
	switch strategy {
	case core.StrategyRankedOnly:
		selected, err = s.extendRanked(ctx, ranked, unsampled, targetCount)
		if err != nil {
			return core.MatchSelection{}, fmt.Errorf("extend ranked selection: %w", err)
		}
	case core.StrategyRankedPriority:
		selected = topUp(append(ranked, normal...), unsampled, targetCount)
	default:
		selected = ids
		if len(selected) > targetCount {
			selected = selected[:targetCount]
		}
	}

	return core.MatchSelection{
		SelectedIDs:          selected,
		Strategy:             strategy,
		TotalAvailable:       len(ids),
		EstimatedRankedRatio: ratio,
	}, nil
}

// discover pages match ids from the history endpoint until a short page or
// the ceiling. A 429 on a page is honored once via Retry-After; a second one
// on the same page fails discovery.
func (s *Selector) discover(ctx context.Context, puuid string, maxAge time.Duration) ([]string, error) {
	var (
		ids      []string
		pageSize = s.pageSize()
		ceiling  = s.ceiling()
		start    = 0
	)
	startTime := s.now().Add(-maxAge)

	for start < ceiling {
		count := pageSize
		if remaining := ceiling - start; remaining < count {
			count = remaining
		}

		page, err := s.Source.MatchIDsByPUUID(ctx, puuid, start, count, startTime)
		if err != nil {
			te, ok := core.AsThrottled(err)
			if !ok {
				return nil, err
			}
			wait := te.RetryAfter
			if wait <= 0 {
				wait = time.Second
			}
			if err := s.wait(ctx, wait); err != nil {
				return nil, err
			}
			page, err = s.Source.MatchIDsByPUUID(ctx, puuid, start, count, startTime)
			if err != nil {
				return nil, err
			}
		}

		ids = append(ids, page...)
		if len(page) < count {
			break
		}
		start += len(page)
	}

	if len(ids) > ceiling {
		ids = ids[:ceiling]
	}
	return ids, nil
}

// classify resolves the queue category of each sampled id, preferring cached
// payloads and fetching the rest in governed batches. A failed fetch leaves
// its id unclassified rather than failing the whole sample.
func (s *Selector) classify(ctx context.Context, sample []string) (map[string]core.QueueCategory, error) {
	categories := make(map[string]core.QueueCategory, len(sample))
	var mu sync.Mutex

	batchSize := s.batchSize()
	for i := 0; i < len(sample); i += batchSize {
		end := i + batchSize
		if end > len(sample) {
			end = len(sample)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, id := range sample[i:end] {
			g.Go(func() error {
				match, err := s.loadMatch(gctx, id)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					return nil
				}
				mu.Lock()
				categories[id] = core.CategoryForQueue(match.Info.QueueID)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return categories, nil
}

func (s *Selector) loadMatch(ctx context.Context, id string) (*core.Match, error) {
	if s.Cache != nil {
		if match, err := s.Cache.GetMatch(ctx, id, s.MatchTTL); err == nil && match != nil {
			return match, nil
		}
	}
	match, err := s.Source.MatchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		// Best effort; a failed write only costs a future refetch.
		_ = s.Cache.PutMatch(ctx, match)
	}
	return match, nil
}

// decideStrategy picks the selection strategy from the sampled ranked ratio.
// Unsampled ids are assumed to follow it, which is why ranked_only may extend
// past the sample. Pure; no I/O.
func decideStrategy(ratio float64, total, target int) core.Strategy {
	switch {
	case ratio >= 0.5 && ratio*float64(total) >= float64(target):
		return core.StrategyRankedOnly
	case ratio >= 0.5:
		return core.StrategyRankedPriority
	default:
		return core.StrategyMostRecent
	}
}

// extendRanked grows a ranked-only selection past the sample. Unsampled ids
// are classified in the same governed batches as the sample and only ranked
// ones are kept, preserving recency order, until the target is met or the
// pool runs out.
func (s *Selector) extendRanked(ctx context.Context, ranked, unsampled []string, target int) ([]string, error) {
	selected := make([]string, 0, target)
	selected = append(selected, ranked...)
	if len(selected) >= target {
		return selected[:target], nil
	}

	batchSize := s.batchSize()
	for i := 0; i < len(unsampled) && len(selected) < target; i += batchSize {
		end := i + batchSize
		if end > len(unsampled) {
			end = len(unsampled)
		}
		batch := unsampled[i:end]

		categories, err := s.classify(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, id := range batch {
			if categories[id] != core.CategoryRanked {
				continue
			}
			selected = append(selected, id)
			if len(selected) >= target {
				break
			}
		}
	}
	return selected, nil
}

// topUp extends base with extra ids until target, preserving order.
func topUp(base, extra []string, target int) []string {
	selected := make([]string, 0, target)
	selected = append(selected, base...)
	if len(selected) > target {
		return selected[:target]
	}
	for _, id := range extra {
		if len(selected) >= target {
			break
		}
		selected = append(selected, id)
	}
	return selected
}

func (s *Selector) ceiling() int {
	if s.Ceiling > 0 {
		return s.Ceiling
	}
	return DefaultDiscoveryCeiling
}

func (s *Selector) pageSize() int {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return DefaultPageSize
}

func (s *Selector) sampleSize() int {
	if s.SampleSize > 0 {
		return s.SampleSize
	}
	return DefaultSampleSize
}

func (s *Selector) batchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return DefaultBatchSize
}

func (s *Selector) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

func (s *Selector) wait(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}
