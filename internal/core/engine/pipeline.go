package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/riftrewind/riftrewind/internal/core"
	"github.com/riftrewind/riftrewind/internal/stats"
)

// Analysis defaults mirror the discovery window the product is tuned for.
const (
	DefaultTargetCount = 50
	DefaultMaxAge      = 100 * 24 * time.Hour
)

// Progress percentages published at the start of each phase.
const (
	percentProfile    = 5
	percentDiscovery  = 20
	percentFetch      = 40
	percentStatistics = 70
	percentInsight    = 85
)

// ProfileSource resolves a player profile from a Riot ID.
type ProfileSource interface {
	ProfileByRiotID(ctx context.Context, gameName, tagLine string) (*core.Profile, error)
}

// InsightGenerator produces the narrative report from aggregated stats.
type InsightGenerator interface {
	Generate(ctx context.Context, profile *core.Profile, summary stats.Summary) (*core.InsightReport, error)
}

// ProgressPublisher receives phase announcements. The hub implements it;
// Publish must never block.
type ProgressPublisher interface {
	Publish(analysisID, step string, percent int, message string)
}

// Pipeline runs one analysis end to end through five sequential phases:
// profile, discovery, detail fetch, statistics, insight. Each phase announces
// itself before doing its work, so a subscriber always learns what the
// pipeline is about to spend time on. Phases do not retry; the governors and
// the cache make rerunning a failed analysis cheap instead.
type Pipeline struct {
	Profiles ProfileSource
	Selector *Selector
	Source   MatchSource
	Cache    MatchCache
	Insights InsightGenerator
	Progress ProgressPublisher

	TargetCount int
	MaxAge      time.Duration
	BatchSize   int
	MatchTTL    time.Duration

	// OnFailure receives the underlying cause of a failed phase so the
	// caller can log it. The result itself carries only the user message.
	OnFailure func(analysisID, msg string, err error)

	Clock func() time.Time
}

// Run executes the analysis and always returns a terminal result; failures
// are reported in the result, not as an error. The final progress event is
// complete(100) or failed(0).
func (p *Pipeline) Run(ctx context.Context, analysisID, gameName, tagLine string) *core.AnalysisResult {
	result := &core.AnalysisResult{
		AnalysisID: analysisID,
		RiotID:     gameName + "#" + tagLine,
		StartedAt:  p.now(),
	}

	p.publish(analysisID, core.StepProfile, percentProfile, "Resolving player profile")
	profile, err := p.Profiles.ProfileByRiotID(ctx, gameName, tagLine)
	if err != nil {
		return p.fail(result, analysisID, "could not resolve player profile", err)
	}
	result.Profile = profile

	p.publish(analysisID, core.StepDiscovery, percentDiscovery, "Discovering match history")
	selection, err := p.Selector.DiscoverAndSelect(ctx, profile.PUUID, p.targetCount(), p.maxAge())
	if err != nil {
		return p.fail(result, analysisID, "could not discover match history", err)
	}
	result.Selection = &selection
	if len(selection.SelectedIDs) == 0 {
		return p.fail(result, analysisID, "no recent matches to analyze", nil)
	}

	p.publish(analysisID, core.StepFetch, percentFetch,
		fmt.Sprintf("Fetching %d match details", len(selection.SelectedIDs)))
	matches, err := p.fetchDetails(ctx, selection.SelectedIDs)
	if err != nil {
		return p.fail(result, analysisID, "could not fetch match details", err)
	}
	if len(matches) == 0 {
		return p.fail(result, analysisID, "no match details available", nil)
	}
	result.MatchesAnalyzed = len(matches)

	p.publish(analysisID, core.StepStatistics, percentStatistics, "Computing performance statistics")
	summary := stats.Summarize(matches, profile.PUUID)

	p.publish(analysisID, core.StepInsight, percentInsight, "Generating insights")
	report, err := p.Insights.Generate(ctx, profile, summary)
	if err != nil {
		return p.fail(result, analysisID, "could not generate insights", err)
	}
	result.Insight = report

	result.Success = true
	result.CompletedAt = p.now()
	p.publish(analysisID, core.StepComplete, 100, "Analysis complete")
	return result
}

// fetchDetails loads match payloads in concurrent batches, cache first. A
// miss is fetched from the source with one retry; ids that still fail are
// dropped. Freshly fetched payloads are written through per batch.
func (p *Pipeline) fetchDetails(ctx context.Context, ids []string) ([]*core.Match, error) {
	matches := make([]*core.Match, len(ids))
	batchSize := p.batchSize()

	for i := 0; i < len(ids); i += batchSize {
		end := i + batchSize
		if end > len(ids) {
			end = len(ids)
		}

		var (
			mu      sync.Mutex
			fetched []*core.Match
		)
		g, gctx := errgroup.WithContext(ctx)
		for idx := i; idx < end; idx++ {
			g.Go(func() error {
				id := ids[idx]
				if p.Cache != nil {
					if m, err := p.Cache.GetMatch(gctx, id, p.MatchTTL); err == nil && m != nil {
						matches[idx] = m
						return nil
					}
				}

				m, err := p.Source.MatchByID(gctx, id)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					m, err = p.Source.MatchByID(gctx, id)
				}
				if err != nil {
					// Dropped; analysis proceeds on the rest.
					return nil
				}
				matches[idx] = m
				mu.Lock()
				fetched = append(fetched, m)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if p.Cache != nil && len(fetched) > 0 {
			// Best effort; a failed write only costs future refetches.
			_ = p.Cache.PutMatchBatch(ctx, fetched)
		}
	}

	out := make([]*core.Match, 0, len(ids))
	for _, m := range matches {
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// fail records a human-readable failure on the result. The underlying cause
// is reported through OnFailure for logging; the result payload carries only
// the message shown to users.
func (p *Pipeline) fail(result *core.AnalysisResult, analysisID, msg string, err error) *core.AnalysisResult {
	result.Success = false
	result.Error = msg
	result.CompletedAt = p.now()
	if p.OnFailure != nil {
		p.OnFailure(analysisID, msg, err)
	}
	p.publish(analysisID, core.StepFailed, 0, msg)
	return result
}

func (p *Pipeline) publish(analysisID, step string, percent int, message string) {
	if p.Progress != nil {
		p.Progress.Publish(analysisID, step, percent, message)
	}
}

func (p *Pipeline) targetCount() int {
	if p.TargetCount > 0 {
		return p.TargetCount
	}
	return DefaultTargetCount
}

func (p *Pipeline) maxAge() time.Duration {
	if p.MaxAge > 0 {
		return p.MaxAge
	}
	return DefaultMaxAge
}

func (p *Pipeline) batchSize() int {
	if p.BatchSize > 0 {
		return p.BatchSize
	}
	return DefaultBatchSize
}

func (p *Pipeline) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now().UTC()
}
