package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riftrewind/riftrewind/internal/core"
	"github.com/riftrewind/riftrewind/internal/core/engine"
	"github.com/riftrewind/riftrewind/internal/core/store"
	"github.com/riftrewind/riftrewind/internal/stats"
)

const (
	// DefaultMaxAttempts bounds the throttle retry loop per generation.
	DefaultMaxAttempts = 5

	// DefaultInsightTTL keeps generated reviews for a day; the underlying
	// history barely moves faster than that.
	DefaultInsightTTL = 24 * time.Hour
)

// Cache is the durable insight cache. The store implements it.
type Cache interface {
	GetInsight(ctx context.Context, puuid, model string, ttl time.Duration) (*store.InsightCacheEntry, error)
	PutInsight(ctx context.Context, puuid, model, responseJSON string) error
}

// Service generates insight reports through a driver, pacing every call with
// the generation governor and caching responses per player and model.
type Service struct {
	Driver      Driver
	Limiter     *engine.GenLimiter
	Cache       Cache
	InsightTTL  time.Duration
	MaxAttempts int

	// Template overrides the built-in system prompt when set.
	Template *Template
}

// Generate returns the insight report for the profile, from cache when a
// fresh response exists. Throttling-class failures retry with backoff up to
// MaxAttempts; other failures surface immediately.
func (s *Service) Generate(ctx context.Context, profile *core.Profile, summary stats.Summary) (*core.InsightReport, error) {
	if s == nil || s.Driver == nil {
		return nil, errors.New("insight service is not configured")
	}

	model := s.Driver.Model()

	if s.Cache != nil {
		if entry, err := s.Cache.GetInsight(ctx, profile.PUUID, model, s.insightTTL()); err == nil && entry != nil {
			var report core.InsightReport
			if err := json.Unmarshal([]byte(entry.ResponseJSON), &report); err == nil {
				report.FromCache = true
				return &report, nil
			}
		}
	}

	text, err := s.complete(ctx, Request{
		System: s.system(),
		Prompt: BuildPrompt(profile, summary),
	})
	if err != nil {
		return nil, err
	}

	report := &core.InsightReport{
		Insight:     text,
		Highlights:  highlights(summary),
		Personality: summary.Playstyle.PrimaryTrait,
		Model:       model,
	}

	if s.Cache != nil {
		if payload, err := json.Marshal(report); err == nil {
			// Best effort; a failed write only costs a regeneration.
			_ = s.Cache.PutInsight(ctx, profile.PUUID, model, string(payload))
		}
	}
	return report, nil
}

// complete runs the governed invocation loop. Each attempt is admitted by
// the governor, recorded as issued before the call, and marked successful
// only when text comes back.
func (s *Service) complete(ctx context.Context, req Request) (string, error) {
	attempts := s.maxAttempts()

	for attempt := 0; attempt < attempts; attempt++ {
		if err := s.Limiter.Admit(ctx, attempt > 0); err != nil {
			return "", err
		}
		s.Limiter.Record(false)

		text, err := s.Driver.Complete(ctx, req)
		if err == nil {
			s.Limiter.Record(true)
			return text, nil
		}
		if !IsThrottled(err) {
			return "", err
		}
		s.Limiter.RecordThrottle()
	}

	return "", fmt.Errorf("generation throttled after %d attempts", attempts)
}

// IsThrottled reports whether an error looks like upstream throttling:
// a 429 or 529 status, or throttling keywords in the message.
func IsThrottled(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "529", "throttl", "rate limit", "too many requests", "overloaded"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// highlights pulls the standout numbers worth surfacing alongside the
// narrative.
func highlights(summary stats.Summary) []string {
	var out []string
	t := summary.Trends

	if t.TotalPentaKills > 0 {
		out = append(out, fmt.Sprintf("%d pentakill(s) this year", t.TotalPentaKills))
	}
	if t.BestKDA > 0 {
		out = append(out, fmt.Sprintf("Best game: %.1f KDA with %d kills", t.BestKDA, t.HighestKills))
	}
	if t.HasTrends && t.SecondHalfWinRate > t.FirstHalfWinRate {
		out = append(out, fmt.Sprintf("Win rate climbed from %.0f%% to %.0f%%", t.FirstHalfWinRate, t.SecondHalfWinRate))
	}
	if len(summary.Pool.TopChampions) > 0 {
		top := summary.Pool.TopChampions[0]
		out = append(out, fmt.Sprintf("Most played: %s (%d games, %.0f%% win rate)", top.Name, top.Games, top.WinRate))
	}
	return out
}

func (s *Service) system() string {
	if s.Template != nil && s.Template.SystemTemplate != "" {
		return s.Template.SystemTemplate
	}
	return systemPrompt
}

func (s *Service) insightTTL() time.Duration {
	if s.InsightTTL > 0 {
		return s.InsightTTL
	}
	return DefaultInsightTTL
}

func (s *Service) maxAttempts() int {
	if s.MaxAttempts > 0 {
		return s.MaxAttempts
	}
	return DefaultMaxAttempts
}
