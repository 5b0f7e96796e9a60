//go:build cgo

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/riftrewind/riftrewind/internal/config"
	"github.com/riftrewind/riftrewind/internal/core"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testMatch(id string, queueID int) *core.Match {
	m := &core.Match{}
	m.Metadata.MatchID = id
	m.Info.QueueID = queueID
	m.Info.GameDuration = 1800
	return m
}

func TestOpenMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{
		Driver: "libsql",
		Path:   ":memory:",
	}

	store, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, store)
	require.Equal(t, "libsql", store.Driver())
	require.NoError(t, store.Close())
}

func TestMatchCacheRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m := testMatch("NA1_100", core.QueueRankedSolo)
	require.NoError(t, s.PutMatch(ctx, m))

	got, err := s.GetMatch(ctx, "NA1_100", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "NA1_100", got.Metadata.MatchID)
	require.Equal(t, core.QueueRankedSolo, got.Info.QueueID)

	missing, err := s.GetMatch(ctx, "NA1_999", time.Hour)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestMatchCachePutIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m := testMatch("NA1_100", core.QueueNormalDraft)
	require.NoError(t, s.PutMatch(ctx, m))
	m.Info.QueueID = core.QueueRankedSolo
	require.NoError(t, s.PutMatch(ctx, m))

	got, err := s.GetMatch(ctx, "NA1_100", time.Hour)
	require.NoError(t, err)
	require.Equal(t, core.QueueRankedSolo, got.Info.QueueID)

	stats, err := s.Stats(ctx, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalMatches)
}

func TestMatchCacheTTLExpiry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.Clock = func() time.Time { return now }

	require.NoError(t, s.PutMatch(ctx, testMatch("NA1_100", core.QueueRankedSolo)))

	got, err := s.GetMatch(ctx, "NA1_100", 24*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got)

	// Past the TTL the row is ignored on read but still present.
	now = now.Add(25 * time.Hour)
	got, err = s.GetMatch(ctx, "NA1_100", 24*time.Hour)
	require.NoError(t, err)
	require.Nil(t, got)

	stats, err := s.Stats(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalMatches)
	require.Equal(t, 0, stats.FreshMatches)
}

func TestMatchCacheTTLBoundaryIsFresh(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.Clock = func() time.Time { return now }

	require.NoError(t, s.PutMatch(ctx, testMatch("NA1_100", core.QueueRankedSolo)))
	require.NoError(t, s.PutProfile(ctx, &core.Profile{PUUID: "puuid-1"}))

	// An entry aged exactly ttl still reads as fresh and survives eviction
	// at exactly maxAge.
	now = now.Add(24 * time.Hour)

	got, err := s.GetMatch(ctx, "NA1_100", 24*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got)

	profile, err := s.GetProfile(ctx, "puuid-1", 24*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, profile)

	stats, err := s.Stats(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, stats.FreshMatches)

	removed, err := s.EvictOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Zero(t, removed)

	// One second past the boundary the row goes stale.
	now = now.Add(time.Second)
	got, err = s.GetMatch(ctx, "NA1_100", 24*time.Hour)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestPutMatchBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	batch := make([]*core.Match, 10)
	for i := range batch {
		batch[i] = testMatch(fmt.Sprintf("NA1_%03d", i), core.QueueRankedSolo)
	}
	require.NoError(t, s.PutMatchBatch(ctx, batch))

	stats, err := s.Stats(ctx, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 10, stats.TotalMatches)
	require.Equal(t, 10, stats.FreshMatches)
	require.Positive(t, stats.ApproxBytes)

	require.NoError(t, s.PutMatchBatch(ctx, nil))
}

func TestProfileCacheRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := &core.Profile{
		PUUID:         "puuid-1",
		RiotID:        "Tester#NA1",
		SummonerLevel: 250,
		Rank:          core.RankInfo{Tier: "GOLD", Division: "II", LP: 54},
	}
	require.NoError(t, s.PutProfile(ctx, p))

	got, err := s.GetProfile(ctx, "puuid-1", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Tester#NA1", got.RiotID)
	require.Equal(t, "GOLD", got.Rank.Tier)
}

func TestInsightCacheRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutInsight(ctx, "puuid-1", "claude-test", `{"insight":"solid"}`))

	entry, err := s.GetInsight(ctx, "puuid-1", "claude-test", 24*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.JSONEq(t, `{"insight":"solid"}`, entry.ResponseJSON)

	// A different model key misses.
	entry, err = s.GetInsight(ctx, "puuid-1", "other-model", 24*time.Hour)
	require.NoError(t, err)
	require.Nil(t, entry)
}

func TestEvictOlderThan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.Clock = func() time.Time { return now }

	require.NoError(t, s.PutMatch(ctx, testMatch("NA1_old", core.QueueRankedSolo)))
	require.NoError(t, s.PutProfile(ctx, &core.Profile{PUUID: "puuid-old"}))

	now = now.Add(8 * 24 * time.Hour)
	require.NoError(t, s.PutMatch(ctx, testMatch("NA1_new", core.QueueRankedSolo)))

	removed, err := s.EvictOlderThan(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	stats, err := s.Stats(ctx, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalMatches)
	require.Equal(t, 0, stats.TotalProfiles)
}

func TestCacheErrorsOnUninitializedStore(t *testing.T) {
	var s *Store
	ctx := context.Background()

	_, err := s.GetMatch(ctx, "NA1_100", time.Hour)
	require.Error(t, err)
	require.Error(t, s.PutMatch(ctx, testMatch("NA1_100", 420)))
	_, err = s.Stats(ctx, time.Hour)
	require.Error(t, err)
}
