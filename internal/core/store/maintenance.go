package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CacheStats summarizes the durable cache for health and CLI reporting.
type CacheStats struct {
	TotalMatches  int   `json:"total_matches"`
	FreshMatches  int   `json:"fresh_matches"`
	TotalProfiles int   `json:"total_profiles"`
	TotalInsights int   `json:"total_insights"`
	ApproxBytes   int64 `json:"approx_size_bytes"`
}

// EvictOlderThan deletes cache rows of every kind older than maxAge and
// returns the number of rows removed.
func (s *Store) EvictOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if maxAge <= 0 {
		return 0, errors.New("max age must be positive")
	}

	cutoff := s.now().Add(-maxAge).Unix()

	var removed int64
	for _, table := range []string{"match_cache", "profile_cache", "insight_cache"} {
		res, err := s.DB.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE cached_at < ?", table), cutoff)
		if err != nil {
			return removed, fmt.Errorf("evict %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += n
		}
	}
	return removed, nil
}

// Stats reports cache occupancy. matchTTL decides which matches count as
// fresh; size is the sum of stored payload lengths, not on-disk bytes.
func (s *Store) Stats(ctx context.Context, matchTTL time.Duration) (*CacheStats, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := &CacheStats{}
	cutoff := s.now().Add(-matchTTL).Unix()

	row := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN cached_at >= ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(LENGTH(payload)), 0)
		FROM match_cache
	`, cutoff)
	if err := row.Scan(&stats.TotalMatches, &stats.FreshMatches, &stats.ApproxBytes); err != nil {
		return nil, fmt.Errorf("match cache stats: %w", err)
	}

	var profileBytes int64
	row = s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(payload)), 0) FROM profile_cache`)
	if err := row.Scan(&stats.TotalProfiles, &profileBytes); err != nil {
		return nil, fmt.Errorf("profile cache stats: %w", err)
	}
	stats.ApproxBytes += profileBytes

	var insightBytes int64
	row = s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(response_json)), 0) FROM insight_cache`)
	if err := row.Scan(&stats.TotalInsights, &insightBytes); err != nil {
		return nil, fmt.Errorf("insight cache stats: %w", err)
	}
	stats.ApproxBytes += insightBytes

	return stats, nil
}
