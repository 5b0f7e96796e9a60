package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// InsightCacheEntry captures a cached generation response.
type InsightCacheEntry struct {
	ResponseJSON string
	CachedAt     time.Time
}

// GetInsight returns a cached generation response for the player and model
// if one exists within ttl.
func (s *Store) GetInsight(ctx context.Context, puuid, model string, ttl time.Duration) (*InsightCacheEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ttl <= 0 {
		return nil, nil
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT response_json, cached_at FROM insight_cache
		 WHERE puuid = ? AND model = ?`,
		strings.TrimSpace(puuid), model,
	)

	var (
		response string
		cachedAt int64
	)
	if err := row.Scan(&response, &cachedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	cached := time.Unix(cachedAt, 0).UTC()
	if s.now().Sub(cached) > ttl {
		return nil, nil
	}

	return &InsightCacheEntry{ResponseJSON: response, CachedAt: cached}, nil
}

// PutInsight stores a generation response keyed by player and model.
func (s *Store) PutInsight(ctx context.Context, puuid, model, responseJSON string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	puuid = strings.TrimSpace(puuid)
	if puuid == "" {
		return errors.New("puuid is required")
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO insight_cache (puuid, model, response_json, cached_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(puuid, model)
		 DO UPDATE SET response_json = excluded.response_json,
		               cached_at = excluded.cached_at`,
		puuid, model, responseJSON, s.now().Unix(),
	)
	return err
}
