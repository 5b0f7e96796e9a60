package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riftrewind/riftrewind/internal/core"
)

// GetMatch returns a cached match payload no older than ttl, or nil on a
// miss. Stale rows are ignored, not deleted; eviction is a separate sweep.
func (s *Store) GetMatch(ctx context.Context, matchID string, ttl time.Duration) (*core.Match, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, errors.New("match id is required")
	}
	if ttl <= 0 {
		return nil, nil
	}

	cutoff := s.now().Add(-ttl).Unix()

	var payload string
	row := s.DB.QueryRowContext(ctx, `
		SELECT payload FROM match_cache
		WHERE match_id = ? AND cached_at >= ?
	`, matchID, cutoff)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached match: %w", err)
	}

	var match core.Match
	if err := json.Unmarshal([]byte(payload), &match); err != nil {
		return nil, fmt.Errorf("decode cached match: %w", err)
	}
	return &match, nil
}

// PutMatch stores one match payload, replacing any previous row.
func (s *Store) PutMatch(ctx context.Context, match *core.Match) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if match == nil || strings.TrimSpace(match.Metadata.MatchID) == "" {
		return errors.New("match id is required")
	}

	payload, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("encode cached match: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO match_cache (match_id, payload, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			payload = excluded.payload,
			cached_at = excluded.cached_at
	`, match.Metadata.MatchID, string(payload), s.now().Unix())
	if err != nil {
		return fmt.Errorf("store cached match: %w", err)
	}
	return nil
}

// PutMatchBatch stores a batch of match payloads in one transaction. An
// empty batch is a no-op.
func (s *Store) PutMatchBatch(ctx context.Context, matches []*core.Match) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if len(matches) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin match batch: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO match_cache (match_id, payload, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			payload = excluded.payload,
			cached_at = excluded.cached_at
	`)
	if err != nil {
		return fmt.Errorf("prepare match batch: %w", err)
	}
	defer stmt.Close() // nolint:errcheck // best-effort cleanup

	now := s.now().Unix()
	for _, match := range matches {
		if match == nil || strings.TrimSpace(match.Metadata.MatchID) == "" {
			continue
		}
		payload, err := json.Marshal(match)
		if err != nil {
			return fmt.Errorf("encode cached match: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, match.Metadata.MatchID, string(payload), now); err != nil {
			return fmt.Errorf("store cached match: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit match batch: %w", err)
	}
	return nil
}

// GetProfile returns a cached profile no older than ttl, or nil on a miss.
func (s *Store) GetProfile(ctx context.Context, puuid string, ttl time.Duration) (*core.Profile, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	puuid = strings.TrimSpace(puuid)
	if puuid == "" {
		return nil, errors.New("puuid is required")
	}
	if ttl <= 0 {
		return nil, nil
	}

	cutoff := s.now().Add(-ttl).Unix()

	var payload string
	row := s.DB.QueryRowContext(ctx, `
		SELECT payload FROM profile_cache
		WHERE puuid = ? AND cached_at >= ?
	`, puuid, cutoff)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached profile: %w", err)
	}

	var profile core.Profile
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		return nil, fmt.Errorf("decode cached profile: %w", err)
	}
	return &profile, nil
}

// PutProfile stores a profile payload, replacing any previous row.
func (s *Store) PutProfile(ctx context.Context, profile *core.Profile) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if profile == nil || strings.TrimSpace(profile.PUUID) == "" {
		return errors.New("puuid is required")
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode cached profile: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO profile_cache (puuid, payload, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(puuid) DO UPDATE SET
			payload = excluded.payload,
			cached_at = excluded.cached_at
	`, profile.PUUID, string(payload), s.now().Unix())
	if err != nil {
		return fmt.Errorf("store cached profile: %w", err)
	}
	return nil
}
