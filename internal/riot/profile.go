package riot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riftrewind/riftrewind/internal/core"
)

// Data Dragon asset version pinned for profile icon URLs.
const (
	dataDragonVersion = "14.22.1"
	dataDragonBaseURL = "https://ddragon.leagueoflegends.com/cdn/" + dataDragonVersion

	// mainRoleSample is how many recent matches decide the main role.
	mainRoleSample = 10
)

var roleDisplay = map[string]string{
	"TOP":     "Top",
	"JUNGLE":  "Jungle",
	"MIDDLE":  "Mid",
	"BOTTOM":  "ADC",
	"UTILITY": "Support",
	"NONE":    "Fill",
}

// ProfileCache is the durable profile cache consulted before the upstream
// lookups. Failures degrade to misses.
type ProfileCache interface {
	GetProfile(ctx context.Context, puuid string, ttl time.Duration) (*core.Profile, error)
	PutProfile(ctx context.Context, profile *core.Profile) error
}

// MatchReader loads match payloads for the main role scan, cache first.
type MatchReader interface {
	GetMatch(ctx context.Context, matchID string, ttl time.Duration) (*core.Match, error)
	PutMatch(ctx context.Context, match *core.Match) error
}

// ProfileService assembles player profiles: account resolution, summoner
// data, ranked standing and a main role derived from recent matches. Results
// are written through the profile cache under a short TTL since level and
// rank drift quickly.
type ProfileService struct {
	Riot       *Client
	Profiles   ProfileCache
	Matches    MatchReader
	ProfileTTL time.Duration
	MatchTTL   time.Duration
}

// ProfileByRiotID resolves the Riot ID and assembles the full profile. The
// account call always goes upstream; the assembled profile is cached by
// puuid.
func (s *ProfileService) ProfileByRiotID(ctx context.Context, gameName, tagLine string) (*core.Profile, error) {
	account, err := s.Riot.AccountByRiotID(ctx, gameName, tagLine)
	if err != nil {
		return nil, err
	}

	if s.Profiles != nil {
		if cached, err := s.Profiles.GetProfile(ctx, account.PUUID, s.ProfileTTL); err == nil && cached != nil {
			return cached, nil
		}
	}

	summoner, err := s.Riot.SummonerByPUUID(ctx, account.PUUID)
	if err != nil {
		return nil, fmt.Errorf("summoner lookup: %w", err)
	}

	profile := &core.Profile{
		PUUID:          account.PUUID,
		RiotID:         account.GameName + "#" + account.TagLine,
		DisplayName:    account.GameName,
		SummonerLevel:  summoner.SummonerLevel,
		ProfileIconID:  summoner.ProfileIconID,
		ProfileIconURL: fmt.Sprintf("%s/img/profileicon/%d.png", dataDragonBaseURL, summoner.ProfileIconID),
		Rank:           s.rankSnapshot(ctx, account.PUUID),
		MainRole:       s.mainRole(ctx, account.PUUID),
	}

	if s.Profiles != nil {
		// Best effort; a failed write only costs a future reassembly.
		_ = s.Profiles.PutProfile(ctx, profile)
	}
	return profile, nil
}

// rankSnapshot reads the solo/duo standing. Any failure or absence of a
// solo/duo entry yields the unranked snapshot rather than an error.
func (s *ProfileService) rankSnapshot(ctx context.Context, puuid string) core.RankInfo {
	unranked := core.RankInfo{Tier: "UNRANKED", Display: "Unranked"}

	entries, err := s.Riot.LeagueEntriesByPUUID(ctx, puuid)
	if err != nil {
		return unranked
	}

	for _, entry := range entries {
		if entry.QueueType != QueueRankedSolo5x5 {
			continue
		}
		info := core.RankInfo{
			Tier:     entry.Tier,
			Division: entry.Rank,
			LP:       entry.LeaguePoints,
			Wins:     entry.Wins,
			Losses:   entry.Losses,
		}
		if total := entry.Wins + entry.Losses; total > 0 {
			info.WinRate = float64(entry.Wins) / float64(total) * 100
		}
		info.Display = fmt.Sprintf("%s %s • %d LP", titleTier(entry.Tier), entry.Rank, entry.LeaguePoints)
		return info
	}
	return unranked
}

// mainRole scans the last few matches for the most played position. Any
// failure along the way falls back to Fill.
func (s *ProfileService) mainRole(ctx context.Context, puuid string) string {
	ids, err := s.Riot.MatchIDsByPUUID(ctx, puuid, 0, mainRoleSample, time.Time{})
	if err != nil || len(ids) == 0 {
		return roleDisplay["NONE"]
	}

	counts := make(map[string]int)
	for _, id := range ids {
		match := s.loadMatch(ctx, id)
		if match == nil {
			continue
		}
		p := match.ParticipantByPUUID(puuid)
		if p == nil || p.TeamPosition == "" || p.TeamPosition == "NONE" {
			continue
		}
		counts[p.TeamPosition]++
	}

	role, best := "NONE", 0
	for r, n := range counts {
		if n > best || (n == best && r < role) {
			best = n
			role = r
		}
	}

	if display, ok := roleDisplay[role]; ok {
		return display
	}
	return role
}

func (s *ProfileService) loadMatch(ctx context.Context, id string) *core.Match {
	if s.Matches != nil {
		if m, err := s.Matches.GetMatch(ctx, id, s.MatchTTL); err == nil && m != nil {
			return m
		}
	}
	m, err := s.Riot.MatchByID(ctx, id)
	if err != nil {
		return nil
	}
	if s.Matches != nil {
		_ = s.Matches.PutMatch(ctx, m)
	}
	return m
}

func titleTier(tier string) string {
	if tier == "" {
		return tier
	}
	lower := strings.ToLower(tier)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
