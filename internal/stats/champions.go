package stats

import (
	"sort"

	"github.com/riftrewind/riftrewind/internal/core"
)

const topChampionLimit = 10

// ChampionEntry summarizes the player's record on one champion.
type ChampionEntry struct {
	Name        string  `json:"name"`
	Games       int     `json:"games"`
	WinRate     float64 `json:"win_rate"`
	AvgKDA      float64 `json:"avg_kda"`
	PrimaryRole string  `json:"primary_role"`
}

// RoleRecord is the player's record in one team position.
type RoleRecord struct {
	Games   int     `json:"games"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
}

// PoolReport describes champion preferences across the analyzed history.
type PoolReport struct {
	UniqueChampions  int                   `json:"total_unique_champions"`
	TopChampions     []ChampionEntry       `json:"top_champions"`
	RoleDistribution map[string]RoleRecord `json:"role_distribution"`
	PrimaryRole      string                `json:"primary_role"`
}

// ChampionPool aggregates per-champion and per-role records. Top champions
// are ordered by games played, name as tiebreak so output is deterministic.
func ChampionPool(matches []*core.Match, puuid string) PoolReport {
	games := playerGames(matches, puuid)

	type champAgg struct {
		games    int
		wins     int
		totalKDA float64
		roles    map[string]int
	}
	champs := make(map[string]*champAgg)
	roles := make(map[string]RoleRecord)

	for _, g := range games {
		agg := champs[g.Champion]
		if agg == nil {
			agg = &champAgg{roles: make(map[string]int)}
			champs[g.Champion] = agg
		}
		agg.games++
		if g.Win {
			agg.wins++
		}
		agg.totalKDA += g.KDA
		agg.roles[g.Role]++

		if g.Role != "" && g.Role != "NONE" {
			rec := roles[g.Role]
			rec.Games++
			if g.Win {
				rec.Wins++
			}
			roles[g.Role] = rec
		}
	}

	entries := make([]ChampionEntry, 0, len(champs))
	for name, agg := range champs {
		entries = append(entries, ChampionEntry{
			Name:        name,
			Games:       agg.games,
			WinRate:     float64(agg.wins) / float64(agg.games) * 100,
			AvgKDA:      agg.totalKDA / float64(agg.games),
			PrimaryRole: dominantRole(agg.roles),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Games != entries[j].Games {
			return entries[i].Games > entries[j].Games
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > topChampionLimit {
		entries = entries[:topChampionLimit]
	}

	primaryRole := "UNKNOWN"
	best := 0
	for role, rec := range roles {
		rec.WinRate = float64(rec.Wins) / float64(rec.Games) * 100
		roles[role] = rec
		if rec.Games > best || (rec.Games == best && role < primaryRole) {
			best = rec.Games
			primaryRole = role
		}
	}

	return PoolReport{
		UniqueChampions:  len(champs),
		TopChampions:     entries,
		RoleDistribution: roles,
		PrimaryRole:      primaryRole,
	}
}

func dominantRole(counts map[string]int) string {
	role := "UNKNOWN"
	best := 0
	for r, n := range counts {
		if r == "" {
			continue
		}
		if n > best || (n == best && r < role) {
			best = n
			role = r
		}
	}
	return role
}
