package stats

import "github.com/riftrewind/riftrewind/internal/core"

// Summary bundles the three aggregate views produced for a history.
type Summary struct {
	Trends    TrendReport     `json:"trends"`
	Pool      PoolReport      `json:"champion_pool"`
	Playstyle PlaystyleReport `json:"playstyle"`
}

// Summarize computes all aggregate views in one pass over the matches.
func Summarize(matches []*core.Match, puuid string) Summary {
	return Summary{
		Trends:    PerformanceTrends(matches, puuid),
		Pool:      ChampionPool(matches, puuid),
		Playstyle: Playstyle(matches, puuid),
	}
}
