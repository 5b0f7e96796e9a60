package stats

import "github.com/riftrewind/riftrewind/internal/core"

// trendMinGames is the history depth below which half-over-half trend
// deltas are too noisy to report.
const trendMinGames = 40

// TrendReport aggregates performance across the analyzed history.
type TrendReport struct {
	TotalGames     int     `json:"total_games"`
	OverallWinRate float64 `json:"overall_win_rate"`

	AvgKDA          float64 `json:"avg_kda"`
	AvgKills        float64 `json:"avg_kills"`
	AvgDeaths       float64 `json:"avg_deaths"`
	AvgAssists      float64 `json:"avg_assists"`
	AvgCSPerMin     float64 `json:"avg_cs_per_min"`
	AvgVisionPerMin float64 `json:"avg_vision_per_min"`
	AvgDamagePerMin float64 `json:"avg_damage_per_min"`
	AvgGoldPerMin   float64 `json:"avg_gold_per_min"`

	TotalMultikills int `json:"total_multikills"`
	TotalPentaKills int `json:"total_penta_kills"`

	BestKDA      float64 `json:"best_kda"`
	HighestKills int     `json:"highest_kills"`

	// Half-over-half deltas, present only with a deep enough history.
	HasTrends         bool    `json:"has_trends"`
	FirstHalfWinRate  float64 `json:"first_half_win_rate,omitempty"`
	SecondHalfWinRate float64 `json:"second_half_win_rate,omitempty"`
	KDAImprovement    float64 `json:"kda_improvement,omitempty"`
	CSImprovement     float64 `json:"cs_improvement,omitempty"`
	VisionImprovement float64 `json:"vision_improvement,omitempty"`

	RankedGames      int     `json:"ranked_games"`
	RankedPercentage float64 `json:"ranked_percentage"`
}

// PerformanceTrends computes the trend report for the player's games,
// ordered oldest to newest before halving.
func PerformanceTrends(matches []*core.Match, puuid string) TrendReport {
	games := playerGames(matches, puuid)
	if len(games) == 0 {
		return TrendReport{}
	}

	report := TrendReport{
		TotalGames:      len(games),
		OverallWinRate:  winRate(games),
		AvgKDA:          mean(games, func(g PlayerGame) float64 { return g.KDA }),
		AvgKills:        mean(games, func(g PlayerGame) float64 { return float64(g.Kills) }),
		AvgDeaths:       mean(games, func(g PlayerGame) float64 { return float64(g.Deaths) }),
		AvgAssists:      mean(games, func(g PlayerGame) float64 { return float64(g.Assists) }),
		AvgCSPerMin:     mean(games, func(g PlayerGame) float64 { return g.CSPerMin }),
		AvgVisionPerMin: mean(games, func(g PlayerGame) float64 { return g.VisionPerMin }),
		AvgDamagePerMin: mean(games, func(g PlayerGame) float64 { return g.DamagePerMin }),
		AvgGoldPerMin:   mean(games, func(g PlayerGame) float64 { return g.GoldPerMin }),
	}

	for _, g := range games {
		report.TotalMultikills += g.DoubleKills + g.TripleKills + g.QuadraKills + g.PentaKills
		report.TotalPentaKills += g.PentaKills
		if g.KDA > report.BestKDA {
			report.BestKDA = g.KDA
		}
		if g.Kills > report.HighestKills {
			report.HighestKills = g.Kills
		}
		if core.CategoryForQueue(g.QueueID) == core.CategoryRanked {
			report.RankedGames++
		}
	}
	report.RankedPercentage = float64(report.RankedGames) / float64(len(games)) * 100

	if len(games) >= trendMinGames {
		half := len(games) / 2
		first, second := games[:half], games[half:]
		report.HasTrends = true
		report.FirstHalfWinRate = winRate(first)
		report.SecondHalfWinRate = winRate(second)
		report.KDAImprovement = mean(second, func(g PlayerGame) float64 { return g.KDA }) -
			mean(first, func(g PlayerGame) float64 { return g.KDA })
		report.CSImprovement = mean(second, func(g PlayerGame) float64 { return g.CSPerMin }) -
			mean(first, func(g PlayerGame) float64 { return g.CSPerMin })
		report.VisionImprovement = mean(second, func(g PlayerGame) float64 { return g.VisionPerMin }) -
			mean(first, func(g PlayerGame) float64 { return g.VisionPerMin })
	}

	return report
}
