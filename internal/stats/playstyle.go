package stats

import "github.com/riftrewind/riftrewind/internal/core"

// PlaystyleScores are 0-100 trait scores derived from per-game averages.
type PlaystyleScores struct {
	Aggression       float64 `json:"aggression_score"`
	CarryPotential   float64 `json:"carry_potential"`
	VisionMastery    float64 `json:"vision_mastery"`
	TeamfightProwess float64 `json:"teamfight_prowess"`
	OverallKDA       float64 `json:"overall_kda"`
}

// PlaystyleReport names the player's dominant trait.
type PlaystyleReport struct {
	PrimaryTrait string          `json:"primary_trait"`
	Description  string          `json:"description"`
	Scores       PlaystyleScores `json:"scores"`

	AvgSoloKills    float64 `json:"avg_solo_kills"`
	AvgTeamDamage   float64 `json:"avg_team_damage_pct"`
	AvgVisionPerMin float64 `json:"avg_vision_per_min"`
	TotalMultikills int     `json:"total_multikills"`
}

// Playstyle scores the player's traits and picks the dominant one. Trait
// thresholds and multipliers are tuned against per-game averages, checked in
// fixed priority order so a player lands on exactly one trait.
func Playstyle(matches []*core.Match, puuid string) PlaystyleReport {
	games := playerGames(matches, puuid)
	if len(games) == 0 {
		return PlaystyleReport{PrimaryTrait: "Adaptive Player", Description: "Flexible playstyle that adjusts to team needs"}
	}

	avgSolo := mean(games, func(g PlayerGame) float64 { return g.SoloKills })
	avgTeamDmg := mean(games, func(g PlayerGame) float64 { return g.TeamDamagePct })
	avgVision := mean(games, func(g PlayerGame) float64 { return g.VisionPerMin })
	avgMulti := mean(games, func(g PlayerGame) float64 {
		return float64(g.DoubleKills + g.TripleKills + g.QuadraKills + g.PentaKills)
	})
	overallKDA := mean(games, func(g PlayerGame) float64 { return g.KDA })

	scores := PlaystyleScores{
		Aggression:       clamp100(avgSolo * 20),
		CarryPotential:   clamp100(avgTeamDmg * 100 * 2),
		VisionMastery:    clamp100(avgVision * 15),
		TeamfightProwess: clamp100(avgMulti * 25),
		OverallKDA:       overallKDA,
	}

	trait, description := "Adaptive Player", "Flexible playstyle that adjusts to team needs"
	switch {
	case scores.Aggression > 60:
		trait, description = "Duelist", "You thrive in 1v1 outplays and mechanical skill"
	case scores.CarryPotential > 70:
		trait, description = "Carry", "You consistently deal massive damage for your team"
	case scores.VisionMastery > 70:
		trait, description = "Vision Master", "Your map awareness and vision control are exceptional"
	case scores.TeamfightProwess > 60:
		trait, description = "Teamfight Monster", "You excel in coordinated 5v5 engagements"
	case overallKDA > 4:
		trait, description = "Consistent Performer", "Reliable and steady across all games"
	}

	total := 0
	for _, g := range games {
		total += g.DoubleKills + g.TripleKills + g.QuadraKills + g.PentaKills
	}

	return PlaystyleReport{
		PrimaryTrait:    trait,
		Description:     description,
		Scores:          scores,
		AvgSoloKills:    avgSolo,
		AvgTeamDamage:   avgTeamDmg,
		AvgVisionPerMin: avgVision,
		TotalMultikills: total,
	}
}

func clamp100(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}
