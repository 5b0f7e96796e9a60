// Package stats reduces raw match payloads to the aggregate views fed into
// insight generation. Everything here is pure: no I/O, no clocks.
package stats

import (
	"sort"

	"github.com/riftrewind/riftrewind/internal/core"
)

// PlayerGame is one match reduced to the analyzed player's own line.
type PlayerGame struct {
	Timestamp    int64
	Champion     string
	Role         string
	Win          bool
	GameDuration float64 // minutes
	QueueID      int

	Kills       int
	Deaths      int
	Assists     int
	KDA         float64
	SoloKills   float64
	DoubleKills int
	TripleKills int
	QuadraKills int
	PentaKills  int

	DamageDealt   int
	DamagePerMin  float64
	DamageTaken   int
	TeamDamagePct float64

	GoldEarned int
	GoldPerMin float64
	CSTotal    int
	CSPerMin   float64

	VisionScore  int
	VisionPerMin float64
	ControlWards float64
	WardsPlaced  float64
	WardsKilled  float64

	TurretKills        int
	DamageToObjectives int
}

// ExtractPlayerGame reduces a match to the player's line. The second return
// is false when the player did not take part or the payload is degenerate.
func ExtractPlayerGame(m *core.Match, puuid string) (PlayerGame, bool) {
	p := m.ParticipantByPUUID(puuid)
	if p == nil || m.Info.GameDuration <= 0 {
		return PlayerGame{}, false
	}

	minutes := float64(m.Info.GameDuration) / 60
	deaths := p.Deaths
	if deaths < 1 {
		deaths = 1
	}

	return PlayerGame{
		Timestamp:    m.Info.GameCreation,
		Champion:     p.ChampionName,
		Role:         p.TeamPosition,
		Win:          p.Win,
		GameDuration: minutes,
		QueueID:      m.Info.QueueID,

		Kills:       p.Kills,
		Deaths:      p.Deaths,
		Assists:     p.Assists,
		KDA:         float64(p.Kills+p.Assists) / float64(deaths),
		SoloKills:   p.Challenges.SoloKills,
		DoubleKills: p.DoubleKills,
		TripleKills: p.TripleKills,
		QuadraKills: p.QuadraKills,
		PentaKills:  p.PentaKills,

		DamageDealt:   p.TotalDamageToChampions,
		DamagePerMin:  float64(p.TotalDamageToChampions) / minutes,
		DamageTaken:   p.TotalDamageTaken,
		TeamDamagePct: p.Challenges.TeamDamagePct,

		GoldEarned: p.GoldEarned,
		GoldPerMin: p.Challenges.GoldPerMinute,
		CSTotal:    p.TotalMinionsKilled + p.NeutralMinionsKilled,
		CSPerMin:   float64(p.TotalMinionsKilled+p.NeutralMinionsKilled) / minutes,

		VisionScore:  p.VisionScore,
		VisionPerMin: p.Challenges.VisionScorePerMin,
		ControlWards: p.Challenges.ControlWardsBought,
		WardsPlaced:  p.Challenges.StealthWardsPlaced,
		WardsKilled:  p.Challenges.WardTakedowns,

		TurretKills:        p.TurretTakedowns,
		DamageToObjectives: p.DamageDealtToObjectives,
	}, true
}

// playerGames extracts and chronologically sorts the player's lines.
func playerGames(matches []*core.Match, puuid string) []PlayerGame {
	games := make([]PlayerGame, 0, len(matches))
	for _, m := range matches {
		if g, ok := ExtractPlayerGame(m, puuid); ok {
			games = append(games, g)
		}
	}
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].Timestamp < games[j].Timestamp
	})
	return games
}

func mean(games []PlayerGame, f func(PlayerGame) float64) float64 {
	if len(games) == 0 {
		return 0
	}
	var sum float64
	for _, g := range games {
		sum += f(g)
	}
	return sum / float64(len(games))
}

func winRate(games []PlayerGame) float64 {
	if len(games) == 0 {
		return 0
	}
	wins := 0
	for _, g := range games {
		if g.Win {
			wins++
		}
	}
	return float64(wins) / float64(len(games)) * 100
}
