package stats

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftrewind/riftrewind/internal/core"
)

const testPUUID = "puuid-under-test"

type gameSpec struct {
	champion string
	role     string
	win      bool
	kills    int
	deaths   int
	assists  int
	queueID  int

	soloKills     float64
	teamDamagePct float64
	visionPerMin  float64
	doubleKills   int
	pentaKills    int

	cs       int
	duration int64 // seconds, default 1800
}

func buildMatch(i int, spec gameSpec) *core.Match {
	duration := spec.duration
	if duration == 0 {
		duration = 1800
	}
	queue := spec.queueID
	if queue == 0 {
		queue = core.QueueNormalDraft
	}

	m := &core.Match{}
	m.Metadata.MatchID = fmt.Sprintf("NA1_%04d", i)
	m.Info.GameCreation = int64(1700000000000 + i*1000)
	m.Info.GameDuration = duration
	m.Info.QueueID = queue
	m.Info.Participants = []core.Participant{
		{PUUID: "someone-else", ChampionName: "Garen"},
		{
			PUUID:                  testPUUID,
			ChampionName:           spec.champion,
			TeamPosition:           spec.role,
			Win:                    spec.win,
			Kills:                  spec.kills,
			Deaths:                 spec.deaths,
			Assists:                spec.assists,
			DoubleKills:            spec.doubleKills,
			PentaKills:             spec.pentaKills,
			TotalDamageToChampions: 15000,
			TotalMinionsKilled:     spec.cs,
			Challenges: core.Challenges{
				SoloKills:         spec.soloKills,
				TeamDamagePct:     spec.teamDamagePct,
				VisionScorePerMin: spec.visionPerMin,
				GoldPerMinute:     400,
			},
		},
	}
	return m
}

func TestExtractPlayerGame(t *testing.T) {
	m := buildMatch(0, gameSpec{champion: "Ahri", role: "MIDDLE", win: true, kills: 10, deaths: 2, assists: 4, cs: 210})

	g, ok := ExtractPlayerGame(m, testPUUID)
	require.True(t, ok)
	require.Equal(t, "Ahri", g.Champion)
	require.InDelta(t, 7.0, g.KDA, 1e-9)
	require.InDelta(t, 7.0, g.CSPerMin, 1e-9) // 210 cs over 30 minutes

	_, ok = ExtractPlayerGame(m, "absent-player")
	require.False(t, ok)
}

func TestExtractPlayerGameZeroDeaths(t *testing.T) {
	m := buildMatch(0, gameSpec{champion: "Janna", kills: 2, deaths: 0, assists: 18})

	g, ok := ExtractPlayerGame(m, testPUUID)
	require.True(t, ok)
	// Deaths floor at 1 so the ratio stays finite.
	require.InDelta(t, 20.0, g.KDA, 1e-9)
}

func TestPerformanceTrendsBasics(t *testing.T) {
	matches := []*core.Match{
		buildMatch(0, gameSpec{champion: "Ahri", win: true, kills: 10, deaths: 2, assists: 4, queueID: core.QueueRankedSolo, pentaKills: 1}),
		buildMatch(1, gameSpec{champion: "Ahri", win: false, kills: 2, deaths: 6, assists: 4, queueID: core.QueueRankedSolo, doubleKills: 1}),
		buildMatch(2, gameSpec{champion: "Lux", win: true, kills: 6, deaths: 3, assists: 9}),
		buildMatch(3, gameSpec{champion: "Lux", win: true, kills: 4, deaths: 4, assists: 8}),
	}

	r := PerformanceTrends(matches, testPUUID)
	require.Equal(t, 4, r.TotalGames)
	require.InDelta(t, 75.0, r.OverallWinRate, 1e-9)
	require.Equal(t, 2, r.RankedGames)
	require.InDelta(t, 50.0, r.RankedPercentage, 1e-9)
	require.Equal(t, 2, r.TotalMultikills)
	require.Equal(t, 1, r.TotalPentaKills)
	require.Equal(t, 10, r.HighestKills)
	require.InDelta(t, 7.0, r.BestKDA, 1e-9)
	require.False(t, r.HasTrends)
}

func TestPerformanceTrendsHalves(t *testing.T) {
	// 40 games: losing first half, winning second half.
	matches := make([]*core.Match, 0, 40)
	for i := 0; i < 40; i++ {
		matches = append(matches, buildMatch(i, gameSpec{
			champion: "Jinx",
			win:      i >= 20,
			kills:    5,
			deaths:   5,
			assists:  5,
		}))
	}

	r := PerformanceTrends(matches, testPUUID)
	require.True(t, r.HasTrends)
	require.InDelta(t, 0.0, r.FirstHalfWinRate, 1e-9)
	require.InDelta(t, 100.0, r.SecondHalfWinRate, 1e-9)
	require.InDelta(t, 0.0, r.KDAImprovement, 1e-9)
}

func TestPerformanceTrendsEmpty(t *testing.T) {
	r := PerformanceTrends(nil, testPUUID)
	require.Zero(t, r.TotalGames)
	require.False(t, r.HasTrends)
}

func TestChampionPool(t *testing.T) {
	matches := []*core.Match{
		buildMatch(0, gameSpec{champion: "Ahri", role: "MIDDLE", win: true, kills: 5, deaths: 5, assists: 5}),
		buildMatch(1, gameSpec{champion: "Ahri", role: "MIDDLE", win: false, kills: 5, deaths: 5, assists: 5}),
		buildMatch(2, gameSpec{champion: "Ahri", role: "TOP", win: true, kills: 5, deaths: 5, assists: 5}),
		buildMatch(3, gameSpec{champion: "Lux", role: "UTILITY", win: true, kills: 5, deaths: 5, assists: 5}),
	}

	r := ChampionPool(matches, testPUUID)
	require.Equal(t, 2, r.UniqueChampions)
	require.Equal(t, "Ahri", r.TopChampions[0].Name)
	require.Equal(t, 3, r.TopChampions[0].Games)
	require.InDelta(t, 66.666, r.TopChampions[0].WinRate, 0.01)
	require.Equal(t, "MIDDLE", r.TopChampions[0].PrimaryRole)
	require.Equal(t, "MIDDLE", r.PrimaryRole)
	require.Equal(t, 2, r.RoleDistribution["MIDDLE"].Games)
	require.InDelta(t, 50.0, r.RoleDistribution["MIDDLE"].WinRate, 1e-9)
}

func TestChampionPoolIgnoresEmptyRole(t *testing.T) {
	matches := []*core.Match{
		buildMatch(0, gameSpec{champion: "Ahri", role: "NONE", win: true}),
		buildMatch(1, gameSpec{champion: "Ahri", role: "", win: true}),
	}

	r := ChampionPool(matches, testPUUID)
	require.Empty(t, r.RoleDistribution)
	require.Equal(t, "UNKNOWN", r.PrimaryRole)
}

func TestPlaystyleDuelist(t *testing.T) {
	matches := []*core.Match{
		buildMatch(0, gameSpec{champion: "Zed", win: true, kills: 12, deaths: 3, assists: 2, soloKills: 4}),
		buildMatch(1, gameSpec{champion: "Zed", win: true, kills: 9, deaths: 4, assists: 3, soloKills: 4}),
	}

	r := Playstyle(matches, testPUUID)
	require.Equal(t, "Duelist", r.PrimaryTrait)
	require.InDelta(t, 80.0, r.Scores.Aggression, 1e-9)
}

func TestPlaystyleVisionMaster(t *testing.T) {
	matches := []*core.Match{
		buildMatch(0, gameSpec{champion: "Thresh", win: true, kills: 1, deaths: 3, assists: 15, visionPerMin: 5}),
	}

	r := Playstyle(matches, testPUUID)
	require.Equal(t, "Vision Master", r.PrimaryTrait)
	require.InDelta(t, 75.0, r.Scores.VisionMastery, 1e-9)
}

func TestPlaystyleCarry(t *testing.T) {
	matches := []*core.Match{
		buildMatch(0, gameSpec{champion: "Jinx", win: true, kills: 8, deaths: 4, assists: 6, teamDamagePct: 0.38}),
	}

	r := Playstyle(matches, testPUUID)
	require.Equal(t, "Carry", r.PrimaryTrait)
	require.InDelta(t, 76.0, r.Scores.CarryPotential, 1e-9)
}

func TestPlaystyleAdaptiveDefault(t *testing.T) {
	matches := []*core.Match{
		buildMatch(0, gameSpec{champion: "Garen", win: false, kills: 2, deaths: 5, assists: 3}),
	}

	r := Playstyle(matches, testPUUID)
	require.Equal(t, "Adaptive Player", r.PrimaryTrait)
}

func TestSummarize(t *testing.T) {
	matches := []*core.Match{
		buildMatch(0, gameSpec{champion: "Ahri", role: "MIDDLE", win: true, kills: 5, deaths: 5, assists: 5}),
	}

	s := Summarize(matches, testPUUID)
	require.Equal(t, 1, s.Trends.TotalGames)
	require.Equal(t, 1, s.Pool.UniqueChampions)
	require.NotEmpty(t, s.Playstyle.PrimaryTrait)
}
