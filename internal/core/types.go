package core

import "time"

// Strategy identifies how matches were selected for analysis.
type Strategy string

const (
	StrategyAllAvailable   Strategy = "all_available"
	StrategyRankedOnly     Strategy = "ranked_only"
	StrategyRankedPriority Strategy = "ranked_priority"
	StrategyMostRecent     Strategy = "most_recent"
)

// Riot queue identifiers used to classify matches.
const (
	QueueRankedSolo  = 420
	QueueRankedFlex  = 440
	QueueNormalDraft = 400
	QueueNormalBlind = 430
)

// QueueCategory buckets a match by competitive mode.
type QueueCategory int

const (
	CategoryOther QueueCategory = iota
	CategoryRanked
	CategoryNormal
)

// CategoryForQueue classifies a Riot queue id. Queues outside the recognized
// ranked/normal sets are CategoryOther; they count toward totals but are
// excluded from both selection buckets.
func CategoryForQueue(queueID int) QueueCategory {
	switch queueID {
	case QueueRankedSolo, QueueRankedFlex:
		return CategoryRanked
	case QueueNormalDraft, QueueNormalBlind:
		return CategoryNormal
	default:
		return CategoryOther
	}
}

// MatchSelection is the outcome of a discovery run: which match ids to
// analyze and how that choice was made. Immutable after construction.
type MatchSelection struct {
	SelectedIDs          []string `json:"selected_ids"`
	Strategy             Strategy `json:"strategy"`
	TotalAvailable       int      `json:"total_available"`
	EstimatedRankedRatio float64  `json:"estimated_ranked_ratio"`
}

// Progress step labels published by the pipeline.
const (
	StepProfile    = "profile"
	StepDiscovery  = "discovery"
	StepFetch      = "fetch"
	StepStatistics = "statistics"
	StepInsight    = "insight"
	StepComplete   = "complete"
	StepFailed     = "failed"
	StepKeepalive  = "keepalive"
)

// ProgressEvent is a timestamped status update for a running analysis.
type ProgressEvent struct {
	AnalysisID string    `json:"analysis_id"`
	Step       string    `json:"step"`
	Percent    int       `json:"percent"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// Terminal reports whether the event ends the analysis stream.
func (e ProgressEvent) Terminal() bool {
	return e.Step == StepComplete || e.Step == StepFailed
}

// RankInfo is a snapshot of a player's ranked solo/duo standing.
type RankInfo struct {
	Tier     string  `json:"tier"`
	Division string  `json:"division"`
	LP       int     `json:"lp"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	WinRate  float64 `json:"win_rate"`
	Display  string  `json:"display"`
}

// Profile is the assembled player profile shown before analysis completes.
type Profile struct {
	PUUID          string   `json:"puuid"`
	RiotID         string   `json:"riot_id"`
	DisplayName    string   `json:"display_name"`
	SummonerLevel  int      `json:"summoner_level"`
	ProfileIconID  int      `json:"profile_icon_id"`
	ProfileIconURL string   `json:"profile_icon_url"`
	Rank           RankInfo `json:"rank"`
	MainRole       string   `json:"main_role"`
}

// Challenges is the subset of Riot per-participant challenge metrics the
// aggregation layer reads. All other challenge fields are ignored on decode.
type Challenges struct {
	SoloKills          float64 `json:"soloKills"`
	TeamDamagePct      float64 `json:"teamDamagePercentage"`
	GoldPerMinute      float64 `json:"goldPerMinute"`
	VisionScorePerMin  float64 `json:"visionScorePerMinute"`
	ControlWardsBought float64 `json:"controlWardsBought"`
	StealthWardsPlaced float64 `json:"stealthWardsPlaced"`
	WardTakedowns      float64 `json:"wardTakedowns"`
}

// Participant carries the per-player match fields used for aggregation.
// JSON tags follow the Riot match-v5 wire names so payloads decode directly.
type Participant struct {
	PUUID                   string     `json:"puuid"`
	ChampionName            string     `json:"championName"`
	TeamPosition            string     `json:"teamPosition"`
	Win                     bool       `json:"win"`
	Kills                   int        `json:"kills"`
	Deaths                  int        `json:"deaths"`
	Assists                 int        `json:"assists"`
	DoubleKills             int        `json:"doubleKills"`
	TripleKills             int        `json:"tripleKills"`
	QuadraKills             int        `json:"quadraKills"`
	PentaKills              int        `json:"pentaKills"`
	TotalDamageToChampions  int        `json:"totalDamageDealtToChampions"`
	TotalDamageTaken        int        `json:"totalDamageTaken"`
	GoldEarned              int        `json:"goldEarned"`
	TotalMinionsKilled      int        `json:"totalMinionsKilled"`
	NeutralMinionsKilled    int        `json:"neutralMinionsKilled"`
	VisionScore             int        `json:"visionScore"`
	TurretTakedowns         int        `json:"turretTakedowns"`
	DamageDealtToObjectives int        `json:"damageDealtToObjectives"`
	Challenges              Challenges `json:"challenges"`
}

// MatchInfo is the match-level metadata block of a Riot match payload.
type MatchInfo struct {
	GameCreation int64         `json:"gameCreation"`
	GameDuration int64         `json:"gameDuration"`
	QueueID      int           `json:"queueId"`
	Participants []Participant `json:"participants"`
}

// Match is a decoded Riot match-v5 payload.
type Match struct {
	Metadata struct {
		MatchID string `json:"matchId"`
	} `json:"metadata"`
	Info MatchInfo `json:"info"`
}

// ParticipantByPUUID returns the participant entry for the given player, or
// nil when the player did not take part in the match.
func (m *Match) ParticipantByPUUID(puuid string) *Participant {
	if m == nil {
		return nil
	}
	for i := range m.Info.Participants {
		if m.Info.Participants[i].PUUID == puuid {
			return &m.Info.Participants[i]
		}
	}
	return nil
}

// InsightReport is the generated portion of an analysis result.
type InsightReport struct {
	Insight     string   `json:"insight"`
	Highlights  []string `json:"highlights,omitempty"`
	Personality string   `json:"personality,omitempty"`
	Model       string   `json:"model,omitempty"`
	FromCache   bool     `json:"from_cache,omitempty"`
}

// AnalysisResult is the terminal outcome of a pipeline run. Failures carry a
// human-readable error string only; internal error detail stays in the logs.
type AnalysisResult struct {
	AnalysisID      string          `json:"analysis_id"`
	RiotID          string          `json:"riot_id"`
	Success         bool            `json:"success"`
	Error           string          `json:"error,omitempty"`
	Profile         *Profile        `json:"profile,omitempty"`
	Selection       *MatchSelection `json:"selection,omitempty"`
	MatchesAnalyzed int             `json:"matches_analyzed"`
	Insight         *InsightReport  `json:"insight,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     time.Time       `json:"completed_at"`
}
