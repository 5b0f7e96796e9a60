package insight

import (
	"fmt"
	"strings"

	"github.com/riftrewind/riftrewind/internal/core"
	"github.com/riftrewind/riftrewind/internal/stats"
)

const systemPrompt = `You are an expert League of Legends analyst creating personalized Year-End Reviews.

**Important Guidelines:**
- Adapt to sample size: <50 games = general advice, 50-200 = trends, 200+ = deep patterns
- Prioritize ranked matches for competitive insights
- Be encouraging but honest about areas for improvement
- Use gaming and League of Legends specific terminology as required
- Structure the review like Spotify Wrapped - fun and shareable
- Include specific numbers and percentages to make it concrete
- Highlight unique achievements (pentakills, high KDAs, improvement streaks)

**Review Structure:**
1. **Playstyle Personality** - Their unique identity
2. **Year in Numbers** - Key stats and totals
3. **Performance Trends** - Are they improving?
4. **Champion Mastery** - Top picks and win rates
5. **Standout Moments** - Best games and achievements
6. **Growth Areas** - 2-3 very specific tips for improvement

Make it engaging, data-driven, and personal!`

// BuildPrompt renders the player's aggregated statistics into the user
// prompt for the review generation call.
func BuildPrompt(profile *core.Profile, summary stats.Summary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Create a comprehensive Year-End Review for player %s.\n\n", profile.RiotID)
	fmt.Fprintf(&sb, "Player profile: level %d, rank %s, main role %s.\n\n",
		profile.SummonerLevel, profile.Rank.Display, profile.MainRole)

	t := summary.Trends
	fmt.Fprintf(&sb, "Performance over %d games:\n", t.TotalGames)
	fmt.Fprintf(&sb, "- Win rate: %.1f%% (%d ranked games, %.1f%% of history)\n",
		t.OverallWinRate, t.RankedGames, t.RankedPercentage)
	fmt.Fprintf(&sb, "- Averages: %.2f KDA, %.1f CS/min, %.2f vision/min, %.0f damage/min, %.0f gold/min\n",
		t.AvgKDA, t.AvgCSPerMin, t.AvgVisionPerMin, t.AvgDamagePerMin, t.AvgGoldPerMin)
	fmt.Fprintf(&sb, "- Best game: %.2f KDA, %d kills; %d multikills total (%d pentakills)\n",
		t.BestKDA, t.HighestKills, t.TotalMultikills, t.TotalPentaKills)
	if t.HasTrends {
		fmt.Fprintf(&sb, "- Trend: win rate %.1f%% -> %.1f%%, KDA %+.2f, CS/min %+.2f, vision/min %+.2f\n",
			t.FirstHalfWinRate, t.SecondHalfWinRate, t.KDAImprovement, t.CSImprovement, t.VisionImprovement)
	}

	sb.WriteString("\nChampion pool:\n")
	fmt.Fprintf(&sb, "- %d unique champions, primary role %s\n", summary.Pool.UniqueChampions, summary.Pool.PrimaryRole)
	for _, champ := range summary.Pool.TopChampions {
		fmt.Fprintf(&sb, "- %s: %d games, %.1f%% win rate, %.2f KDA, mostly %s\n",
			champ.Name, champ.Games, champ.WinRate, champ.AvgKDA, champ.PrimaryRole)
	}

	p := summary.Playstyle
	sb.WriteString("\nPlaystyle:\n")
	fmt.Fprintf(&sb, "- Primary trait: %s (%s)\n", p.PrimaryTrait, p.Description)
	fmt.Fprintf(&sb, "- Scores: aggression %.0f, carry %.0f, vision %.0f, teamfight %.0f\n",
		p.Scores.Aggression, p.Scores.CarryPotential, p.Scores.VisionMastery, p.Scores.TeamfightProwess)

	sb.WriteString("\nFocus on ranked performance when available. Make it fun and motivational!")
	return sb.String()
}
