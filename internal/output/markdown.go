package output

import (
	"fmt"
	"strings"

	"github.com/riftrewind/riftrewind/internal/core"
)

// MarkdownFormatter renders results as shareable markdown.
type MarkdownFormatter struct{}

// FormatAnalysis renders an analysis result as Markdown.
func (f *MarkdownFormatter) FormatAnalysis(result *core.AnalysisResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Year-End Review: %s\n\n", escapeMarkdownCell(result.RiotID)))

	if !result.Success {
		sb.WriteString(fmt.Sprintf("**Analysis failed**: %s\n", escapeMarkdownCell(result.Error)))
		return sb.String(), nil
	}

	if p := result.Profile; p != nil {
		sb.WriteString("| Player | Level | Rank | Main Role |\n")
		sb.WriteString("|--------|-------|------|-----------|\n")
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n\n",
			escapeMarkdownCell(p.RiotID),
			p.SummonerLevel,
			escapeMarkdownCell(p.Rank.Display),
			escapeMarkdownCell(p.MainRole),
		))
	}

	if sel := result.Selection; sel != nil {
		sb.WriteString(fmt.Sprintf("**Matches**: %d analyzed of %d available (%s, %.0f%% ranked)\n\n",
			result.MatchesAnalyzed,
			sel.TotalAvailable,
			escapeMarkdownCell(string(sel.Strategy)),
			sel.EstimatedRankedRatio*100,
		))
	}

	if ins := result.Insight; ins != nil {
		if ins.Personality != "" {
			sb.WriteString(fmt.Sprintf("**Playstyle**: %s\n\n", escapeMarkdownCell(ins.Personality)))
		}
		for _, h := range ins.Highlights {
			sb.WriteString(fmt.Sprintf("- %s\n", escapeMarkdownCell(h)))
		}
		if len(ins.Highlights) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(ins.Insight)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"\n", " ",
	)
	return replacer.Replace(value)
}
