// Package output renders analysis results and cache reports for the CLI.
package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/riftrewind/riftrewind/internal/core"
	"github.com/riftrewind/riftrewind/internal/core/store"
)

// TableFormatter renders results as ASCII tables.
type TableFormatter struct{}

// FormatAnalysis renders a terminal analysis result: the player header, the
// selection summary, highlights and the generated review text.
func (f *TableFormatter) FormatAnalysis(result *core.AnalysisResult) (string, error) {
	if result == nil {
		return "", nil
	}

	if !result.Success {
		return fmt.Sprintf("Analysis failed: %s\n", result.Error), nil
	}

	var sb strings.Builder

	if p := result.Profile; p != nil {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Player", "Level", "Rank", "Main Role"})
		t.AppendRow(table.Row{p.RiotID, p.SummonerLevel, p.Rank.Display, p.MainRole})
		sb.WriteString(t.Render())
		sb.WriteString("\n")
	}

	if sel := result.Selection; sel != nil {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Strategy", "Available", "Analyzed", "Ranked Ratio"})
		t.AppendRow(table.Row{
			string(sel.Strategy),
			sel.TotalAvailable,
			result.MatchesAnalyzed,
			fmt.Sprintf("%.0f%%", sel.EstimatedRankedRatio*100),
		})
		sb.WriteString(t.Render())
		sb.WriteString("\n")
	}

	if ins := result.Insight; ins != nil {
		if ins.Personality != "" {
			fmt.Fprintf(&sb, "\nPlaystyle: %s\n", ins.Personality)
		}
		if len(ins.Highlights) > 0 {
			sb.WriteString("\nHighlights:\n")
			for _, h := range ins.Highlights {
				fmt.Fprintf(&sb, "  • %s\n", h)
			}
		}
		sb.WriteString("\n")
		sb.WriteString(ins.Insight)
		sb.WriteString("\n")
		if ins.FromCache {
			sb.WriteString("\n(served from cache)\n")
		}
	}

	return sb.String(), nil
}

// FormatCacheStats renders durable cache occupancy.
func (f *TableFormatter) FormatCacheStats(stats *store.CacheStats) (string, error) {
	if stats == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Kind", "Rows", "Notes"})
	t.AppendRow(table.Row{"matches", stats.TotalMatches, fmt.Sprintf("%d fresh", stats.FreshMatches)})
	t.AppendRow(table.Row{"profiles", stats.TotalProfiles, ""})
	t.AppendRow(table.Row{"insights", stats.TotalInsights, ""})
	t.AppendFooter(table.Row{"", "", formatBytes(stats.ApproxBytes)})

	return t.Render(), nil
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
