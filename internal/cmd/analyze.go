package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/riftrewind/riftrewind/internal/observability"
	"github.com/riftrewind/riftrewind/internal/output"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <gameName#tagLine>",
	Short: "Run a year-end analysis for a player",
	Long: `Run the full analysis pipeline for a player from the terminal:
profile resolution, match discovery, statistics and insight generation.

The Riot ID takes the form gameName#tagLine, e.g. "Faker#KR1".`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	analyzeCmd.Flags().Bool("progress", true, "Print progress steps while the analysis runs")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	gameName, tagLine, ok := strings.Cut(strings.TrimSpace(args[0]), "#")
	gameName = strings.TrimSpace(gameName)
	tagLine = strings.TrimSpace(tagLine)
	if !ok || gameName == "" || tagLine == "" {
		return fmt.Errorf("riot id must take the form gameName#tagLine, got %q", args[0])
	}

	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}
	showProgress, err := cmd.Flags().GetBool("progress")
	if err != nil {
		return err
	}

	app, err := buildApp(cmd.Context(), func(analysisID, msg string, cause error) {
		observability.CLILogger.Error(msg,
			zap.String("analysis_id", analysisID),
			zap.Error(cause))
	})
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	analysisID := uuid.New().String()

	// Drain progress events to the terminal while the pipeline runs.
	done := make(chan struct{})
	if showProgress && format == output.FormatTable {
		sub := app.hub.Subscribe(analysisID)
		go func() {
			defer close(done)
			for {
				ev, err := sub.Next(cmd.Context())
				if err != nil {
					return
				}
				fmt.Printf("  [%3d%%] %s\n", ev.Percent, ev.Message)
				if ev.Terminal() {
					return
				}
			}
		}()
	} else {
		close(done)
	}

	result := app.pipeline.Run(cmd.Context(), analysisID, gameName, tagLine)
	<-done
	app.hub.Unsubscribe(analysisID)

	rendered, err := output.NewFormatter(format).FormatAnalysis(result)
	if err != nil {
		return err
	}
	fmt.Println(rendered)

	if !result.Success {
		return fmt.Errorf("analysis failed: %s", result.Error)
	}
	return nil
}
