package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/riftrewind/riftrewind/internal/config"
	"github.com/riftrewind/riftrewind/internal/core/store"
	"github.com/riftrewind/riftrewind/internal/output"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the local match cache",
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheEvictCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openStore(ctx context.Context) (*store.Store, *config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return db, cfg, nil
}

var cacheStatsOutput string

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache row counts and freshness",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(cacheStatsOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		db, cfg, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		stats, err := db.Stats(cmd.Context(), cfg.Cache.MatchTTL)
		if err != nil {
			return err
		}

		if format == output.FormatJSON {
			payload, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
			return nil
		}

		rendered, err := (&output.TableFormatter{}).FormatCacheStats(stats)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	},
}

var (
	cacheEvictDays   int
	cacheEvictYes    bool
	cacheEvictDryRun bool
)

var cacheEvictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Delete cached matches older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, cfg, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		days := cacheEvictDays
		if days <= 0 {
			days = cfg.Cache.RetentionDays
		}
		if days <= 0 {
			return fmt.Errorf("retention window must be positive, got %d days", days)
		}
		maxAge := time.Duration(days) * 24 * time.Hour

		if cacheEvictDryRun {
			stats, err := db.Stats(cmd.Context(), maxAge)
			if err != nil {
				return err
			}
			stale := stats.TotalMatches - stats.FreshMatches
			fmt.Printf("Would delete %d match(es) older than %d days\n", stale, days)
			return nil
		}

		if !cacheEvictYes {
			return errors.New("evict is destructive; confirm with --yes (or use --dry-run)")
		}

		deleted, err := db.EvictOlderThan(cmd.Context(), maxAge)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted %d match(es) older than %d days\n", deleted, days)
		return nil
	},
}

func init() {
	cacheStatsCmd.Flags().StringVar(&cacheStatsOutput, "output", string(output.FormatTable), "Output format: table|json")

	cacheEvictCmd.Flags().IntVar(&cacheEvictDays, "days", 0, "Retention window in days (default: cache.retention_days)")
	cacheEvictCmd.Flags().BoolVar(&cacheEvictYes, "yes", false, "Confirm destructive eviction")
	cacheEvictCmd.Flags().BoolVar(&cacheEvictDryRun, "dry-run", false, "Show what would be deleted")
}
