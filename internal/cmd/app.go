package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/riftrewind/riftrewind/internal/config"
	"github.com/riftrewind/riftrewind/internal/core/engine"
	"github.com/riftrewind/riftrewind/internal/core/progress"
	"github.com/riftrewind/riftrewind/internal/core/store"
	"github.com/riftrewind/riftrewind/internal/insight"
	"github.com/riftrewind/riftrewind/internal/riot"
)

// app bundles the wired application services shared by serve and analyze.
type app struct {
	store    *store.Store
	riotLim  *engine.RiotLimiter
	genLim   *engine.GenLimiter
	hub      *progress.Hub
	profiles *riot.ProfileService
	pipeline *engine.Pipeline
	matchTTL time.Duration
}

// buildApp wires the store, governors and pipeline from the loaded config.
// onFailure receives the underlying cause of failed pipeline phases so the
// caller can log it with whichever logger is active.
func buildApp(ctx context.Context, onFailure func(analysisID, msg string, err error)) (*app, error) {
	riotKey := viper.GetString("riot.api_key")
	if riotKey == "" {
		return nil, fmt.Errorf("riot api key is required (set riot.api_key or %sRIOT_API_KEY)", appIdentity.EnvPrefix)
	}

	st, err := store.Open(ctx, config.StoreConfig{
		Driver:    viper.GetString("store.driver"),
		Path:      viper.GetString("store.path"),
		URL:       viper.GetString("store.url"),
		AuthToken: viper.GetString("store.auth_token"),
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	riotLim := engine.NewRiotLimiter(
		viper.GetInt("riot.rate_per_second"),
		viper.GetInt("riot.rate_per_2min"),
	)
	genLim := engine.NewGenLimiter(
		viper.GetInt("gen.rate_per_second"),
		viper.GetDuration("gen.min_interval"),
		viper.GetDuration("gen.backoff_base"),
		viper.GetDuration("gen.backoff_max"),
		viper.GetFloat64("gen.backoff_multiplier"),
		viper.GetFloat64("gen.jitter_fraction"),
	)

	client := &riot.Client{
		Limiter:         riotLim,
		APIKey:          riotKey,
		RegionBaseURL:   viper.GetString("riot.region_base_url"),
		PlatformBaseURL: viper.GetString("riot.platform_base_url"),
	}

	matchTTL := viper.GetDuration("cache.match_ttl")
	profileTTL := viper.GetDuration("cache.profile_ttl")

	profiles := &riot.ProfileService{
		Riot:       client,
		Profiles:   st,
		Matches:    st,
		ProfileTTL: profileTTL,
		MatchTTL:   matchTTL,
	}

	driver, err := insight.NewAnthropicDriver(insight.AnthropicConfig{
		APIKey:  viper.GetString("anthropic.api_key"),
		BaseURL: viper.GetString("anthropic.base_url"),
		Model:   viper.GetString("anthropic.model"),
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("insight driver: %w", err)
	}
	insights := &insight.Service{
		Driver:     driver,
		Limiter:    genLim,
		Cache:      st,
		InsightTTL: viper.GetDuration("cache.insight_ttl"),
	}
	if promptFile := viper.GetString("anthropic.prompt_file"); promptFile != "" {
		tpl, err := insight.LoadTemplateFile(promptFile)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		insights.Template = tpl
	}

	selector := engine.NewSelector(client, st, matchTTL)
	selector.Ceiling = viper.GetInt("analysis.discovery_ceiling")
	selector.SampleSize = viper.GetInt("analysis.sample_size")
	selector.BatchSize = viper.GetInt("analysis.batch_size")

	hub := progress.NewHub()

	pipeline := &engine.Pipeline{
		Profiles:    profiles,
		Selector:    selector,
		Source:      client,
		Cache:       st,
		Insights:    insights,
		Progress:    hub,
		TargetCount: viper.GetInt("analysis.target_count"),
		MaxAge:      time.Duration(viper.GetInt("analysis.max_age_days")) * 24 * time.Hour,
		BatchSize:   viper.GetInt("analysis.batch_size"),
		MatchTTL:    matchTTL,
		OnFailure:   onFailure,
	}

	return &app{
		store:    st,
		riotLim:  riotLim,
		genLim:   genLim,
		hub:      hub,
		profiles: profiles,
		pipeline: pipeline,
		matchTTL: matchTTL,
	}, nil
}

// Close releases the app's durable resources.
func (a *app) Close() error {
	if a == nil {
		return nil
	}
	return a.store.Close()
}
