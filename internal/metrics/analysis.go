package metrics

import (
	"time"

	"github.com/riftrewind/riftrewind/internal/observability"
)

// Analysis pipeline metric names
var (
	AnalysesTotal    = "analysis_runs_total"
	AnalysisDuration = "analysis_duration_ms"

	RiotRequestsTotal  = "riot_requests_total"
	RiotThrottlesTotal = "riot_throttles_total"

	GenAttemptsTotal  = "gen_attempts_total"
	GenThrottlesTotal = "gen_throttles_total"

	CacheLookupsTotal = "cache_lookups_total"
)

// RecordAnalysis records a completed pipeline run with its outcome and duration.
func RecordAnalysis(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			AnalysesTotal,
			1,
			map[string]string{"status": status},
		)
		_ = observability.TelemetrySystem.Histogram(
			AnalysisDuration,
			duration,
			map[string]string{"status": status},
		)
	}
}

// RecordRiotRequest records one Riot API call by endpoint.
func RecordRiotRequest(endpoint string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RiotRequestsTotal,
			1,
			map[string]string{
				"endpoint": endpoint,
				"status":   status,
			},
		)
	}
}

// RecordRiotThrottle records a 429 from the Riot API.
func RecordRiotThrottle(endpoint string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RiotThrottlesTotal,
			1,
			map[string]string{"endpoint": endpoint},
		)
	}
}

// RecordGenAttempt records one generation call; retry marks attempts made
// after an upstream throttle.
func RecordGenAttempt(retry bool) {
	kind := "initial"
	if retry {
		kind = "retry"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			GenAttemptsTotal,
			1,
			map[string]string{"kind": kind},
		)
	}
}

// RecordGenThrottle records a throttling-class generation failure.
func RecordGenThrottle() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			GenThrottlesTotal,
			1,
			nil,
		)
	}
}

// RecordCacheLookup records a durable-cache lookup by table and outcome.
func RecordCacheLookup(table string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			CacheLookupsTotal,
			1,
			map[string]string{
				"table":   table,
				"outcome": outcome,
			},
		)
	}
}
