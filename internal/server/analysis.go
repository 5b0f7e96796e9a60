package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/riftrewind/riftrewind/internal/core"
	apperrors "github.com/riftrewind/riftrewind/internal/errors"
	"github.com/riftrewind/riftrewind/internal/metrics"
	"github.com/riftrewind/riftrewind/internal/observability"
)

// analysisTimeout bounds one detached pipeline run. Generous because the
// governors may legitimately sleep for minutes on a throttled upstream.
const analysisTimeout = 15 * time.Minute

// beginAnalysisResponse is the 202 body returned when a run is accepted.
type beginAnalysisResponse struct {
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
}

// analysisStatusResponse is returned while a run is still in flight.
type analysisStatusResponse struct {
	AnalysisID string              `json:"analysis_id"`
	Status     string              `json:"status"`
	Progress   *core.ProgressEvent `json:"progress,omitempty"`
}

// handleBeginAnalysis accepts a new analysis run and returns its id. The
// pipeline runs detached from the request; progress is streamed separately.
func (s *Server) handleBeginAnalysis(w http.ResponseWriter, r *http.Request) {
	gameName := strings.TrimSpace(chi.URLParam(r, "gameName"))
	tagLine := strings.TrimSpace(chi.URLParam(r, "tagLine"))
	if gameName == "" || tagLine == "" {
		HandleError(w, r, apperrors.NewInvalidInputError("game name and tag line are required"))
		return
	}

	if s.deps.Runner == nil {
		HandleError(w, r, apperrors.NewServiceUnavailableError("analysis pipeline is not configured"))
		return
	}

	analysisID := uuid.New().String()
	s.trackAnalysis(analysisID)

	go s.runAnalysis(analysisID, gameName, tagLine)

	writeJSON(w, http.StatusAccepted, beginAnalysisResponse{
		AnalysisID: analysisID,
		Status:     "accepted",
	})
}

// runAnalysis executes the pipeline outside the request lifecycle and stores
// the terminal result for later polls.
func (s *Server) runAnalysis(analysisID, gameName, tagLine string) {
	ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
	defer cancel()

	start := time.Now()
	result := s.deps.Runner.Run(ctx, analysisID, gameName, tagLine)
	s.storeResult(analysisID, result)

	metrics.RecordAnalysis(result.Success, time.Since(start))
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Analysis finished",
			zap.String("analysis_id", analysisID),
			zap.String("riot_id", result.RiotID),
			zap.Bool("success", result.Success),
			zap.Int("matches_analyzed", result.MatchesAnalyzed),
			zap.Duration("duration", time.Since(start)))
	}
}

// handleAnalysisResult returns the terminal result once a run is done, or a
// status body with the latest progress while it is still going.
func (s *Server) handleAnalysisResult(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, "analysisID")

	result, known := s.lookupAnalysis(analysisID)
	if !known {
		HandleError(w, r, apperrors.NewNotFoundError("unknown analysis id"))
		return
	}

	if result == nil {
		status := analysisStatusResponse{AnalysisID: analysisID, Status: "running"}
		if s.deps.Hub != nil {
			if ev, ok := s.deps.Hub.Latest(analysisID); ok {
				status.Progress = &ev
			}
		}
		writeJSON(w, http.StatusAccepted, status)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleProfile resolves and returns a player profile without starting an
// analysis.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	gameName := strings.TrimSpace(chi.URLParam(r, "gameName"))
	tagLine := strings.TrimSpace(chi.URLParam(r, "tagLine"))
	if gameName == "" || tagLine == "" {
		HandleError(w, r, apperrors.NewInvalidInputError("game name and tag line are required"))
		return
	}

	if s.deps.Profiles == nil {
		HandleError(w, r, apperrors.NewServiceUnavailableError("profile service is not configured"))
		return
	}

	profile, err := s.deps.Profiles.ProfileByRiotID(r.Context(), gameName, tagLine)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			HandleError(w, r, apperrors.WrapNotFound(r.Context(), err, "player not found"))
			return
		}
		HandleError(w, r, apperrors.WrapExternalService(r.Context(), err, "could not resolve player profile"))
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// cacheHealthResponse reports durable cache occupancy alongside the current
// state of both governors.
type cacheHealthResponse struct {
	Store *storeStats        `json:"store,omitempty"`
	Riot  *riotGovernorStats `json:"riot_governor,omitempty"`
	Gen   *genGovernorStats  `json:"gen_governor,omitempty"`
}

type storeStats struct {
	TotalMatches  int   `json:"total_matches"`
	FreshMatches  int   `json:"fresh_matches"`
	TotalProfiles int   `json:"total_profiles"`
	TotalInsights int   `json:"total_insights"`
	ApproxBytes   int64 `json:"approx_size_bytes"`
}

type riotGovernorStats struct {
	RequestsLastSecond int `json:"requests_last_second"`
	RequestsLast2Min   int `json:"requests_last_2_minutes"`
	PerSecondLimit     int `json:"per_second_limit"`
	Per2MinLimit       int `json:"per_2min_limit"`
}

type genGovernorStats struct {
	RequestsLastSecond  int    `json:"requests_last_second"`
	PerSecondLimit      int    `json:"per_second_limit"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	CurrentDelay        string `json:"current_delay"`
}

// handleCacheHealth reports cache and governor state for operators.
func (s *Server) handleCacheHealth(w http.ResponseWriter, r *http.Request) {
	resp := cacheHealthResponse{}

	if s.deps.Store != nil {
		stats, err := s.deps.Store.Stats(r.Context(), s.deps.MatchTTL)
		if err != nil {
			HandleError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "could not read cache statistics"))
			return
		}
		resp.Store = &storeStats{
			TotalMatches:  stats.TotalMatches,
			FreshMatches:  stats.FreshMatches,
			TotalProfiles: stats.TotalProfiles,
			TotalInsights: stats.TotalInsights,
			ApproxBytes:   stats.ApproxBytes,
		}
	}
	if s.deps.Riot != nil {
		rs := s.deps.Riot.Stats()
		resp.Riot = &riotGovernorStats{
			RequestsLastSecond: rs.LastSecond,
			RequestsLast2Min:   rs.Last2Min,
			PerSecondLimit:     rs.PerSecondLimit,
			Per2MinLimit:       rs.Per2MinLimit,
		}
	}
	if s.deps.Gen != nil {
		gs := s.deps.Gen.Stats()
		resp.Gen = &genGovernorStats{
			RequestsLastSecond:  gs.LastSecond,
			PerSecondLimit:      gs.PerSecondLimit,
			ConsecutiveFailures: gs.ConsecutiveFailures,
			CurrentDelay:        gs.CurrentDelay.String(),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// trackAnalysis registers a run as in flight.
func (s *Server) trackAnalysis(analysisID string) {
	s.analysesMu.Lock()
	defer s.analysesMu.Unlock()
	s.analyses[analysisID] = nil
}

// storeResult records the terminal result of a run.
func (s *Server) storeResult(analysisID string, result *core.AnalysisResult) {
	s.analysesMu.Lock()
	defer s.analysesMu.Unlock()
	s.analyses[analysisID] = result
}

// lookupAnalysis reports whether a run exists and its result, nil while the
// run is still going.
func (s *Server) lookupAnalysis(analysisID string) (*core.AnalysisResult, bool) {
	s.analysesMu.RLock()
	defer s.analysesMu.RUnlock()
	result, known := s.analyses[analysisID]
	return result, known
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
