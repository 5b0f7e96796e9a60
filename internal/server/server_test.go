package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riftrewind/riftrewind/internal/core"
	"github.com/riftrewind/riftrewind/internal/core/progress"
	apperrors "github.com/riftrewind/riftrewind/internal/errors"
)

type fakeRunner struct {
	mu      sync.Mutex
	result  *core.AnalysisResult
	started chan string
	block   chan struct{} // closed to let Run return
}

func newFakeRunner(result *core.AnalysisResult) *fakeRunner {
	return &fakeRunner{
		result:  result,
		started: make(chan string, 4),
		block:   make(chan struct{}),
	}
}

func (f *fakeRunner) Run(_ context.Context, analysisID, gameName, tagLine string) *core.AnalysisResult {
	f.started <- analysisID
	<-f.block

	f.mu.Lock()
	defer f.mu.Unlock()
	out := *f.result
	out.AnalysisID = analysisID
	out.RiotID = gameName + "#" + tagLine
	return &out
}

type fakeProfileSource struct {
	profile *core.Profile
	err     error
}

func (f *fakeProfileSource) ProfileByRiotID(context.Context, string, string) (*core.Profile, error) {
	return f.profile, f.err
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := New("127.0.0.1", 0, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if body.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected error code NOT_FOUND, got %s", body.Error.Code)
	}
}

func TestBeginAnalysisAcceptsAndCompletes(t *testing.T) {
	runner := newFakeRunner(&core.AnalysisResult{Success: true, MatchesAnalyzed: 40})
	srv := New("127.0.0.1", 0, Deps{Runner: runner, Hub: progress.NewHub()})

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/Tester/NA1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var accepted struct {
		AnalysisID string `json:"analysis_id"`
		Status     string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&accepted))
	require.NotEmpty(t, accepted.AnalysisID)
	require.Equal(t, "accepted", accepted.Status)

	// Run is still in flight: result poll reports running.
	select {
	case <-runner.started:
	case <-time.After(time.Second):
		t.Fatal("pipeline never started")
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+accepted.AnalysisID+"/result", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	// Release the run and wait for the stored result.
	close(runner.block)
	require.Eventually(t, func() bool {
		result, known := srv.lookupAnalysis(accepted.AnalysisID)
		return known && result != nil
	}, time.Second, 5*time.Millisecond)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+accepted.AnalysisID+"/result", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result core.AnalysisResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.True(t, result.Success)
	require.Equal(t, "Tester#NA1", result.RiotID)
	require.Equal(t, 40, result.MatchesAnalyzed)
}

func TestBeginAnalysisWithoutRunnerIsUnavailable(t *testing.T) {
	srv := New("127.0.0.1", 0, Deps{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analysis/Tester/NA1", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalysisResultUnknownIDIs404(t *testing.T) {
	srv := New("127.0.0.1", 0, Deps{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/nope/result", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalysisEventsStreamsUntilTerminal(t *testing.T) {
	hub := progress.NewHub()
	srv := New("127.0.0.1", 0, Deps{Hub: hub})
	srv.trackAnalysis("run-1")

	hub.Publish("run-1", core.StepProfile, 5, "Resolving player profile")

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/run-1/events", nil))
		done <- rec
	}()

	// The subscriber sees the retained snapshot, then the terminal event.
	time.Sleep(20 * time.Millisecond)
	hub.Publish("run-1", core.StepComplete, 100, "Analysis complete")

	select {
	case rec := <-done:
		require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		body := rec.Body.String()
		require.Contains(t, body, "event: profile")
		require.Contains(t, body, "event: complete")
		require.Contains(t, body, `"percent":100`)
	case <-time.After(2 * time.Second):
		t.Fatal("stream never ended")
	}
}

func TestAnalysisEventsUnknownIDIs404(t *testing.T) {
	srv := New("127.0.0.1", 0, Deps{Hub: progress.NewHub()})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/nope/events", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileEndpoint(t *testing.T) {
	profile := &core.Profile{
		PUUID:    "puuid-1",
		RiotID:   "Tester#NA1",
		MainRole: "Mid",
		Rank:     core.RankInfo{Tier: "GOLD", Display: "Gold II • 54 LP"},
	}
	srv := New("127.0.0.1", 0, Deps{Profiles: &fakeProfileSource{profile: profile}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile/Tester/NA1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got core.Profile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Equal(t, "Tester#NA1", got.RiotID)
	require.Equal(t, "Gold II • 54 LP", got.Rank.Display)
}

func TestProfileEndpointNotFound(t *testing.T) {
	srv := New("127.0.0.1", 0, Deps{Profiles: &fakeProfileSource{err: core.ErrNotFound}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile/Missing/NA1", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCacheHealthWithoutStore(t *testing.T) {
	srv := New("127.0.0.1", 0, Deps{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cache/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, strings.Contains(rec.Body.String(), "store"))
}
