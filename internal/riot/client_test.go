package riot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riftrewind/riftrewind/internal/core"
	"github.com/riftrewind/riftrewind/internal/core/engine"
)

func newTestClient(srv *httptest.Server) *Client {
	return &Client{
		Client:          srv.Client(),
		Limiter:         engine.NewRiotLimiter(1000, 10000),
		APIKey:          "test-key",
		RegionBaseURL:   srv.URL,
		PlatformBaseURL: srv.URL,
	}
}

func TestAccountByRiotID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/riot/account/v1/accounts/by-riot-id/Tester/NA1", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-Riot-Token"))
		_ = json.NewEncoder(w).Encode(Account{PUUID: "puuid-1", GameName: "Tester", TagLine: "NA1"})
	}))
	defer srv.Close()

	account, err := newTestClient(srv).AccountByRiotID(context.Background(), "Tester", "NA1")
	require.NoError(t, err)
	require.Equal(t, "puuid-1", account.PUUID)
}

func TestAccountByRiotIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).AccountByRiotID(context.Background(), "Ghost", "NA1")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestThrottledResponseCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).MatchIDsByPUUID(context.Background(), "puuid-1", 0, 100, time.Time{})
	te, ok := core.AsThrottled(err)
	require.True(t, ok)
	require.Equal(t, 17*time.Second, te.RetryAfter)
}

func TestMatchIDsByPUUIDQuery(t *testing.T) {
	startTime := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "100", q.Get("start"))
		require.Equal(t, "50", q.Get("count"))
		require.Equal(t, "1746057600", q.Get("startTime"))
		_ = json.NewEncoder(w).Encode([]string{"NA1_1", "NA1_2"})
	}))
	defer srv.Close()

	ids, err := newTestClient(srv).MatchIDsByPUUID(context.Background(), "puuid-1", 100, 50, startTime)
	require.NoError(t, err)
	require.Equal(t, []string{"NA1_1", "NA1_2"}, ids)
}

func TestMatchByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/lol/match/v5/matches/NA1_42", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"metadata": {"matchId": "NA1_42"},
			"info": {"queueId": 420, "gameDuration": 1800, "participants": [
				{"puuid": "puuid-1", "championName": "Ahri", "win": true, "kills": 7}
			]}
		}`))
	}))
	defer srv.Close()

	match, err := newTestClient(srv).MatchByID(context.Background(), "NA1_42")
	require.NoError(t, err)
	require.Equal(t, "NA1_42", match.Metadata.MatchID)
	require.Equal(t, core.QueueRankedSolo, match.Info.QueueID)
	p := match.ParticipantByPUUID("puuid-1")
	require.NotNil(t, p)
	require.Equal(t, 7, p.Kills)
}

func TestRequestsAreRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	for i := 0; i < 3; i++ {
		_, err := c.MatchIDsByPUUID(context.Background(), "puuid-1", 0, 100, time.Time{})
		require.NoError(t, err)
	}
	require.Equal(t, 3, c.Limiter.Stats().LastSecond)
}

func TestUnexpectedStatusSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":{"message":"maintenance"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).SummonerByPUUID(context.Background(), "puuid-1")
	require.ErrorContains(t, err, "503")
	require.ErrorContains(t, err, "maintenance")
}
