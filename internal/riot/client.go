// Package riot talks to the Riot account, summoner, league and match-v5
// APIs. All requests flow through the shared Riot governor.
package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/riftrewind/riftrewind/internal/core"
	"github.com/riftrewind/riftrewind/internal/core/engine"
)

const (
	// Americas routing serves NA account and match data; platform routing
	// serves summoner and league data.
	DefaultRegionBaseURL   = "https://americas.api.riotgames.com"
	DefaultPlatformBaseURL = "https://na1.api.riotgames.com"

	defaultTimeout = 30 * time.Second
)

// Client is a rate-governed Riot API client.
type Client struct {
	Client  *http.Client
	Limiter *engine.RiotLimiter
	APIKey  string

	RegionBaseURL   string
	PlatformBaseURL string

	Clock func() time.Time
}

// Account is the account-v1 response.
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// Summoner is the summoner-v4 response subset the profile needs.
type Summoner struct {
	ProfileIconID int `json:"profileIconId"`
	SummonerLevel int `json:"summonerLevel"`
}

// LeagueEntry is one queue standing from league-v4.
type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

// QueueRankedSolo5x5 is the league queue carrying the profile rank snapshot.
const QueueRankedSolo5x5 = "RANKED_SOLO_5x5"

// AccountByRiotID resolves a Riot ID to an account. An unknown Riot ID
// returns core.ErrNotFound.
func (c *Client) AccountByRiotID(ctx context.Context, gameName, tagLine string) (*Account, error) {
	gameName = strings.TrimSpace(gameName)
	tagLine = strings.TrimSpace(tagLine)
	if gameName == "" || tagLine == "" {
		return nil, errors.New("riot id requires game name and tag line")
	}

	path := "/riot/account/v1/accounts/by-riot-id/" +
		url.PathEscape(gameName) + "/" + url.PathEscape(tagLine)

	var account Account
	if err := c.get(ctx, c.regionBaseURL()+path, "account", &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// SummonerByPUUID fetches summoner level and icon for a player.
func (c *Client) SummonerByPUUID(ctx context.Context, puuid string) (*Summoner, error) {
	if strings.TrimSpace(puuid) == "" {
		return nil, errors.New("puuid is required")
	}

	path := "/lol/summoner/v4/summoners/by-puuid/" + url.PathEscape(puuid)

	var summoner Summoner
	if err := c.get(ctx, c.platformBaseURL()+path, "summoner", &summoner); err != nil {
		return nil, err
	}
	return &summoner, nil
}

// LeagueEntriesByPUUID fetches the player's current queue standings.
func (c *Client) LeagueEntriesByPUUID(ctx context.Context, puuid string) ([]LeagueEntry, error) {
	if strings.TrimSpace(puuid) == "" {
		return nil, errors.New("puuid is required")
	}

	path := "/lol/league/v4/entries/by-puuid/" + url.PathEscape(puuid)

	var entries []LeagueEntry
	if err := c.get(ctx, c.platformBaseURL()+path, "league", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// MatchIDsByPUUID pages the player's match history, newest first. A zero
// startTime omits the lower bound.
func (c *Client) MatchIDsByPUUID(ctx context.Context, puuid string, start, count int, startTime time.Time) ([]string, error) {
	if strings.TrimSpace(puuid) == "" {
		return nil, errors.New("puuid is required")
	}

	query := url.Values{}
	query.Set("start", strconv.Itoa(start))
	query.Set("count", strconv.Itoa(count))
	if !startTime.IsZero() {
		query.Set("startTime", strconv.FormatInt(startTime.Unix(), 10))
	}

	reqURL := c.regionBaseURL() + "/lol/match/v5/matches/by-puuid/" +
		url.PathEscape(puuid) + "/ids?" + query.Encode()

	var ids []string
	if err := c.get(ctx, reqURL, "match-ids", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// MatchByID fetches one full match payload.
func (c *Client) MatchByID(ctx context.Context, matchID string) (*core.Match, error) {
	if strings.TrimSpace(matchID) == "" {
		return nil, errors.New("match id is required")
	}

	reqURL := c.regionBaseURL() + "/lol/match/v5/matches/" + url.PathEscape(matchID)

	var match core.Match
	if err := c.get(ctx, reqURL, "match", &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// get performs one governed GET and decodes the 200 body into out. 404 maps
// to core.ErrNotFound and 429 to core.ThrottledError with the server's
// Retry-After; admission happens before the request, recording after it was
// actually issued.
func (c *Client) get(ctx context.Context, reqURL, endpoint string, out any) error {
	if c == nil {
		return errors.New("riot client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := c.Limiter.Admit(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Riot-Token", c.APIKey)
	req.Header.Set("Accept", "application/json")

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := client.Do(req)
	c.Limiter.Record()
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", endpoint, err)
		}
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", endpoint, core.ErrNotFound)
	case http.StatusTooManyRequests:
		return &core.ThrottledError{
			Endpoint:   endpoint,
			RetryAfter: retryAfterHeader(resp),
		}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: unexpected status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

func retryAfterHeader(resp *http.Response) time.Duration {
	raw := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (c *Client) regionBaseURL() string {
	if c != nil && strings.TrimSpace(c.RegionBaseURL) != "" {
		return strings.TrimRight(c.RegionBaseURL, "/")
	}
	return DefaultRegionBaseURL
}

func (c *Client) platformBaseURL() string {
	if c != nil && strings.TrimSpace(c.PlatformBaseURL) != "" {
		return strings.TrimRight(c.PlatformBaseURL, "/")
	}
	return DefaultPlatformBaseURL
}

func (c *Client) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
