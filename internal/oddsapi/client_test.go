package oddsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/arb-scout/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestClient(t *testing.T, serverURL string, maxRetries int) *Client {
	t.Helper()

	cfg := &config.OddsAPIConfig{
		BaseURL:            serverURL,
		APIKey:             "test-key",
		Region:             "us",
		OddsFormat:         "american",
		TimeoutSeconds:     5,
		MaxRetries:         maxRetries,
		RateLimitPerSecond: 1000,
	}
	sports := config.DefaultSportsConfig()

	client := NewClient(cfg, &sports, testLogger())
	client.backoffUnit = time.Millisecond
	return client
}

func TestFetchUpcomingGames(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode([]RawEvent{
			{ID: "evt-1", HomeTeam: "Lakers", AwayTeam: "Celtics"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)

	events, err := client.FetchUpcomingGames(context.Background(), "nba")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-1", events[0].ID)

	// The alias resolves to the canonical sport key before hitting the API.
	assert.Equal(t, "/sports/basketball_nba/odds", gotPath)
	assert.Equal(t, "test-key", gotQuery.Get("apiKey"))
	assert.Equal(t, "us", gotQuery.Get("regions"))
	assert.Equal(t, "h2h", gotQuery.Get("markets"))
	assert.Equal(t, "american", gotQuery.Get("oddsFormat"))
}

func TestFetchUpcomingGamesRetriesRateLimit(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests <= 2 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode([]RawEvent{{ID: "evt-1"}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)

	events, err := client.FetchUpcomingGames(context.Background(), "basketball_nba")
	require.NoError(t, err)
	assert.Equal(t, 3, requests)
	require.Len(t, events, 1)
}

func TestFetchUpcomingGamesRateLimitExhaustsRetries(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)

	_, err := client.FetchUpcomingGames(context.Background(), "basketball_nba")
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	// Initial request plus two retries.
	assert.Equal(t, 3, requests)
}

func TestFetchUpcomingGamesServerErrorDoesNotRetry(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)

	_, err := client.FetchUpcomingGames(context.Background(), "basketball_nba")
	require.Error(t, err)
	assert.Equal(t, 1, requests)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.False(t, IsRateLimited(err))
}

func TestFetchEventProps(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(RawEventOdds{ID: "evt-1"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)

	payload, errCount := client.FetchEventProps(context.Background(), "nba", "evt-1", []string{"player_points", "player_assists"})
	assert.Zero(t, errCount)
	require.NotNil(t, payload)
	assert.Equal(t, "evt-1", payload.ID)
	assert.Equal(t, "player_points,player_assists", gotQuery.Get("markets"))
}

func TestFetchEventPropsEmptyMarketsSkipsRequest(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)

	payload, errCount := client.FetchEventProps(context.Background(), "nba", "evt-1", nil)
	assert.Nil(t, payload)
	assert.Zero(t, errCount)
	assert.Zero(t, requests)
}

func TestFetchEventPropsDowngradesFailureToCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)

	payload, errCount := client.FetchEventProps(context.Background(), "nba", "evt-missing", []string{"player_points"})
	assert.Nil(t, payload)
	assert.Equal(t, 1, errCount)
}

func TestRateLimitBackoff(t *testing.T) {
	client := newTestClient(t, "http://localhost", 3)

	resp429 := func(retryAfter string) *http.Response {
		resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
		if retryAfter != "" {
			resp.Header.Set("Retry-After", retryAfter)
		}
		return resp
	}

	tests := []struct {
		name    string
		attempt int
		resp    *http.Response
		want    time.Duration
	}{
		{
			name:    "first attempt without header",
			attempt: 0,
			resp:    resp429(""),
			want:    1 * time.Millisecond,
		},
		{
			name:    "third attempt without header",
			attempt: 2,
			resp:    resp429(""),
			want:    4 * time.Millisecond,
		},
		{
			name:    "retry-after header wins",
			attempt: 3,
			resp:    resp429("2"),
			want:    2 * time.Millisecond,
		},
		{
			name:    "fractional retry-after",
			attempt: 0,
			resp:    resp429("1.5"),
			want:    1500 * time.Microsecond,
		},
		{
			name:    "unparseable retry-after falls back to exponential",
			attempt: 1,
			resp:    resp429("soon"),
			want:    2 * time.Millisecond,
		},
		{
			name:    "non-positive retry-after falls back to exponential",
			attempt: 1,
			resp:    resp429("0"),
			want:    2 * time.Millisecond,
		},
		{
			name:    "nil response falls back to exponential",
			attempt: 2,
			resp:    nil,
			want:    4 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := client.rateLimitBackoff(time.Millisecond, time.Second, tt.attempt, tt.resp)
			assert.Equal(t, tt.want, got)
		})
	}
}
