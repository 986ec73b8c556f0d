// Package oddsapi implements the client for The Odds API, including the
// rate-limit retry policy used by the arbitrage pipelines.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/arb-scout/internal/config"
	"github.com/yourusername/arb-scout/internal/metrics"
	"github.com/yourusername/arb-scout/internal/models"
)

// Client talks to The Odds API. All requests authenticate via the apiKey
// query parameter and pass through a local rate limiter before hitting the
// upstream, which enforces its own global budget with 429 responses.
type Client struct {
	retry      *retryablehttp.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	region     string
	oddsFormat string
	sports     *config.SportsConfig
	logger     *logrus.Logger

	// backoffUnit is one "second" of backoff wait. Tests shrink it so retry
	// sequences complete quickly.
	backoffUnit time.Duration
}

// NewClient creates an odds API client from configuration.
func NewClient(cfg *config.OddsAPIConfig, sports *config.SportsConfig, logger *logrus.Logger) *Client {
	c := &Client{
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), 1),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		region:      cfg.Region,
		oddsFormat:  cfg.OddsFormat,
		sports:      sports,
		logger:      logger,
		backoffUnit: time.Second,
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.CheckRetry = rateLimitRetryPolicy()
	retryClient.Backoff = c.rateLimitBackoff
	// Hand the final 429 response back instead of swallowing it so the
	// caller sees a typed status error.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	c.retry = retryClient

	return c
}

// FetchUpcomingGames fetches the moneyline market for every upcoming event of
// a sport. The sport key may be a user-facing alias. Any non-success response
// propagates to the caller; a 429 only surfaces after the retry budget is
// exhausted.
func (c *Client) FetchUpcomingGames(ctx context.Context, sportKey string) ([]RawEvent, error) {
	sport := c.sports.ResolveSportKey(sportKey)

	var events []RawEvent
	path := fmt.Sprintf("/sports/%s/odds", sport)
	if err := c.getJSON(ctx, path, []string{models.MarketMoneyline}, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// FetchEventProps fetches prop markets for a single event. An empty market
// list short-circuits without issuing a request. A final request failure is
// tolerated per event: it returns a nil payload and an error count of one
// rather than propagating.
func (c *Client) FetchEventProps(ctx context.Context, sportKey, eventID string, markets []string) (*RawEventOdds, int) {
	if len(markets) == 0 {
		return nil, 0
	}

	sport := c.sports.ResolveSportKey(sportKey)
	path := fmt.Sprintf("/sports/%s/events/%s/odds", sport, eventID)

	var payload RawEventOdds
	if err := c.getJSON(ctx, path, markets, &payload); err != nil {
		metrics.PropFetchErrorsTotal.Inc()
		c.logger.WithError(err).WithFields(logrus.Fields{
			"sport":    sport,
			"event_id": eventID,
		}).Warn("Skipping props for event after request failure")
		return nil, 1
	}
	return &payload, 0
}

// getJSON performs one authenticated GET against the odds API and decodes the
// JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, markets []string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("apiKey", c.apiKey)
	q.Set("regions", c.region)
	q.Set("markets", strings.Join(markets, ","))
	q.Set("oddsFormat", c.oddsFormat)
	req.URL.RawQuery = q.Encode()

	start := time.Now()
	resp, err := c.retry.Do(req)
	metrics.UpstreamRequestDuration.Observe(time.Since(start).Seconds())
	metrics.UpstreamRequestsTotal.Inc()
	if err != nil {
		return fmt.Errorf("odds api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &RequestError{StatusCode: resp.StatusCode, Path: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode odds api response: %w", err)
	}
	return nil
}

// rateLimitRetryPolicy retries 429 responses only. Every other status and any
// transport error propagates immediately.
func rateLimitRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return false, err
		}
		return resp.StatusCode == http.StatusTooManyRequests, nil
	}
}

// rateLimitBackoff waits Retry-After seconds when the 429 carries a usable
// header, otherwise 2^attempt backoff units (attempt starting at 0).
func (c *Client) rateLimitBackoff(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil {
		if header := resp.Header.Get("Retry-After"); header != "" {
			if secs, err := strconv.ParseFloat(header, 64); err == nil && secs > 0 {
				return time.Duration(secs * float64(c.backoffUnit))
			}
		}
	}
	return time.Duration(1<<uint(attemptNum)) * c.backoffUnit
}
