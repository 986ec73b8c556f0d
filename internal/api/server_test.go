package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/arb-scout/internal/config"
	"github.com/yourusername/arb-scout/internal/models"
	"github.com/yourusername/arb-scout/internal/service"
)

type fakeRepo struct {
	moneyline []models.OpportunityRow
	props     []models.OpportunityRow
	err       error

	listCalls int
	gotProfit float64
}

func (r *fakeRepo) UpsertMoneyline(ctx context.Context, rows []models.OpportunityRow) error {
	return r.err
}

func (r *fakeRepo) UpsertProps(ctx context.Context, rows []models.OpportunityRow) error {
	return r.err
}

func (r *fakeRepo) ListMoneyline(ctx context.Context, minProfit float64) ([]models.OpportunityRow, error) {
	r.listCalls++
	r.gotProfit = minProfit
	return r.moneyline, r.err
}

func (r *fakeRepo) ListProps(ctx context.Context, minProfit float64) ([]models.OpportunityRow, error) {
	r.listCalls++
	r.gotProfit = minProfit
	return r.props, r.err
}

type fakeRunner struct {
	gotSport string
	gotMode  string
	err      error
}

func (r *fakeRunner) Run(ctx context.Context, sportKey, mode string) (*service.RunSummary, error) {
	r.gotSport = sportKey
	r.gotMode = mode
	if r.err != nil {
		return nil, r.err
	}
	return &service.RunSummary{SportKey: sportKey, Mode: mode}, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestServer(repo *fakeRepo, runner *fakeRunner, token string) *Server {
	cfg := &config.ServerConfig{Port: 8000, TriggerToken: token, CacheTTLSeconds: 30}
	return NewServer(cfg, repo, runner, nil, testLogger())
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func triggerReq(body string, token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/arbitrage/fetch", bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestHandleRoot(t *testing.T) {
	s := newTestServer(&fakeRepo{}, &fakeRunner{}, "secret")

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Arbitrage API is Healthy", body["status"])
}

func TestHandleRootUnknownPath(t *testing.T) {
	s := newTestServer(&fakeRepo{}, &fakeRunner{}, "secret")

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleMoneyline(t *testing.T) {
	repo := &fakeRepo{
		moneyline: []models.OpportunityRow{
			{Opportunity: models.Opportunity{GameID: "evt-1", MarketType: models.MarketMoneyline, ProfitPercent: 14.545}},
			{Opportunity: models.Opportunity{GameID: "evt-2", MarketType: models.MarketMoneyline, ProfitPercent: 3.2}},
		},
	}
	s := newTestServer(repo, &fakeRunner{}, "secret")

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/arbitrage/moneyline?min_profit=3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, repo.gotProfit)

	var rows []models.OpportunityRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "evt-1", rows[0].GameID)
}

func TestHandleMoneylineCachesResponses(t *testing.T) {
	repo := &fakeRepo{}
	s := newTestServer(repo, &fakeRunner{}, "secret")

	for i := 0; i < 3; i++ {
		rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/arbitrage/moneyline", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, repo.listCalls)
}

func TestHandleListBadMinProfit(t *testing.T) {
	s := newTestServer(&fakeRepo{}, &fakeRunner{}, "secret")

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/arbitrage/props?min_profit=lots", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListRepoFailure(t *testing.T) {
	s := newTestServer(&fakeRepo{err: errors.New("db down")}, &fakeRunner{}, "secret")

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/arbitrage/props", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleFetch(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(&fakeRepo{}, runner, "secret")

	rec := doRequest(s, triggerReq(`{"sport":"nba","market":"all"}`, "secret"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nba", runner.gotSport)
	assert.Equal(t, service.ModeAll, runner.gotMode)

	var summary service.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "nba", summary.SportKey)
}

func TestHandleFetchMarketSelection(t *testing.T) {
	tests := []struct {
		name     string
		market   string
		wantMode string
	}{
		{name: "moneyline", market: "moneyline", wantMode: service.ModeMoneyline},
		{name: "prop singular", market: "prop", wantMode: service.ModeProps},
		{name: "props plural", market: "props", wantMode: service.ModeProps},
		{name: "all", market: "all", wantMode: service.ModeAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			s := newTestServer(&fakeRepo{}, runner, "secret")

			rec := doRequest(s, triggerReq(`{"sport":"nba","market":"`+tt.market+`"}`, "secret"))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantMode, runner.gotMode)
		})
	}
}

func TestHandleFetchAuthentication(t *testing.T) {
	tests := []struct {
		name        string
		configToken string
		header      string
		wantCode    int
	}{
		{
			name:        "valid token",
			configToken: "secret",
			header:      "Bearer secret",
			wantCode:    http.StatusOK,
		},
		{
			name:        "missing header",
			configToken: "secret",
			header:      "",
			wantCode:    http.StatusUnauthorized,
		},
		{
			name:        "wrong token",
			configToken: "secret",
			header:      "Bearer nope",
			wantCode:    http.StatusUnauthorized,
		},
		{
			name:        "wrong scheme",
			configToken: "secret",
			header:      "Basic secret",
			wantCode:    http.StatusUnauthorized,
		},
		{
			name:        "empty bearer token",
			configToken: "secret",
			header:      "Bearer ",
			wantCode:    http.StatusUnauthorized,
		},
		{
			name:        "unset config token disables trigger",
			configToken: "",
			header:      "Bearer anything",
			wantCode:    http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeRepo{}, &fakeRunner{}, tt.configToken)

			req := httptest.NewRequest(http.MethodPost, "/arbitrage/fetch", bytes.NewBufferString(`{"sport":"nba","market":"all"}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := doRequest(s, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHandleFetchValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing sport", body: `{"market":"all"}`},
		{name: "missing market", body: `{"sport":"nba"}`},
		{name: "unknown market", body: `{"sport":"nba","market":"spreads"}`},
		{name: "malformed json", body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeRepo{}, &fakeRunner{}, "secret")

			rec := doRequest(s, triggerReq(tt.body, "secret"))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleFetchPipelineFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("upstream down")}
	s := newTestServer(&fakeRepo{}, runner, "secret")

	rec := doRequest(s, triggerReq(`{"sport":"nba","market":"all"}`, "secret"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleFetchMethodNotAllowed(t *testing.T) {
	s := newTestServer(&fakeRepo{}, &fakeRunner{}, "secret")

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/arbitrage/fetch", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleFetchFlushesReadCache(t *testing.T) {
	repo := &fakeRepo{}
	s := newTestServer(repo, &fakeRunner{}, "secret")

	doRequest(s, httptest.NewRequest(http.MethodGet, "/arbitrage/moneyline", nil))
	assert.Equal(t, 1, repo.listCalls)

	rec := doRequest(s, triggerReq(`{"sport":"nba","market":"moneyline"}`, "secret"))
	require.Equal(t, http.StatusOK, rec.Code)

	doRequest(s, httptest.NewRequest(http.MethodGet, "/arbitrage/moneyline", nil))
	assert.Equal(t, 2, repo.listCalls)
}
