// Package api provides the HTTP surface of the arbitrage scout: read
// endpoints over stored opportunities, the authenticated pipeline trigger
// and a websocket feed of freshly stored rows.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-scout/internal/config"
	"github.com/yourusername/arb-scout/internal/models"
	"github.com/yourusername/arb-scout/internal/repository"
	"github.com/yourusername/arb-scout/internal/service"
)

// PipelineRunner dispatches a pipeline run for a sport and mode.
type PipelineRunner interface {
	Run(ctx context.Context, sportKey, mode string) (*service.RunSummary, error)
}

// Server serves the arbitrage read and trigger endpoints.
type Server struct {
	cfg    *config.ServerConfig
	repo   repository.OpportunityRepository
	runner PipelineRunner
	hub    *Hub
	cache  *cache.Cache
	logger *logrus.Logger
	server *http.Server
}

// NewServer creates a new API server. hub may be nil to disable the
// websocket feed.
func NewServer(
	cfg *config.ServerConfig,
	repo repository.OpportunityRepository,
	runner PipelineRunner,
	hub *Hub,
	logger *logrus.Logger,
) *Server {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &Server{
		cfg:    cfg,
		repo:   repo,
		runner: runner,
		hub:    hub,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// triggerRequest is the body of POST /arbitrage/fetch.
type triggerRequest struct {
	Sport  string `json:"sport"`
	Market string `json:"market"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Start starts the API server in the background and shuts it down when the
// context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", s.cfg.Port),
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		s.logger.WithField("port", s.cfg.Port).Info("API server starting")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("API server error")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("API server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Handler returns the server's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/arbitrage/moneyline", s.handleMoneyline)
	mux.HandleFunc("/arbitrage/props", s.handleProps)
	mux.HandleFunc("/arbitrage/fetch", s.handleFetch)
	if s.hub != nil {
		mux.HandleFunc("/ws/opportunities", s.hub.HandleWS)
	}
	return mux
}

// handleRoot is a lightweight health check.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Arbitrage API is Healthy"})
}

// handleMoneyline returns stored moneyline rows at or above min_profit,
// sorted by descending profit.
func (s *Server) handleMoneyline(w http.ResponseWriter, r *http.Request) {
	s.handleList(w, r, "moneyline", s.repo.ListMoneyline)
}

// handleProps returns stored prop rows at or above min_profit, sorted by
// descending profit.
func (s *Server) handleProps(w http.ResponseWriter, r *http.Request) {
	s.handleList(w, r, "props", s.repo.ListProps)
}

func (s *Server) handleList(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	list func(ctx context.Context, minProfit float64) ([]models.OpportunityRow, error),
) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	minProfit, err := parseMinProfit(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	cacheKey := fmt.Sprintf("%s:%v", name, minProfit)
	if cached, found := s.cache.Get(cacheKey); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	rows, err := list(r.Context(), minProfit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list opportunities")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list opportunities"})
		return
	}

	s.cache.SetDefault(cacheKey, rows)
	writeJSON(w, http.StatusOK, rows)
}

// handleFetch authenticates the caller and runs the selected pipeline for
// the sport in the request body.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	if err := s.authenticate(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: models.ErrInvalidRequest.Error()})
		return
	}
	if req.Sport == "" || req.Market == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: models.ErrInvalidRequest.Error()})
		return
	}

	mode, err := resolveMode(req.Market)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	summary, err := s.runner.Run(r.Context(), req.Sport, mode)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"sport": req.Sport,
			"mode":  mode,
		}).Error("Triggered pipeline run failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "pipeline run failed"})
		return
	}

	// Stored rows changed; drop stale read responses.
	s.cache.Flush()

	writeJSON(w, http.StatusOK, summary)
}

// authenticate validates the bearer credential against the configured
// trigger token. An unset token disables the trigger endpoint entirely.
func (s *Server) authenticate(r *http.Request) error {
	token, err := extractBearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return err
	}

	if s.cfg.TriggerToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.TriggerToken)) != 1 {
		return models.ErrUnauthorized
	}
	return nil
}

// extractBearerToken pulls the token out of an Authorization header.
func extractBearerToken(authorization string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authorization, prefix) {
		return "", models.ErrUnauthorized
	}

	token := strings.TrimPrefix(authorization, prefix)
	if token == "" {
		return "", models.ErrUnauthorized
	}
	return token, nil
}

// resolveMode maps the request's market selection to a pipeline mode.
func resolveMode(market string) (string, error) {
	switch market {
	case "moneyline":
		return service.ModeMoneyline, nil
	case "prop", "props":
		return service.ModeProps, nil
	case "all":
		return service.ModeAll, nil
	default:
		return "", fmt.Errorf("%w: %s", models.ErrUnknownMarket, market)
	}
}

func parseMinProfit(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("min_profit")
	if raw == "" {
		return 0, nil
	}

	minProfit, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid min_profit value %q", raw)
	}
	return minProfit, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
