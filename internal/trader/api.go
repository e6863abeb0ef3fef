package trader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"alpha-roller-go/internal/page"
	"alpha-roller-go/internal/store"
	"go.uber.org/zap"
)

// APIServer exposes the engine's command surface over HTTP.
type APIServer struct {
	server *http.Server
	engine *Engine
	store  *store.Store
	logger *zap.Logger
}

// NewAPIServer creates the control API on the configured port.
func NewAPIServer(engine *Engine, st *store.Store, logger *zap.Logger) *APIServer {
	s := &APIServer{
		engine: engine,
		store:  st,
		logger: logger.Named("api-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/logs", s.logsHandler)
	mux.HandleFunc("/roundtrip", s.roundTripHandler)
	mux.HandleFunc("/campaign", s.campaignHandler)
	mux.HandleFunc("/dryrun", s.dryRunHandler)
	mux.HandleFunc("/autotrading", s.autoTradingHandler)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", engine.cfg.Server.Port),
		Handler: mux,
	}
	return s
}

// Start runs the HTTP server in a new goroutine.
func (s *APIServer) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *APIServer) Handler() http.Handler { return s.server.Handler }

func (s *APIServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *APIServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := s.store.DryRunEnabled()
	autoTrading, _ := s.store.AutoTradingEnabled()

	var contract *page.Contract
	if sess := s.engine.Session(); sess != nil {
		contract = sess.Contract
	}
	last := s.engine.LastPrice()

	status := struct {
		StartTime      string         `json:"start_time"`
		Uptime         string         `json:"uptime"`
		Contract       *page.Contract `json:"contract,omitempty"`
		LastPrice      float64        `json:"last_price,omitempty"`
		LastPriceAsOf  string         `json:"last_price_as_of,omitempty"`
		DryRun         bool           `json:"dry_run"`
		AutoTrading    bool           `json:"auto_trading"`
		CampaignActive bool           `json:"campaign_active"`
		Symbols        []string       `json:"symbols,omitempty"`
	}{
		StartTime:      s.engine.StartTime.Format(time.RFC3339),
		Uptime:         time.Since(s.engine.StartTime).String(),
		Contract:       contract,
		LastPrice:      last.Value,
		DryRun:         dryRun,
		AutoTrading:    autoTrading,
		CampaignActive: s.engine.CampaignActive(),
		Symbols:        s.engine.DetectedSymbols(),
	}
	if !last.AsOf.IsZero() {
		status.LastPriceAsOf = last.AsOf.Format(time.RFC3339)
	}

	s.writeJSON(w, http.StatusOK, status)
}

func (s *APIServer) logsHandler(w http.ResponseWriter, r *http.Request) {
	logs, err := s.store.RecentOperationLogs()
	if err != nil {
		s.logger.Error("Failed to read operation logs", zap.Error(err))
		http.Error(w, "failed to read logs", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, logs)
}

func (s *APIServer) roundTripHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	result, err := s.engine.StartRoundTrip(r.Context())
	if errors.Is(err, ErrCampaignActive) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		s.logger.Error("Round trip failed to start", zap.Error(err))
		http.Error(w, "round trip failed to start", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *APIServer) campaignHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PerRoundAmount float64 `json:"perRoundAmount"`
		TargetAmount   float64 `json:"targetAmount"`
	}
	if r.Body != nil {
		// An empty body means "use stored amounts".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if s.engine.CampaignActive() {
		http.Error(w, ErrCampaignActive.Error(), http.StatusConflict)
		return
	}

	// Campaigns run for minutes; report acceptance and let the result
	// land in the logs and notifications.
	go func() {
		if _, err := s.engine.StartCampaign(context.Background(), req.PerRoundAmount, req.TargetAmount); err != nil {
			s.logger.Warn("Campaign did not start", zap.Error(err))
		}
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]bool{"started": true})
}

func (s *APIServer) dryRunHandler(w http.ResponseWriter, r *http.Request) {
	s.toggleHandler(w, r, s.engine.SetDryRun)
}

func (s *APIServer) autoTradingHandler(w http.ResponseWriter, r *http.Request) {
	s.toggleHandler(w, r, s.engine.SetAutoTrading)
}

func (s *APIServer) toggleHandler(w http.ResponseWriter, r *http.Request, set func(bool) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := set(req.Enabled); err != nil {
		s.logger.Error("Failed to persist toggle", zap.Error(err))
		http.Error(w, "failed to persist setting", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
