package trader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"alpha-roller-go/internal/config"
	"alpha-roller-go/internal/dom"
	"alpha-roller-go/internal/notify"
	"alpha-roller-go/internal/page"
	"alpha-roller-go/internal/store"
	"go.uber.org/zap"
)

// ErrCampaignActive is returned when a start command overlaps a running
// campaign; only one may be active per engine.
var ErrCampaignActive = errors.New("a campaign is already active")

// priceWatchInterval paces the passive display-cache poll. The watcher
// shares nothing with the pipeline beyond read-only snapshots.
const priceWatchInterval = 1500 * time.Millisecond

// Engine owns the session lifecycle and drives detection and trading.
type Engine struct {
	logger   *zap.Logger
	cfg      *config.Config
	doc      dom.Document
	reader   *page.Reader
	orch     *Orchestrator
	store    *store.Store
	notifier notify.Notifier

	StartTime time.Time

	mu        sync.RWMutex
	session   *Session
	lastPrice page.PriceSample
	symbols   []string

	active atomic.Bool // re-entrancy guard for campaigns and rounds
}

// NewEngine creates the engine.
func NewEngine(logger *zap.Logger, cfg *config.Config, doc dom.Document, reader *page.Reader, orch *Orchestrator, st *store.Store, notifier notify.Notifier) *Engine {
	return &Engine{
		logger:    logger.Named("engine"),
		cfg:       cfg,
		doc:       doc,
		reader:    reader,
		orch:      orch,
		store:     st,
		notifier:  notifier,
		StartTime: time.Now(),
	}
}

// Run drives the periodic page scan and the passive price watcher until
// ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	scanInterval := time.Duration(e.cfg.Trading.ScanIntervalMs) * time.Millisecond
	if scanInterval <= 0 {
		scanInterval = 5 * time.Second
	}

	e.logger.Info("Starting engine.", zap.Duration("scan_interval", scanInterval))
	e.scanTick(ctx)

	scan := time.NewTicker(scanInterval)
	defer scan.Stop()
	watch := time.NewTicker(priceWatchInterval)
	defer watch.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping engine.")
			return
		case <-scan.C:
			e.scanTick(ctx)
		case <-watch.C:
			if sample, ok := e.reader.CurrentPrice(); ok {
				e.mu.Lock()
				e.lastPrice = sample
				e.mu.Unlock()
			}
		}
	}
}

// scanTick maintains the session from the page URL, records detected
// symbols, and auto-triggers a round trip when configured to.
func (e *Engine) scanTick(ctx context.Context) {
	contract, onPage := page.DetectContract(e.doc.URL())

	e.mu.Lock()
	prev := e.session
	var detected *Session
	switch {
	case !onPage && prev != nil:
		e.session = nil
	case onPage && (prev == nil || prev.Contract.PageURL != contract.PageURL):
		detected = NewSession(contract)
		e.session = detected
	}
	e.mu.Unlock()

	if !onPage {
		if prev != nil {
			e.logger.Info("Left instrument page, session cleared.")
			if err := e.store.Remove(store.KeyCurrentAlpha); err != nil {
				e.logger.Warn("Failed to clear current instrument", zap.Error(err))
			}
		}
		return
	}

	if detected != nil {
		e.logger.Info("Detected instrument page.",
			zap.String("chain", contract.Chain),
			zap.String("address", contract.Address))
		e.persistJSON(store.KeyCurrentAlpha, contract)
		e.notifier.Publish(notify.Event{
			Action:    notify.ActionAlphaPageDetected,
			Contract:  contract,
			Timestamp: time.Now(),
		})

		if auto, _ := e.store.AutoTradingEnabled(); auto {
			go e.autoRoundTrip(ctx)
		}
	}

	e.scanSymbols(contract)
}

// autoRoundTrip gives the page a load grace period, then runs one round
// trip if nothing else is active.
func (e *Engine) autoRoundTrip(ctx context.Context) {
	grace := time.Duration(e.cfg.Venue.AutoCommitDelayMs) * time.Millisecond
	if !dom.Sleep(ctx, grace) {
		return
	}
	if _, err := e.StartRoundTrip(ctx); err != nil {
		e.logger.Debug("Auto-triggered round trip not started", zap.Error(err))
	}
}

func (e *Engine) scanSymbols(contract *page.Contract) {
	symbols := page.ScanSymbols(e.doc)
	if len(symbols) == 0 {
		return
	}

	e.mu.Lock()
	changed := !reflect.DeepEqual(e.symbols, symbols)
	if changed {
		e.symbols = symbols
	}
	e.mu.Unlock()

	if !changed {
		return
	}
	e.persistJSON(store.KeyDetectedSymbols, symbols)
	e.notifier.Publish(notify.Event{
		Action:    notify.ActionSymbolsUpdated,
		Contract:  contract,
		Symbols:   symbols,
		Timestamp: time.Now(),
	})
}

func (e *Engine) persistJSON(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		e.logger.Warn("Failed to encode setting", zap.String("key", key), zap.Error(err))
		return
	}
	if err := e.store.Set(key, string(raw)); err != nil {
		e.logger.Warn("Failed to persist setting", zap.String("key", key), zap.Error(err))
	}
}

// Session returns the current session snapshot, nil off-page.
func (e *Engine) Session() *Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session
}

// LastPrice returns the display-cache price snapshot.
func (e *Engine) LastPrice() page.PriceSample {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastPrice
}

// DetectedSymbols returns the most recent symbol scan.
func (e *Engine) DetectedSymbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.symbols))
	copy(out, e.symbols)
	return out
}

// CampaignActive reports whether a campaign or round trip is running.
func (e *Engine) CampaignActive() bool { return e.active.Load() }

// roundSettings assembles the per-run knobs from the settings store and
// static config. Store values win so UI toggles take effect live.
func (e *Engine) roundSettings() (perRound, target float64, dryRun bool, err error) {
	perRound, err = e.store.UsdtAmount()
	if err != nil {
		return 0, 0, false, err
	}
	target, err = e.store.TargetUsdtAmount()
	if err != nil {
		return 0, 0, false, err
	}
	dryRun, err = e.store.DryRunEnabled()
	if err != nil {
		return 0, 0, false, err
	}
	return perRound, target, dryRun, nil
}

// StartRoundTrip runs one round trip with the stored per-round amount.
func (e *Engine) StartRoundTrip(ctx context.Context) (RoundResult, error) {
	if !e.active.CompareAndSwap(false, true) {
		return RoundResult{}, ErrCampaignActive
	}
	defer e.active.Store(false)

	perRound, _, dryRun, err := e.roundSettings()
	if err != nil {
		return RoundResult{}, fmt.Errorf("could not read trading settings: %w", err)
	}

	return e.orch.RunRoundTrip(ctx, e.Session(), RoundRequest{
		AmountUsd:        perRound,
		Round:            1,
		CumulativeBefore: 0,
		DryRun:           dryRun,
		BuyEnabled:       e.cfg.Trading.BuyEnabled,
		SellEnabled:      e.cfg.Trading.SellEnabled,
		InterLegDelay:    time.Duration(e.cfg.Trading.InterLegDelayMs) * time.Millisecond,
	}), nil
}

// StartCampaign runs round trips toward a cumulative target. Zero
// arguments fall back to the stored amounts. Only one campaign may be
// active at a time.
func (e *Engine) StartCampaign(ctx context.Context, perRound, target float64) (CampaignResult, error) {
	if !e.active.CompareAndSwap(false, true) {
		return CampaignResult{}, ErrCampaignActive
	}
	defer e.active.Store(false)

	storedPer, storedTarget, dryRun, err := e.roundSettings()
	if err != nil {
		return CampaignResult{}, fmt.Errorf("could not read trading settings: %w", err)
	}
	if perRound <= 0 {
		perRound = storedPer
	}
	if target <= 0 {
		target = storedTarget
	}

	return e.orch.RunCampaign(ctx, e.Session(), CampaignConfig{
		PerRoundAmount:  perRound,
		TargetAmount:    target,
		MaxRounds:       e.cfg.Trading.MaxRounds,
		DryRun:          dryRun,
		BuyEnabled:      e.cfg.Trading.BuyEnabled,
		SellEnabled:     e.cfg.Trading.SellEnabled,
		InterLegDelay:   time.Duration(e.cfg.Trading.InterLegDelayMs) * time.Millisecond,
		InterRoundDelay: time.Duration(e.cfg.Trading.InterRoundDelayMs) * time.Millisecond,
	}), nil
}

// SetDryRun toggles simulation mode.
func (e *Engine) SetDryRun(enabled bool) error {
	return e.store.SetDryRunEnabled(enabled)
}

// SetAutoTrading toggles the page-detection trigger.
func (e *Engine) SetAutoTrading(enabled bool) error {
	return e.store.SetAutoTradingEnabled(enabled)
}
