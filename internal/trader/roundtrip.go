// Package trader sequences round trips and campaigns over the order
// executor, and hosts the engine and control API around them.
package trader

import (
	"context"
	"time"

	"alpha-roller-go/internal/dom"
	"alpha-roller-go/internal/executor"
	"alpha-roller-go/internal/notify"
	"alpha-roller-go/internal/page"
	"go.uber.org/zap"
)

// Session is the explicit per-page context passed into each
// orchestrator call. It is created when an instrument page is detected
// and replaced on navigation; the orchestrator never holds one.
type Session struct {
	Contract  *page.Contract
	StartedAt time.Time
}

// NewSession snapshots a detected contract.
func NewSession(contract *page.Contract) *Session {
	return &Session{Contract: contract, StartedAt: time.Now()}
}

// RoundRequest describes one round trip.
type RoundRequest struct {
	// AmountUsd is the sizing for this round, already capped by the
	// campaign at min(per-round amount, remaining-to-target).
	AmountUsd        float64
	Round            int // 1-based
	CumulativeBefore float64

	DryRun      bool
	BuyEnabled  bool
	SellEnabled bool

	// InterLegDelay lets the venue process the buy fill before the
	// sell leg starts.
	InterLegDelay time.Duration
}

// RoundResult reports one round. SellOutcome is nil when the sell leg
// was never attempted (failed buy, fail-fast precondition, or
// cancellation between legs).
type RoundResult struct {
	Round           int               `json:"round"`
	AmountUsd       float64           `json:"amountUsd"`
	CumulativeAfter float64           `json:"cumulativeAfter"`
	BuyOutcome      executor.Outcome  `json:"buyOutcome"`
	SellOutcome     *executor.Outcome `json:"sellOutcome,omitempty"`
}

// Succeeded reports whether the round completed, counting skipped legs
// as completed.
func (r RoundResult) Succeeded() bool {
	return r.BuyOutcome.Ok() && r.SellOutcome != nil && r.SellOutcome.Ok()
}

// Orchestrator runs single round trips: one buy leg, an inter-leg
// settle delay, one sell leg. Legs are strictly sequential.
type Orchestrator struct {
	reader   *page.Reader
	exec     *executor.Executor
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewOrchestrator wires the round-trip pipeline.
func NewOrchestrator(reader *page.Reader, exec *executor.Executor, notifier notify.Notifier, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		reader:   reader,
		exec:     exec,
		notifier: notifier,
		logger:   logger.Named("roundtrip"),
	}
}

// RunRoundTrip executes one buy followed by one sell. Preconditions
// fail fast; a failed buy stops the round and the sell leg is never
// attempted.
func (o *Orchestrator) RunRoundTrip(ctx context.Context, sess *Session, req RoundRequest) RoundResult {
	result := RoundResult{
		Round:           req.Round,
		AmountUsd:       req.AmountUsd,
		CumulativeAfter: req.CumulativeBefore,
	}

	if sess == nil || sess.Contract == nil {
		o.logger.Warn("No active instrument, aborting round.", zap.Int("round", req.Round))
		result.BuyOutcome = executor.Failed(executor.ReasonNoActiveInstrument)
		return result
	}
	if req.AmountUsd <= 0 {
		o.logger.Warn("Invalid round amount, aborting round.",
			zap.Int("round", req.Round), zap.Float64("amount_usd", req.AmountUsd))
		result.BuyOutcome = executor.Failed(executor.ReasonPriceUnavailable)
		return result
	}

	price, ok := o.reader.CurrentPrice()
	if !ok {
		o.logger.Warn("Unable to read price, aborting round.", zap.Int("round", req.Round))
		result.BuyOutcome = executor.Failed(executor.ReasonPriceUnavailable)
		return result
	}

	// Reporting estimate only; the sell leg re-derives its quantity
	// from live holdings.
	quantity := req.AmountUsd / price.Value
	cumulativeAfter := req.CumulativeBefore + req.AmountUsd

	l := o.logger.With(
		zap.Int("round", req.Round),
		zap.Float64("amount_usd", req.AmountUsd),
		zap.Float64("price", price.Value),
		zap.Bool("dry_run", req.DryRun),
	)
	l.Info("Starting round trip.")

	o.notifier.Publish(notify.Event{
		Action:           notify.ActionTransactionStarted,
		Contract:         sess.Contract,
		Price:            price.Value,
		UsdtAmount:       req.AmountUsd,
		Quantity:         quantity,
		DryRun:           req.DryRun,
		Round:            req.Round,
		CumulativeAmount: cumulativeAfter,
		Timestamp:        time.Now(),
	})

	result.BuyOutcome = o.exec.ExecuteLeg(ctx, executor.Request{
		Side:          executor.SideBuy,
		Contract:      sess.Contract,
		Price:         price.Value,
		AmountUSD:     req.AmountUsd,
		Quantity:      quantity,
		Round:         req.Round,
		CumulativeUSD: cumulativeAfter,
		DryRun:        req.DryRun,
		Enabled:       req.BuyEnabled,
	})
	if !result.BuyOutcome.Ok() {
		l.Warn("Buy leg failed, sell leg not attempted.",
			zap.String("outcome", result.BuyOutcome.String()))
		o.reportAttempt(sess, req, price.Value, quantity, result)
		return result
	}

	// Let the venue process the fill before sizing the sell.
	if !dom.Sleep(ctx, req.InterLegDelay) {
		out := executor.Failed(executor.ReasonCancelled)
		result.SellOutcome = &out
		o.reportAttempt(sess, req, price.Value, quantity, result)
		return result
	}

	// Price may have moved between legs; re-read, keep the buy sample
	// as a fallback.
	sellPrice := price.Value
	if fresh, ok := o.reader.CurrentPrice(); ok {
		sellPrice = fresh.Value
	}

	sell := o.exec.ExecuteLeg(ctx, executor.Request{
		Side:          executor.SideSell,
		Contract:      sess.Contract,
		Price:         sellPrice,
		AmountUSD:     req.AmountUsd,
		Quantity:      req.AmountUsd / sellPrice,
		Round:         req.Round,
		CumulativeUSD: cumulativeAfter,
		DryRun:        req.DryRun,
		Enabled:       req.SellEnabled,
	})
	result.SellOutcome = &sell

	if result.Succeeded() {
		result.CumulativeAfter = cumulativeAfter
		l.Info("Round trip complete.", zap.Float64("cumulative", cumulativeAfter))
	} else {
		l.Warn("Sell leg did not succeed.", zap.String("outcome", sell.String()))
	}
	o.reportAttempt(sess, req, sellPrice, quantity, result)
	return result
}

// reportAttempt announces that a round attempt has resolved, whatever
// the outcome. UI collaborators use it to refresh their displays.
func (o *Orchestrator) reportAttempt(sess *Session, req RoundRequest, price, quantity float64, result RoundResult) {
	o.notifier.Publish(notify.Event{
		Action:           notify.ActionTransactionAttempted,
		Contract:         sess.Contract,
		Price:            price,
		UsdtAmount:       req.AmountUsd,
		Quantity:         quantity,
		DryRun:           req.DryRun,
		Round:            req.Round,
		CumulativeAmount: result.CumulativeAfter,
		Timestamp:        time.Now(),
	})
}
