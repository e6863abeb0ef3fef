// Package executor drives the buy and sell legs of a round trip against
// the venue page: tab activation, input fill, enabled-wait, click, and
// the optional confirmation dialog.
package executor

import (
	"context"
	"strings"
	"time"

	"alpha-roller-go/internal/dom"
	"alpha-roller-go/internal/models"
	"alpha-roller-go/internal/notify"
	"alpha-roller-go/internal/page"
	"go.uber.org/zap"
)

// Side is the leg being executed.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// quoteSymbol is the quote currency of every instrument the roller trades.
const quoteSymbol = "USDT"

// OperationLogSink receives the append-only trade log entries. The
// store owns the cap and ordering; the executor only appends.
type OperationLogSink interface {
	AppendOperationLog(entry models.OperationLog) error
}

// Request describes one leg to execute.
type Request struct {
	Side     Side
	Contract *page.Contract

	// Price is the leg-time price sample, re-read by the caller
	// immediately before each leg.
	Price float64

	// AmountUSD sizes the buy leg.
	AmountUSD float64

	// Quantity is the amountUsd/price estimate used for reporting; the
	// sell leg replaces it with live holdings.
	Quantity float64

	Round         int
	CumulativeUSD float64
	DryRun        bool

	// Enabled false turns the leg into a Skipped outcome without
	// touching the page.
	Enabled bool
}

// Executor runs single legs. It holds no per-leg state; every call
// re-locates its controls on the externally owned document.
type Executor struct {
	doc      dom.Document
	reader   *page.Reader
	notifier notify.Notifier
	logs     OperationLogSink
	controls Controls
	timing   Timing
	logger   *zap.Logger
}

// New creates an executor with default controls and timing.
func New(doc dom.Document, reader *page.Reader, notifier notify.Notifier, logs OperationLogSink, logger *zap.Logger) *Executor {
	return &Executor{
		doc:      doc,
		reader:   reader,
		notifier: notifier,
		logs:     logs,
		controls: DefaultControls(),
		timing:   DefaultTiming(),
		logger:   logger.Named("executor"),
	}
}

// WithControls overrides the control map.
func (e *Executor) WithControls(c Controls) *Executor {
	e.controls = c
	return e
}

// WithTiming overrides the settle delays and poll bounds.
func (e *Executor) WithTiming(t Timing) *Executor {
	e.timing = t
	return e
}

// ExecuteLeg runs one leg through its states and reports the outcome.
// Failures are typed outcomes; nothing is retried here. A failed leg
// aborts the round and retry policy belongs to the caller.
func (e *Executor) ExecuteLeg(ctx context.Context, req Request) Outcome {
	l := e.logger.With(
		zap.String("side", string(req.Side)),
		zap.Int("round", req.Round),
		zap.Bool("dry_run", req.DryRun),
	)

	if !req.Enabled {
		l.Info("Leg disabled by configuration, skipping.")
		return Skipped(ReasonLegDisabled)
	}
	if ctx.Err() != nil {
		return Failed(ReasonCancelled)
	}

	// Sell sizing comes from live holdings, never from the buy
	// estimate: fills may differ from the requested amount.
	quantity := req.Quantity
	if req.Side == SideSell {
		held, ok := e.reader.HoldingsQuantity(ctx)
		if ok {
			quantity = held
		} else if !req.DryRun {
			l.Warn("Holdings quantity unreadable, failing sell leg.")
			return Failed(ReasonQuantityUnavailable)
		}
		// Dry run keeps the estimate; there is no real fill to read.
	}

	if req.DryRun {
		l.Info("Dry run enabled. No page interaction for this leg.",
			zap.Float64("price", req.Price),
			zap.Float64("quantity", quantity))
		e.report(req, quantity)
		return Success()
	}

	if out := e.activateTab(ctx, req.Side, l); !out.Ok() {
		return out
	}
	if out := e.fillInput(ctx, req, quantity, l); !out.Ok() {
		return out
	}
	button, out := e.waitEnabled(ctx, req.Side, l)
	if !out.Ok() {
		return out
	}

	dom.Click(button)
	l.Info("Action button clicked.",
		zap.Float64("price", req.Price),
		zap.Float64("quantity", quantity))

	e.confirmIfPresent(ctx, l)

	e.report(req, quantity)
	return Success()
}

// activateTab clicks the leg tab and the instant-order sub-tab when
// present. Either control may be absent on older or newer UI variants.
func (e *Executor) activateTab(ctx context.Context, side Side, l *zap.Logger) Outcome {
	tabSelector := e.controls.BuyTabSelector
	if side == SideSell {
		tabSelector = e.controls.SellTabSelector
	}

	if tab, ok := dom.First(e.doc, tabSelector); ok && page.IsVisible(tab) {
		dom.Click(tab)
		if !dom.Sleep(ctx, e.timing.SettleDelay) {
			return Failed(ReasonCancelled)
		}
	}

	if instant, ok := e.doc.ElementByID(e.controls.InstantTabID); ok {
		dom.Click(instant)
		if !dom.Sleep(ctx, e.timing.SettleDelay) {
			return Failed(ReasonCancelled)
		}
	} else {
		l.Debug("Instant-order sub-tab absent, continuing.")
	}

	return Success()
}

// fillInput locates the leg's amount input, fills it, and blurs so any
// blur-bound validation in the host page runs.
func (e *Executor) fillInput(ctx context.Context, req Request, quantity float64, l *zap.Logger) Outcome {
	input, ok := e.locateInput(req.Side)
	if !ok {
		l.Warn("Required amount input not found.")
		return Failed(ReasonControlNotFound)
	}

	value := req.AmountUSD
	if req.Side == SideSell {
		value = quantity
	}
	dom.FillNumber(input, value)
	dom.Blur(input)

	if !dom.Sleep(ctx, e.timing.SettleDelay) {
		return Failed(ReasonCancelled)
	}
	return Success()
}

func (e *Executor) locateInput(side Side) (dom.Element, bool) {
	if side == SideBuy {
		if el, ok := e.doc.ElementByID(e.controls.BuyAmountInputID); ok {
			return el, true
		}
	} else {
		for _, id := range e.controls.SellQuantityInputIDs {
			if el, ok := e.doc.ElementByID(id); ok {
				return el, true
			}
		}
	}
	// Placeholder heuristics as a last resort.
	for _, el := range e.doc.Query(e.controls.InputFallbackSelector) {
		if page.IsVisible(el) {
			return el, true
		}
	}
	return nil, false
}

// waitEnabled polls until the action button drops its disabled marker.
// Clicking a disabled button would submit a form the host page still
// considers invalid, so exhaustion fails the leg without clicking.
func (e *Executor) waitEnabled(ctx context.Context, side Side, l *zap.Logger) (dom.Element, Outcome) {
	selector := e.controls.BuyButtonSelector
	if side == SideSell {
		selector = e.controls.SellButtonSelector
	}

	wait := dom.WaitOptions{
		Interval: e.timing.EnabledBackoff,
		Timeout:  time.Duration(e.timing.EnabledAttempts) * e.timing.EnabledBackoff,
	}

	button, ok := dom.WaitForElement(ctx, func() (dom.Element, bool) {
		el, ok := dom.First(e.doc, selector)
		if !ok || !page.IsVisible(el) {
			return nil, false
		}
		return el, true
	}, wait)
	if !ok {
		l.Warn("Action button not found.", zap.String("selector", selector))
		return nil, Failed(ReasonControlNotFound)
	}

	if !dom.WaitUntil(ctx, func() bool { return !e.isDisabled(button) }, wait) {
		if ctx.Err() != nil {
			return nil, Failed(ReasonCancelled)
		}
		l.Warn("Action button still disabled after bounded wait.",
			zap.Int("attempts", e.timing.EnabledAttempts))
		return nil, Failed(ReasonControlDisabledTimeout)
	}
	return button, Success()
}

func (e *Executor) isDisabled(el dom.Element) bool {
	if _, ok := el.Attr("disabled"); ok {
		return true
	}
	if v, ok := el.Attr("aria-disabled"); ok && v == "true" {
		return true
	}
	if class, ok := el.Attr("class"); ok {
		lower := strings.ToLower(class)
		for _, marker := range e.controls.DisabledMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

// confirmIfPresent clicks a generic modal confirm control after a
// settle delay. Not every venue variant opens one; absence is fine.
func (e *Executor) confirmIfPresent(ctx context.Context, l *zap.Logger) {
	if !dom.Sleep(ctx, e.timing.ConfirmDelay) {
		return
	}
	for _, el := range e.doc.Query(e.controls.ConfirmSelector) {
		if page.IsVisible(el) {
			l.Info("Confirmation dialog present, confirming.")
			dom.Click(el)
			return
		}
	}
}

// report emits the leg's lifecycle notification and appends the
// operation log entry. Dry runs produce the identical trail.
func (e *Executor) report(req Request, quantity float64) {
	action := notify.ActionBuyPlaced
	if req.Side == SideSell {
		action = notify.ActionSellPlaced
	}

	e.notifier.Publish(notify.Event{
		Action:           action,
		Contract:         req.Contract,
		Price:            req.Price,
		UsdtAmount:       req.AmountUSD,
		Quantity:         quantity,
		DryRun:           req.DryRun,
		Round:            req.Round,
		CumulativeAmount: req.CumulativeUSD,
		Timestamp:        time.Now(),
	})

	fallback := ""
	if req.Contract != nil {
		fallback = req.Contract.Address
	}
	base := e.reader.CurrentSymbol(fallback)
	from, to := quoteSymbol, base
	if req.Side == SideSell {
		from, to = base, quoteSymbol
	}

	entry := models.OperationLog{
		Type:             string(req.Side),
		Price:            req.Price,
		Quantity:         quantity,
		Timestamp:        time.Now().UnixMilli(),
		FromSymbol:       from,
		ToSymbol:         to,
		CumulativeAmount: req.CumulativeUSD,
		DryRun:           req.DryRun,
	}
	if err := e.logs.AppendOperationLog(entry); err != nil {
		e.logger.Error("Failed to append operation log", zap.Error(err))
	}
}
