package trader

import (
	"context"
	"sync"
	"testing"
	"time"

	"alpha-roller-go/internal/database"
	"alpha-roller-go/internal/dom"
	"alpha-roller-go/internal/executor"
	"alpha-roller-go/internal/notify"
	"alpha-roller-go/internal/page"
	"alpha-roller-go/internal/store"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testPageURL = "https://www.binance.com/en/alpha/bsc/0xae1e85c3665b70b682defd778e3dafdf09ed3b0f"

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Publish(event notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

func (r *recorder) byAction(action string) []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Event
	for _, e := range r.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// tradePage builds a fully interactive simulated instrument page.
func tradePage(price string) *dom.StubDocument {
	doc := dom.NewStubDocument(testPageURL, "KOGE/USDT | Binance")

	priceNode := dom.NewStubElement("div", price)
	priceNode.ID = "lastPrice"
	doc.Add(priceNode)
	doc.Add(dom.NewStubElement("div", "KOGE"), `[data-testid="symbol-name"], .symbol-name`)
	doc.Add(dom.NewStubElement("span", "221.11"), ".text-TertiaryText > .items-center > .text-PrimaryText")

	doc.Add(dom.NewStubElement("div", "Buy"), ".bn-tabs__buySell #bn-tab-0")
	doc.Add(dom.NewStubElement("div", "Sell"), ".bn-tabs__buySell #bn-tab-1")
	instant := dom.NewStubElement("div", "Instant")
	instant.ID = "bn-tab-INSTANT"
	doc.Add(instant)

	total := dom.NewStubElement("input", "")
	total.ID = "limitTotal"
	doc.Add(total)
	amount := dom.NewStubElement("input", "")
	amount.ID = "limitAmount"
	doc.Add(amount)

	doc.Add(dom.NewStubElement("button", "Buy KOGE"), ".bn-button__buy")
	doc.Add(dom.NewStubElement("button", "Sell KOGE"), ".bn-button__sell")
	return doc
}

func newOrchestrator(t *testing.T, doc *dom.StubDocument, extra ...notify.Notifier) (*Orchestrator, *recorder) {
	db, err := database.NewDatabase("file::memory:")
	assert.NoError(t, err)
	st := store.NewStore(db)

	rec := &recorder{}
	notifier := notify.Fanout(append([]notify.Notifier{rec}, extra...))

	reader := page.NewReader(doc, zap.NewNop()).
		WithHoldingsRetry(page.HoldingsRetry{Attempts: 2, Backoff: time.Millisecond})
	exec := executor.New(doc, reader, notifier, st, zap.NewNop()).
		WithTiming(executor.Timing{
			SettleDelay:     time.Millisecond,
			EnabledAttempts: 3,
			EnabledBackoff:  time.Millisecond,
			ConfirmDelay:    time.Millisecond,
		})
	return NewOrchestrator(reader, exec, notifier, zap.NewNop()), rec
}

func testSession() *Session {
	contract, _ := page.DetectContract(testPageURL)
	return NewSession(contract)
}

func dryRound(round int, cumulativeBefore float64) RoundRequest {
	return RoundRequest{
		AmountUsd:        100,
		Round:            round,
		CumulativeBefore: cumulativeBefore,
		DryRun:           true,
		BuyEnabled:       true,
		SellEnabled:      true,
		InterLegDelay:    time.Millisecond,
	}
}

func TestRunRoundTrip_DryRunHappyPath(t *testing.T) {
	orch, rec := newOrchestrator(t, tradePage("0.5"))

	result := orch.RunRoundTrip(context.Background(), testSession(), dryRound(1, 0))

	assert.True(t, result.Succeeded())
	assert.Equal(t, executor.Success(), result.BuyOutcome)
	assert.NotNil(t, result.SellOutcome)
	assert.Equal(t, executor.Success(), *result.SellOutcome)
	assert.Equal(t, 100.0, result.CumulativeAfter)

	assert.Equal(t,
		[]string{
			notify.ActionTransactionStarted,
			notify.ActionBuyPlaced,
			notify.ActionSellPlaced,
			notify.ActionTransactionAttempted,
		},
		rec.actions())

	started := rec.byAction(notify.ActionTransactionStarted)[0]
	// Reported quantity is amount divided by the observed price.
	assert.InDelta(t, 200, started.Quantity, 1e-9)
	assert.Equal(t, 100.0, started.CumulativeAmount)
	assert.True(t, started.DryRun)
	assert.Equal(t, "0xae1e85c3665b70b682defd778e3dafdf09ed3b0f", started.Contract.Address)
}

func TestRunRoundTrip_LiveHappyPath(t *testing.T) {
	doc := tradePage("0.5")
	orch, rec := newOrchestrator(t, doc)

	req := dryRound(1, 0)
	req.DryRun = false
	result := orch.RunRoundTrip(context.Background(), testSession(), req)

	assert.True(t, result.Succeeded())
	assert.Equal(t, 100.0, result.CumulativeAfter)
	sells := rec.byAction(notify.ActionSellPlaced)
	assert.Len(t, sells, 1)
	// Sell sizing comes from the rendered holdings, not the estimate.
	assert.InDelta(t, 221.11, sells[0].Quantity, 1e-9)
}

func TestRunRoundTrip_NoActiveInstrument(t *testing.T) {
	orch, rec := newOrchestrator(t, tradePage("0.5"))

	for _, sess := range []*Session{nil, {Contract: nil}} {
		result := orch.RunRoundTrip(context.Background(), sess, dryRound(1, 0))
		assert.Equal(t, executor.Failed(executor.ReasonNoActiveInstrument), result.BuyOutcome)
		assert.Nil(t, result.SellOutcome)
		assert.Equal(t, 0.0, result.CumulativeAfter)
	}
	assert.Empty(t, rec.actions())
}

func TestRunRoundTrip_PriceUnavailable(t *testing.T) {
	doc := dom.NewStubDocument(testPageURL, "no markets here")
	orch, rec := newOrchestrator(t, doc)

	result := orch.RunRoundTrip(context.Background(), testSession(), dryRound(1, 0))

	assert.Equal(t, executor.Failed(executor.ReasonPriceUnavailable), result.BuyOutcome)
	assert.Nil(t, result.SellOutcome)
	assert.Empty(t, rec.actions())
}

func TestRunRoundTrip_InvalidAmount(t *testing.T) {
	orch, _ := newOrchestrator(t, tradePage("0.5"))

	req := dryRound(1, 0)
	req.AmountUsd = 0
	result := orch.RunRoundTrip(context.Background(), testSession(), req)

	assert.False(t, result.Succeeded())
	assert.Nil(t, result.SellOutcome)
}

func TestRunRoundTrip_FailedBuySkipsSell(t *testing.T) {
	// Live page with no buy button: the buy leg cannot complete.
	doc := tradePage("0.5")
	doc.RemoveSelector(".bn-button__buy")
	orch, rec := newOrchestrator(t, doc)

	req := dryRound(1, 50)
	req.DryRun = false
	result := orch.RunRoundTrip(context.Background(), testSession(), req)

	assert.Equal(t, executor.Failed(executor.ReasonControlNotFound), result.BuyOutcome)
	assert.Nil(t, result.SellOutcome)
	assert.Equal(t, 50.0, result.CumulativeAfter)
	assert.Empty(t, rec.byAction(notify.ActionSellPlaced))

	// The failed attempt is still announced, with the cumulative unchanged.
	attempts := rec.byAction(notify.ActionTransactionAttempted)
	assert.Len(t, attempts, 1)
	assert.Equal(t, 50.0, attempts[0].CumulativeAmount)
}

func TestRunRoundTrip_SkippedLegsCompleteRound(t *testing.T) {
	orch, rec := newOrchestrator(t, tradePage("0.5"))

	req := dryRound(1, 0)
	req.BuyEnabled = false
	req.SellEnabled = false
	result := orch.RunRoundTrip(context.Background(), testSession(), req)

	assert.Equal(t, executor.Skipped(executor.ReasonLegDisabled), result.BuyOutcome)
	assert.NotNil(t, result.SellOutcome)
	assert.Equal(t, executor.Skipped(executor.ReasonLegDisabled), *result.SellOutcome)
	assert.True(t, result.Succeeded())
	assert.Equal(t, 100.0, result.CumulativeAfter)
	// Skipped legs emit no order notifications.
	assert.Equal(t,
		[]string{notify.ActionTransactionStarted, notify.ActionTransactionAttempted},
		rec.actions())
}

func TestRunRoundTrip_CancelledBetweenLegs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel once the buy leg has reported, during the inter-leg delay.
	hook := notify.Func(func(event notify.Event) {
		if event.Action == notify.ActionBuyPlaced {
			cancel()
		}
	})
	orch, rec := newOrchestrator(t, tradePage("0.5"), hook)

	req := dryRound(1, 0)
	req.InterLegDelay = time.Minute
	result := orch.RunRoundTrip(ctx, testSession(), req)

	assert.Equal(t, executor.Success(), result.BuyOutcome)
	assert.NotNil(t, result.SellOutcome)
	assert.Equal(t, executor.Failed(executor.ReasonCancelled), *result.SellOutcome)
	assert.False(t, result.Succeeded())
	assert.Equal(t, 0.0, result.CumulativeAfter)
	assert.Empty(t, rec.byAction(notify.ActionSellPlaced))
}
