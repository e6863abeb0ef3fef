// Package notify carries the fire-and-forget messages the core emits
// for UI collaborators. Delivery is not guaranteed and nothing in the
// orchestration depends on whether anyone is listening.
package notify

import (
	"time"

	"alpha-roller-go/internal/page"
)

// Actions emitted by the core.
const (
	ActionTransactionStarted   = "transactionStarted"
	ActionBuyPlaced            = "buyPlaced"
	ActionSellPlaced           = "sellPlaced"
	ActionTransactionAttempted = "transactionAttempted"
	ActionAlphaPageDetected    = "alphaPageDetected"
	ActionSymbolsUpdated       = "symbolsUpdated"
)

// Event is one lifecycle notification.
type Event struct {
	Action           string         `json:"action"`
	Contract         *page.Contract `json:"contract,omitempty"`
	Price            float64        `json:"price,omitempty"`
	UsdtAmount       float64        `json:"usdtAmount,omitempty"`
	Quantity         float64        `json:"quantity,omitempty"`
	DryRun           bool           `json:"dryRun"`
	Round            int            `json:"round,omitempty"`
	CumulativeAmount float64        `json:"cumulativeAmount,omitempty"`
	Symbols          []string       `json:"symbols,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
}

// Notifier publishes events. Implementations must not block the caller
// beyond trivial bookkeeping and must never propagate failures back.
type Notifier interface {
	Publish(event Event)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Publish(Event) {}

// Fanout publishes to every registered notifier.
type Fanout []Notifier

func (f Fanout) Publish(event Event) {
	for _, n := range f {
		n.Publish(event)
	}
}

// Func adapts a function to the Notifier interface.
type Func func(Event)

func (f Func) Publish(event Event) { f(event) }
