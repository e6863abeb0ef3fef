package executor

import "time"

// Controls locates the venue's interactive elements. All fields are
// data so a markup change on the venue side is a config update.
type Controls struct {
	BuyTabSelector  string
	SellTabSelector string
	InstantTabID    string

	BuyAmountInputID     string
	SellQuantityInputIDs []string
	InputFallbackSelector string

	BuyButtonSelector  string
	SellButtonSelector string
	ConfirmSelector    string

	// DisabledMarkers are class fragments marking an inactive button.
	DisabledMarkers []string
}

// DefaultControls matches the Binance Alpha instant-order panel.
func DefaultControls() Controls {
	return Controls{
		BuyTabSelector:  ".bn-tabs__buySell #bn-tab-0",
		SellTabSelector: ".bn-tabs__buySell #bn-tab-1",
		InstantTabID:    "bn-tab-INSTANT",

		BuyAmountInputID:      "limitTotal",
		SellQuantityInputIDs:  []string{"limitAmount", "limitQuantity", "limitTotal"},
		InputFallbackSelector: `input[placeholder*="amount" i], input[placeholder*="quantity" i]`,

		BuyButtonSelector:  ".bn-button__buy",
		SellButtonSelector: ".bn-button__sell",
		ConfirmSelector:    `.bn-modal button[class*="confirm" i], .bn-modal button[class*="continue" i]`,

		DisabledMarkers: []string{"disabled", "inactive"},
	}
}

// Timing bounds the executor's settle delays and polls.
type Timing struct {
	SettleDelay    time.Duration // after tab clicks and fills
	EnabledAttempts int          // polls waiting for the action button
	EnabledBackoff time.Duration // backoff between those polls
	ConfirmDelay   time.Duration // settle before the confirmation probe
}

// DefaultTiming mirrors the delays the venue page tolerates.
func DefaultTiming() Timing {
	return Timing{
		SettleDelay:     120 * time.Millisecond,
		EnabledAttempts: 10,
		EnabledBackoff:  250 * time.Millisecond,
		ConfirmDelay:    500 * time.Millisecond,
	}
}
