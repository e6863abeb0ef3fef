package page

import (
	"context"
	"testing"
	"time"

	"alpha-roller-go/internal/dom"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParsePrice(t *testing.T) {
	accepted := map[string]float64{
		"123.45":   123.45,
		"$123.45":  123.45,
		"0.000123": 0.000123,
		"1,234.56": 1234.56,
		" 42 ":     42,
	}
	for text, want := range accepted {
		v, ok := ParsePrice(text)
		assert.True(t, ok, "expected %q to parse", text)
		assert.InDelta(t, want, v, 1e-12)
	}

	rejected := []string{"", "abc", "Vol 24h", "123 456", "-5", "0", "1234567890.12", "12,34"}
	for _, text := range rejected {
		_, ok := ParsePrice(text)
		assert.False(t, ok, "expected %q to be rejected", text)
	}
}

func TestParseQuantity(t *testing.T) {
	v, ok := ParseQuantity("1,234.5")
	assert.True(t, ok)
	assert.InDelta(t, 1234.5, v, 1e-12)

	_, ok = ParseQuantity("n/a")
	assert.False(t, ok)
	_, ok = ParseQuantity("")
	assert.False(t, ok)
}

func TestDetectContract(t *testing.T) {
	c, ok := DetectContract("https://www.binance.com/en/alpha/bsc/0xae1e85c3665b70b682defd778e3dafdf09ed3b0f")
	assert.True(t, ok)
	assert.Equal(t, "BSC", c.Chain)
	assert.Equal(t, "0xae1e85c3665b70b682defd778e3dafdf09ed3b0f", c.Address)

	_, ok = DetectContract("https://www.binance.com/en/trade/BTC_USDT")
	assert.False(t, ok)
	// Address must be exactly 40 hex chars.
	_, ok = DetectContract("https://x.com/alpha/bsc/0x1234")
	assert.False(t, ok)
}

func newTestReader(doc dom.Document) *Reader {
	return NewReader(doc, zap.NewNop()).
		WithHoldingsRetry(HoldingsRetry{Attempts: 3, Backoff: time.Millisecond})
}

func TestCurrentPrice_FirstStrategyWins(t *testing.T) {
	doc := dom.NewStubDocument("https://example.com", "t")
	el := dom.NewStubElement("div", "0.4523")
	el.ID = "lastPrice"
	doc.Add(el)

	sample, ok := newTestReader(doc).CurrentPrice()
	assert.True(t, ok)
	assert.InDelta(t, 0.4523, sample.Value, 1e-12)
	assert.WithinDuration(t, time.Now(), sample.AsOf, time.Second)
}

func TestCurrentPrice_FallsBackThroughChain(t *testing.T) {
	doc := dom.NewStubDocument("https://example.com", "t")
	// No id node; an invalid candidate on the second strategy must be
	// rejected by the grammar, then the prominent scan should hit.
	junk := dom.NewStubElement("div", "Vol 24h")
	doc.Add(junk, `[data-testid="last-price"]`)

	small := dom.NewStubElement("span", "12.5")
	small.Visible.FontSize = 12
	big := dom.NewStubElement("span", "0.991")
	big.Visible.FontSize = 28
	noise := dom.NewStubElement("span", "Order Book")
	noise.Visible.FontSize = 30
	doc.Add(small, "div, span")
	doc.Add(big, "div, span")
	doc.Add(noise, "div, span")

	sample, ok := newTestReader(doc).CurrentPrice()
	assert.True(t, ok)
	assert.InDelta(t, 0.991, sample.Value, 1e-12)
}

func TestCurrentPrice_HiddenNodesIgnored(t *testing.T) {
	doc := dom.NewStubDocument("https://example.com", "t")
	hidden := dom.NewStubElement("div", "55.5")
	hidden.Visible.Display = "none"
	doc.Add(hidden, ".price-display")

	_, ok := newTestReader(doc).CurrentPrice()
	assert.False(t, ok)
}

func TestCurrentSymbol(t *testing.T) {
	doc := dom.NewStubDocument("https://example.com", "KOGE/USDT | Binance")

	// Dedicated node wins.
	doc.Add(dom.NewStubElement("div", "KOGE"), `[data-testid="symbol-name"], .symbol-name`)
	assert.Equal(t, "KOGE", newTestReader(doc).CurrentSymbol("0xabc"))

	// Title fallback.
	doc2 := dom.NewStubDocument("https://example.com", "MEME/USDT | Binance")
	assert.Equal(t, "MEME", newTestReader(doc2).CurrentSymbol("0xabc"))

	// Contract address fallback.
	doc3 := dom.NewStubDocument("https://example.com", "Binance")
	assert.Equal(t, "0xabc", newTestReader(doc3).CurrentSymbol("0xabc"))
}

func TestHoldingsQuantity_RetriesUntilRendered(t *testing.T) {
	doc := dom.NewStubDocument("https://example.com", "t")
	el := dom.NewStubElement("span", "")
	doc.Add(el, ".text-TertiaryText > .items-center > .text-PrimaryText")

	go func() {
		time.Sleep(2 * time.Millisecond)
		el.SetText("1,500.25")
	}()

	qty, ok := NewReader(doc, zap.NewNop()).
		WithHoldingsRetry(HoldingsRetry{Attempts: 50, Backoff: time.Millisecond}).
		HoldingsQuantity(context.Background())
	assert.True(t, ok)
	assert.InDelta(t, 1500.25, qty, 1e-9)
}

func TestHoldingsQuantity_BoundedRetriesExhaust(t *testing.T) {
	doc := dom.NewStubDocument("https://example.com", "t")

	_, ok := newTestReader(doc).HoldingsQuantity(context.Background())
	assert.False(t, ok)
}

func TestIsVisible(t *testing.T) {
	el := dom.NewStubElement("button", "Buy")
	assert.True(t, IsVisible(el))

	for _, mutate := range []func(*dom.StubElement){
		func(e *dom.StubElement) { e.Visible.Display = "none" },
		func(e *dom.StubElement) { e.Visible.Visibility = "hidden" },
		func(e *dom.StubElement) { e.Visible.Opacity = 0 },
		func(e *dom.StubElement) { e.Visible.Width = 0 },
		func(e *dom.StubElement) { e.Visible.Height = 0 },
	} {
		el := dom.NewStubElement("button", "Buy")
		mutate(el)
		assert.False(t, IsVisible(el))
	}
	assert.False(t, IsVisible(nil))
}

func TestScanSymbols(t *testing.T) {
	doc := dom.NewStubDocument("https://example.com", "KOGE/USDT | Binance")
	doc.Add(dom.NewStubElement("div", "BTCUSDT +2.4%"), `[class*="ticker"]`)
	link := dom.NewStubElement("a", "")
	link.SetAttr("href", "/trade/ETHUSDT")
	doc.Add(link, `a[href*="/trade/"]`)

	symbols := ScanSymbols(doc)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "KOGEUSDT"}, symbols)
}
