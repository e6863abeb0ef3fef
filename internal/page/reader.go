package page

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"alpha-roller-go/internal/dom"
	"go.uber.org/zap"
)

// PriceSample is an ephemeral price reading; it is re-read before every
// buy and every sell because the price may move between legs.
type PriceSample struct {
	Value float64
	AsOf  time.Time
}

// SelectorStrategy is one entry of an ordered fallback chain. Keeping
// the chain data-driven makes a venue restyle a config update.
type SelectorStrategy struct {
	Name string
	Find func(dom.Document) (dom.Element, bool)
}

// ByID builds a strategy over a document id.
func ByID(id string) SelectorStrategy {
	return SelectorStrategy{
		Name: "#" + id,
		Find: func(doc dom.Document) (dom.Element, bool) { return doc.ElementByID(id) },
	}
}

// BySelector builds a strategy over a host-interpreted selector,
// returning the first visible match.
func BySelector(selector string) SelectorStrategy {
	return SelectorStrategy{
		Name: selector,
		Find: func(doc dom.Document) (dom.Element, bool) {
			for _, el := range doc.Query(selector) {
				if IsVisible(el) {
					return el, true
				}
			}
			return nil, false
		},
	}
}

// prominentFontSize is the minimum rendered font size for the generic
// "big visible number" price scan.
const prominentFontSize = 16.0

// ProminentNumber scans a broad selector for the most prominent visible
// node whose text validates as a price. It trades false positives
// (screened by the grammar) for resilience to markup churn.
func ProminentNumber(selector string) SelectorStrategy {
	return SelectorStrategy{
		Name: "prominent:" + selector,
		Find: func(doc dom.Document) (dom.Element, bool) {
			var best dom.Element
			var bestSize float64
			for _, el := range doc.Query(selector) {
				if !IsVisible(el) {
					continue
				}
				st := el.Style()
				if st.FontSize < prominentFontSize || st.FontSize <= bestSize {
					continue
				}
				if _, ok := ParsePrice(el.Text()); !ok {
					continue
				}
				best = el
				bestSize = st.FontSize
			}
			return best, best != nil
		},
	}
}

// DefaultPriceStrategies is the ordered chain tried by CurrentPrice.
func DefaultPriceStrategies() []SelectorStrategy {
	return []SelectorStrategy{
		ByID("lastPrice"),
		BySelector(`[data-testid="last-price"]`),
		BySelector(".price-display"),
		ProminentNumber("div, span"),
	}
}

// Venue selectors for the non-price reads.
const (
	symbolSelector   = `[data-testid="symbol-name"], .symbol-name`
	holdingsSelector = ".text-TertiaryText > .items-center > .text-PrimaryText"
)

// titleSymbol extracts a symbol token from titles like "KOGE/USDT | Binance".
var titleSymbol = regexp.MustCompile(`([A-Z0-9]{2,10})\s*/\s*[A-Z]{2,10}`)

// HoldingsRetry bounds the holdings-quantity poll; the value may render
// only after order submission settles.
type HoldingsRetry struct {
	Attempts int
	Backoff  time.Duration
}

// Reader extracts price, symbol, and holdings quantity from the live page.
type Reader struct {
	doc        dom.Document
	strategies []SelectorStrategy
	holdings   HoldingsRetry
	logger     *zap.Logger
}

// NewReader builds a reader with the default strategy chain.
func NewReader(doc dom.Document, logger *zap.Logger) *Reader {
	return &Reader{
		doc:        doc,
		strategies: DefaultPriceStrategies(),
		holdings:   HoldingsRetry{Attempts: 5, Backoff: 300 * time.Millisecond},
		logger:     logger.Named("page"),
	}
}

// WithStrategies overrides the price strategy chain.
func (r *Reader) WithStrategies(strategies []SelectorStrategy) *Reader {
	r.strategies = strategies
	return r
}

// WithHoldingsRetry overrides the holdings poll bounds.
func (r *Reader) WithHoldingsRetry(retry HoldingsRetry) *Reader {
	r.holdings = retry
	return r
}

// PriceElement returns the first strategy hit whose text validates as a
// price. Strategy lookups that panic are treated as misses.
func (r *Reader) PriceElement() (dom.Element, bool) {
	for _, s := range r.strategies {
		el, ok := find(s, r.doc)
		if !ok {
			continue
		}
		if _, valid := ParsePrice(el.Text()); !valid {
			r.logger.Debug("price candidate rejected by grammar",
				zap.String("strategy", s.Name), zap.String("text", el.Text()))
			continue
		}
		return el, true
	}
	return nil, false
}

func find(s SelectorStrategy, doc dom.Document) (el dom.Element, ok bool) {
	defer func() {
		if recover() != nil {
			el, ok = nil, false
		}
	}()
	return s.Find(doc)
}

// CurrentPrice reads the displayed price through the strategy chain.
func (r *Reader) CurrentPrice() (PriceSample, bool) {
	el, ok := r.PriceElement()
	if !ok {
		return PriceSample{}, false
	}
	v, ok := ParsePrice(el.Text())
	if !ok {
		return PriceSample{}, false
	}
	return PriceSample{Value: v, AsOf: time.Now()}, true
}

// CurrentSymbol derives a short symbol label from a dedicated node or
// the page title, falling back to the given value (the contract
// address) when nothing legible is found.
func (r *Reader) CurrentSymbol(fallback string) string {
	if el, ok := dom.First(r.doc, symbolSelector); ok {
		if txt := strings.TrimSpace(el.Text()); txt != "" {
			return txt
		}
	}
	if m := titleSymbol.FindStringSubmatch(r.doc.Title()); m != nil {
		return m[1]
	}
	return fallback
}

// HoldingsQuantity reads the tradable balance shown for the active
// instrument, polling within bounds because the node may render late.
func (r *Reader) HoldingsQuantity(ctx context.Context) (float64, bool) {
	var qty float64
	err := dom.Retry(ctx, dom.RetryConfig{
		MaxAttempts: r.holdings.Attempts,
		BaseDelay:   r.holdings.Backoff,
		MaxDelay:    r.holdings.Backoff,
	}, func() error {
		el, ok := dom.First(r.doc, holdingsSelector)
		if !ok {
			return errors.New("holdings node not rendered")
		}
		v, ok := ParseQuantity(el.Text())
		if !ok {
			return fmt.Errorf("holdings text %q not a quantity", el.Text())
		}
		qty = v
		return nil
	})
	if err != nil {
		r.logger.Warn("holdings quantity unreadable after bounded retries",
			zap.Int("attempts", r.holdings.Attempts), zap.Error(err))
		return 0, false
	}
	return qty, true
}

// IsVisible reports whether an element is actually rendered, so hidden
// duplicate controls are never acted upon.
func IsVisible(el dom.Element) bool {
	if el == nil {
		return false
	}
	st := el.Style()
	return st.Display != "none" &&
		st.Visibility != "hidden" &&
		st.Opacity != 0 &&
		st.Width > 0 &&
		st.Height > 0
}
