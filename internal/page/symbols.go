package page

import (
	"regexp"
	"sort"
	"strings"

	"alpha-roller-go/internal/dom"
)

// symbolPattern matches trading-pair text like KOGEUSDT or KOGE/USDT.
var symbolPattern = regexp.MustCompile(`([A-Z]{2,10}(?:USDT|BUSD|BTC|ETH|BNB))|([A-Z]{2,10}/[A-Z]{2,10})`)

// symbolScanSelectors lists the venue elements worth scanning for
// trading pairs; the surrounding text scan is intentionally permissive.
var symbolScanSelectors = []string{
	`[class*="symbol"]`,
	`[class*="ticker"]`,
	`[class*="pair"]`,
	`a[href*="/trade/"]`,
}

// ScanSymbols collects trading-pair symbols visible on the page,
// deduplicated and sorted.
func ScanSymbols(doc dom.Document) []string {
	found := map[string]struct{}{}

	collect := func(text string) {
		for _, m := range symbolPattern.FindAllString(text, -1) {
			sym := strings.ToUpper(strings.NewReplacer("/", "", " ", "").Replace(m))
			if sym != "" {
				found[sym] = struct{}{}
			}
		}
	}

	collect(doc.Title())
	for _, sel := range symbolScanSelectors {
		for _, el := range doc.Query(sel) {
			collect(el.Text())
			if href, ok := el.Attr("href"); ok {
				collect(href)
			}
		}
	}

	out := make([]string, 0, len(found))
	for sym := range found {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
