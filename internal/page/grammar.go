package page

import (
	"regexp"
	"strconv"
	"strings"
)

// priceToken matches a single price-looking token: optional currency
// prefix, digits with optional thousands separators, optional decimal
// part. Multi-token strings like "Vol 24h" never match.
var priceToken = regexp.MustCompile(`^[$€£¥]?(\d{1,3}(,\d{3})+|\d+)(\.\d+)?$`)

// maxSignificantDigits screens out concatenated numbers the prominent-
// node scan may pick up; real quoted prices carry at most 8.
const maxSignificantDigits = 8

// ParsePrice validates candidate text against the price grammar and
// returns the numeric value. Exchange UIs restyle often, so the reader
// scans loosely and relies on this validator to reject false positives.
func ParsePrice(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" || !priceToken.MatchString(s) {
		return 0, false
	}

	s = strings.TrimLeft(s, "$€£¥")
	s = strings.ReplaceAll(s, ",", "")

	digits := 0
	leading := true
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		if r == '0' && leading {
			continue
		}
		leading = false
		digits++
	}
	if digits == 0 || digits > maxSignificantDigits {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// ParseQuantity parses a plain comma/space-stripped number, as rendered
// in the holdings summary.
func ParseQuantity(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
