package page

import (
	"regexp"
	"strings"
)

// Contract identifies the trading venue page currently open. It is a
// read-only snapshot; navigation replaces it.
type Contract struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
	PageURL string `json:"pageUrl"`
}

// alphaPagePattern matches venue instrument URLs of the form
// .../alpha/<chain>/<0x + 40 hex chars>.
var alphaPagePattern = regexp.MustCompile(`/alpha/([^/]+)/(0x[a-fA-F0-9]{40})`)

// DetectContract parses a page URL into a Contract snapshot. It returns
// false when the URL is not an instrument page.
func DetectContract(url string) (*Contract, bool) {
	m := alphaPagePattern.FindStringSubmatch(url)
	if m == nil {
		return nil, false
	}
	return &Contract{
		Chain:   strings.ToUpper(m[1]),
		Address: m[2],
		PageURL: url,
	}, true
}
