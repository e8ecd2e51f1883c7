package catalog

import "strings"

type Market struct {
	Name string // operator-facing name
	Type string // vendor market type
	Code string // short code for log lines
	// Key of the product's uploadedSuccessUrl map
	SuccessKey string
}

var Markets = []Market{
	{Name: "스마트스토어", Type: "SMARTSTORE", Code: "N", SuccessKey: "smartstore"},
	{Name: "11번가", Type: "ST11", Code: "11", SuccessKey: "st11"},
	{Name: "G마켓/옥션", Type: "ESM", Code: "G|A", SuccessKey: "esm"},
	{Name: "쿠팡", Type: "COUPANG", Code: "C", SuccessKey: "coupang"},
}

// LookupMarket accepts either the display name or the market type.
func LookupMarket(nameOrType string) (Market, bool) {
	key := strings.TrimSpace(nameOrType)
	for _, m := range Markets {
		if m.Name == key || strings.EqualFold(m.Type, key) {
			return m, true
		}
	}
	return Market{}, false
}
