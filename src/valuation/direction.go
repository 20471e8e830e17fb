package valuation

import "strings"

type Direction string

const (
	Purchase Direction = "purchase"
	Sale     Direction = "sale"
	Exchange Direction = "exchange"
)

// ParseDirection normalises the transaction type found in filings. Partial
// and full sales collapse into Sale; unrecognised values are kept lower-cased.
func ParseDirection(raw string) Direction {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case v == string(Purchase):
		return Purchase
	case v == string(Exchange):
		return Exchange
	case v == string(Sale), strings.HasPrefix(v, "sale_"), strings.HasPrefix(v, "sale ("):
		return Sale
	}
	return Direction(v)
}

// Sign is +1 for purchases, -1 for sales and 0 otherwise. Exchanges are
// treated as value-neutral.
func (d Direction) Sign() int {
	switch d {
	case Purchase:
		return 1
	case Sale:
		return -1
	}
	return 0
}
