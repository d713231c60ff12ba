package core

import "github.com/shopspring/decimal"

// WouldExceed reports whether adding candidate to the existing expense total
// goes past limit. Reaching the limit exactly is allowed.
func WouldExceed(existing, candidate, limit decimal.Decimal) bool {
	return existing.Add(candidate).GreaterThan(limit)
}
