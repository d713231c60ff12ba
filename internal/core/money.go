// Package core holds the ledger domain: transactions, the monthly report,
// the spending limit rule and the row export.
//
// This file contains amount parsing. Amounts are decimals so that sums of
// user input like 0.1 + 0.2 stay exact.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user text into a non-negative decimal.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted.
// Zero is a valid amount; negative values are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrNegativeAmount
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// FormatAmount renders whole amounts without decimals and fractional ones
// with at least two. Digits past the second decimal are never rounded away.
func FormatAmount(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(0)
	}
	if !d.Equal(d.Round(2)) {
		return d.String()
	}
	return d.StringFixed(2)
}
