// Package core holds the transaction domain: the record schema, the shared
// category vocabulary, money handling, and the pure aggregation logic.
//
// Monetary amounts are integer cents everywhere inside the service; the
// float64 currency representation exists only at the API boundary.
package core

import "math"

// CentsFromAmount converts a currency amount to cents, rounding to two
// decimal places with half-away-from-zero semantics (49.999 becomes 5000).
func CentsFromAmount(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Amount converts cents back to the two-decimal currency value.
func Amount(cents int64) float64 {
	return float64(cents) / 100.0
}

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
