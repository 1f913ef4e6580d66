// Package money holds the rounding rules applied at the persistence
// boundary. Intermediate calculations keep full float64 precision;
// anything written to a row goes through Round2.
package money

import "github.com/shopspring/decimal"

// Epsilon absorbs floating-point residue when comparing balances.
const Epsilon = 0.01

// Round2 rounds an amount to 2 decimals, half away from zero.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Sub2 returns a-b rounded to 2 decimals.
func Sub2(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

// EqualWithin reports whether two amounts differ by less than eps.
func EqualWithin(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}
