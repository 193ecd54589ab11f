// Package money provides integer monetary amounts in the smallest currency
// unit, plus the apportionment rules the calculator builds on.
//
// All arithmetic inside the engine is integer arithmetic. Decimal strings
// only exist at the API boundary, where they are parsed into minor units.
package money

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in the smallest currency unit (e.g. cents).
type Amount = int64

// minorUnitExponent is the number of decimal places in the minor unit.
// Fixed at 2 (cents); multi-currency ledgers are out of scope.
const minorUnitExponent = 2

// Parse converts a decimal string like "12.34" into minor units.
// It rejects values with more precision than the minor unit carries,
// rather than silently rounding user input.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	scaled := d.Shift(minorUnitExponent)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %q has sub-cent precision", s)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return scaled.IntPart(), nil
}

// Format renders minor units as a decimal string ("1234" -> "12.34").
func Format(a Amount) string {
	return decimal.New(a, -minorUnitExponent).StringFixed(minorUnitExponent)
}

// SplitEven divides total into n parts that differ by at most one unit.
// The first total%n parts receive the extra unit, so the full total is
// always handed out. n must be positive; total must be non-negative.
func SplitEven(total Amount, n int) []Amount {
	base := total / int64(n)
	remainder := total - base*int64(n)

	parts := make([]Amount, n)
	for i := range parts {
		parts[i] = base
		if int64(i) < remainder {
			parts[i]++
		}
	}
	return parts
}

// Apportion distributes total across weights using the largest-remainder
// method: each part is floored at total*w/sum(weights), then the leftover
// units go one at a time to the parts with the largest fractional
// remainder (lowest index on ties). The returned parts always sum to
// total exactly.
func Apportion(total Amount, weights []int64) ([]Amount, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("apportion: no weights")
	}

	var sum int64
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("apportion: negative weight %d at index %d", w, i)
		}
		sum += w
	}
	if sum == 0 {
		return nil, fmt.Errorf("apportion: weights sum to zero")
	}

	type fraction struct {
		index     int
		remainder int64 // numerator of the fractional part, denominator sum
	}

	parts := make([]Amount, len(weights))
	fractions := make([]fraction, len(weights))
	var allocated int64
	for i, w := range weights {
		product := total * w
		parts[i] = product / sum
		allocated += parts[i]
		fractions[i] = fraction{index: i, remainder: product % sum}
	}

	// Leftover units, one per part, largest fractional remainder first.
	sort.SliceStable(fractions, func(a, b int) bool {
		return fractions[a].remainder > fractions[b].remainder
	})
	leftover := total - allocated
	for i := int64(0); i < leftover; i++ {
		parts[fractions[i].index]++
	}

	return parts, nil
}
