package tds

import "github.com/shopspring/decimal"

// RoundAway rounds to an integral value away from zero: the magnitude always
// rounds up and the sign is preserved. RoundAway(12.3) = 13,
// RoundAway(-12.3) = -13, RoundAway(0) = 0. Statutory withholding amounts
// round this way, not half-up, so every finalized amount in this package
// goes through here.
func RoundAway(d decimal.Decimal) decimal.Decimal {
	if d.Sign() < 0 {
		return d.Floor()
	}
	return d.Ceil()
}
