package tds

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	// PurchaseThreshold is the cumulative per-vendor amount at which
	// section 194Q starts to bite: ₹50,00,000 in a year.
	PurchaseThreshold = decimal.NewFromInt(5000000)
)

// CalculateAmounts fills the TDS column for every row. Section 194Q rows go
// through the cumulative-crossing rule; every other section is amount×rate
// when applicable and zero otherwise. Each call starts from a fresh
// per-vendor accumulator, so the pass can be re-run after overrides without
// carrying state over.
func CalculateAmounts(rows []ComputedRow) {
	var purchase []*ComputedRow
	for i := range rows {
		r := &rows[i]
		if r.Section == SectionPurchase {
			purchase = append(purchase, r)
			continue
		}
		if r.Applicable {
			r.TDS = RoundAway(r.Amount.Mul(r.Rate).Div(hundred))
		} else {
			r.TDS = decimal.Zero
		}
	}
	if len(purchase) == 0 {
		return
	}

	// Chronological per vendor; original row order breaks date ties so the
	// crossing point is deterministic.
	slices.SortStableFunc(purchase, func(a, b *ComputedRow) int {
		if c := strings.Compare(a.Vendor, b.Vendor); c != 0 {
			return c
		}
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.RowNo - b.RowNo
	})

	cum := make(map[string]decimal.Decimal)
	for _, r := range purchase {
		before := cum[r.Vendor]
		r.TDS = decimal.Zero
		if r.Applicable {
			abs := r.Amount.Abs()
			switch {
			case before.Abs().GreaterThanOrEqual(PurchaseThreshold):
				// Threshold already crossed: the whole line is taxed.
				r.TDS = RoundAway(r.Amount.Mul(r.Rate).Div(hundred))
			case before.Abs().Add(abs).GreaterThan(PurchaseThreshold):
				// This line crosses the threshold: only the excess is
				// taxed, carrying the line's sign.
				excess := before.Abs().Add(abs).Sub(PurchaseThreshold)
				tds := excess.Mul(r.Rate).Div(hundred)
				if r.Amount.Sign() < 0 {
					tds = tds.Neg()
				}
				r.TDS = RoundAway(tds)
			}
		}
		// The accumulator moves by the signed amount whatever the outcome.
		cum[r.Vendor] = before.Add(r.Amount)
	}
}
