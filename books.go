package tds

import (
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// taxLiabilityGroup is the ledger group tax-liability postings live under.
const taxLiabilityGroup = "duties & taxes"

// The salary section code as a standalone word disqualifies a ledger, as
// does any mention of salary; payroll withholding is out of scope.
var salaryCodeRe = regexp.MustCompile(`(?i)\b192\b`)

// isTaxLiabilityLine reports whether a daybook line is a withholding-tax
// liability posting.
func isTaxLiabilityLine(l Line) bool {
	if cleanGroup(l.Group) != taxLiabilityGroup {
		return false
	}
	name := strings.ToUpper(l.Ledger)
	if !strings.Contains(name, "TDS") || strings.Contains(name, "SALARY") {
		return false
	}
	return !salaryCodeRe.MatchString(l.Ledger)
}

// BookResult is the "as recorded in books" side: liability postings
// attributed to vendors, the vouchers nothing could be attributed for, and
// the distinct liability ledgers that were in play.
type BookResult struct {
	Rows          []BookRow
	NotConsidered []NotConsidered
	Ledgers       []string
}

// ExtractBooks scans daybook lines for withholding-liability postings and
// attributes each to a vendor. A voucher with an expense line books against
// the voucher's creditor ("Auto"); a voucher without one falls back to its
// creditor lines themselves ("Fallback"); a voucher with neither lands on
// the not-considered list for manual review.
func ExtractBooks(lines []Line) *BookResult {
	taxLedgers := make(map[string]bool)
	taxKeys := make(map[string]bool)
	for _, l := range lines {
		if isTaxLiabilityLine(l) {
			taxLedgers[l.Ledger] = true
			taxKeys[l.Key] = true
		}
	}

	res := &BookResult{}
	for name := range taxLedgers {
		res.Ledgers = append(res.Ledgers, name)
	}
	slices.Sort(res.Ledgers)

	var scoped []Line
	for _, l := range lines {
		if taxKeys[l.Key] {
			scoped = append(scoped, l)
		}
	}

	for _, v := range GroupVouchers(scoped) {
		var taxRows, creditorRows []Line
		hasExpense := false
		for _, l := range v.Lines {
			if taxLedgers[l.Ledger] && cleanGroup(l.Group) == taxLiabilityGroup {
				taxRows = append(taxRows, l)
			}
			if isExpense(l.Group) {
				hasExpense = true
			}
			if isCreditor(l.Group) {
				creditorRows = append(creditorRows, l)
			}
		}

		// The first liability posting sets the polarity for the voucher.
		signRef := decimal.Zero
		if len(taxRows) > 0 {
			signRef = taxRows[0].Amount
		}

		if hasExpense {
			if len(creditorRows) > 0 {
				vendor := creditorRows[0].Ledger
				for _, r := range taxRows {
					res.Rows = append(res.Rows, BookRow{
						Month:     r.Date.Format(MonthLayout),
						Vendor:    vendor,
						TDSLedger: r.Ledger,
						Amount:    applySign(r.Amount, signRef),
						EntryType: "Auto",
					})
				}
			} else {
				res.NotConsidered = append(res.NotConsidered, NotConsidered{
					Key:         v.Key,
					VoucherType: v.Lines[0].VoucherType,
				})
			}
			continue
		}

		if len(creditorRows) > 0 {
			for _, r := range creditorRows {
				res.Rows = append(res.Rows, BookRow{
					Month:     r.Date.Format(MonthLayout),
					Vendor:    r.Ledger,
					TDSLedger: r.Ledger,
					Amount:    applySign(r.Amount, signRef),
					EntryType: "Fallback",
				})
			}
		} else {
			res.NotConsidered = append(res.NotConsidered, NotConsidered{
				Key:         v.Key,
				VoucherType: v.Lines[0].VoucherType,
			})
		}
	}
	return res
}

// applySign keeps the magnitude at two decimals and re-signs it to match the
// voucher's reference liability posting, so polarity stays consistent across
// voucher types.
func applySign(amount, ref decimal.Decimal) decimal.Decimal {
	a := amount.Abs().Round(2)
	if ref.Sign() < 0 {
		return a.Neg()
	}
	return a
}

// PayableRow is one line of the computed-vs-book reconciliation.
type PayableRow struct {
	Month      string
	Vendor     string
	Section    string
	Calculated decimal.Decimal
	Book       decimal.Decimal
	Difference decimal.Decimal
}

// ReconcilePayable outer-joins the computed TDS (applicable rows, grouped by
// month, vendor and section) with the book-side postings (grouped by month
// and vendor). Either side missing shows as zero, never as a dropped row.
func ReconcilePayable(rows []ComputedRow, books []BookRow) []PayableRow {
	type mv struct{ Month, Vendor string }

	bookSums := make(map[mv]decimal.Decimal)
	for _, b := range books {
		k := mv{b.Month, b.Vendor}
		bookSums[k] = bookSums[k].Add(b.Amount)
	}

	type mvs struct{ Month, Vendor, Section string }
	calcSums := make(map[mvs]decimal.Decimal)
	for _, r := range rows {
		if !r.Applicable {
			continue
		}
		k := mvs{r.Month, r.Vendor, r.Section}
		calcSums[k] = calcSums[k].Add(r.TDS)
	}

	matched := make(map[mv]bool)
	var out []PayableRow
	for k, calc := range calcSums {
		bk := mv{k.Month, k.Vendor}
		matched[bk] = true
		out = append(out, PayableRow{
			Month:      k.Month,
			Vendor:     k.Vendor,
			Section:    k.Section,
			Calculated: calc.Round(2),
			Book:       bookSums[bk].Round(2),
		})
	}
	for k, book := range bookSums {
		if matched[k] {
			continue
		}
		out = append(out, PayableRow{
			Month:  k.Month,
			Vendor: k.Vendor,
			Book:   book.Round(2),
		})
	}
	for i := range out {
		out[i].Difference = out[i].Calculated.Sub(out[i].Book).Round(2)
	}

	slices.SortFunc(out, func(a, b PayableRow) int {
		if c := strings.Compare(a.Month, b.Month); c != 0 {
			return c
		}
		if c := strings.Compare(a.Vendor, b.Vendor); c != 0 {
			return c
		}
		return strings.Compare(a.Section, b.Section)
	})
	return out
}

// PayableSummaryRow aggregates the payable reconciliation per vendor, tagged
// with the vendor's first known section.
type PayableSummaryRow struct {
	Vendor     string
	Section    string
	Calculated decimal.Decimal
	Book       decimal.Decimal
	Difference decimal.Decimal
}

// SummarizePayable rolls the month-wise payable rows up to vendor level.
func SummarizePayable(rows []PayableRow) []PayableSummaryRow {
	sections := make(map[string]string)
	for _, r := range rows {
		if r.Section != "" && sections[r.Vendor] == "" {
			sections[r.Vendor] = r.Section
		}
	}

	idx := make(map[string]int)
	var out []PayableSummaryRow
	for _, r := range rows {
		i, ok := idx[r.Vendor]
		if !ok {
			section := sections[r.Vendor]
			if section == "" {
				section = "Unknown"
			}
			i = len(out)
			idx[r.Vendor] = i
			out = append(out, PayableSummaryRow{Vendor: r.Vendor, Section: section})
		}
		out[i].Calculated = out[i].Calculated.Add(r.Calculated)
		out[i].Book = out[i].Book.Add(r.Book)
	}
	for i := range out {
		out[i].Difference = out[i].Calculated.Sub(out[i].Book).Round(2)
	}
	slices.SortFunc(out, func(a, b PayableSummaryRow) int {
		return strings.Compare(a.Vendor, b.Vendor)
	})
	return out
}
