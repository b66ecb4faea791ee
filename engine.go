package tds

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Engine decides, per expense line, whether withholding applies and at what
// rate, and computes the amounts. All three tables are read-only inputs; the
// engine itself keeps no state between calls to Process.
type Engine struct {
	// Sections maps NormalizeLedger(ledger name) to a section code, as
	// produced by the classification collaborator.
	Sections map[string]string
	// Rates maps a section code to its thresholds and rates.
	Rates map[string]RateRule
	// Overrides maps a lowercased trimmed vendor name to its hardcoded row.
	Overrides map[string]Override
	// TurnoverAbove10Cr reports whether the deductor's previous-year
	// turnover exceeded the statutory ₹10 crore, which is what makes
	// section 194Q live at all.
	TurnoverAbove10Cr bool
}

// Result carries the computed rows and every discrepancy surfaced while
// producing them. Ambiguities are data here, never errors: an inspectable
// row for each, and the run always completes.
type Result struct {
	Rows           []ComputedRow
	Unassigned     []UnassignedVendor
	MissingPAN     []string
	MultiCreditors []Voucher
}

// Process resolves vendors and PANs, assigns sections, decides
// applicability, and computes TDS amounts for every expense line. The
// computation is two-pass: a full compute, then the hardcoded overrides,
// then rates and amounts again from scratch. Re-running Process on the same
// inputs yields identical output.
func (e *Engine) Process(lines []Line, masters []Master) *Result {
	panIdx := PANIndex(masters)
	res := &Result{}
	missingPAN := make(map[string]bool)

	for _, v := range GroupVouchers(lines) {
		var creditors []Line
		for _, l := range v.Lines {
			if isCreditor(l.Group) {
				creditors = append(creditors, l)
			}
		}
		// More than one creditor line makes the attribution ambiguous.
		// Flag the whole voucher for review but keep processing with the
		// first creditor, matching the filing team's manual convention.
		if len(creditors) > 1 {
			res.MultiCreditors = append(res.MultiCreditors, v)
		}

		for _, l := range v.Lines {
			if !isExpense(l.Group) {
				continue
			}
			vendor := strings.TrimSpace(l.Party)
			if vendor == "" {
				if len(creditors) > 0 {
					vendor = creditors[0].Ledger
				} else {
					vendor = "Unassigned"
					res.Unassigned = append(res.Unassigned, UnassignedVendor{
						Key:         v.Key,
						Ledger:      l.Ledger,
						VoucherType: l.VoucherType,
						Narration:   l.Narration,
					})
				}
			}

			pan, ok := panIdx[panKey(vendor)]
			if !ok {
				pan = PANNotFound
			}
			if pan == PANNotFound {
				missingPAN[vendor] = true
			}

			section := e.Sections[NormalizeLedger(l.Ledger)]
			if section == "" {
				section = SectionNone
			}
			// 194Q only exists for deductors over the turnover threshold.
			if section == SectionPurchase && !e.TurnoverAbove10Cr {
				section = SectionNone
			}

			res.Rows = append(res.Rows, ComputedRow{
				RowNo:       len(res.Rows) + 1,
				Ledger:      l.Ledger,
				Vendor:      vendor,
				PAN:         pan,
				Month:       l.Date.Format(MonthLayout),
				Date:        l.Date,
				Amount:      l.Amount.Neg(), // daybook stores expenses credit-signed
				Key:         v.Key,
				VoucherType: l.VoucherType,
				Narration:   l.Narration,
				LedgerGroup: l.Group,
				Section:     section,
			})
		}
	}

	// Hardcoded section replacements come before any threshold aggregation.
	for i := range res.Rows {
		if o, ok := e.Overrides[overrideKey(res.Rows[i].Vendor)]; ok {
			if s := strings.TrimSpace(o.Section); s != "" {
				res.Rows[i].Section = s
			}
		}
	}

	// Pass 1: applicability, rates, amounts.
	e.decideApplicability(res.Rows)
	e.assignRates(res.Rows)
	CalculateAmounts(res.Rows)

	// Hardcoded applicability takes final precedence, and rates and amounts
	// are recomputed from a fresh accumulator. An override that swapped in a
	// section with its own threshold rule is not re-aggregated here; that
	// matches the filing team's established procedure.
	e.applyFinalOverrides(res.Rows)
	e.assignRates(res.Rows)
	CalculateAmounts(res.Rows)

	res.MissingPAN = applicableMissingPAN(res.Rows, missingPAN)
	return res
}

type vendorSection struct {
	Vendor  string
	Section string
}

// vendorTotals sums the signed amounts per (vendor, section), skipping rows
// with no section. These cumulative totals drive the Limit1 test.
func vendorTotals(rows []ComputedRow) map[vendorSection]decimal.Decimal {
	totals := make(map[vendorSection]decimal.Decimal)
	for _, r := range rows {
		if r.Section == SectionNone {
			continue
		}
		k := vendorSection{r.Vendor, r.Section}
		totals[k] = totals[k].Add(r.Amount)
	}
	return totals
}

func (e *Engine) decideApplicability(rows []ComputedRow) {
	totals := vendorTotals(rows)
	for i := range rows {
		r := &rows[i]
		section := strings.ToUpper(strings.TrimSpace(r.Section))
		switch section {
		case "", SectionNone:
			r.Applicable = false
			r.Reason = "Section NA"
			continue
		case SectionSalary:
			r.Applicable = false
			r.Reason = "Section 192 - Salary (not applicable)"
			continue
		}

		// A section with no rate rule has zero limits, so it stays
		// applicable at rate zero; the gap surfaces in the output rather
		// than silently dropping the line.
		rule := e.Rates[section]
		total := totals[vendorSection{r.Vendor, r.Section}]
		switch {
		case total.Abs().GreaterThanOrEqual(rule.Limit1):
			r.Applicable = true
			r.Reason = "Above Limit 1"
		case rule.Limit2 != nil && r.Amount.Abs().GreaterThanOrEqual(*rule.Limit2):
			r.Applicable = true
			r.Reason = fmt.Sprintf("Above Limit 2 (%s)", rule.Limit2)
		default:
			r.Applicable = false
			r.Reason = "Below Limits"
		}
	}
}

// assignRates fills the rate column: the individual rate when the PAN marks
// an individual holder, otherwise the general rate, and zero whenever the
// line is not applicable.
func (e *Engine) assignRates(rows []ComputedRow) {
	for i := range rows {
		r := &rows[i]
		if !r.Applicable {
			r.Rate = decimal.Zero
			continue
		}
		rule := e.Rates[strings.ToUpper(strings.TrimSpace(r.Section))]
		if panType(r.PAN) == 'P' {
			r.Rate = rule.RateIndividual
		} else {
			r.Rate = rule.RateOther
		}
	}
}

func (e *Engine) applyFinalOverrides(rows []ComputedRow) {
	for i := range rows {
		o, ok := e.Overrides[overrideKey(rows[i].Vendor)]
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(o.Applicable)) {
		case "yes":
			rows[i].Applicable = true
		case "no":
			rows[i].Applicable = false
		}
		if reason := strings.TrimSpace(o.Reason); reason != "" {
			rows[i].Reason = "Hardcoded - " + reason
		} else {
			rows[i].Reason = "Hardcoded - Reason Not Provided"
		}
	}
}

// applicableMissingPAN filters the missing-PAN set down to vendors with at
// least one applicable line. A vendor entirely below threshold without a PAN
// is not worth chasing.
func applicableMissingPAN(rows []ComputedRow, missing map[string]bool) []string {
	applicable := make(map[string]bool)
	for _, r := range rows {
		if r.Applicable && r.PAN == PANNotFound {
			applicable[overrideKey(r.Vendor)] = true
		}
	}
	var vendors []string
	for v := range missing {
		if applicable[overrideKey(v)] {
			vendors = append(vendors, v)
		}
	}
	slices.Sort(vendors)
	return vendors
}
