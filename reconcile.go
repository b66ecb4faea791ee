package tds

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// ReviewTolerance is how far a TDS difference can stray from zero, in
// currency units, before the row is flagged for manual review.
var ReviewTolerance = decimal.NewFromInt(1)

// ReconRow is one line of the three-way reconciliation between computed
// TDS, the book postings and the filed return. Absent sides are zero.
type ReconRow struct {
	Month        string
	Vendor       string
	PAN          string
	SectionTally string
	SectionFiled string
	PaidTally    decimal.Decimal
	PaidFiled    decimal.Decimal
	TDSCalc      decimal.Decimal
	TDSTally     decimal.Decimal
	TDSFiled     decimal.Decimal
	DiffTDSTally decimal.Decimal
	DiffTDSCalc  decimal.Decimal
	DiffPaid     decimal.Decimal

	SectionMismatch bool
	Review          bool
}

type aggKey struct {
	Month   string
	Vendor  string
	PAN     string
	Section string
}

type aggVal struct {
	Paid decimal.Decimal
	TDS  decimal.Decimal
}

// midRow is the computed×book merge, before the filed side joins in.
type midRow struct {
	Month     string
	Vendor    string
	PAN       string
	Section   string
	PaidTally decimal.Decimal
	TDSCalc   decimal.Decimal
	TDSTally  decimal.Decimal
}

// Reconcile performs the three-way outer merge. Computed rows (applicable
// only) aggregate by (month, vendor, PAN, section); book rows by
// (month, vendor); filed rows by (month, vendor, PAN, section). Computed and
// book merge on (month, vendor); the result merges with the filed side on
// (month, PAN, section), matching the computed section against the filed
// one since the book side carries no section. Every key present in any
// source lands in exactly one output row.
func Reconcile(computed []ComputedRow, books []BookRow, filed []FiledRow) []ReconRow {
	calcAgg := make(map[aggKey]aggVal)
	for _, r := range computed {
		if !r.Applicable {
			continue
		}
		k := aggKey{cleanKey(r.Month), cleanKey(r.Vendor), cleanKey(r.PAN), strings.TrimSpace(r.Section)}
		v := calcAgg[k]
		v.Paid = v.Paid.Add(r.Amount)
		v.TDS = v.TDS.Add(r.TDS)
		calcAgg[k] = v
	}

	type monthVendor struct{ Month, Vendor string }
	tallyAgg := make(map[monthVendor]decimal.Decimal)
	for _, b := range books {
		k := monthVendor{cleanKey(b.Month), cleanKey(b.Vendor)}
		tallyAgg[k] = tallyAgg[k].Add(b.Amount)
	}

	filedAgg := make(map[aggKey]aggVal)
	for _, f := range filed {
		k := aggKey{cleanKey(f.Month), cleanKey(f.Vendor), cleanKey(f.PAN), strings.TrimSpace(f.Section)}
		v := filedAgg[k]
		v.Paid = v.Paid.Add(f.AmountPaid)
		v.TDS = v.TDS.Add(f.TDSDeducted)
		filedAgg[k] = v
	}

	// Computed × book on (month, vendor), outer both ways. Book-only keys
	// carry no PAN or section; the sentinel PAN keeps them from ever
	// matching a filed entry.
	var mids []midRow
	tallyUsed := make(map[monthVendor]bool)
	for k, v := range calcAgg {
		mv := monthVendor{k.Month, k.Vendor}
		tallyUsed[mv] = true
		mids = append(mids, midRow{
			Month:     k.Month,
			Vendor:    k.Vendor,
			PAN:       k.PAN,
			Section:   k.Section,
			PaidTally: v.Paid,
			TDSCalc:   v.TDS,
			TDSTally:  tallyAgg[mv],
		})
	}
	for k, tds := range tallyAgg {
		if tallyUsed[k] {
			continue
		}
		mids = append(mids, midRow{
			Month:    k.Month,
			Vendor:   k.Vendor,
			PAN:      "NA",
			TDSTally: tds,
		})
	}
	slices.SortFunc(mids, func(a, b midRow) int {
		if c := strings.Compare(a.Month, b.Month); c != 0 {
			return c
		}
		if c := strings.Compare(a.Vendor, b.Vendor); c != 0 {
			return c
		}
		if c := strings.Compare(a.PAN, b.PAN); c != 0 {
			return c
		}
		return strings.Compare(a.Section, b.Section)
	})

	// Merge with the filed side on (month, PAN, section).
	type filedKey struct{ Month, PAN, Section string }
	filedByKey := make(map[filedKey][]aggKey)
	for k := range filedAgg {
		fk := filedKey{k.Month, k.PAN, k.Section}
		filedByKey[fk] = append(filedByKey[fk], k)
	}
	for fk := range filedByKey {
		slices.SortFunc(filedByKey[fk], func(a, b aggKey) int {
			return strings.Compare(a.Vendor, b.Vendor)
		})
	}

	var out []ReconRow
	filedUsed := make(map[aggKey]bool)
	for _, m := range mids {
		matches := filedByKey[filedKey{m.Month, m.PAN, m.Section}]
		if len(matches) == 0 {
			out = append(out, ReconRow{
				Month:        m.Month,
				Vendor:       m.Vendor,
				PAN:          m.PAN,
				SectionTally: m.Section,
				PaidTally:    m.PaidTally,
				TDSCalc:      m.TDSCalc,
				TDSTally:     m.TDSTally,
			})
			continue
		}
		for _, fk := range matches {
			filedUsed[fk] = true
			fv := filedAgg[fk]
			out = append(out, ReconRow{
				Month:        m.Month,
				Vendor:       m.Vendor,
				PAN:          m.PAN,
				SectionTally: m.Section,
				SectionFiled: fk.Section,
				PaidTally:    m.PaidTally,
				PaidFiled:    fv.Paid,
				TDSCalc:      m.TDSCalc,
				TDSTally:     m.TDSTally,
				TDSFiled:     fv.TDS,
			})
		}
	}

	var leftover []aggKey
	for k := range filedAgg {
		if !filedUsed[k] {
			leftover = append(leftover, k)
		}
	}
	slices.SortFunc(leftover, func(a, b aggKey) int {
		if c := strings.Compare(a.Month, b.Month); c != 0 {
			return c
		}
		if c := strings.Compare(a.Vendor, b.Vendor); c != 0 {
			return c
		}
		return strings.Compare(a.PAN, b.PAN)
	})
	for _, k := range leftover {
		fv := filedAgg[k]
		out = append(out, ReconRow{
			Month:        k.Month,
			Vendor:       k.Vendor, // filed-side vendor, nothing on our side
			PAN:          k.PAN,
			SectionFiled: k.Section,
			PaidFiled:    fv.Paid,
			TDSFiled:     fv.TDS,
		})
	}

	for i := range out {
		r := &out[i]
		r.DiffTDSTally = r.TDSTally.Sub(r.TDSFiled).Round(2)
		r.DiffTDSCalc = r.TDSCalc.Sub(r.TDSFiled).Round(2)
		r.DiffPaid = r.PaidTally.Sub(r.PaidFiled).Round(2)
		r.SectionMismatch = r.SectionTally != r.SectionFiled
		r.Review = r.DiffTDSTally.Abs().GreaterThan(ReviewTolerance) ||
			r.DiffTDSCalc.Abs().GreaterThan(ReviewTolerance)
	}

	slices.SortFunc(out, func(a, b ReconRow) int {
		if c := strings.Compare(a.Month, b.Month); c != 0 {
			return c
		}
		if c := strings.Compare(a.Vendor, b.Vendor); c != 0 {
			return c
		}
		return strings.Compare(a.PAN, b.PAN)
	})
	return out
}

// VendorSummary aggregates reconciliation rows per vendor and PAN.
type VendorSummary struct {
	Vendor       string
	PAN          string
	PaidTally    decimal.Decimal
	PaidFiled    decimal.Decimal
	TDSCalc      decimal.Decimal
	TDSTally     decimal.Decimal
	TDSFiled     decimal.Decimal
	DiffTDSTally decimal.Decimal
	DiffTDSCalc  decimal.Decimal
	DiffPaid     decimal.Decimal
}

// SummarizeVendors rolls reconciliation rows up to (vendor, PAN) level.
func SummarizeVendors(rows []ReconRow) []VendorSummary {
	type vp struct{ Vendor, PAN string }
	idx := make(map[vp]int)
	var out []VendorSummary
	for _, r := range rows {
		k := vp{r.Vendor, r.PAN}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, VendorSummary{Vendor: r.Vendor, PAN: r.PAN})
		}
		s := &out[i]
		s.PaidTally = s.PaidTally.Add(r.PaidTally)
		s.PaidFiled = s.PaidFiled.Add(r.PaidFiled)
		s.TDSCalc = s.TDSCalc.Add(r.TDSCalc)
		s.TDSTally = s.TDSTally.Add(r.TDSTally)
		s.TDSFiled = s.TDSFiled.Add(r.TDSFiled)
	}
	for i := range out {
		s := &out[i]
		s.DiffTDSTally = s.TDSTally.Sub(s.TDSFiled).Round(2)
		s.DiffTDSCalc = s.TDSCalc.Sub(s.TDSFiled).Round(2)
		s.DiffPaid = s.PaidTally.Sub(s.PaidFiled).Round(2)
	}
	slices.SortFunc(out, func(a, b VendorSummary) int {
		if c := strings.Compare(a.Vendor, b.Vendor); c != 0 {
			return c
		}
		return strings.Compare(a.PAN, b.PAN)
	})
	return out
}
