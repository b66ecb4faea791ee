package tds

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthLayout is the period key used on every per-month aggregate,
// e.g. "Sep-24".
const MonthLayout = "Jan-06"

// Section codes with special handling. SectionPurchase (194Q) carries the
// cumulative purchase threshold and is gated on the deductor's previous-year
// turnover; SectionSalary (192) is never in scope for this engine.
const (
	SectionPurchase = "194Q"
	SectionSalary   = "192"
	SectionNone     = "NA"
)

// PANNotFound is the sentinel used when no taxpayer identifier could be
// derived from the ledger master.
const PANNotFound = "PAN not found"

// Line is a single ledger line of a daybook export. Lines sharing a Key form
// one voucher. Amount keeps the sign of the export.
type Line struct {
	Key         string
	Ledger      string
	Group       string
	Party       string
	Amount      decimal.Decimal
	Date        time.Time
	VoucherType string
	Narration   string
}

// Voucher is the set of daybook lines sharing a key.
type Voucher struct {
	Key   string
	Lines []Line
}

// Master is a ledger-master record carrying the tax identifiers for one
// ledger (vendor) name.
type Master struct {
	Name            string
	IncomeTaxNumber string
	GSTIN           string
}

// RateRule holds the thresholds and rates for one section. Limit1 applies to
// the cumulative vendor total, Limit2 (optional) to a single line.
type RateRule struct {
	Section        string
	Limit1         decimal.Decimal
	Limit2         *decimal.Decimal
	RateIndividual decimal.Decimal
	RateOther      decimal.Decimal
}

// Override is one row of the hardcoded-vendor table. A non-empty Section
// replaces the mapped section before rates are applied; Applicable ("Yes" or
// "No", empty to leave the computed value) and Reason replace the computed
// decision after the first pass.
type Override struct {
	Vendor     string
	Section    string
	Applicable string
	Reason     string
}

// ComputedRow is one enriched expense line with every derived field.
type ComputedRow struct {
	RowNo       int
	Ledger      string
	Vendor      string
	PAN         string
	Month       string
	Date        time.Time
	Amount      decimal.Decimal
	Key         string
	VoucherType string
	Narration   string
	LedgerGroup string
	Section     string
	Applicable  bool
	Reason      string
	Rate        decimal.Decimal
	TDS         decimal.Decimal
}

// BookRow is one tax-liability posting attributed to a vendor, as recorded
// in the books.
type BookRow struct {
	Month     string
	Vendor    string
	TDSLedger string
	Amount    decimal.Decimal
	EntryType string
}

// NotConsidered identifies a voucher whose tax-liability postings could not
// be attributed to any vendor; kept for manual review.
type NotConsidered struct {
	Key         string
	VoucherType string
}

// FiledRow is one deductee entry from the quarterly return extract, the
// authority-side record of truth.
type FiledRow struct {
	Month       string
	Vendor      string
	PAN         string
	Section     string
	AmountPaid  decimal.Decimal
	TDSDeducted decimal.Decimal
}

// UnassignedVendor records an expense line whose voucher carried neither a
// party name nor a creditor line to attribute it to.
type UnassignedVendor struct {
	Key         string
	Ledger      string
	VoucherType string
	Narration   string
}
