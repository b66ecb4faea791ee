package tds

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alfredxing/calc/compute"
	"github.com/shopspring/decimal"
)

var (
	ErrNoHeader      = errors.New("table has no header row")
	ErrMissingColumn = errors.New("required column not found")
)

// headerIndex maps cleaned header names to their column positions.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func column(idx map[string]int, names ...string) (int, error) {
	for _, n := range names {
		if i, ok := idx[n]; ok {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrMissingColumn, names[0])
}

func optionalColumn(idx map[string]int, names ...string) int {
	for _, n := range names {
		if i, ok := idx[n]; ok {
			return i
		}
	}
	return -1
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseAmount reads a numeric cell. Commas are stripped, and a cell that is
// not a plain number is evaluated as an arithmetic expression, so a limit
// can be written "50*100000" the same way posting amounts can.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d, true
	}
	if f, err := compute.Evaluate(s); err == nil {
		return decimal.NewFromFloat(f), true
	}
	return decimal.Zero, false
}

// LoadRates reads the rate-rule table. Expected columns: Section, Limit 1,
// Limit 2, Rate for individual, Rate. Limit 2 is optional per rule; a blank
// cell means the section has no per-transaction threshold.
func LoadRates(r io.Reader) (map[string]RateRule, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoHeader
	}
	idx := headerIndex(records[0])
	iSection, err := column(idx, "section")
	if err != nil {
		return nil, err
	}
	iLimit1, err := column(idx, "limit 1", "limit1")
	if err != nil {
		return nil, err
	}
	iLimit2, err := column(idx, "limit 2", "limit2")
	if err != nil {
		return nil, err
	}
	iRateInd, err := column(idx, "rate for individual", "rate (individual)")
	if err != nil {
		return nil, err
	}
	iRate, err := column(idx, "rate", "rate (other)")
	if err != nil {
		return nil, err
	}

	rules := make(map[string]RateRule, len(records)-1)
	for _, rec := range records[1:] {
		section := strings.ToUpper(field(rec, iSection))
		if section == "" {
			continue
		}
		rule := RateRule{Section: section}
		rule.Limit1, _ = parseAmount(field(rec, iLimit1))
		if l2, ok := parseAmount(field(rec, iLimit2)); ok {
			rule.Limit2 = &l2
		}
		rule.RateIndividual, _ = parseAmount(field(rec, iRateInd))
		rule.RateOther, _ = parseAmount(field(rec, iRate))
		rules[section] = rule
	}
	return rules, nil
}

// LoadOverrides reads the hardcoded-vendor table. Expected columns: Vendor,
// TDS Section, TDS Applicable, Reason; only Vendor is mandatory. Keys are
// lowercased trimmed vendor names.
func LoadOverrides(r io.Reader) (map[string]Override, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoHeader
	}
	idx := headerIndex(records[0])
	iVendor, err := column(idx, "vendor")
	if err != nil {
		return nil, err
	}
	iSection := optionalColumn(idx, "tds section", "section")
	iApplicable := optionalColumn(idx, "tds applicable", "applicable")
	iReason := optionalColumn(idx, "reason")

	overrides := make(map[string]Override, len(records)-1)
	for _, rec := range records[1:] {
		vendor := field(rec, iVendor)
		if vendor == "" {
			continue
		}
		overrides[overrideKey(vendor)] = Override{
			Vendor:     vendor,
			Section:    field(rec, iSection),
			Applicable: field(rec, iApplicable),
			Reason:     field(rec, iReason),
		}
	}
	return overrides, nil
}

// LoadSections reads a ledger-to-section mapping export. Expected columns:
// Ledger, TDS Section, and optionally Ledger_norm; when the normalized
// column is absent the key is derived. Blank sections read as "NA". Later
// rows win, matching the append-only cache the mapping comes from.
func LoadSections(r io.Reader) (map[string]string, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoHeader
	}
	idx := headerIndex(records[0])
	iLedger, err := column(idx, "ledger")
	if err != nil {
		return nil, err
	}
	iSection, err := column(idx, "tds section", "section")
	if err != nil {
		return nil, err
	}
	iNorm := optionalColumn(idx, "ledger_norm")

	sections := make(map[string]string, len(records)-1)
	for _, rec := range records[1:] {
		key := field(rec, iNorm)
		if key == "" {
			key = NormalizeLedger(field(rec, iLedger))
		}
		if key == "" {
			continue
		}
		section := field(rec, iSection)
		if section == "" {
			section = SectionNone
		}
		sections[key] = section
	}
	return sections, nil
}
