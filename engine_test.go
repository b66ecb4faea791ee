package tds

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func dp(t *testing.T, s string) *decimal.Decimal {
	v := d(t, s)
	return &v
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

// expenseVoucher builds the usual two-line purchase voucher: a debit-side
// expense and the credit-side creditor. Daybook amounts are credit-signed.
func expenseVoucher(t *testing.T, key, ledger, vendor, amount, date string) []Line {
	t.Helper()
	when := day(t, date)
	return []Line{
		{Key: key, Ledger: ledger, Group: "Indirect Expenses", Amount: d(t, amount).Neg(), Date: when},
		{Key: key, Ledger: vendor, Group: "Sundry Creditors", Amount: d(t, amount), Date: when},
	}
}

func contractEngine(t *testing.T) *Engine {
	return &Engine{
		Sections: map[string]string{"freight charges": "194C"},
		Rates: map[string]RateRule{
			"194C": {Section: "194C", Limit1: d(t, "100000"), Limit2: dp(t, "30000"), RateIndividual: d(t, "1"), RateOther: d(t, "2")},
		},
	}
}

func TestProcessAppliesRateAboveLimit(t *testing.T) {
	var lines []Line
	lines = append(lines, expenseVoucher(t, "V1", "Freight Charges", "Acme Ltd", "80000", "2024-09-05")...)
	lines = append(lines, expenseVoucher(t, "V2", "Freight Charges", "Acme Ltd", "25000", "2024-09-18")...)
	masters := []Master{{Name: "Acme Ltd", IncomeTaxNumber: "ABCCE1234F"}}

	res := contractEngine(t).Process(lines, masters)
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 computed rows, got %d", len(res.Rows))
	}
	for i, want := range []struct {
		tds    string
		reason string
	}{
		{"1600", "Above Limit 1"}, // 80000 also crosses Limit2, Limit1 wins
		{"500", "Above Limit 1"},
	} {
		r := res.Rows[i]
		if !r.Applicable {
			t.Errorf("row %d not applicable: %s", i, r.Reason)
		}
		if r.Reason != want.reason {
			t.Errorf("row %d reason = %q, want %q", i, r.Reason, want.reason)
		}
		if !r.TDS.Equal(d(t, want.tds)) {
			t.Errorf("row %d TDS = %s, want %s", i, r.TDS, want.tds)
		}
		if r.Month != "Sep-24" {
			t.Errorf("row %d month = %q, want Sep-24", i, r.Month)
		}
	}
}

func TestProcessIndividualRate(t *testing.T) {
	lines := expenseVoucher(t, "V1", "Freight Charges", "Ravi Contractor", "150000", "2024-07-01")
	masters := []Master{{Name: "Ravi Contractor", IncomeTaxNumber: "ABCPE1234F"}}

	res := contractEngine(t).Process(lines, masters)
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Rows))
	}
	if !res.Rows[0].TDS.Equal(d(t, "1500")) {
		t.Errorf("TDS = %s, want 1500 at the individual rate", res.Rows[0].TDS)
	}
}

func TestProcessLimit2SingleTransaction(t *testing.T) {
	lines := expenseVoucher(t, "V1", "Freight Charges", "Acme Ltd", "45000", "2024-07-01")
	masters := []Master{{Name: "Acme Ltd", IncomeTaxNumber: "ABCCE1234F"}}

	res := contractEngine(t).Process(lines, masters)
	r := res.Rows[0]
	if !r.Applicable || r.Reason != "Above Limit 2 (30000)" {
		t.Errorf("got applicable=%v reason=%q, want Limit 2 hit", r.Applicable, r.Reason)
	}
	if !r.TDS.Equal(d(t, "900")) {
		t.Errorf("TDS = %s, want 900", r.TDS)
	}
}

func TestProcessBelowLimits(t *testing.T) {
	lines := expenseVoucher(t, "V1", "Freight Charges", "Acme Ltd", "20000", "2024-07-01")
	masters := []Master{{Name: "Acme Ltd", IncomeTaxNumber: "ABCCE1234F"}}

	r := contractEngine(t).Process(lines, masters).Rows[0]
	if r.Applicable || r.Reason != "Below Limits" {
		t.Errorf("got applicable=%v reason=%q, want below limits", r.Applicable, r.Reason)
	}
	if !r.TDS.IsZero() {
		t.Errorf("TDS = %s, want 0", r.TDS)
	}
}

func TestProcessSalaryAndUnmappedSections(t *testing.T) {
	engine := &Engine{
		Sections: map[string]string{
			"salaries": "192",
		},
		Rates: map[string]RateRule{},
	}
	var lines []Line
	lines = append(lines, expenseVoucher(t, "V1", "Salaries", "Staff", "500000", "2024-07-01")...)
	lines = append(lines, expenseVoucher(t, "V2", "Sundry Expenses", "Acme Ltd", "1000", "2024-07-01")...)

	res := engine.Process(lines, nil)
	if res.Rows[0].Applicable || res.Rows[0].Reason != "Section 192 - Salary (not applicable)" {
		t.Errorf("salary row: applicable=%v reason=%q", res.Rows[0].Applicable, res.Rows[0].Reason)
	}
	if res.Rows[1].Applicable || res.Rows[1].Reason != "Section NA" {
		t.Errorf("unmapped row: applicable=%v reason=%q", res.Rows[1].Applicable, res.Rows[1].Reason)
	}
}

func TestProcessTurnoverGatesPurchaseSection(t *testing.T) {
	sections := map[string]string{"purchases": SectionPurchase}
	rates := map[string]RateRule{
		SectionPurchase: {Section: SectionPurchase, Limit1: d(t, "5000000"), RateIndividual: d(t, "0.1"), RateOther: d(t, "0.1")},
	}
	lines := expenseVoucher(t, "V1", "Purchases", "Mega Mills", "6000000", "2024-07-01")

	below := &Engine{Sections: sections, Rates: rates}
	if r := below.Process(lines, nil).Rows[0]; r.Section != SectionNone {
		t.Errorf("section = %q below the turnover threshold, want %q", r.Section, SectionNone)
	}
	above := &Engine{Sections: sections, Rates: rates, TurnoverAbove10Cr: true}
	if r := above.Process(lines, nil).Rows[0]; r.Section != SectionPurchase {
		t.Errorf("section = %q above the turnover threshold, want %q", r.Section, SectionPurchase)
	}
}

func TestProcessOverrides(t *testing.T) {
	engine := contractEngine(t)
	engine.Overrides = map[string]Override{
		"acme ltd": {Vendor: "Acme Ltd", Applicable: "No", Reason: "Declaration received"},
		"beta co":  {Vendor: "Beta Co", Applicable: "Yes"},
	}
	var lines []Line
	lines = append(lines, expenseVoucher(t, "V1", "Freight Charges", "Acme Ltd", "150000", "2024-07-01")...)
	lines = append(lines, expenseVoucher(t, "V2", "Freight Charges", "Beta Co", "1000", "2024-07-01")...)

	res := engine.Process(lines, nil)
	acme := res.Rows[0]
	if acme.Applicable {
		t.Error("override should force Acme Ltd off")
	}
	if acme.Reason != "Hardcoded - Declaration received" {
		t.Errorf("reason = %q", acme.Reason)
	}
	if !acme.TDS.IsZero() {
		t.Errorf("overridden-off row still carries TDS %s", acme.TDS)
	}

	beta := res.Rows[1]
	if !beta.Applicable || beta.Reason != "Hardcoded - Reason Not Provided" {
		t.Errorf("beta: applicable=%v reason=%q", beta.Applicable, beta.Reason)
	}
	if !beta.TDS.Equal(d(t, "20")) {
		t.Errorf("beta TDS = %s, want 20", beta.TDS)
	}
}

func TestProcessUnassignedVendor(t *testing.T) {
	lines := []Line{
		{Key: "V1", Ledger: "Sundry Expenses", Group: "Indirect Expenses", Amount: d(t, "-500"), Date: day(t, "2024-07-01"), VoucherType: "Journal"},
	}
	res := contractEngine(t).Process(lines, nil)
	if res.Rows[0].Vendor != "Unassigned" {
		t.Errorf("vendor = %q, want Unassigned", res.Rows[0].Vendor)
	}
	if len(res.Unassigned) != 1 || res.Unassigned[0].Key != "V1" {
		t.Errorf("unassigned = %+v", res.Unassigned)
	}
}

func TestProcessMultiCreditorVoucher(t *testing.T) {
	when := day(t, "2024-07-01")
	lines := []Line{
		{Key: "V1", Ledger: "Freight Charges", Group: "Direct Expenses", Amount: d(t, "-10000"), Date: when},
		{Key: "V1", Ledger: "Acme Ltd", Group: "Sundry Creditors", Amount: d(t, "6000"), Date: when},
		{Key: "V1", Ledger: "Beta Co", Group: "Sundry Creditors", Amount: d(t, "4000"), Date: when},
	}
	res := contractEngine(t).Process(lines, nil)
	if len(res.MultiCreditors) != 1 {
		t.Fatalf("expected 1 flagged voucher, got %d", len(res.MultiCreditors))
	}
	if res.Rows[0].Vendor != "Acme Ltd" {
		t.Errorf("vendor = %q, want the first creditor", res.Rows[0].Vendor)
	}
}

func TestProcessMissingPANOnlyWhenApplicable(t *testing.T) {
	var lines []Line
	lines = append(lines, expenseVoucher(t, "V1", "Freight Charges", "Acme Ltd", "150000", "2024-07-01")...)
	lines = append(lines, expenseVoucher(t, "V2", "Freight Charges", "Small Fry", "100", "2024-07-01")...)

	res := contractEngine(t).Process(lines, nil)
	want := []string{"Acme Ltd"}
	if !reflect.DeepEqual(res.MissingPAN, want) {
		t.Errorf("MissingPAN = %v, want %v", res.MissingPAN, want)
	}
}

func TestProcessIdempotent(t *testing.T) {
	engine := contractEngine(t)
	engine.Overrides = map[string]Override{
		"acme ltd": {Vendor: "Acme Ltd", Applicable: "Yes", Reason: "Always deduct"},
	}
	var lines []Line
	lines = append(lines, expenseVoucher(t, "V2", "Freight Charges", "Acme Ltd", "80000", "2024-09-05")...)
	lines = append(lines, expenseVoucher(t, "V1", "Freight Charges", "Beta Co", "45000", "2024-08-02")...)
	masters := []Master{{Name: "Acme Ltd", IncomeTaxNumber: "ABCCE1234F"}}

	first := engine.Process(lines, masters)
	second := engine.Process(lines, masters)
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over the same inputs differ")
	}
}
