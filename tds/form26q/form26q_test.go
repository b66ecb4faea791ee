package form26q

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const sampleExtract = "" +
	"Deductee Wise Break Up Of TDS\n" +
	"194C - Payment to contractors\t194C - Payment to contractors\t194C - Payment to contractors\n" +
	"Acme Ltd : ABCCE1234F\tAcme Ltd : ABCCE1234F\tAcme Ltd : ABCCE1234F\n" +
	"Date of Payment /Credit\tAmount of Payment /Credit\tAmount of Tax Deducted\tChallan No.\tChallan Date\n" +
	"05-09-2024\t20,000.00\t400.00\t12345\t07-10-2024\n" +
	"18-09-2024\t15000\t300\t12345\t07-10-2024\n" +
	"Total\t35,000.00\t700.00\t\t\n" +
	"Ravi Contractor : ABCPE1234F\tRavi Contractor : ABCPE1234F\n" +
	"Date of Payment /Credit\tAmount of Payment /Credit\tAmount of Tax Deducted\tChallan No.\tChallan Date\n" +
	"02-10-2024\t50000\t500\t67890\t05-11-2024\n"

func TestParse(t *testing.T) {
	entries, err := Parse(strings.NewReader(sampleExtract))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %+v", entries)
	}

	first := entries[0]
	if first.Month != "Sep-24" || first.Vendor != "Acme Ltd" || first.PAN != "ABCCE1234F" || first.Section != "194C" {
		t.Errorf("first = %+v", first)
	}
	if !first.AmountPaid.Equal(decimal.NewFromInt(20000)) || !first.TDSDeducted.Equal(decimal.NewFromInt(400)) {
		t.Errorf("first amounts = %s / %s", first.AmountPaid, first.TDSDeducted)
	}
	if first.ChallanNo != "12345" || first.ChallanDate != "07-10-2024" {
		t.Errorf("first challan = %q %q", first.ChallanNo, first.ChallanDate)
	}

	// The vendor row switches context inside the same section.
	last := entries[2]
	if last.Vendor != "Ravi Contractor" || last.Section != "194C" || last.Month != "Oct-24" {
		t.Errorf("last = %+v", last)
	}
}

func TestParseSkipsTotalsAndJunk(t *testing.T) {
	for _, e := range mustParse(t, sampleExtract) {
		if strings.HasPrefix(strings.ToLower(e.Vendor), "total") {
			t.Errorf("total row leaked through: %+v", e)
		}
	}
}

func TestParseDataBeforeHeaderIsIgnored(t *testing.T) {
	in := "05-09-2024\t20000\t400\t111\t01-10-2024\n" + sampleExtract
	entries := mustParse(t, in)
	if len(entries) != 3 {
		t.Errorf("rows before any table header should be dropped, got %d entries", len(entries))
	}
}

func TestParseShortDataRow(t *testing.T) {
	in := "194C - Payment to contractors\n" +
		"Date of Payment /Credit\tAmount of Payment /Credit\tAmount of Tax Deducted\tChallan No.\tChallan Date\n" +
		"05-09-2024\t20000\t400\n"
	entries := mustParse(t, in)
	if len(entries) != 1 {
		t.Fatalf("entries = %+v", entries)
	}
	// Columns past the end of a ragged row read as empty.
	if entries[0].ChallanNo != "" || entries[0].ChallanDate != "" {
		t.Errorf("challan fields = %q %q, want empty", entries[0].ChallanNo, entries[0].ChallanDate)
	}
}

func TestParseMissingColumn(t *testing.T) {
	in := "194C - Payment to contractors\n" +
		"Date of Payment /Credit\tAmount of Payment /Credit\n" +
		"05-09-2024\t20000\n"
	if _, err := Parse(strings.NewReader(in)); err == nil {
		t.Error("expected a missing-column error")
	}
}

func mustParse(t *testing.T, in string) []Entry {
	t.Helper()
	entries, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	return entries
}

func FuzzParse(f *testing.F) {
	f.Add(sampleExtract)
	f.Add("just one line")
	f.Add("a\tb\tc\n1\t2\t3\n")
	f.Fuzz(func(t *testing.T, in string) {
		// Arbitrary input may fail to parse but must never panic.
		Parse(strings.NewReader(in))
	})
}
