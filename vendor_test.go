package tds

import (
	"reflect"
	"testing"
)

func TestResolvePAN(t *testing.T) {
	cases := []struct {
		name   string
		master Master
		want   string
	}{
		{"income tax field", Master{Name: "Acme", IncomeTaxNumber: "ABCPE1234F"}, "ABCPE1234F"},
		{"income tax too few digits", Master{Name: "Acme", IncomeTaxNumber: "ABC"}, PANNotFound},
		{"gstin embeds pan", Master{Name: "Acme", GSTIN: "27ABCCE1234F1Z5"}, "ABCCE1234F"},
		{"income tax wins over gstin", Master{Name: "Acme", IncomeTaxNumber: "XYZPA9999K", GSTIN: "27ABCCE1234F1Z5"}, "XYZPA9999K"},
		{"gstin too short", Master{Name: "Acme", GSTIN: "27ABC"}, PANNotFound},
		{"gstin embedded too few digits", Master{Name: "Acme", GSTIN: "27ABCDEFGHIJ1Z5"}, PANNotFound},
		{"nothing", Master{Name: "Acme"}, PANNotFound},
	}
	for _, c := range cases {
		if got := ResolvePAN(c.master); got != c.want {
			t.Errorf("%s: ResolvePAN = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestPANIndex(t *testing.T) {
	idx := PANIndex([]Master{
		{Name: "Acme Traders", IncomeTaxNumber: "ABCPE1234F"},
		{Name: "Beta Works", GSTIN: "27XYZCB5678K1Z5"},
	})
	if got := idx["acmetraders"]; got != "ABCPE1234F" {
		t.Errorf("acmetraders = %q, want ABCPE1234F", got)
	}
	if got := idx["betaworks"]; got != "XYZCB5678K" {
		t.Errorf("betaworks = %q, want XYZCB5678K", got)
	}
}

func TestGroupVouchersDeterministic(t *testing.T) {
	lines := []Line{
		{Key: "V2", Ledger: "Freight"},
		{Key: "V1", Ledger: "Rent"},
		{Key: "V2", Ledger: "Acme Ltd"},
	}
	shuffled := []Line{lines[2], lines[1], lines[0]}

	a := GroupVouchers(lines)
	b := GroupVouchers(shuffled)

	if len(a) != 2 || a[0].Key != "V1" || a[1].Key != "V2" {
		t.Fatalf("unexpected voucher keys: %+v", a)
	}
	if len(a[1].Lines) != 2 {
		t.Fatalf("V2 should keep both lines, got %d", len(a[1].Lines))
	}
	// Voucher order is key-sorted either way; only intra-voucher line order
	// follows the input.
	if a[0].Key != b[0].Key || a[1].Key != b[1].Key {
		t.Errorf("voucher order differs across input orderings: %+v vs %+v", a, b)
	}
}

func TestExpenseLedgers(t *testing.T) {
	lines := []Line{
		{Key: "V1", Ledger: "Freight Charges", Group: "Direct Expenses"},
		{Key: "V1", Ledger: "Acme Ltd", Group: "Sundry Creditors"},
		{Key: "V2", Ledger: "Rent", Group: "Indirect Expenses"},
		{Key: "V3", Ledger: "Freight Charges", Group: "Direct Expenses"},
		{Key: "V4", Ledger: "Plant", Group: "Fixed Assets"},
	}
	want := []string{"Freight Charges", "Rent", "Plant"}
	if got := ExpenseLedgers(lines); !reflect.DeepEqual(got, want) {
		t.Errorf("ExpenseLedgers = %v, want %v", got, want)
	}
}

func TestPANType(t *testing.T) {
	if panType("ABCPE1234F") != 'P' {
		t.Error("expected individual holder type")
	}
	if panType("abcpe1234f") != 'P' {
		t.Error("holder type should be case-insensitive")
	}
	if panType("AB") != 0 {
		t.Error("short PAN should have no holder type")
	}
}
