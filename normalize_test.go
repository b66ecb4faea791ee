package tds

import "testing"

func TestNormalizeLedger(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Printing & Stationery", "printing stationery"},
		{"  Freight   Charges ", "freight charges"},
		{"A/C Repairs (Office)", "ac repairs office"},
		{"Rent - Building", "rent building"},
		{"194J Fees!!", "194j fees"},
		{"", ""},
		{"&&&", ""},
	}
	for _, c := range cases {
		if got := NormalizeLedger(c.in); got != c.want {
			t.Errorf("NormalizeLedger(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPANKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme Traders", "acmetraders"},
		{" ACME  TRADERS ", "acmetraders"},
		{"acmetraders", "acmetraders"},
	}
	for _, c := range cases {
		if got := panKey(c.in); got != c.want {
			t.Errorf("panKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
