package tds

import (
	"slices"
	"strings"
)

// Ledger groups that make a line an expense-category line, and the liability
// groups a vendor can be attributed from when the line carries no party.
var (
	expenseGroups = map[string]bool{
		"direct expenses":   true,
		"indirect expenses": true,
		"purchase accounts": true,
		"fixed assets":      true,
	}
	creditorGroups = map[string]bool{
		"sundry creditors": true,
		"unsecured loans":  true,
	}
)

func isExpense(group string) bool  { return expenseGroups[cleanGroup(group)] }
func isCreditor(group string) bool { return creditorGroups[cleanGroup(group)] }

// GroupVouchers groups daybook lines by voucher key. Vouchers come back in
// sorted key order so a run is deterministic regardless of export ordering;
// lines within a voucher keep their export order.
func GroupVouchers(lines []Line) []Voucher {
	byKey := make(map[string][]Line)
	for _, l := range lines {
		byKey[l.Key] = append(byKey[l.Key], l)
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	vouchers := make([]Voucher, 0, len(keys))
	for _, k := range keys {
		vouchers = append(vouchers, Voucher{Key: k, Lines: byKey[k]})
	}
	return vouchers
}

// ExpenseLedgers returns the distinct raw ledger names appearing on
// expense-category lines, in order of first appearance. This is the set the
// section classifier is asked about.
func ExpenseLedgers(lines []Line) []string {
	seen := make(map[string]bool)
	var names []string
	for _, l := range lines {
		if !isExpense(l.Group) || l.Ledger == "" {
			continue
		}
		if !seen[l.Ledger] {
			seen[l.Ledger] = true
			names = append(names, l.Ledger)
		}
	}
	return names
}

// ResolvePAN derives the taxpayer identifier from a ledger-master record.
// The income-tax field wins when it carries at least four digits; otherwise
// the ten characters at offset 2 of a GSTIN of at least twelve characters
// are used, since a GSTIN embeds the holder's PAN there. Anything else is
// the PANNotFound sentinel.
func ResolvePAN(m Master) string {
	pan := strings.TrimSpace(m.IncomeTaxNumber)
	if digitCount(pan) >= 4 {
		return pan
	}
	gstin := strings.TrimSpace(m.GSTIN)
	if len(gstin) >= 12 {
		if embedded := gstin[2:12]; digitCount(embedded) >= 4 {
			return embedded
		}
	}
	return PANNotFound
}

// PANIndex builds the vendor-name keyed PAN lookup from the ledger master.
func PANIndex(masters []Master) map[string]string {
	idx := make(map[string]string, len(masters))
	for _, m := range masters {
		idx[panKey(m.Name)] = ResolvePAN(m)
	}
	return idx
}

// panType is the holder-type character of a PAN, its 4th. 'P' marks an
// individual. Zero when the PAN is too short to carry one.
func panType(pan string) byte {
	p := strings.ToUpper(strings.TrimSpace(pan))
	if len(p) < 4 {
		return 0
	}
	return p[3]
}
