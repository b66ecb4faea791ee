package tds

import (
	"strings"
	"unicode"
)

// NormalizeLedger lowercases a ledger name, strips everything except letters,
// digits and whitespace, and collapses whitespace runs. Cosmetic respellings
// of the same ledger normalize to the same key, which is what the section
// mapping is keyed by.
func NormalizeLedger(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// panKey is the cleaning the ledger master applies to names before PAN
// lookups: lowercase with every space removed.
func panKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "")
}

// overrideKey matches vendors against the hardcoded table case-insensitively.
func overrideKey(vendor string) string {
	return strings.ToLower(strings.TrimSpace(vendor))
}

// cleanKey is the join-key form used by the reconciliation matcher.
func cleanKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func cleanGroup(group string) string {
	return strings.ToLower(strings.TrimSpace(group))
}

func digitCount(s string) int {
	var n int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
