// Package classify holds the consuming side of the ledger-to-section
// classification collaborator: the append-only cache it persists to, the
// batching runner that drives a classification source, and an offline
// bayesian suggester trained on the cache.
package classify

import (
	"encoding/csv"
	"errors"
	"os"
	"slices"

	"github.com/tallyreco/tds"
)

var ErrNoCache = errors.New("classify: cache file does not exist")

// Store is the append-only classification cache, a CSV of
// (Ledger, Ledger_norm, TDS Section) rows. Rows are never deduplicated;
// on load the normalized key of the latest row wins. Provenance stays in
// the file, correctness never depends on row order beyond that.
type Store struct {
	Path string
}

const (
	colLedger  = "Ledger"
	colNorm    = "Ledger_norm"
	colSection = "TDS Section"
	colInUse   = "In Use"
)

func (s *Store) read() ([][]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// Load returns the normalized-ledger keyed mapping. A missing cache file is
// an empty mapping, not an error.
func (s *Store) Load() (map[string]string, error) {
	records, err := s.read()
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return map[string]string{}, nil
	}

	idx := headerIndex(records[0])
	iLedger, okLedger := idx[colLedger]
	iSection, okSection := idx[colSection]
	if !okLedger || !okSection {
		return nil, errors.New("classify: cache is missing the Ledger or TDS Section column")
	}
	iNorm, okNorm := idx[colNorm]

	mapping := make(map[string]string, len(records)-1)
	for _, rec := range records[1:] {
		key := ""
		if okNorm {
			key = cell(rec, iNorm)
		}
		if key == "" {
			key = tds.NormalizeLedger(cell(rec, iLedger))
		}
		if key == "" {
			continue
		}
		section := cell(rec, iSection)
		if section == "" {
			section = tds.SectionNone
		}
		mapping[key] = section
	}
	return mapping, nil
}

// Append writes new raw-ledger classifications to the end of the cache.
// Existing rows are kept as they are, duplicates and In Use markings
// included.
func (s *Store) Append(results map[string]string) error {
	records, err := s.read()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	rows := normalizeRecords(records)

	ledgers := make([]string, 0, len(results))
	for name := range results {
		ledgers = append(ledgers, name)
	}
	slices.Sort(ledgers)
	for _, name := range ledgers {
		rows = append(rows, []string{name, tds.NormalizeLedger(name), results[name], ""})
	}
	return s.write(rows, hasInUse(records))
}

func hasInUse(records [][]string) bool {
	if len(records) == 0 {
		return false
	}
	_, ok := headerIndex(records[0])[colInUse]
	return ok
}

// MarkInUse rewrites the In Use column from the set of normalized keys the
// current run actually consumed, and floats in-use rows to the top.
func (s *Store) MarkInUse(used map[string]bool) error {
	records, err := s.read()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoCache
		}
		return err
	}
	rows := normalizeRecords(records)
	for _, row := range rows {
		if used[row[1]] {
			row[3] = "Yes"
		} else {
			row[3] = "No"
		}
	}
	slices.SortStableFunc(rows, func(a, b []string) int {
		if a[3] == b[3] {
			return 0
		}
		if a[3] == "Yes" {
			return -1
		}
		return 1
	})
	return s.write(rows, true)
}

// normalizeRecords reshapes whatever is on disk into four-column body rows,
// deriving the normalized key for files written before it existed.
func normalizeRecords(records [][]string) [][]string {
	if len(records) == 0 {
		return nil
	}
	idx := headerIndex(records[0])
	iLedger := idx[colLedger]
	iNorm, okNorm := idx[colNorm]
	iSection := idx[colSection]
	iInUse, okInUse := idx[colInUse]

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		ledger := cell(rec, iLedger)
		norm := ""
		if okNorm {
			norm = cell(rec, iNorm)
		}
		if norm == "" {
			norm = tds.NormalizeLedger(ledger)
		}
		inUse := ""
		if okInUse {
			inUse = cell(rec, iInUse)
		}
		rows = append(rows, []string{ledger, norm, cell(rec, iSection), inUse})
	}
	return rows
}

func (s *Store) write(rows [][]string, withInUse bool) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{colLedger, colNorm, colSection}
	if withInUse {
		header = append(header, colInUse)
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		out := row[:3]
		if withInUse {
			out = row
		}
		if err := w.Write(out); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
