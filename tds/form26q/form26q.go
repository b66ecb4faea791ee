// Package form26q decodes the tabular text extract of a Form 26Q quarterly
// TDS return into deductee entries. The extract interleaves section
// headings ("194C - ..."), vendor rows ("Vendor Name : ABCDE1234F") and
// tab-separated deductee tables; the decoder carries the section and vendor
// context down to each data row.
package form26q

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingColumn = errors.New("form26q: deductee table missing required column")
)

var (
	sectionRe = regexp.MustCompile(`^(\d{3}[A-Za-z]?)\s*-`)
	vendorRe  = regexp.MustCompile(`^(.*?)\s*:\s*([A-Z]{5}\d{4}[A-Z])$`)
)

const (
	payDateLayout = "02-01-2006"
	monthLayout   = "Jan-06"
)

// Entry is one deductee row of the return.
type Entry struct {
	Month       string
	Vendor      string
	PAN         string
	Section     string
	AmountPaid  decimal.Decimal
	TDSDeducted decimal.Decimal
	ChallanNo   string
	ChallanDate string
}

// Decoder reads a 26Q extract from an input stream.
type Decoder struct {
	r *csv.Reader

	section string
	vendor  string
	pan     string

	payDate, amtPaid, tdsDeducted, challanNo, challanDate int
	haveTable                                             bool
}

// NewDecoder returns a decoder reading tab-separated extract lines from r.
func NewDecoder(r io.Reader) *Decoder {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = false
	cr.FieldsPerRecord = -1
	return &Decoder{r: cr}
}

// Decode reads the whole extract and returns its deductee entries.
func (d *Decoder) Decode() ([]Entry, error) {
	var entries []Entry
	for {
		record, err := d.r.Read()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}

		cells := trimAll(record)
		if len(cells) == 0 || allEmpty(cells) {
			continue
		}

		// A row whose cells all repeat one value is context, not data:
		// either a section heading or a vendor/PAN row.
		if single, ok := uniform(cells); ok {
			if m := sectionRe.FindStringSubmatch(single); m != nil {
				d.section = strings.ToUpper(m[1])
				d.vendor, d.pan = "", ""
				d.haveTable = false
				continue
			}
			if m := vendorRe.FindStringSubmatch(single); m != nil {
				d.vendor, d.pan = strings.TrimSpace(m[1]), m[2]
				continue
			}
			continue
		}

		if strings.Contains(cells[0], "Date of Payment") {
			if err := d.mapColumns(cells); err != nil {
				return nil, err
			}
			continue
		}

		if !d.haveTable || d.section == "" {
			continue
		}

		entry, ok, err := d.decodeRow(cells)
		if err != nil {
			return nil, err
		}
		if ok {
			entries = append(entries, entry)
		}
	}
}

func (d *Decoder) mapColumns(header []string) error {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	find := func(name string) (int, error) {
		if i, ok := idx[name]; ok {
			return i, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}

	var err error
	if d.payDate, err = find("Date of Payment /Credit"); err != nil {
		return err
	}
	if d.amtPaid, err = find("Amount of Payment /Credit"); err != nil {
		return err
	}
	if d.tdsDeducted, err = find("Amount of Tax Deducted"); err != nil {
		return err
	}
	if d.challanNo, err = find("Challan No."); err != nil {
		return err
	}
	if d.challanDate, err = find("Challan Date"); err != nil {
		return err
	}
	d.haveTable = true
	return nil
}

func (d *Decoder) decodeRow(cells []string) (Entry, bool, error) {
	first := field(cells, d.payDate)
	// Totals and blank separators are presentation rows.
	if first == "" || strings.HasPrefix(strings.ToLower(first), "total") {
		return Entry{}, false, nil
	}
	payDate, err := time.Parse(payDateLayout, first)
	if err != nil {
		return Entry{}, false, nil
	}

	paid, err := parseAmount(field(cells, d.amtPaid))
	if err != nil {
		return Entry{}, false, fmt.Errorf("form26q: bad amount on %s row: %w", first, err)
	}
	deducted, err := parseAmount(field(cells, d.tdsDeducted))
	if err != nil {
		return Entry{}, false, fmt.Errorf("form26q: bad tax amount on %s row: %w", first, err)
	}

	return Entry{
		Month:       payDate.Format(monthLayout),
		Vendor:      d.vendor,
		PAN:         d.pan,
		Section:     d.section,
		AmountPaid:  paid,
		TDSDeducted: deducted,
		ChallanNo:   field(cells, d.challanNo),
		ChallanDate: field(cells, d.challanDate),
	}, true, nil
}

// Parse is a convenience wrapper decoding all entries from a 26Q extract.
func Parse(r io.Reader) ([]Entry, error) {
	return NewDecoder(r).Decode()
}

// parseAmount tolerates thousands separators and the typographic minus the
// return software emits.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "−", "-")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func trimAll(record []string) []string {
	out := make([]string, len(record))
	for i, c := range record {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// uniform reports whether every non-empty cell carries the same value,
// returning that value. Merged cells in the source document flatten out
// this way in the extract.
func uniform(cells []string) (string, bool) {
	value := ""
	for _, c := range cells {
		if c == "" {
			continue
		}
		if value == "" {
			value = c
		} else if c != value {
			return "", false
		}
	}
	return value, value != ""
}
