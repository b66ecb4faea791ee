// Package tally reads Tally daybook and ledger-master exports, either the
// raw XLSX the ODBC fetch produces or a CSV of the same columns.
package tally

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	date "github.com/joyt/godate"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/tallyreco/tds"
)

var (
	ErrMissingColumn = errors.New("tally: required column missing")
	ErrEmptyExport   = errors.New("tally: export has no header row")
)

// dateParser caches the last seen layout and value; exports repeat the same
// date format (and usually the same date) row after row.
type dateParser struct {
	layout   string
	prevStr  string
	prevDate time.Time
	prevErr  error
}

func (p *dateParser) parse(s string) (time.Time, error) {
	if s == p.prevStr {
		return p.prevDate, p.prevErr
	}

	t, err := time.Parse(p.layout, s)
	if err != nil {
		t, p.layout, err = date.ParseAndGetLayout(s)
		if err != nil {
			err = fmt.Errorf("tally: unable to parse date(%s): %w", s, err)
		}
	}

	p.prevStr = s
	p.prevDate = t
	p.prevErr = err
	return t, err
}

func parseAmount(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func column(idx map[string]int, name string) (int, error) {
	if i, ok := idx[name]; ok {
		return i, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadDaybook loads daybook lines from path. XLSX files read the given
// sheet (first sheet when blank); anything else is treated as CSV.
func ReadDaybook(path, sheet string) ([]tds.Line, error) {
	rows, err := readRows(path, sheet)
	if err != nil {
		return nil, err
	}
	return DecodeDaybook(rows)
}

// ReadDaybookCSV reads daybook lines from a CSV stream.
func ReadDaybookCSV(r io.Reader) ([]tds.Line, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return DecodeDaybook(rows)
}

// DecodeDaybook turns raw export rows (header first) into daybook lines.
func DecodeDaybook(rows [][]string) ([]tds.Line, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyExport
	}
	idx := headerIndex(rows[0])
	iKey, err := column(idx, "$key")
	if err != nil {
		return nil, err
	}
	iLedger, err := column(idx, "$ledgername")
	if err != nil {
		return nil, err
	}
	iGroup, err := column(idx, "$led_group")
	if err != nil {
		return nil, err
	}
	iAmount, err := column(idx, "$amount")
	if err != nil {
		return nil, err
	}
	iDate, err := column(idx, "$date")
	if err != nil {
		return nil, err
	}
	iParty := optional(idx, "$party_ledname")
	iVchType := optional(idx, "$vouchertypename")
	iNarration := optional(idx, "$narration")

	var dp dateParser
	lines := make([]tds.Line, 0, len(rows)-1)
	for _, row := range rows[1:] {
		key := cell(row, iKey)
		if key == "" {
			continue
		}
		when, derr := dp.parse(cell(row, iDate))
		if derr != nil {
			return nil, derr
		}
		lines = append(lines, tds.Line{
			Key:         key,
			Ledger:      cell(row, iLedger),
			Group:       cell(row, iGroup),
			Party:       cell(row, iParty),
			Amount:      parseAmount(cell(row, iAmount)),
			Date:        when,
			VoucherType: cell(row, iVchType),
			Narration:   cell(row, iNarration),
		})
	}
	return lines, nil
}

// ReadMasters loads ledger-master records from path, XLSX or CSV.
func ReadMasters(path, sheet string) ([]tds.Master, error) {
	rows, err := readRows(path, sheet)
	if err != nil {
		return nil, err
	}
	return DecodeMasters(rows)
}

// DecodeMasters turns raw ledger-master rows (header first) into records.
func DecodeMasters(rows [][]string) ([]tds.Master, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyExport
	}
	idx := headerIndex(rows[0])
	iName, err := column(idx, "$name")
	if err != nil {
		return nil, err
	}
	iTax := optional(idx, "$incometaxnumber")
	iGSTIN := optional(idx, "$partygstin")

	masters := make([]tds.Master, 0, len(rows)-1)
	for _, row := range rows[1:] {
		name := cell(row, iName)
		if name == "" {
			continue
		}
		masters = append(masters, tds.Master{
			Name:            name,
			IncomeTaxNumber: cell(row, iTax),
			GSTIN:           cell(row, iGSTIN),
		})
	}
	return masters, nil
}

func optional(idx map[string]int, name string) int {
	if i, ok := idx[name]; ok {
		return i
	}
	return -1
}

func readRows(path, sheet string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path, sheet)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	return f.GetRows(sheet)
}
