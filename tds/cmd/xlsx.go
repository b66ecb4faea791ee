package cmd

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// addSheet writes a header row and body rows to a new sheet, sizing columns
// to the widest cell.
func addSheet(f *excelize.File, name string, header []string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	for i := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, ref, &rows[i]); err != nil {
			return err
		}
	}
	return autofit(f, name, header, rows)
}

func autofit(f *excelize.File, sheet string, header []string, rows [][]any) error {
	for c := range header {
		widest := len(header[c])
		for _, row := range rows {
			if c >= len(row) {
				continue
			}
			if n := len(fmt.Sprint(row[c])); n > widest {
				widest = n
			}
		}
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(widest+2)); err != nil {
			return err
		}
	}
	return nil
}

// highlightOutsideTolerance paints difference cells beyond ±1 in the red
// reviewers expect from conditional formats.
func highlightOutsideTolerance(f *excelize.File, sheet string, rows int, cols ...string) error {
	if rows == 0 {
		return nil
	}
	styleID, err := f.NewConditionalStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
		Font: &excelize.Font{Color: "9C0006"},
	})
	if err != nil {
		return err
	}
	for _, col := range cols {
		area := fmt.Sprintf("%s2:%s%d", col, col, rows+1)
		err := f.SetConditionalFormat(sheet, area, []excelize.ConditionalFormatOptions{
			{Type: "cell", Criteria: ">", Value: "1", Format: &styleID},
			{Type: "cell", Criteria: "<", Value: "-1", Format: &styleID},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func saveWorkbook(f *excelize.File, path string) error {
	f.DeleteSheet("Sheet1")
	return f.SaveAs(path)
}
