package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"golang.org/x/term"

	"github.com/tallyreco/tds"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Three-way reconciliation of computed, booked and filed TDS",
	Run: func(_ *cobra.Command, _ []string) {
		if err := runReconcile(); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile() error {
	lines := loadDaybook()
	engine := loadEngine(turnoverFlag || cfg.TurnoverGt10Cr)
	res := engine.Process(lines, loadMasters())
	books := tds.ExtractBooks(lines)

	entries, err := loadFiled()
	if err != nil {
		return err
	}
	filed := make([]tds.FiledRow, len(entries))
	for i, e := range entries {
		filed[i] = tds.FiledRow{
			Month:       e.Month,
			Vendor:      e.Vendor,
			PAN:         e.PAN,
			Section:     e.Section,
			AmountPaid:  e.AmountPaid,
			TDSDeducted: e.TDSDeducted,
		}
	}

	rows := tds.Reconcile(res.Rows, books.Rows, filed)
	if err := writeReconciliation(rows, tds.SummarizeVendors(rows)); err != nil {
		return err
	}

	printTotals(rows)
	return nil
}

var reconHeader = []string{
	"Month", "Vendor Name", "PAN",
	"Section as per Tally", "Section as per 26Q",
	"Amount Paid as per Tally", "Amount Paid as per 26Q",
	"TDS as per Calculation", "TDS as per Tally", "TDS as per 26Q",
	"Difference TDS (Tally vs 26Q)", "Difference TDS (Calculation vs 26Q)",
	"Difference Amount Paid", "Section Mismatch", "Review",
}

func writeReconciliation(rows []tds.ReconRow, summary []tds.VendorSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	body := make([][]any, len(rows))
	for i, r := range rows {
		body[i] = []any{
			r.Month, r.Vendor, r.PAN, r.SectionTally, r.SectionFiled,
			r.PaidTally.InexactFloat64(), r.PaidFiled.InexactFloat64(),
			r.TDSCalc.InexactFloat64(), r.TDSTally.InexactFloat64(), r.TDSFiled.InexactFloat64(),
			r.DiffTDSTally.InexactFloat64(), r.DiffTDSCalc.InexactFloat64(),
			r.DiffPaid.InexactFloat64(), yesNo(r.SectionMismatch), yesNo(r.Review),
		}
	}
	if err := addSheet(f, "Monthwise", reconHeader, body); err != nil {
		return err
	}
	if err := highlightOutsideTolerance(f, "Monthwise", len(body), "K", "L", "M"); err != nil {
		return err
	}

	sb := make([][]any, len(summary))
	for i, s := range summary {
		sb[i] = []any{
			s.Vendor, s.PAN,
			s.PaidTally.InexactFloat64(), s.PaidFiled.InexactFloat64(),
			s.TDSCalc.InexactFloat64(), s.TDSTally.InexactFloat64(), s.TDSFiled.InexactFloat64(),
			s.DiffTDSTally.InexactFloat64(), s.DiffTDSCalc.InexactFloat64(), s.DiffPaid.InexactFloat64(),
		}
	}
	err := addSheet(f, "Vendor Summary", []string{
		"Vendor Name", "PAN",
		"Amount Paid as per Tally", "Amount Paid as per 26Q",
		"TDS as per Calculation", "TDS as per Tally", "TDS as per 26Q",
		"Difference TDS (Tally vs 26Q)", "Difference TDS (Calculation vs 26Q)",
		"Difference Amount Paid",
	}, sb)
	if err != nil {
		return err
	}
	if err := highlightOutsideTolerance(f, "Vendor Summary", len(sb), "H", "I", "J"); err != nil {
		return err
	}
	return saveWorkbook(f, outPath(reconciliationFile))
}

// printTotals writes grand totals to the terminal, label left and amount
// right-aligned to the terminal width.
func printTotals(rows []tds.ReconRow) {
	var calc, booked, filed decimal.Decimal
	review := 0
	for _, r := range rows {
		calc = calc.Add(r.TDSCalc)
		booked = booked.Add(r.TDSTally)
		filed = filed.Add(r.TDSFiled)
		if r.Review {
			review++
		}
	}

	width := 60
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if tw, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && tw > 0 && tw < width {
			width = tw
		}
	}
	printTotal := func(label string, amount decimal.Decimal) {
		s := amount.StringFixedBank(2)
		pad := width - len(label) - len(s)
		if pad < 1 {
			pad = 1
		}
		fmt.Println(label + strings.Repeat(" ", pad) + s)
	}
	printTotal("TDS as per calculation", calc)
	printTotal("TDS as per books", booked)
	printTotal("TDS as per 26Q", filed)
	fmt.Printf("%d of %d rows flagged for review\n", review, len(rows))
}
