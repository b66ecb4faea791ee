package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/tallyreco/tds"
)

var payableCmd = &cobra.Command{
	Use:   "payable",
	Short: "Extract book-side TDS postings and reconcile them with the computation",
	Run: func(_ *cobra.Command, _ []string) {
		if err := runPayable(); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(payableCmd)
}

func runPayable() error {
	lines := loadDaybook()
	engine := loadEngine(turnoverFlag || cfg.TurnoverGt10Cr)
	res := engine.Process(lines, loadMasters())
	books := tds.ExtractBooks(lines)

	if err := writePayable(books); err != nil {
		return err
	}
	reco := tds.ReconcilePayable(res.Rows, books.Rows)
	if err := writePayableReco(reco, tds.SummarizePayable(reco)); err != nil {
		return err
	}

	fmt.Printf("%d book postings across %d TDS ledgers, %d vouchers not considered\n",
		len(books.Rows), len(books.Ledgers), len(books.NotConsidered))
	return nil
}

func writePayable(books *tds.BookResult) error {
	body := make([][]any, len(books.Rows))
	for i, r := range books.Rows {
		body[i] = []any{r.Month, r.Vendor, r.TDSLedger, r.Amount.InexactFloat64(), r.EntryType}
	}
	f := excelize.NewFile()
	defer f.Close()
	err := addSheet(f, "TDS Payable",
		[]string{"Month", "Vendor", "TDS Ledger", "TDS Amount", "Entry Type"}, body)
	if err != nil {
		return err
	}
	if err := saveWorkbook(f, outPath(payableFile)); err != nil {
		return err
	}

	if len(books.NotConsidered) == 0 {
		return nil
	}
	nc := make([][]any, len(books.NotConsidered))
	for i, r := range books.NotConsidered {
		nc[i] = []any{r.Key, r.VoucherType}
	}
	nf := excelize.NewFile()
	defer nf.Close()
	if err := addSheet(nf, "Not Considered", []string{"Key", "Voucher Type"}, nc); err != nil {
		return err
	}
	return saveWorkbook(nf, outPath(notConsideredFile))
}

func writePayableReco(reco []tds.PayableRow, summary []tds.PayableSummaryRow) error {
	f := excelize.NewFile()
	defer f.Close()

	body := make([][]any, len(reco))
	for i, r := range reco {
		body[i] = []any{
			r.Month, r.Vendor, r.Section,
			r.Calculated.InexactFloat64(), r.Book.InexactFloat64(),
			r.Difference.InexactFloat64(),
		}
	}
	err := addSheet(f, "Monthwise",
		[]string{"Month", "Vendor", "TDS Section", "TDS as per Calculation", "TDS as per Tally", "Difference"}, body)
	if err != nil {
		return err
	}
	if err := highlightOutsideTolerance(f, "Monthwise", len(body), "F"); err != nil {
		return err
	}

	sb := make([][]any, len(summary))
	for i, r := range summary {
		sb[i] = []any{
			r.Vendor, r.Section,
			r.Calculated.InexactFloat64(), r.Book.InexactFloat64(),
			r.Difference.InexactFloat64(),
		}
	}
	err = addSheet(f, "Vendor Summary",
		[]string{"Vendor", "TDS Section", "TDS as per Calculation", "TDS as per Tally", "Difference"}, sb)
	if err != nil {
		return err
	}
	if err := highlightOutsideTolerance(f, "Vendor Summary", len(sb), "E"); err != nil {
		return err
	}
	return saveWorkbook(f, outPath(payableRecoFile))
}
