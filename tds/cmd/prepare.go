package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/tallyreco/tds"
)

var (
	turnoverFlag bool
	beginString  string
	endString    string
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Resolve vendors and PANs and compute TDS for every expense line",
	Run: func(_ *cobra.Command, _ []string) {
		if err := runPrepare(); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	prepareCmd.Flags().BoolVar(&turnoverFlag, "turnover-gt-10cr", false, "Previous-year turnover exceeded ₹10 crore (enables 194Q).")
	prepareCmd.Flags().StringVarP(&beginString, "begin-date", "b", "", "Begin date of daybook lines to process.")
	prepareCmd.Flags().StringVarP(&endString, "end-date", "e", "", "End date of daybook lines to process.")
}

// filterRange keeps lines dated within [begin, end]. Whole vouchers stay
// intact because every line of a voucher carries the voucher date.
func filterRange(lines []tds.Line) ([]tds.Line, error) {
	if beginString == "" && endString == "" {
		return lines, nil
	}
	begin := time.Unix(0, 0)
	end := time.Now().Add(time.Hour * 24)
	var err error
	if beginString != "" {
		if begin, err = dateparse.ParseAny(beginString); err != nil {
			return nil, errors.New("unable to parse begin date string argument")
		}
	}
	if endString != "" {
		if end, err = dateparse.ParseAny(endString); err != nil {
			return nil, errors.New("unable to parse end date string argument")
		}
		end = end.Add(24*time.Hour - time.Second)
	}

	var kept []tds.Line
	for _, l := range lines {
		if l.Date.Before(begin) || l.Date.After(end) {
			continue
		}
		kept = append(kept, l)
	}
	return kept, nil
}

func runPrepare() error {
	lines, err := filterRange(loadDaybook())
	if err != nil {
		return err
	}
	engine := loadEngine(turnoverFlag || cfg.TurnoverGt10Cr)
	res := engine.Process(lines, loadMasters())

	if err := writeProcessed(res.Rows); err != nil {
		return err
	}
	if err := writeDiscrepancies(res); err != nil {
		return err
	}

	applicable := 0
	for _, r := range res.Rows {
		if r.Applicable {
			applicable++
		}
	}
	fmt.Printf("%d expense lines computed, %d applicable\n", len(res.Rows), applicable)
	fmt.Printf("%d unassigned vendors, %d applicable vendors without PAN, %d multi-creditor vouchers\n",
		len(res.Unassigned), len(res.MissingPAN), len(res.MultiCreditors))
	return nil
}

var processedHeader = []string{
	"Row No", "Ledger", "Vendor Associated", "PAN", "Month", "Amount", "Key",
	"Voucher Type", "Narration", "Ledger Group", "TDS Section",
	"TDS Applicable", "TDS Applicability Reason", "TDS Rate", "TDS Amount",
}

func processedRow(r tds.ComputedRow) []any {
	return []any{
		r.RowNo, r.Ledger, r.Vendor, r.PAN, r.Month,
		r.Amount.InexactFloat64(), r.Key, r.VoucherType, r.Narration,
		r.LedgerGroup, r.Section, yesNo(r.Applicable), r.Reason,
		r.Rate.InexactFloat64(), r.TDS.InexactFloat64(),
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func writeProcessed(rows []tds.ComputedRow) error {
	body := make([][]any, len(rows))
	for i, r := range rows {
		body[i] = processedRow(r)
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := addSheet(f, "TDS Computation", processedHeader, body); err != nil {
		return err
	}
	return saveWorkbook(f, outPath(processedFile))
}

func writeDiscrepancies(res *tds.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	unassigned := make([][]any, len(res.Unassigned))
	for i, u := range res.Unassigned {
		unassigned[i] = []any{u.Key, u.Ledger, u.VoucherType, u.Narration}
	}
	err := addSheet(f, "Unassigned Vendors",
		[]string{"Key", "Ledger", "Voucher Type", "Narration"}, unassigned)
	if err != nil {
		return err
	}

	missing := make([][]any, len(res.MissingPAN))
	for i, v := range res.MissingPAN {
		missing[i] = []any{v}
	}
	if err := addSheet(f, "Missing PAN", []string{"Vendor"}, missing); err != nil {
		return err
	}

	var multi [][]any
	for _, v := range res.MultiCreditors {
		for _, l := range v.Lines {
			multi = append(multi, []any{
				v.Key, l.Ledger, l.Group, l.Party,
				l.Amount.InexactFloat64(), l.Date.Format(tds.MonthLayout),
				l.VoucherType, l.Narration,
			})
		}
	}
	err = addSheet(f, "Multiple Creditors",
		[]string{"Key", "Ledger", "Group", "Party", "Amount", "Month", "Voucher Type", "Narration"}, multi)
	if err != nil {
		return err
	}
	return saveWorkbook(f, outPath(discrepancyFile))
}
