package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/tallyreco/tds/tds/form26q"
)

var parse26QCmd = &cobra.Command{
	Use:   "parse-26q",
	Short: "Decode the filed Form 26Q extract into a deductee workbook",
	Run: func(_ *cobra.Command, _ []string) {
		if err := runParse26Q(); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(parse26QCmd)
}

func loadFiled() ([]form26q.Entry, error) {
	f, err := os.Open(cfg.Form26Q)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return form26q.Parse(f)
}

func runParse26Q() error {
	entries, err := loadFiled()
	if err != nil {
		return err
	}

	body := make([][]any, len(entries))
	for i, e := range entries {
		body[i] = []any{
			e.Month, e.Vendor, e.PAN, e.Section,
			e.AmountPaid.InexactFloat64(), e.TDSDeducted.InexactFloat64(),
			e.ChallanNo, e.ChallanDate,
		}
	}
	f := excelize.NewFile()
	defer f.Close()
	err = addSheet(f, "Deductees",
		[]string{"Month", "Vendor", "PAN", "Section", "Amount Paid", "TDS Deducted", "Challan No.", "Challan Date"}, body)
	if err != nil {
		return err
	}
	if err := saveWorkbook(f, outPath(parsedFiledFile)); err != nil {
		return err
	}

	fmt.Printf("%d deductee entries parsed from %s\n", len(entries), cfg.Form26Q)
	return nil
}
