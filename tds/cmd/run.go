package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/hako/durafmt"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: section-map, prepare, payable, parse-26q, reconcile",
	Run: func(_ *cobra.Command, _ []string) {
		steps := []struct {
			name string
			fn   func() error
		}{
			{"section-map", runSectionMap},
			{"prepare", runPrepare},
			{"payable", runPayable},
			{"parse-26q", runParse26Q},
			{"reconcile", runReconcile},
		}
		for _, step := range steps {
			start := time.Now()
			if err := step.fn(); err != nil {
				log.Fatalf("%s: %v", step.name, err)
			}
			elapsed := durafmt.Parse(time.Since(start).Round(time.Millisecond))
			fmt.Printf("-- %s finished in %s\n", step.name, elapsed)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&turnoverFlag, "turnover-gt-10cr", false, "Previous-year turnover exceeded ₹10 crore (enables 194Q).")
}
