package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tallyreco/tds"
	"github.com/tallyreco/tds/classify"
)

var staticSourceFile string

var sectionMapCmd = &cobra.Command{
	Use:   "section-map",
	Short: "Map every expense ledger in the daybook to a TDS section",
	Long: `Collects the distinct expense ledgers from the daybook and resolves
each to a section code, through the append-only classification cache. Names
the cache cannot answer go to the classification source: a hand-maintained
static table when --source is given, otherwise a bayesian suggester trained
on the cache itself.`,
	Run: func(_ *cobra.Command, _ []string) {
		if err := runSectionMap(); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(sectionMapCmd)
	sectionMapCmd.Flags().StringVar(&staticSourceFile, "source", "", "Static ledger-to-section table (CSV) to classify from.")
}

func runSectionMap() error {
	ledgers := tds.ExpenseLedgers(loadDaybook())
	store := &classify.Store{Path: cfg.MappingCache}

	var src classify.Source
	if staticSourceFile != "" {
		f, err := os.Open(staticSourceFile)
		if err != nil {
			return err
		}
		table, err := tds.LoadSections(f)
		f.Close()
		if err != nil {
			return err
		}
		src = classify.StaticSource(table)
	} else {
		cached, err := store.Load()
		if err != nil {
			return err
		}
		suggester, err := classify.NewSuggester(cached)
		if err != nil {
			return fmt.Errorf("no classification source available: %w", err)
		}
		src = suggester
	}

	runner := classify.NewRunner(src, store, classifyDelay())
	export, used, err := runner.Map(context.Background(), ledgers)
	if err != nil {
		return err
	}

	if err := writeSectionExport(cfg.Sections, export); err != nil {
		return err
	}
	if err := store.MarkInUse(used); err != nil {
		log.Printf("mark in-use: %v", err)
	}

	unresolved := 0
	for _, m := range export {
		if m.Section == tds.SectionNone {
			unresolved++
		}
	}
	fmt.Printf("%d expense ledgers mapped, %d without a section\n", len(export), unresolved)
	return nil
}

func writeSectionExport(path string, export []classify.Mapping) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Ledger", "TDS Section"}); err != nil {
		return err
	}
	for _, m := range export {
		if err := w.Write([]string{m.Ledger, m.Section}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
