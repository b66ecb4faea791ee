package cmd

import (
	"log"
	"os"

	"github.com/tallyreco/tds"
	"github.com/tallyreco/tds/tds/tally"
)

func loadDaybook() []tds.Line {
	lines, err := tally.ReadDaybook(cfg.Daybook, cfg.DaybookSheet)
	if err != nil {
		log.Fatalln(err)
	}
	return lines
}

func loadMasters() []tds.Master {
	masters, err := tally.ReadMasters(cfg.LedgerMaster, cfg.LedgerSheet)
	if err != nil {
		log.Fatalln(err)
	}
	return masters
}

// loadEngine assembles the rule tables. The rates and section mapping are
// mandatory; a missing overrides file just means nothing is overridden.
func loadEngine(turnoverAbove10Cr bool) *tds.Engine {
	rf, err := os.Open(cfg.Rates)
	if err != nil {
		log.Fatalln(err)
	}
	defer rf.Close()
	rates, err := tds.LoadRates(rf)
	if err != nil {
		log.Fatalln(err)
	}

	sf, err := os.Open(cfg.Sections)
	if err != nil {
		log.Fatalln(err)
	}
	defer sf.Close()
	sections, err := tds.LoadSections(sf)
	if err != nil {
		log.Fatalln(err)
	}

	overrides := map[string]tds.Override{}
	of, err := os.Open(cfg.Overrides)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalln(err)
		}
		log.Printf("no overrides file at %s, continuing without", cfg.Overrides)
	} else {
		defer of.Close()
		if overrides, err = tds.LoadOverrides(of); err != nil {
			log.Fatalln(err)
		}
	}

	return &tds.Engine{
		Sections:          sections,
		Rates:             rates,
		Overrides:         overrides,
		TurnoverAbove10Cr: turnoverAbove10Cr,
	}
}
