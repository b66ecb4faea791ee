package cmd

import (
	"log"
	"os"
	"path/filepath"
	"time"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"
)

// Output workbook names, fixed so the steps can find each other's results.
const (
	processedFile      = "processed_expense_data_with_tds.xlsx"
	discrepancyFile    = "Discrepancies.xlsx"
	payableFile        = "tdspayable_tally.xlsx"
	notConsideredFile  = "tdspayable_notconsidered.xlsx"
	payableRecoFile    = "tdspayable_reco.xlsx"
	parsedFiledFile    = "parsed_26Q.xlsx"
	reconciliationFile = "tds_reconciliation_report.xlsx"
)

// Config collects the file locations and knobs shared by the pipeline
// steps. It is loaded once before any command runs and passed down; nothing
// mutates it afterwards.
type Config struct {
	Daybook        string `toml:"daybook"`
	DaybookSheet   string `toml:"daybook_sheet"`
	LedgerMaster   string `toml:"ledger_master"`
	LedgerSheet    string `toml:"ledger_sheet"`
	Form26Q        string `toml:"form26q"`
	Rates          string `toml:"rates"`
	Overrides      string `toml:"overrides"`
	MappingCache   string `toml:"mapping_cache"`
	Sections       string `toml:"sections"`
	OutputDir      string `toml:"output_dir"`
	TurnoverGt10Cr bool   `toml:"turnover_gt_10cr"`
	ClassifyDelay  string `toml:"classify_delay"`
}

var cfgFile string
var cfg Config

var rootCmd = &cobra.Command{
	Use:   "tds",
	Short: "Withholding-tax computation and reconciliation for Tally books",
	Long: `Determines which expense lines carry a TDS obligation, computes the
amounts under threshold-and-rate rules, and reconciles them against the
book postings and the filed quarterly return.`,
}

// Execute runs the root command.
func Execute() {
	cc.Init(&cc.Config{
		RootCmd:  rootCmd,
		Headings: cc.HiCyan + cc.Bold + cc.Underline,
		Commands: cc.HiYellow + cc.Bold,
		Example:  cc.Italic,
		ExecName: cc.Bold,
		Flags:    cc.Bold,
	})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "tds.toml", "Configuration file (TOML).")
}

func defaultConfig() Config {
	return Config{
		Daybook:       "Daybook.xlsx",
		DaybookSheet:  "A__DayBook",
		LedgerMaster:  "Ledger.xlsx",
		LedgerSheet:   "Ledger",
		Form26Q:       "26Q.txt",
		Rates:         "tds_rates.csv",
		Overrides:     "hardcoded_vendors.csv",
		MappingCache:  "tds_section_mapping.csv",
		Sections:      "ledger_tds_sections.csv",
		OutputDir:     ".",
		ClassifyDelay: "20s",
	}
}

func loadConfig() {
	cfg = defaultConfig()
	data, err := os.ReadFile(cfgFile)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		log.Fatalln(err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("%s: %v", cfgFile, err)
	}
}

func classifyDelay() time.Duration {
	d, err := time.ParseDuration(cfg.ClassifyDelay)
	if err != nil {
		return 20 * time.Second
	}
	return d
}

func outPath(name string) string {
	return filepath.Join(cfg.OutputDir, name)
}
