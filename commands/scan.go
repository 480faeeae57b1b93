package commands

import (
	"fmt"
	"runtime"

	"github.com/penwyp/go-feed-deck/internal/core/feedlog"
	"github.com/penwyp/go-feed-deck/internal/data/ingest"
	"github.com/penwyp/go-feed-deck/internal/data/scanner"
	"github.com/penwyp/go-feed-deck/internal/presentation/formatter"
	"github.com/penwyp/go-feed-deck/internal/util"
	"github.com/spf13/cobra"
)

var (
	scanFiles     []string
	scanOutput    string
	scanLimit     int
	scanBudget    int
	scanFromState bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Catch every column up on JSONL files and print the matches",
	Long: `Loads the given JSONL files into a log of the configured capacity, in file
order, then catches every column up once and prints each column's matches
newest first. Directories are searched for *.jsonl files. Older events are
evicted when the files hold more than the log capacity, just as in the live
deck.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringArrayVarP(&scanFiles, "file", "f", nil,
		"JSONL event file or directory of them (repeatable)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "table",
		"Output format (table, json, csv, summary)")
	scanCmd.Flags().IntVar(&scanLimit, "limit", 20,
		"Events shown per column (0 = all)")
	scanCmd.Flags().IntVar(&scanBudget, "budget", 0,
		"Catch-up budget per column (0 = the whole log)")
	scanCmd.Flags().BoolVar(&scanFromState, "from-state", false,
		"Scan with the columns saved in the state database")
	_ = scanCmd.MarkFlagRequired("file")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg, false); err != nil {
		return err
	}
	defer util.CloseLogger()

	files, err := scanner.Expand(scanFiles)
	if err != nil {
		return err
	}

	log := feedlog.NewRing(cfg.Deck.LogCapacity)
	for _, result := range ingest.LoadFiles(files, runtime.NumCPU()) {
		if result.Err != nil {
			return fmt.Errorf("failed to load %s: %w", result.File, result.Err)
		}
		for _, ev := range result.Events {
			log.Append(ev)
		}
		util.LogDebugf("scan: loaded %d events from %s", len(result.Events), result.File)
	}

	reg, err := buildRegistry(cfg, scanFromState, log)
	if err != nil {
		return err
	}

	budget := scanBudget
	if budget <= 0 {
		budget = log.Len()
	}

	clock, err := util.NewClock(cfg.Deck.Timezone)
	if err != nil {
		return err
	}

	reports := make([]formatter.ColumnReport, 0, reg.Len())
	for _, c := range reg.Columns() {
		c.Reset()
		scan := reg.CatchUp(c.ID, log, budget)
		limit := scanLimit
		if limit <= 0 {
			limit = c.Buffer.Size()
		}
		report := columnReport(c)
		report.Scanned = scan.Pulled
		report.Matched = scan.Matched
		report.Events = c.Buffer.Window(0, limit)
		reports = append(reports, report)
	}

	f, err := formatter.New(scanOutput, clock, true)
	if err != nil {
		return err
	}
	return f.Format(cmd.OutOrStdout(), reports)
}
