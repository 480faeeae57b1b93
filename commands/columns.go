package commands

import (
	"fmt"

	"github.com/penwyp/go-feed-deck/internal/application/deck"
	"github.com/penwyp/go-feed-deck/internal/config"
	"github.com/penwyp/go-feed-deck/internal/core/column"
	"github.com/penwyp/go-feed-deck/internal/core/feedlog"
	"github.com/penwyp/go-feed-deck/internal/core/filter"
	"github.com/penwyp/go-feed-deck/internal/core/registry"
	"github.com/penwyp/go-feed-deck/internal/data/store"
	"github.com/penwyp/go-feed-deck/internal/presentation/formatter"
	"github.com/penwyp/go-feed-deck/internal/util"
	"github.com/spf13/cobra"
)

var (
	columnsOutput    string
	columnsFromState bool
	columnsExport    string
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "List columns in display order with their filters",
	Long: `Lists the configured columns in display order (pinned first) with the
pin flag and the filter set in its stored encoding.

With --from-state the columns saved by the live deck are listed instead,
and --export writes them back out as a config file.`,
	RunE: runColumns,
}

func init() {
	rootCmd.AddCommand(columnsCmd)

	columnsCmd.Flags().StringVarP(&columnsOutput, "output", "o", "table",
		"Output format (table, json, summary)")
	columnsCmd.Flags().BoolVar(&columnsFromState, "from-state", false,
		"List the columns saved in the state database")
	columnsCmd.Flags().StringVar(&columnsExport, "export", "",
		"Write the listed columns to this config file")
}

// buildRegistry arranges columns the way the deck would show them. With
// fromState the saved columns are used, otherwise the configured ones.
func buildRegistry(cfg *config.Config, fromState bool, log feedlog.Log) (*registry.Registry, error) {
	newBuffer := func() column.Buffer { return column.NewMemoryBuffer(cfg.Deck.BufferCapacity) }
	if fromState {
		st, err := store.Open(util.ExpandPath(cfg.Storage.Path))
		if err != nil {
			return nil, err
		}
		defer st.Close()
		states, err := st.LoadColumns()
		if err != nil {
			return nil, err
		}
		return registry.Restore(states, log, newBuffer), nil
	}
	reg := registry.New()
	if _, err := deck.Reconcile(reg, cfg.Columns, newBuffer); err != nil {
		return nil, err
	}
	return reg, nil
}

func columnReport(c *column.Column) formatter.ColumnReport {
	encoded, err := filter.EncodeSet(c.Active)
	if err != nil {
		util.LogWarnf("columns: encode filters of %s: %v", c.ID, err)
	}
	return formatter.ColumnReport{
		ID:      c.ID,
		Title:   c.Title,
		Pinned:  c.Pinned,
		Filters: c.Active.String(),
		Encoded: encoded,
	}
}

func runColumns(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg, false); err != nil {
		return err
	}
	defer util.CloseLogger()

	reg, err := buildRegistry(cfg, columnsFromState, feedlog.NewRing(1))
	if err != nil {
		return err
	}

	if columnsExport != "" {
		out := config.DefaultConfig()
		out.Deck = cfg.Deck
		out.Sources = cfg.Sources
		out.Storage = cfg.Storage
		for _, c := range reg.Columns() {
			out.Columns = append(out.Columns, config.ColumnFromSet(c.ID, c.Title, c.Pinned, c.Active))
		}
		if err := config.Save(out, util.ExpandPath(columnsExport)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d columns to %s\n", len(out.Columns), columnsExport)
	}

	reports := make([]formatter.ColumnReport, 0, reg.Len())
	for _, c := range reg.Columns() {
		reports = append(reports, columnReport(c))
	}
	f, err := formatter.New(columnsOutput, nil, false)
	if err != nil {
		return err
	}
	return f.Format(cmd.OutOrStdout(), reports)
}
