package commands

import (
	"fmt"
	"os"

	"github.com/penwyp/go-feed-deck/internal/config"
	"github.com/penwyp/go-feed-deck/internal/util"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Writes a config file with the default settings, one JSONL source and two
sample columns to the --config path. The format follows the file extension.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
}

func starterConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Sources = []config.SourceConfig{
		{Name: "events", Type: config.SourceFile, Path: "~/.go-feed-deck/events.jsonl"},
	}
	golang := "golang"
	cfg.Columns = []config.ColumnConfig{
		{
			ID:     "golang",
			Title:  "Go",
			Pinned: true,
			Filters: [][]config.PredicateConfig{
				{{Text: &golang}},
			},
		},
		{
			ID:    "media",
			Title: "Pictures and video",
			Filters: [][]config.PredicateConfig{
				{{Media: "image"}, {Media: "video"}},
			},
		},
	}
	return cfg
}

func runInit(cmd *cobra.Command, args []string) error {
	path := util.ExpandPath(configPath)
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(starterConfig(), path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
