package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/penwyp/go-feed-deck/internal/application/deck"
	"github.com/penwyp/go-feed-deck/internal/config"
	"github.com/penwyp/go-feed-deck/internal/data/store"
	"github.com/penwyp/go-feed-deck/internal/presentation/display"
	"github.com/penwyp/go-feed-deck/internal/presentation/interaction"
	"github.com/penwyp/go-feed-deck/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug bool

	// Locations
	configPath string
	statePath  string

	// Hot reload
	noWatch bool

	rootCmd = &cobra.Command{
		Use:   "go-feed-deck [flags]",
		Short: "Multi-column terminal feed reader",
		Long: `go-feed-deck follows event feeds (JSONL files, PostgreSQL tables) and shows
them as side-by-side columns, each with its own filters.

Every column keeps its own position in a shared, bounded event log and is fed
a slice of the log on each tick, so a busy column never starves the others.

Examples:
  go-feed-deck                                  # Run the deck with ~/.go-feed-deck/config.toml
  go-feed-deck --config deck.yaml               # Use another config file
  go-feed-deck scan --file events.jsonl         # Print what each column would show
  go-feed-deck columns --output json            # List configured columns with their filters`,
		SilenceUsage: true,
		RunE:         runDeck,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath,
		"Config file (.toml, .yaml, .json)")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "",
		"State database path (overrides storage.path)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug logging to stderr")
	rootCmd.Flags().BoolVar(&noWatch, "no-watch", false,
		"Do not reload the config file when it changes")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file and applies the path flags
func loadConfig() (*config.Config, string, error) {
	path := util.ExpandPath(configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	if statePath != "" {
		cfg.Storage.Path = statePath
	}
	return cfg, path, nil
}

// initLogging installs the global logger. console mirrors to stderr; the
// live deck only does so in debug mode since it owns the terminal.
func initLogging(cfg *config.Config, console bool) error {
	level := cfg.Logging.Level
	if debug {
		level = "debug"
		console = true
	}
	file := ""
	if cfg.Logging.File != "" {
		file = util.ExpandPath(cfg.Logging.File)
	}
	l, err := util.NewLogger(util.LoggerOptions{
		Level:   level,
		File:    file,
		Console: console,
		Format:  util.LogFormat(cfg.Logging.Format),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if prev := util.SetLogger(l); prev != nil {
		_ = prev.Close()
	}
	return nil
}

func runDeck(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg, false); err != nil {
		return err
	}
	defer util.CloseLogger()

	st, err := store.Open(util.ExpandPath(cfg.Storage.Path))
	if err != nil {
		return err
	}
	defer st.Close()

	sources, err := deck.BuildSources(cfg.Sources, st, cfg.Storage.PersistLog)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps := deck.Deps{
		Store:   st,
		Sources: sources,
		Display: display.NewTerminal(),
	}

	if !noWatch {
		if _, statErr := os.Stat(path); statErr == nil {
			watcher, err := config.NewWatcher(path)
			if err != nil {
				util.LogWarnf("config hot reload disabled: %v", err)
			} else {
				go watcher.Run(ctx)
				deps.Reloads = watcher.Updates()
			}
		}
	}

	keyboard, err := interaction.NewKeyboardReader()
	if err != nil {
		return fmt.Errorf("failed to initialize keyboard: %w", err)
	}
	defer keyboard.Close()
	deps.Input = keyboard

	orchestrator, err := deck.NewOrchestrator(deck.NewDeckConfig(cfg), deps)
	if err != nil {
		return err
	}
	return orchestrator.Run(ctx)
}
