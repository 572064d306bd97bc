// diskmesh drives a networked disk storage world from the command line.
package main

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diskmesh/diskmesh/internal/audit"
	"github.com/diskmesh/diskmesh/internal/config"
	"github.com/diskmesh/diskmesh/internal/disk"
	"github.com/diskmesh/diskmesh/internal/metrics"
	"github.com/diskmesh/diskmesh/internal/network"
	"github.com/diskmesh/diskmesh/internal/session"
	"github.com/diskmesh/diskmesh/internal/storage"
	"github.com/diskmesh/diskmesh/internal/world"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	cfgFile      string
	logLevel     string
	statePath    string
	layer        int
	printMetrics bool

	viewFilter   string
	viewCategory string
	viewPage     int

	depositQuality int
)

// engineMetrics registers the engine metrics once per process.
var engineMetrics = sync.OnceValue(func() *metrics.Metrics {
	return metrics.New(nil)
})

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "diskmesh",
		Short: "diskmesh - networked disk storage",
		Long: `diskmesh manages a world of drives, storage disks, readers and drop boxes.

Drives that touch each other form a network. A reader next to a network
shows everything stored on every disk in it as one view.

QUICK START:

  diskmesh init layout.yaml
  diskmesh network 0,0,0
  diskmesh view 0,0,0 --filter nail
  diskmesh deposit 3,0,0 1 500
  diskmesh withdraw 0,0,0 1 25

For more help on any command, use: diskmesh <command> --help`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !printMetrics {
				return nil
			}
			return metrics.WriteText(cmd.OutOrStdout(), metrics.Registry)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "state directory (overrides config)")
	rootCmd.PersistentFlags().IntVar(&layer, "layer", 0, "world layer of positions")
	rootCmd.PersistentFlags().BoolVar(&printMetrics, "metrics", false, "print engine metrics after the command")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "init <layout.yaml>",
		Short: "Build a world from a layout file and save it",
		Args:  cobra.ExactArgs(1),
		RunE:  runInit,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "network <x,y,z>",
		Short: "List the drives reachable from a position",
		Args:  cobra.ExactArgs(1),
		RunE:  runNetwork,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "disks <x,y,z>",
		Short: "List every disk in a network",
		Args:  cobra.ExactArgs(1),
		RunE:  runDisks,
	})

	viewCmd := &cobra.Command{
		Use:   "view <reader x,y,z>",
		Short: "Show one page of a reader",
		Args:  cobra.ExactArgs(1),
		RunE:  runView,
	}
	viewCmd.Flags().StringVarP(&viewFilter, "filter", "f", "", "name filter")
	viewCmd.Flags().StringVar(&viewCategory, "category", "", "category (Weapons, Food, Resources, Armor, Tools)")
	viewCmd.Flags().IntVarP(&viewPage, "page", "p", 0, "page index")
	rootCmd.AddCommand(viewCmd)

	depositCmd := &cobra.Command{
		Use:   "deposit <x,y,z> <type-id> <count>",
		Short: "Deposit items into the network at a position",
		Long: `Deposit items into a network. The position may be a drive, or a reader
or drop box next to one.`,
		Args: cobra.ExactArgs(3),
		RunE: runDeposit,
	}
	depositCmd.Flags().IntVar(&depositQuality, "quality", 0, "item quality")
	rootCmd.AddCommand(depositCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "withdraw <reader x,y,z> <type-id> <count>",
		Short: "Take items through a reader into its inventory",
		Args:  cobra.ExactArgs(3),
		RunE:  runWithdraw,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "dropbox <x,y,z>",
		Short: "Move a drop box's contents into its network",
		Args:  cobra.ExactArgs(1),
		RunE:  runDropBox,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "diskmesh %s\n", Version)
			_, _ = fmt.Fprintf(out, "  Commit:     %s\n", Commit)
			_, _ = fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
		},
	})

	return rootCmd
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || logLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		if logLevel == "" {
			zerolog.SetGlobalLevel(cfg.Level())
		}
	}
	if statePath != "" {
		cfg.State.Path = statePath
	}
	return cfg, nil
}

// env is the loaded world together with the engine that operates on it.
type env struct {
	cfg    *config.Config
	store  world.Store
	world  *world.World
	media  *disk.Media
	engine *storage.Engine
	audit  *audit.Logger
}

func newMedia(cfg *config.Config, w *world.World) *disk.Media {
	return disk.NewMedia(disk.Options{
		Catalog:    w.Catalog(),
		Capacities: cfg.Storage.Capacities(),
		BayCount:   w.BayCount(),
		Logger:     log.Logger,
		Metrics:    engineMetrics(),
	})
}

// openEnv loads the saved world. Callers must close the returned env.
func openEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := world.OpenStore(cfg.State.Backend, cfg.State.Path)
	if err != nil {
		return nil, err
	}
	snap, err := store.Load()
	if err != nil {
		_ = store.Close()
		if errors.Is(err, world.ErrStateNotFound) {
			return nil, fmt.Errorf("%w: run 'diskmesh init' first", err)
		}
		return nil, err
	}

	w := world.Restore(snap)
	media := newMedia(cfg, w)
	return &env{
		cfg:   cfg,
		store: store,
		world: w,
		media: media,
		engine: storage.NewEngine(storage.Options{
			Media:   media,
			Logger:  log.Logger,
			Metrics: engineMetrics(),
		}),
		audit: audit.NewLogger(log.With().Str("component", "audit").Logger()),
	}, nil
}

func (e *env) manager() *session.Manager {
	return session.NewManager(session.Options{
		World:      e.world,
		Engine:     e.engine,
		Rows:       e.cfg.Reader.Rows,
		Cols:       e.cfg.Reader.Cols,
		Categories: e.cfg.SessionCategories(),
		Logger:     log.Logger,
	})
}

func (e *env) save() error {
	if err := e.store.Save(e.world.Snapshot()); err != nil {
		return fmt.Errorf("save world: %w", err)
	}
	return nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close state store")
	}
}

func parsePos(s string) (network.Position, error) {
	return network.ParsePosition(s, layer)
}
