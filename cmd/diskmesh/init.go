package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diskmesh/diskmesh/internal/disk"
	"github.com/diskmesh/diskmesh/internal/world"
	"github.com/diskmesh/diskmesh/pkg/item"
)

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	layout, err := world.LoadLayout(args[0])
	if err != nil {
		return err
	}

	media := disk.NewMedia(disk.Options{
		Catalog:    item.NewMapCatalog(layout.Items...),
		Capacities: cfg.Storage.Capacities(),
		BayCount:   cfg.Storage.BayCount,
		Logger:     log.Logger,
	})
	w, err := world.Build(layout, media)
	if err != nil {
		return fmt.Errorf("build world: %w", err)
	}

	store, err := world.OpenStore(cfg.State.Backend, cfg.State.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Save(w.Snapshot()); err != nil {
		return fmt.Errorf("save world: %w", err)
	}

	log.Info().
		Str("backend", cfg.State.Backend).
		Str("path", cfg.State.Path).
		Msg("world saved")
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "initialised world: %d drives, %d item classes\n",
		len(w.Drives()), len(w.Catalog()))
	return nil
}
