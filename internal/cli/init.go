package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qcwatch/pkg/sqlite"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize qcwatch configuration and storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nif none exists, then create the database.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, configDir, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	if err := store.Detach(); err != nil {
		return fmt.Errorf("finalize storage: %w", err)
	}

	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), map[string]string{
			"config_dir": configDir,
			"data_dir":   cfg.DataDir,
			"database":   cfg.DatabasePath(),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "qcwatch initialized\nconfig: %s\ndatabase: %s\n", configDir, cfg.DatabasePath())
	return nil
}
