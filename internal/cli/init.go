package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taxon/pkg/types"
)

func newInitCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize taxon configuration and data directories",
		Long:  "Create the configuration directory with a default config.yaml, then create the data directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, e)
		},
	}
}

func runInit(cmd *cobra.Command, e *env) error {
	if err := os.MkdirAll(e.configDir, 0o755); err != nil {
		return sysError(err, "create config directory")
	}

	cfg, err := configFromViper(e.v, e.flags, e.configDir)
	if err != nil {
		return err
	}

	configPath := filepath.Join(e.configDir, configFileExt)
	created, err := writeConfigIfMissing(configPath, cfg.DataDir)
	if err != nil {
		return sysError(err, "write config")
	}
	if created {
		e.logger.Info("wrote default config", "path", configPath)
	}

	if cfg.Backend == types.BackendFiles {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return sysError(err, "create data directory")
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "taxon initialized\nconfig: %s\ndata: %s\n", configPath, cfg.DataDir)
	return nil
}
