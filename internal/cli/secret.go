package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taxon/internal/secrets"
)

func newSecretCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage tokens used by external API sources",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <name> <value>",
		Short: "Store a secret in the secrets file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setSecret(cmd, e, args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "unset <name>",
		Short: "Remove a secret from the secrets file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setSecret(cmd, e, args[0], "")
		},
	})
	return cmd
}

func setSecret(cmd *cobra.Command, e *env, name, value string) error {
	cfg, err := configFromViper(e.v, e.flags, e.configDir)
	if err != nil {
		return err
	}
	store := secrets.New(cfg.SecretsFile, e.logger)
	if err := store.Set(name, value); err != nil {
		if errors.Is(err, secrets.ErrInvalidName) {
			return userError("%v", err)
		}
		return sysError(err, "write secret")
	}
	verb := "stored"
	if value == "" {
		verb = "removed"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s in %s\n", verb, name, cfg.SecretsFile)
	return nil
}
