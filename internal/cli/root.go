// Package cli implements the taxon command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/taxon/internal/paths"
	"github.com/mesh-intelligence/taxon/pkg/taxon"
	"github.com/mesh-intelligence/taxon/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir   string
	dataDir     string
	secretsFile string
	format      string
	logLevel    string
	jsonMode    bool
}

// env is the state one invocation shares between the root command and its
// subcommands.
type env struct {
	flags     rootFlags
	configDir string
	v         *viper.Viper
	logger    *slog.Logger
}

// NewRootCmd creates the top-level "taxon" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	e := &env{logger: slog.Default()}
	root := &cobra.Command{
		Use:   "taxon",
		Short: "Resolve label taxonomies and cross-collection suggestions",
		Long: "Taxon turns a type's authored label schema and the current selections\n" +
			"into pickable groups, and suggests linked records from other collections.",
		Version:       taxon.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
	}

	root.SetVersionTemplate(versionTemplate)

	pf := root.PersistentFlags()
	pf.StringVar(&e.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&e.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.taxon-db)")
	pf.StringVar(&e.flags.secretsFile, "secrets-file", "", "secrets file (default: <config-dir>/secrets.json)")
	pf.StringVar(&e.flags.format, "format", formatText, "output format: text, json or yaml")
	pf.StringVar(&e.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&e.flags.jsonMode, "json", false, "JSON output and JSON logs")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(e))
	root.AddCommand(newResolveCmd(e))
	root.AddCommand(newOptionsCmd(e))
	root.AddCommand(newLocateCmd(e))
	root.AddCommand(newImportCmd(e))
	root.AddCommand(newSecretCmd(e))
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "taxon:", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// setup resolves the config directory, loads config.yaml and installs the
// logger. The version command needs none of it.
func (e *env) setup(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(e.flags.configDir)
	if err != nil {
		return sysError(err, "resolve config dir")
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return sysError(err, "load config")
	}
	e.configDir = configDir
	e.v = v

	level := e.flags.logLevel
	if level == "" {
		level = v.GetString(cfgKeyLogLevel)
	}
	logger, err := newLogger(cmd.ErrOrStderr(), level, e.flags.jsonMode)
	if err != nil {
		return userError("%v", err)
	}
	e.logger = logger
	return nil
}

// openEngine builds the engine from the loaded configuration.
func (e *env) openEngine() (*taxon.Engine, types.Config, error) {
	cfg, err := configFromViper(e.v, e.flags, e.configDir)
	if err != nil {
		return nil, cfg, err
	}
	eng, err := taxon.Open(cfg, taxon.Options{Logger: e.logger})
	if err != nil {
		if errors.Is(err, types.ErrBackendUnknown) || errors.Is(err, types.ErrBackendEmpty) {
			return nil, cfg, userError("%v", err)
		}
		return nil, cfg, sysError(err, "open engine")
	}
	return eng, cfg, nil
}

// exitErr carries the process exit code for an error.
type exitErr struct {
	code int
	err  error
}

func (x *exitErr) Error() string { return x.err.Error() }
func (x *exitErr) Unwrap() error { return x.err }

func userError(format string, args ...any) error {
	return &exitErr{code: exitUserError, err: fmt.Errorf(format, args...)}
}

func sysError(err error, msg string) error {
	return &exitErr{code: exitSysError, err: fmt.Errorf("%s: %w", msg, err)}
}

// exitCode maps an error to an exit code. Errors that carry no code, such
// as cobra's argument errors, are user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var x *exitErr
	if errors.As(err, &x) {
		return x.code
	}
	return exitUserError
}

// parseLevel maps a level name to a slog.Level; empty means info.
func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}
