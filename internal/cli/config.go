package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/taxon/internal/paths"
	"github.com/mesh-intelligence/taxon/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeySecretsFile     = "secrets_file"
	cfgKeyExternalTimeout = "external_timeout"
	cfgKeyMaxDepth        = "max_depth"
	cfgKeyLogLevel        = "log_level"

	envLogLevel = "TAXON_LOG_LEVEL"
)

// configFile is the structure written to config.yaml by init.
type configFile struct {
	Backend         string `yaml:"backend"`
	DataDir         string `yaml:"data_dir,omitempty"`
	ExternalTimeout string `yaml:"external_timeout"`
	MaxDepth        int    `yaml:"max_depth"`
	LogLevel        string `yaml:"log_level"`
}

// loadConfig reads config.yaml from configDir. A missing file or directory
// is not an error; defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendFiles)
	v.SetDefault(cfgKeyExternalTimeout, types.DefaultExternalTimeout)
	v.SetDefault(cfgKeyMaxDepth, types.DefaultMaxDepth)
	v.SetDefault(cfgKeyLogLevel, "info")
	if err := v.BindEnv(cfgKeyLogLevel, envLogLevel); err != nil {
		return nil, err
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// configFromViper assembles the engine Config. Directory values follow the
// precedence in internal/paths.
func configFromViper(v *viper.Viper, f rootFlags, configDir string) (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(f.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, sysError(err, "resolve data dir")
	}
	secretsFile, err := paths.ResolveSecretsFile(f.secretsFile, v.GetString(cfgKeySecretsFile), configDir)
	if err != nil {
		return types.Config{}, sysError(err, "resolve secrets file")
	}
	cfg := types.Config{
		Backend:         v.GetString(cfgKeyBackend),
		DataDir:         dataDir,
		SecretsFile:     secretsFile,
		ExternalTimeout: v.GetDuration(cfgKeyExternalTimeout),
		MaxDepth:        v.GetInt(cfgKeyMaxDepth),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, userError("config: %v", err)
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. An existing file is left alone.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	cfg := configFile{
		Backend:         types.BackendFiles,
		DataDir:         dataDir,
		ExternalTimeout: types.DefaultExternalTimeout.String(),
		MaxDepth:        types.DefaultMaxDepth,
		LogLevel:        "info",
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	return true, os.WriteFile(path, data, 0o644)
}

// newLogger builds a text or JSON slog logger writing to w.
func newLogger(w io.Writer, level string, jsonMode bool) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if jsonMode {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
