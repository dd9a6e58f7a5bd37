// Package paths resolves the configuration, data and secrets locations used
// by the taxon CLI. Every resolver follows the same precedence: explicit
// flag, then config.yaml (where applicable), then environment, then a
// default.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "taxon"

// Default names relative to the working directory or config directory.
const (
	DefaultDataDirName     = ".taxon-db"
	DefaultSecretsFileName = "secrets.json"
)

// Environment variable overrides.
const (
	EnvConfigDir   = "TAXON_CONFIG_DIR"
	EnvDataDir     = "TAXON_DATA_DIR"
	EnvSecretsFile = "TAXON_SECRETS_FILE"
)

// platformDir holds platform lookups that tests replace.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the platform configuration directory for taxon.
//
// Linux:   $XDG_CONFIG_HOME/taxon (fallback ~/.config/taxon)
// macOS:   ~/Library/Application Support/taxon
// Windows: %APPDATA%/taxon
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// ResolveConfigDir: flag > TAXON_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if p := firstSet(flag, os.Getenv(EnvConfigDir)); p != "" {
		return filepath.Abs(p)
	}
	return DefaultConfigDir()
}

// ResolveDataDir: flag > config.yaml data_dir > TAXON_DATA_DIR >
// $(CWD)/.taxon-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if p := firstSet(flag, configValue, os.Getenv(EnvDataDir)); p != "" {
		return filepath.Abs(p)
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolveSecretsFile: flag > config.yaml secrets_file > TAXON_SECRETS_FILE >
// <configDir>/secrets.json.
func ResolveSecretsFile(flag, configValue, configDir string) (string, error) {
	if p := firstSet(flag, configValue, os.Getenv(EnvSecretsFile)); p != "" {
		return filepath.Abs(p)
	}
	return filepath.Join(configDir, DefaultSecretsFileName), nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
