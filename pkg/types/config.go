package types

import (
	"errors"
	"time"
)

// Config holds backend selection and engine parameters.
type Config struct {
	Backend         string        `json:"backend" yaml:"backend"`
	DataDir         string        `json:"data_dir" yaml:"data_dir"`
	SecretsFile     string        `json:"secrets_file,omitempty" yaml:"secrets_file,omitempty"`
	ExternalTimeout time.Duration `json:"external_timeout,omitempty" yaml:"external_timeout,omitempty"`
	MaxDepth        int           `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`
}

// Supported backend names.
const (
	BackendFiles  = "files"
	BackendMemory = "memory"
)

// Engine defaults applied when the corresponding Config field is zero.
const (
	DefaultExternalTimeout = 10 * time.Second
	DefaultMaxDepth        = 8
)

// Config validation errors.
var (
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrTimeoutInvalid  = errors.New("external timeout must not be negative")
	ErrMaxDepthInvalid = errors.New("max depth must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendFiles:  true,
	BackendMemory: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.ExternalTimeout < 0 {
		return ErrTimeoutInvalid
	}
	if c.MaxDepth < 0 {
		return ErrMaxDepthInvalid
	}
	return nil
}

// Timeout returns the external API timeout, falling back to the default.
func (c Config) Timeout() time.Duration {
	if c.ExternalTimeout <= 0 {
		return DefaultExternalTimeout
	}
	return c.ExternalTimeout
}

// Depth returns the expansion depth cap, falling back to the default.
func (c Config) Depth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}
