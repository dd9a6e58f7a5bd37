// Package secrets resolves named secrets (API bearer tokens) from the
// process environment and a JSON secrets file.
package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mesh-intelligence/taxon/pkg/types"
)

var _ types.SecretLookup = (*Store)(nil)

// ErrInvalidName is returned by Set for an empty secret name.
var ErrInvalidName = errors.New("secret name must not be empty")

// Store looks a name up in the environment first and then in a JSON object
// file mapping names to values. The file is read on every lookup.
type Store struct {
	mu     sync.Mutex
	path   string
	getenv func(string) string
	logger *slog.Logger
}

// New returns a Store backed by the file at path. An empty path disables
// the file and only the environment is consulted.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, getenv: os.Getenv, logger: logger}
}

// Secret returns the value for name, or "" when unknown.
func (s *Store) Secret(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if v := s.getenv(name); v != "" {
		return v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		s.logger.Warn("secrets file unreadable", "path", s.path, "error", err)
		return ""
	}
	return data[name]
}

// Set stores value under name in the secrets file. An empty value removes
// the name.
func (s *Store) Set(name, value string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	if s.path == "" {
		return fmt.Errorf("no secrets file configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	if value == "" {
		delete(data, name)
	} else {
		data[name] = value
	}
	return s.save(data)
}

func (s *Store) load() (map[string]string, error) {
	out := map[string]string{}
	if s.path == "" {
		return out, nil
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrMalformedRecord, s.path, err)
	}
	return out, nil
}

// save writes the secrets file via temp file and rename, mode 0600.
func (s *Store) save(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling secrets: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".secrets-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing secrets: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Static is a SecretLookup over a fixed map.
type Static map[string]string

// Secret returns the mapped value.
func (m Static) Secret(name string) string {
	return m[name]
}
