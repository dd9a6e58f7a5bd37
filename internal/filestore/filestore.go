// Package filestore implements types.Store on a directory tree:
//
//	<root>/<type>/labels/...       taxonomy (property definitions, label folders)
//	<root>/<type>/biographies/...  entity collection
//
// Every record is one JSON file. Reads go straight to disk on every call.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mesh-intelligence/taxon/pkg/types"
)

var _ types.Store = (*Store)(nil)

// Store is a types.Store rooted at a data directory.
type Store struct {
	root string
}

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the data directory.
func (s *Store) Root() string {
	return s.root
}

// Read returns the raw record bytes; a missing record yields nil, nil.
func (s *Store) Read(typeName, p string) ([]byte, error) {
	full, err := s.resolve(typeName, p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return nil, nil
		}
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) && isDirErr(full) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", full, err)
	}
	return data, nil
}

// Write stores v as indented JSON using the temp-file, fsync, rename pattern.
func (s *Store) Write(typeName, p string, v any) error {
	full, err := s.resolve(typeName, p)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", p, err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", full, err)
	}
	return writeAtomic(full, append(data, '\n'))
}

// List returns the entries directly under dir sorted by name. Hidden and
// temporary files are skipped.
func (s *Store) List(typeName, dir string) ([]types.Entry, error) {
	full, err := s.resolve(typeName, dir)
	if err != nil {
		return nil, err
	}
	des, err := os.ReadDir(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || isNotDir(full) {
			return []types.Entry{}, nil
		}
		return nil, fmt.Errorf("listing %s: %w", full, err)
	}
	entries := make([]types.Entry, 0, len(des))
	for _, de := range des {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		entries = append(entries, types.Entry{Name: de.Name(), IsDir: de.IsDir()})
	}
	return entries, nil
}

// Entities returns the records directly under <type>/biographies. A record
// that fails to decode is still returned with an empty Record.
func (s *Store) Entities(typeName string) ([]types.Entity, error) {
	entries, err := s.List(typeName, types.BiographiesDir)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entity, 0, len(entries))
	for _, e := range entries {
		if e.IsDir || !strings.HasSuffix(e.Name, types.RecordExt) {
			continue
		}
		data, err := s.Read(typeName, path.Join(types.BiographiesDir, e.Name))
		if err != nil {
			return nil, err
		}
		rec := map[string]any{}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &rec); err != nil {
				rec = map[string]any{}
			}
		}
		out = append(out, types.Entity{ID: strings.TrimSuffix(e.Name, types.RecordExt), Record: rec})
	}
	return out, nil
}

// Glob matches pattern against the record files of the type.
func (s *Store) Glob(typeName, pattern string) ([]string, error) {
	typeDir, err := s.resolve(typeName, "")
	if err != nil {
		return nil, err
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: pattern %q", types.ErrInvalidPath, pattern)
	}
	if _, err := os.Stat(typeDir); errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	matches, err := doublestar.Glob(os.DirFS(typeDir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasSuffix(m, types.RecordExt) {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// resolve maps a type and slash path to a file system path, rejecting
// anything that would escape the type directory.
func (s *Store) resolve(typeName, p string) (string, error) {
	if err := ValidateTypeName(typeName); err != nil {
		return "", err
	}
	clean, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	if clean == "" {
		return filepath.Join(s.root, typeName), nil
	}
	return filepath.Join(s.root, typeName, filepath.FromSlash(clean)), nil
}

// ValidateTypeName rejects empty names and names that are not a single path
// segment.
func ValidateTypeName(typeName string) error {
	if typeName == "" || typeName == "." || typeName == ".." || strings.ContainsAny(typeName, `/\`) {
		return fmt.Errorf("%w: %q", types.ErrInvalidType, typeName)
	}
	return nil
}

// CleanPath normalises a slash path relative to a type directory. Absolute
// paths and paths climbing out with ".." are rejected.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, `\`, "/")
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidPath, p)
	}
	if p == "" {
		return "", nil
	}
	clean := path.Clean(p)
	if clean == "." {
		return "", nil
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidPath, p)
	}
	return clean, nil
}

// writeAtomic writes data to a temp file in the target directory, syncs it
// and renames it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".record-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func isDirErr(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func isNotDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
