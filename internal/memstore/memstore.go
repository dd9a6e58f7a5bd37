// Package memstore implements types.Store in memory. It backs the engine's
// tests and the CLI "memory" backend.
package memstore

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mesh-intelligence/taxon/internal/filestore"
	"github.com/mesh-intelligence/taxon/pkg/types"
)

var _ types.Store = (*Store)(nil)

// Store keeps records per type keyed by their clean slash path.
type Store struct {
	mu      sync.RWMutex
	records map[string]map[string][]byte
	files   map[string]map[string]bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		records: make(map[string]map[string][]byte),
		files:   make(map[string]map[string]bool),
	}
}

// Put stores raw bytes at path, bypassing JSON encoding. Useful for
// malformed fixtures.
func (s *Store) Put(typeName, p string, data []byte) error {
	clean, err := s.key(typeName, p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[typeName] == nil {
		s.records[typeName] = make(map[string][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.records[typeName][clean] = cp
	return nil
}

// Touch registers a non-record file (for example an image) at path.
func (s *Store) Touch(typeName, p string) error {
	clean, err := s.key(typeName, p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files[typeName] == nil {
		s.files[typeName] = make(map[string]bool)
	}
	s.files[typeName][clean] = true
	return nil
}

// Delete removes the record at path. Missing records are ignored.
func (s *Store) Delete(typeName, p string) {
	clean, err := s.key(typeName, p)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records[typeName], clean)
	delete(s.files[typeName], clean)
}

// Read returns a copy of the stored bytes; a missing record yields nil, nil.
func (s *Store) Read(typeName, p string) ([]byte, error) {
	clean, err := s.key(typeName, p)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.records[typeName][clean]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Write stores v as indented JSON.
func (s *Store) Write(typeName, p string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", p, err)
	}
	return s.Put(typeName, p, data)
}

// List returns the files and implied directories directly under dir.
func (s *Store) List(typeName, dir string) ([]types.Entry, error) {
	clean, err := s.key(typeName, dir)
	if err != nil {
		return nil, err
	}
	prefix := ""
	if clean != "" {
		prefix = clean + "/"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	entries := []types.Entry{}
	visit := func(p string) {
		if !strings.HasPrefix(p, prefix) {
			return
		}
		rest := strings.TrimPrefix(p, prefix)
		name, _, nested := strings.Cut(rest, "/")
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		entries = append(entries, types.Entry{Name: name, IsDir: nested})
	}
	for p := range s.records[typeName] {
		visit(p)
	}
	for p := range s.files[typeName] {
		visit(p)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Entities returns the records directly under <type>/biographies.
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
		if err := json.Unmarshal(data, &rec); err != nil {
			rec = map[string]any{}
		}
		out = append(out, types.Entity{ID: strings.TrimSuffix(e.Name, types.RecordExt), Record: rec})
	}
	return out, nil
}

// Glob matches pattern against the record paths of the type.
func (s *Store) Glob(typeName, pattern string) ([]string, error) {
	if err := filestore.ValidateTypeName(typeName); err != nil {
		return nil, err
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: pattern %q", types.ErrInvalidPath, pattern)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []string{}
	for p := range s.records[typeName] {
		if !strings.HasSuffix(p, types.RecordExt) {
			continue
		}
		if ok, _ := doublestar.Match(pattern, p); ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) key(typeName, p string) (string, error) {
	if err := filestore.ValidateTypeName(typeName); err != nil {
		return "", err
	}
	return filestore.CleanPath(p)
}
