package types

import "errors"

// Directory names under each type directory.
const (
	LabelsDir      = "labels"
	BiographiesDir = "biographies"
)

// RecordExt is the file extension of every persisted record.
const RecordExt = ".json"

// GroupMetaRecord is the per-folder metadata record of a legacy label group.
const GroupMetaRecord = "_group.json"

// Entry is one name inside a store directory.
type Entry struct {
	Name  string
	IsDir bool
}

// Entity is one record of a type's entity collection.
type Entity struct {
	ID     string
	Record map[string]any
}

// Store provides read and write access to the entity and taxonomy records
// of every type. Paths are slash-separated and relative to the type
// directory (for example "labels/eye_colour/blue.json").
type Store interface {
	// Read returns the raw bytes of a record.
	// A missing record returns nil bytes and a nil error.
	Read(typeName, path string) ([]byte, error)

	// Write marshals v as indented JSON and stores it atomically,
	// creating parent directories as needed.
	Write(typeName, path string, v any) error

	// List returns the entries directly under dir.
	// A missing directory returns an empty slice and a nil error.
	List(typeName, dir string) ([]Entry, error)

	// Entities returns every record of the type's entity collection
	// (the records directly under "biographies").
	Entities(typeName string) ([]Entity, error)

	// Glob returns the record paths of the type matching a doublestar
	// pattern, sorted lexically.
	Glob(typeName, pattern string) ([]string, error)
}

// SecretLookup resolves a secret value by name. Unknown names return "".
type SecretLookup interface {
	Secret(name string) string
}

// Store errors.
var (
	ErrInvalidPath     = errors.New("invalid record path")
	ErrInvalidType     = errors.New("invalid type name")
	ErrMalformedRecord = errors.New("malformed record")
)
