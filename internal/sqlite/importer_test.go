package sqlite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taxon/internal/memstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newDB creates a SQLite file holding a hospitals table.
func newDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE hospitals (
		id TEXT,
		name TEXT NOT NULL,
		description TEXT,
		image_url TEXT,
		beds INTEGER
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO hospitals (id, name, description, image_url, beds) VALUES
		('RV-1', 'Royal Victoria', 'Teaching hospital', 'rv.png', 800),
		('sm', 'St Mary', NULL, NULL, 300),
		(NULL, '', NULL, NULL, 10),
		('gw', 'General Ward', '', '', 50)`)
	require.NoError(t, err)
	return path
}

func TestImportLabels(t *testing.T) {
	store := memstore.New()
	req := ImportRequest{
		DBPath:           newDB(t),
		Query:            "SELECT id, name, description, image_url FROM hospitals ORDER BY beds DESC",
		Type:             "person",
		Group:            "hospital",
		GroupName:        "Hospitals",
		GroupDescription: "Imported from the registry",
	}

	ids, err := ImportLabels(context.Background(), store, req, discardLogger())
	require.NoError(t, err)
	require.Len(t, ids, 4)
	assert.Equal(t, []string{"rv_1", "sm", "gw"}, ids[:3])

	data, err := store.Read("person", "labels/hospital/rv_1.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Royal Victoria"`)
	assert.Contains(t, string(data), `"image_url": "rv.png"`)

	meta, err := store.Read("person", "labels/hospital/_group.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "Hospitals", "description": "Imported from the registry"}`, string(meta))
}

func TestImportLabelsCustomColumnsAndLimit(t *testing.T) {
	store := memstore.New()
	req := ImportRequest{
		DBPath:        newDB(t),
		Query:         "SELECT beds AS code, name AS title FROM hospitals ORDER BY beds",
		Type:          "person",
		Group:         "beds",
		IDColumn:      "code",
		DisplayColumn: "title",
		MaxItems:      2,
	}

	ids, err := ImportLabels(context.Background(), store, req, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "50"}, ids)
}

func TestImportLabelsErrors(t *testing.T) {
	dbPath := newDB(t)
	tests := []struct {
		name string
		req  ImportRequest
		want error
	}{
		{"missing database", ImportRequest{DBPath: filepath.Join(t.TempDir(), "nope.db"), Query: "SELECT 1", Type: "person", Group: "g"}, ErrDatabaseMissing},
		{"empty query", ImportRequest{DBPath: dbPath, Type: "person", Group: "g"}, ErrQueryEmpty},
		{"no usable columns", ImportRequest{DBPath: dbPath, Query: "SELECT beds FROM hospitals", Type: "person", Group: "g"}, ErrColumnMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportLabels(context.Background(), memstore.New(), tt.req, discardLogger())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestImportLabelsIsReadOnly(t *testing.T) {
	req := ImportRequest{
		DBPath: newDB(t),
		Query:  "INSERT INTO hospitals (id, name) VALUES ('x', 'X') RETURNING id, name",
		Type:   "person",
		Group:  "g",
	}

	_, err := ImportLabels(context.Background(), memstore.New(), req, discardLogger())
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	assert.Equal(t, "", text(nil))
	assert.Equal(t, "a", text(" a "))
	assert.Equal(t, "b", text([]byte("b")))
	assert.Equal(t, "42", text(int64(42)))
	assert.Equal(t, "1.5", text(1.5))
	assert.Equal(t, "true", text(true))
}
