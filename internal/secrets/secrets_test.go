package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretPrefersEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"PLACES_TOKEN":"from-file"}`), 0o600))
	s := New(path, nil)

	assert.Equal(t, "from-file", s.Secret("PLACES_TOKEN"))

	t.Setenv("PLACES_TOKEN", "from-env")
	assert.Equal(t, "from-env", s.Secret("PLACES_TOKEN"))
}

func TestSecretMissingSources(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.json"), nil)
	assert.Equal(t, "", s.Secret("NOPE_NOT_SET"))
	assert.Equal(t, "", s.Secret(""))
	assert.Equal(t, "", New("", nil).Secret("NOPE_NOT_SET"))
}

func TestSecretMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{oops`), 0o600))
	s := New(path, nil)

	assert.Equal(t, "", s.Secret("TAXON_TEST_TOKEN"))
	assert.Error(t, s.Set("TAXON_TEST_TOKEN", "x"))
}

func TestSetAndRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "secrets.json")
	s := New(path, nil)

	require.NoError(t, s.Set("TAXON_TEST_TOKEN", "abc"))
	assert.Equal(t, "abc", s.Secret("TAXON_TEST_TOKEN"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Set("TAXON_TEST_TOKEN", ""))
	assert.Equal(t, "", s.Secret("TAXON_TEST_TOKEN"))

	assert.ErrorIs(t, s.Set("  ", "x"), ErrInvalidName)
}

func TestStatic(t *testing.T) {
	m := Static{"A": "1"}
	assert.Equal(t, "1", m.Secret("A"))
	assert.Equal(t, "", m.Secret("B"))
}
