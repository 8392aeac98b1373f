package lookup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadJSONEnvelope(t *testing.T) {
	path := writeTempFile(t, "config.json", `{"events": {
		"LOGIN": {"name": "Login", "source": "Auth", "description": "User logged in from {ip}"},
		"LOGOUT": {"name": "Logout"}
	}}`)

	table, err := Load(path)
	require.NoError(t, err)

	require.Len(t, table, 2)
	assert.Equal(t, "Login", *table["LOGIN"].Name)
	assert.Nil(t, table["LOGOUT"].Source)
}

func TestLoadJSONBareMapping(t *testing.T) {
	path := writeTempFile(t, "table.json", `{"LOGIN": {"name": "Login"}}`)

	table, err := Load(path)
	require.NoError(t, err)
	assert.True(t, table.Known("LOGIN"))
}

func TestLoadJSONCodeNamedEvents(t *testing.T) {
	path := writeTempFile(t, "table.json", `{"events": {"name": "Events", "source": "Sys"}}`)

	table, err := Load(path)
	require.NoError(t, err)
	require.True(t, table.Known("events"))
	assert.Equal(t, "Events", *table["events"].Name)
}

func TestLoadYAML(t *testing.T) {
	path := writeTempFile(t, "table.yaml", `events:
  LOGIN:
    name: Login
    source: Auth
    description: "User logged in from {IP}"
`)

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "User logged in from {IP}", *table["LOGIN"].Description)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	var cle *ConfigLoadError
	require.True(t, errors.As(err, &cle))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadMalformed(t *testing.T) {
	path := writeTempFile(t, "bad.json", `{"events": [`)

	_, err := Load(path)
	var cle *ConfigLoadError
	require.True(t, errors.As(err, &cle))
	assert.Equal(t, path, cle.Path)
}

func TestLoadRejectsEmptyDocuments(t *testing.T) {
	cases := map[string]string{
		"null.json":        "null",
		"empty.yaml":       "",
		"comment.yml":      "# nothing here\n",
		"tilde.yaml":       "~\n",
		"null-events.json": `{"events": null}`,
		"null-events.yaml": "events:\n",
	}
	for name, content := range cases {
		path := writeTempFile(t, name, content)

		table, err := Load(path)
		var cle *ConfigLoadError
		assert.True(t, errors.As(err, &cle), name)
		assert.Nil(t, table, name)
	}
}

func TestLoadEmptyMappingIsValid(t *testing.T) {
	table, err := Load(writeTempFile(t, "empty.json", "{}"))
	require.NoError(t, err)
	assert.Empty(t, table)
}
