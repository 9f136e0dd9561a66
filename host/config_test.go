package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
[libraries]
python = { executable = "hielements-python", args = [] }
docker = { executable = "hielements-docker" }
`), 0o644))

	configs, err := LoadConfigs(path)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	// Entries come back sorted by name.
	assert.Equal(t, "docker", configs[0].Name)
	assert.Equal(t, "hielements-docker", configs[0].Executable)
	assert.Empty(t, configs[0].Args)

	assert.Equal(t, "python", configs[1].Name)
	assert.Equal(t, "hielements-python", configs[1].Executable)
}

func TestLoadConfigsWithArgs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "libs.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[libraries]
sample = { executable = "python3", args = ["plugins/sample_plugin.py", "--verbose"] }
`), 0o644))

	configs, err := LoadConfigs(path)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, []string{"plugins/sample_plugin.py", "--verbose"}, configs[0].Args)
}

func TestLoadConfigsMissingFileIsNotAnError(t *testing.T) {
	configs, err := LoadConfigs(filepath.Join(t.TempDir(), "nowhere.toml"))
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestLoadConfigsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[libraries`), 0o644))

	_, err := LoadConfigs(path)
	assert.Error(t, err)
}

func TestLoadWorkspaceConfigs(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ws, ConfigFileName), []byte(`
[libraries]
sample = { executable = "sampleplugin" }
`), 0o644))

	configs, err := LoadWorkspaceConfigs(ws)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "sample", configs[0].Name)
}
