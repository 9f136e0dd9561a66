package host

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the per-workspace configuration file holding the
// [libraries] table.
const ConfigFileName = "hielements.toml"

// Config describes how to start one external library process.
type Config struct {
	// Name the library is referenced by in architecture files.
	Name string
	// Executable path, resolved via PATH if not absolute.
	Executable string
	// Args passed to the executable on every spawn.
	Args []string
}

type configFile struct {
	Libraries map[string]configEntry `toml:"libraries"`
}

type configEntry struct {
	Executable string   `toml:"executable"`
	Args       []string `toml:"args"`
}

// LoadConfigs reads library configurations from a TOML file of the form
//
//	[libraries]
//	sample = { executable = "python3", args = ["plugins/sample_plugin.py"] }
//
// A missing file is not an error; it yields no libraries. Entries are
// returned sorted by name so load order is deterministic.
func LoadConfigs(path string) ([]Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var file configFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	names := make([]string, 0, len(file.Libraries))
	for name := range file.Libraries {
		names = append(names, name)
	}
	sort.Strings(names)

	configs := make([]Config, 0, len(names))
	for _, name := range names {
		entry := file.Libraries[name]
		configs = append(configs, Config{
			Name:       name,
			Executable: entry.Executable,
			Args:       entry.Args,
		})
	}
	return configs, nil
}

// LoadWorkspaceConfigs looks for the configuration file in the workspace
// root.
func LoadWorkspaceConfigs(workspace string) ([]Config, error) {
	return LoadConfigs(filepath.Join(workspace, ConfigFileName))
}
