package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sync:\n  selected_names: [a, b]\n"), 0o600))

	cfg, err := loadConfig(&options{
		configPath: path,
		logLevel:   "debug",
		noTags:     true,
		names:      "Marketing Cookies, Site Analytics",
		outputDir:  "/tmp/out",
	})
	require.NoError(t, err)

	assert.True(t, cfg.Sync.IncludeCookies)
	assert.False(t, cfg.Sync.IncludeTags)
	assert.Equal(t, []string{"Marketing Cookies", "Site Analytics"}, cfg.Sync.SelectedNames)
	assert.Equal(t, "/tmp/out", cfg.Export.OutputDir)
}

func TestLoadConfig_InvalidLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o600))

	_, err := loadConfig(&options{configPath: path})
	assert.Error(t, err)
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"export", "import", "update"}, names)

	update, _, err := root.Find([]string{"update"})
	require.NoError(t, err)
	assert.NotNil(t, update.Flags().Lookup("names"))
	assert.NotNil(t, update.Flags().Lookup("no-tags"))
}
