package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPath = "/home/user/.config/gbsh/config.toml"

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader(afero.NewMemMapFs(), testPath).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, testPath, []byte(`
prompt = "{cwd} $"
banner = false
log_level = "debug"

[env]
parent_key = "origin"
`), 0o644))

	cfg, err := NewLoader(fsys, testPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "{cwd} $", cfg.Prompt)
	assert.False(t, cfg.Banner)
	assert.True(t, cfg.ClearScreen, "unset keys keep their default")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "origin", cfg.Env.ParentKey)
	assert.Equal(t, "shell", cfg.Env.ShellKey)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("GBSH_LOG_LEVEL", "info")
	t.Setenv("GBSH_ENV_SHELL_KEY", "gbsh_home")

	cfg, err := NewLoader(afero.NewMemMapFs(), testPath).Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gbsh_home", cfg.Env.ShellKey)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"log level":   `log_level = "loud"`,
		"empty key":   "[env]\nparent_key = \"\"",
		"key with eq": "[env]\nshell_key = \"a=b\"",
		"bad toml":    `prompt = `,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fsys, testPath, []byte(body), 0o644))

			_, err := NewLoader(fsys, testPath).Load()
			assert.Error(t, err)
		})
	}
}

func TestWriteDefault(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, WriteDefault(fsys, testPath))

	cfg, err := NewLoader(fsys, testPath).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	assert.ErrorIs(t, WriteDefault(fsys, testPath), ErrExists)
}

func TestHistoryPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Default()
	assert.Equal(t, filepath.Join(home, ".gbsh_history"), cfg.HistoryPath())

	cfg.HistoryFile = "/tmp/history"
	assert.Equal(t, "/tmp/history", cfg.HistoryPath())

	cfg.HistoryFile = ""
	assert.Empty(t, cfg.HistoryPath())
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`prompt = "before"`), 0o644))

	loader := NewLoader(afero.NewOsFs(), path)
	assert.Equal(t, path, loader.Path())
	cfg, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, "before", cfg.Prompt)

	var current atomic.Pointer[Config]
	var rejected atomic.Bool
	loader.Watch(
		func(cfg *Config) { current.Store(cfg) },
		func(error) { rejected.Store(true) },
	)

	require.NoError(t, os.WriteFile(path, []byte(`prompt = "after"`), 0o644))
	assert.Eventually(t, func() bool {
		cfg := current.Load()
		return cfg != nil && cfg.Prompt == "after"
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(`log_level = "loud"`), 0o644))
	assert.Eventually(t, rejected.Load, 5*time.Second, 20*time.Millisecond)
}
