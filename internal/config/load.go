package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const envPrefix = "GBSH"

// ErrExists is returned by WriteDefault when a config file is already there.
var ErrExists = errors.New("config file already exists")

// Loader reads the TOML config file through viper. Missing files fall back
// to Default; GBSH_* environment variables override file values.
type Loader struct {
	fs   afero.Fs
	path string
	v    *viper.Viper
}

func NewLoader(fsys afero.Fs, path string) *Loader {
	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("prompt", def.Prompt)
	v.SetDefault("banner", def.Banner)
	v.SetDefault("clear_screen", def.ClearScreen)
	v.SetDefault("history_file", def.HistoryFile)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("env.parent_key", def.Env.ParentKey)
	v.SetDefault("env.shell_key", def.Env.ShellKey)

	return &Loader{fs: fsys, path: path, v: v}
}

// Path returns the config file location.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, err)
	}
	return &cfg, nil
}

// Watch calls onChange with the new configuration every time the file is
// rewritten. Invalid edits are passed to onError and otherwise ignored.
// Watching uses the real filesystem regardless of the Loader's afero.Fs.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			onError(err)
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// WriteDefault writes the built-in configuration to path. It refuses to
// overwrite an existing file.
func WriteDefault(fsys afero.Fs, path string) error {
	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}

	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return afero.WriteFile(fsys, path, data, os.FileMode(0o644))
}
