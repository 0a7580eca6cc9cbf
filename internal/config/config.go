package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DirName  = "gbsh"
	FileName = "config.toml"
)

// Config holds the interpreter's user-facing settings.
type Config struct {
	// Prompt is rendered before each interactive read. {host} and {cwd}
	// are replaced with the hostname and working directory.
	Prompt      string `mapstructure:"prompt" toml:"prompt" validate:"required"`
	Banner      bool   `mapstructure:"banner" toml:"banner"`
	ClearScreen bool   `mapstructure:"clear_screen" toml:"clear_screen"`
	HistoryFile string `mapstructure:"history_file" toml:"history_file"`
	LogLevel    string `mapstructure:"log_level" toml:"log_level" validate:"oneof=debug info warn error"`
	Env         Env    `mapstructure:"env" toml:"env"`
}

// Env names the variables published to children and to the shell itself.
type Env struct {
	ParentKey string `mapstructure:"parent_key" toml:"parent_key" validate:"required,excludesall=="`
	ShellKey  string `mapstructure:"shell_key" toml:"shell_key" validate:"required,excludesall=="`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Prompt:      "{host} {cwd} >>>",
		Banner:      true,
		ClearScreen: true,
		HistoryFile: "~/.gbsh_history",
		LogLevel:    "warn",
		Env: Env{
			ParentKey: "parent",
			ShellKey:  "shell",
		},
	}
}

// Validate the configuration for basic semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
	})

	return validate.Struct(c)
}

// HistoryPath expands a leading ~ in HistoryFile. An empty result disables
// history.
func (c *Config) HistoryPath() string {
	if c.HistoryFile == "" || !strings.HasPrefix(c.HistoryFile, "~/") {
		return c.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, strings.TrimPrefix(c.HistoryFile, "~/"))
}

// DefaultPath is $HOME/.config/gbsh/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DirName, FileName), nil
}
