package config

import (
	"os"
	"path/filepath"
)

// XDGConfigHome returns $XDG_CONFIG_HOME or ~/.config.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// DefaultPath returns the default TOML config path.
func DefaultPath() string {
	return filepath.Join(XDGConfigHome(), "tensetrainer", "config.toml")
}

// DefaultCredentialsPath is where `practice login` keeps the signed-in account.
func DefaultCredentialsPath() string {
	return filepath.Join(XDGConfigHome(), "tensetrainer", "credentials.toml")
}
