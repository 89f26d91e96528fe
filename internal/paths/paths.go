// Package paths resolves where the facets CLI keeps its two directories:
// the config directory holding config.yaml, and the data directory the
// engine attaches to (the facets.db SQLite file lives there). Both resolve
// through a flag > environment > default chain so scripted and interactive
// runs agree on locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory names. The data dir default is CWD-relative
// rather than platform-global so each working tree gets its own store.
const (
	DefaultConfigDirName = ".facets"
	DefaultDataDirName   = ".facets-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "FACETS_CONFIG_DIR"
	EnvDataDir   = "FACETS_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/facets (fallback ~/.config/facets)
// macOS:   ~/Library/Application Support/facets
// Windows: %APPDATA%/facets
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "facets"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "facets"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "facets"), nil
	}
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/facets (fallback ~/.local/share/facets)
// macOS:   ~/Library/Application Support/facets
// Windows: %APPDATA%/facets
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "facets"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "facets"), nil
	default:
		// macOS and Windows: same as config dir.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "facets"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > FACETS_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > FACETS_DATA_DIR env > $(CWD)/.facets-db.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
