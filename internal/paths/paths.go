// Package paths resolves the qcwatch configuration, data and helper
// directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-user directories.
const appName = "qcwatch"

// HelperDirName is the helper working directory inside the data directory.
const HelperDirName = "helpers"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "QCWATCH_CONFIG_DIR"
	EnvDataDir   = "QCWATCH_DATA_DIR"
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
// Linux:   $XDG_CONFIG_HOME/qcwatch (fallback ~/.config/qcwatch)
// macOS:   ~/Library/Application Support/qcwatch
// Windows: %APPDATA%/qcwatch
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/qcwatch (fallback ~/.local/share/qcwatch)
// macOS:   ~/Library/Application Support/qcwatch/data
// Windows: %APPDATA%/qcwatch/data
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	// Config and data share a parent on macOS and Windows.
	return filepath.Join(dir, appName, "data"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > QCWATCH_CONFIG_DIR env > DefaultConfigDir().
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
// flag > configYAMLValue > QCWATCH_DATA_DIR env > DefaultDataDir().
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
	return DefaultDataDir()
}

// ResolveHelperDir returns configYAMLValue made absolute, or the helpers
// directory inside dataDir when it is empty.
func ResolveHelperDir(configYAMLValue, dataDir string) (string, error) {
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	return filepath.Join(dataDir, HelperDirName), nil
}
