// Package paths resolves configuration, prefix, and registry file locations
// for the two package registries (per-user local, system-wide global).
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Registry and state file names inside their parent directories.
const (
	RegistryFileName = "octave_packages"
	LoadPathFileName = "octave_load_path"
)

// Environment variable overrides.
const (
	EnvConfigDir    = "OCTAVE_PKG_CONFIG_DIR"
	EnvLocalPrefix  = "OCTAVE_PKG_PREFIX"
	EnvGlobalPrefix = "OCTAVE_PKG_GLOBAL_PREFIX"
)

// DefaultGlobalPrefix is the system-wide install root on Unix-like systems.
const DefaultGlobalPrefix = "/usr/local/share/octave/packages"

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
// Linux:   $XDG_CONFIG_HOME/octave-pkg (fallback ~/.config/octave-pkg)
// macOS:   ~/Library/Application Support/octave-pkg
// Windows: %APPDATA%/octave-pkg
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "octave-pkg"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "octave-pkg"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "octave-pkg"), nil
	}
}

// DefaultLocalPrefix returns the per-user package install root,
// honoring XDG_DATA_HOME on Linux.
func DefaultLocalPrefix() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "octave", "packages"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "octave", "packages"), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "octave", "packages"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > OCTAVE_PKG_CONFIG_DIR env > platform default.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveLocalPrefix returns the per-user install root following the
// precedence chain: config value > OCTAVE_PKG_PREFIX env > platform default.
func ResolveLocalPrefix(configValue string) (string, error) {
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvLocalPrefix); env != "" {
		return filepath.Abs(env)
	}
	return DefaultLocalPrefix()
}

// ResolveGlobalPrefix returns the system-wide install root following the
// precedence chain: config value > OCTAVE_PKG_GLOBAL_PREFIX env > default.
func ResolveGlobalPrefix(configValue string) (string, error) {
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvGlobalPrefix); env != "" {
		return filepath.Abs(env)
	}
	return DefaultGlobalPrefix, nil
}

// RegistryPath returns the registry file location under a prefix.
func RegistryPath(prefix string) string {
	return filepath.Join(prefix, RegistryFileName)
}

// LoadPathFile returns the session load-path state file under the config dir.
func LoadPathFile(configDir string) string {
	return filepath.Join(configDir, LoadPathFileName)
}
