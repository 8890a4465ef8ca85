// Config loading for the octave-pkg CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/gnu-octave/pkg-tool/internal/forge"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileFull = "config.yaml"

	cfgKeyLocalPrefix  = "local_prefix"
	cfgKeyGlobalPrefix = "global_prefix"
	cfgKeyForgeURL     = "forge_url"
	cfgKeyInterpreter  = "interpreter"

	defaultInterpreter = "octave"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# octave-pkg configuration

# Package forge used for name resolution and downloads.
# forge_url: https://packages.octave.org

# Per-user package install root (optional; defaults to the platform data dir).
# local_prefix:

# System-wide package install root.
# global_prefix: /usr/local/share/octave/packages

# Interpreter binary used by "octave-pkg test".
# interpreter: octave
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper, creating the directory and a default config.yaml on first run.
// A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyForgeURL, forge.DefaultURL)
	v.SetDefault(cfgKeyInterpreter, defaultInterpreter)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if absent.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileFull)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
