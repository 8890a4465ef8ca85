package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Global flag values.
var (
	flagConfigDir string
	flagVerbose   bool
	flagJSON      bool
)

var rootCmd = &cobra.Command{
	Use:   "octave-pkg",
	Short: "octave-pkg manages add-on packages for the interpreter",
	Long: `octave-pkg installs, removes, loads, and unloads add-on packages,
tracking a per-user local registry and a system-wide global registry.
A package present in both resolves to the local record.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose diagnostic logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(unloadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(testCmd)
}

// newLogger builds the diagnostic logger: development output with --verbose,
// silent otherwise. Command results themselves go to stdout, not the logger.
func newLogger() (*zap.Logger, error) {
	if !flagVerbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	return cfg.Build()
}
