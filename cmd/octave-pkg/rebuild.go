package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnu-octave/pkg-tool/internal/installer"
	"github.com/gnu-octave/pkg-tool/internal/paths"
	"github.com/gnu-octave/pkg-tool/pkg/types"
)

var rebuildFlags struct {
	global bool
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Reconstruct a registry from the installed package directories",
	Long: `Rescan the install prefix and rebuild the registry from each package's
packinfo/DESCRIPTION. This is the recovery path when a registry file is
corrupt or lost; the rebuilt registry replaces it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The corrupt registry being recovered must not abort startup,
		// so rebuild resolves its own paths instead of using newApp.
		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		prefix, err := paths.ResolveLocalPrefix(cfg.GetString(cfgKeyLocalPrefix))
		installerKind := types.InstallerUser
		if rebuildFlags.global {
			prefix, err = paths.ResolveGlobalPrefix(cfg.GetString(cfgKeyGlobalPrefix))
			installerKind = types.InstallerSystem
		}
		if err != nil {
			return err
		}

		reg, err := installer.Rebuild(prefix, paths.RegistryPath(prefix), installerKind, log)
		if err != nil {
			return err
		}
		fmt.Printf("rebuilt registry with %d package(s)\n", reg.Len())
		return nil
	},
}

func init() {
	rebuildCmd.Flags().BoolVar(&rebuildFlags.global, "global", false, "rebuild the system-wide registry")
}
