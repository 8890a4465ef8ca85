package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnu-octave/pkg-tool/internal/installer"
)

var installFlags struct {
	noDeps bool
	local  bool
	global bool
	forge  bool
}

var installCmd = &cobra.Command{
	Use:   "install <source>...",
	Short: "Install packages from archives, URLs, or the forge",
	Long: `Install one or more packages. A source may be a local .tar.gz archive,
an http(s) URL, or a bare package name resolved through the forge.
Multi-package requests are installed dependencies-first; failures are
per-package and do not roll back the rest of the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if installFlags.local && installFlags.global {
			return fmt.Errorf("--local and --global are mutually exclusive")
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		opts := installer.Options{
			NoDeps: installFlags.noDeps,
			Global: installFlags.global,
		}
		result, err := a.orchestrator(installFlags.forge).Install(args, opts)
		if err != nil {
			return err
		}
		for _, rec := range result.Installed {
			fmt.Printf("installed %s %s\n", rec.Name, rec.Version)
		}
		return reportFailures(result)
	},
}

func init() {
	installCmd.Flags().BoolVar(&installFlags.noDeps, "nodeps", false, "skip dependency validation")
	installCmd.Flags().BoolVar(&installFlags.local, "local", false, "install into the per-user registry (default)")
	installCmd.Flags().BoolVar(&installFlags.global, "global", false, "install into the system-wide registry")
	installCmd.Flags().BoolVar(&installFlags.forge, "forge", false, "treat every source as a forge package name")
}
