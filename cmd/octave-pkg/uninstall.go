package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnu-octave/pkg-tool/internal/installer"
)

var uninstallFlags struct {
	noDeps bool
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <package>...",
	Short: "Remove installed packages",
	Long: `Remove one or more installed packages. A package still required by
another installed package is not removed unless --nodeps is given; the
full set of dependents is reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		orch := installer.New(a.local, a.global, a.localPrefix, a.globalPrefix, nil, nil, a.log)
		result, err := orch.Uninstall(args, installer.Options{NoDeps: uninstallFlags.noDeps})
		if err != nil {
			return err
		}
		for _, name := range result.Removed {
			fmt.Printf("uninstalled %s\n", name)
		}
		return reportFailures(result)
	},
}

func init() {
	uninstallCmd.Flags().BoolVar(&uninstallFlags.noDeps, "nodeps", false, "remove even if other packages depend on it")
}
