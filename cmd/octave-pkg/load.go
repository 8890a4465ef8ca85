package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnu-octave/pkg-tool/internal/loadmgr"
)

var loadFlags struct {
	noDeps bool
}

var loadCmd = &cobra.Command{
	Use:   "load <package>...",
	Short: "Activate packages on the interpreter search path",
	Long: `Activate one or more installed packages, pulling in their dependencies
first. Resolution failures activate nothing. Loading an already-loaded
package is a no-op.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		effective := a.effective()
		mgr := loadmgr.New(a.pathFile, a.log)
		for _, name := range args {
			loaded, err := a.loadedSet(effective)
			if err != nil {
				return err
			}
			order, err := mgr.Load(name, effective, loaded, loadFlags.noDeps)
			if err != nil {
				return fmt.Errorf("loading %s: %w", name, err)
			}
			for _, rec := range order {
				fmt.Printf("loaded %s %s\n", rec.Name, rec.Version)
			}
		}
		return nil
	},
}

func init() {
	loadCmd.Flags().BoolVar(&loadFlags.noDeps, "nodeps", false, "skip missing dependencies instead of failing")
}
