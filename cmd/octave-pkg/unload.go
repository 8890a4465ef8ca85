package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnu-octave/pkg-tool/internal/loadmgr"
)

var unloadFlags struct {
	noDeps bool
}

var unloadCmd = &cobra.Command{
	Use:   "unload <package>...",
	Short: "Deactivate packages from the interpreter search path",
	Long: `Deactivate one or more loaded packages. Only the named packages are
deactivated; their dependencies stay on the path for other consumers.
A package another loaded package depends on is refused unless --nodeps
is given.`,
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
			if err := mgr.Unload(name, effective, loaded, unloadFlags.noDeps); err != nil {
				return fmt.Errorf("unloading %s: %w", name, err)
			}
			fmt.Printf("unloaded %s\n", name)
		}
		return nil
	},
}

func init() {
	unloadCmd.Flags().BoolVar(&unloadFlags.noDeps, "nodeps", false, "unload even if other loaded packages depend on it")
}
