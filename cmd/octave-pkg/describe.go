package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnu-octave/pkg-tool/pkg/types"
)

var describeCmd = &cobra.Command{
	Use:   "describe <package>...",
	Short: "Show one package's record and dependency constraints",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		effective := a.effective()
		if _, err := a.loadedSet(effective); err != nil {
			return err
		}

		for i, name := range args {
			rec, ok := effective[name]
			if !ok {
				return fmt.Errorf("%w: %s", types.ErrNotFound, name)
			}
			if flagJSON {
				if err := json.NewEncoder(os.Stdout).Encode(rec); err != nil {
					return err
				}
				continue
			}
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("Package:   %s\n", rec.Name)
			fmt.Printf("Version:   %s\n", rec.Version)
			fmt.Printf("Installer: %s\n", rec.Installer)
			fmt.Printf("Loaded:    %v\n", rec.Loaded)
			fmt.Printf("Dir:       %s\n", rec.Dir)
			if rec.ArchDir != "" {
				fmt.Printf("ArchDir:   %s\n", rec.ArchDir)
			}
			if len(rec.Depends) > 0 {
				fmt.Println("Depends:")
				for _, dep := range rec.Depends {
					fmt.Printf("  %s\n", dep)
				}
			}
		}
		return nil
	},
}
