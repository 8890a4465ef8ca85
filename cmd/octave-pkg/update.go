package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnu-octave/pkg-tool/internal/installer"
	"github.com/gnu-octave/pkg-tool/internal/updater"
)

var updateFlags struct {
	noDeps    bool
	checkOnly bool
}

var updateCmd = &cobra.Command{
	Use:   "update [package]...",
	Short: "Reinstall packages the forge has newer versions of",
	Long: `Compare installed packages against the forge and reinstall the
out-of-date ones. With no arguments every installed package is checked.
A lookup failure for one package is a warning; the rest are still
checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		orch := a.orchestrator(true)
		check := updater.New(a.forgeClient(), orch, a.log)
		effective := a.effective()

		if updateFlags.checkOnly {
			updates, warnings := check.Check(args, effective)
			printWarnings(warnings)
			if len(updates) == 0 {
				fmt.Println("all packages up to date")
				return nil
			}
			for _, u := range updates {
				fmt.Printf("%s: %s -> %s\n", u.Name, u.Installed, u.Available)
			}
			return nil
		}

		opts := installer.Options{NoDeps: updateFlags.noDeps}
		updates, warnings, result, err := check.Run(args, effective, opts)
		printWarnings(warnings)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			fmt.Println("all packages up to date")
			return nil
		}
		for _, rec := range result.Installed {
			fmt.Printf("updated %s to %s\n", rec.Name, rec.Version)
		}
		return reportFailures(result)
	},
}

func printWarnings(warnings []updater.Warning) {
	for _, w := range warnings {
		fmt.Printf("warning: %s: %v\n", w.Name, w.Err)
	}
}

func init() {
	updateCmd.Flags().BoolVar(&updateFlags.noDeps, "nodeps", false, "skip dependency validation on reinstall")
	updateCmd.Flags().BoolVar(&updateFlags.checkOnly, "check", false, "report available updates without installing")
}
