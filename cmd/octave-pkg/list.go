package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long: `List the effective installed set: the union of the local and global
registries, with local records shadowing global ones of the same name.
Loaded packages are marked with an asterisk.`,
	Args: cobra.NoArgs,
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

		names := make([]string, 0, len(effective))
		for _, name := range a.local.Names() {
			names = append(names, name)
		}
		for _, name := range a.global.Names() {
			if _, shadowed := a.local.Find(name); !shadowed {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		if flagJSON {
			recs := make([]any, 0, len(names))
			for _, name := range names {
				rec := effective[name]
				recs = append(recs, map[string]any{
					"name":      rec.Name,
					"version":   rec.Version,
					"dir":       rec.Dir,
					"installer": rec.Installer,
					"loaded":    rec.Loaded,
				})
			}
			return json.NewEncoder(os.Stdout).Encode(recs)
		}

		if len(names) == 0 {
			fmt.Println("no packages installed")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "Package\tVersion\tInstaller")
		for _, name := range names {
			rec := effective[name]
			marker := ""
			if rec.Loaded {
				marker = "*"
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\n", rec.Name, marker, rec.Version, rec.Installer)
		}
		return w.Flush()
	},
}
