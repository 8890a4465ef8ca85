package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnu-octave/pkg-tool/pkg/types"
)

var testCmd = &cobra.Command{
	Use:   "test <package>...",
	Short: "Run a package's self-tests through the interpreter",
	Long: `Run the self-tests shipped in each package's inst tree by invoking the
configured interpreter. A missing interpreter or test failure for one
package does not stop the rest.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		effective := a.effective()
		interp := a.cfg.GetString(cfgKeyInterpreter)
		if _, err := exec.LookPath(interp); err != nil {
			fmt.Printf("warning: interpreter %q not found, skipping tests\n", interp)
			return nil
		}

		failed := 0
		for _, name := range args {
			rec, ok := effective[name]
			if !ok {
				return fmt.Errorf("%w: %s", types.ErrNotFound, name)
			}
			instDir := filepath.Join(rec.Dir, "inst")
			if _, err := os.Stat(instDir); err != nil {
				fmt.Printf("%s: no test files\n", name)
				continue
			}
			if err := runPackageTests(interp, rec, instDir); err != nil {
				fmt.Printf("%s: FAIL (%v)\n", name, err)
				a.log.Warn("package tests failed", zap.String("name", name), zap.Error(err))
				failed++
				continue
			}
			fmt.Printf("%s: PASS\n", name)
		}
		if failed > 0 {
			return fmt.Errorf("%d package(s) failed their tests", failed)
		}
		return nil
	},
}

// runPackageTests invokes the interpreter's test runner over instDir.
func runPackageTests(interp string, rec *types.PackageRecord, instDir string) error {
	eval := fmt.Sprintf("exit(!runtests(%q))", instDir)
	c := exec.Command(interp, "--norc", "--silent", "--path", rec.Dir, "--eval", eval)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
