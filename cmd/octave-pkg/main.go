// Package main provides the octave-pkg CLI: install, load, and manage
// add-on packages for the interpreter across the per-user and system-wide
// registries.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gnu-octave/pkg-tool/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, types.ErrCorruptRegistry) {
			os.Exit(exitSysError)
		}
		os.Exit(exitUserError)
	}
}
