package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Standard errors. Components return these (or typed errors that unwrap to
// them) so callers can branch with errors.Is.
var (
	ErrInvalidVersion        = errors.New("invalid version")
	ErrCorruptRegistry       = errors.New("corrupt registry")
	ErrCyclicDependency      = errors.New("cyclic dependency")
	ErrUnsatisfiedDependency = errors.New("unsatisfied dependency")
	ErrUnresolvableRequest   = errors.New("unresolvable install request")
	ErrBlocked               = errors.New("blocked by dependent packages")
	ErrFetch                 = errors.New("fetch failed")
	ErrBuild                 = errors.New("build failed")
	ErrNotFound              = errors.New("package not found")
)

// CycleError reports a dependency cycle. Cycle holds the package names on
// the cycle in traversal order, ending where it started.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Cycle, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicDependency }

// MissingError reports dependencies that could not be resolved against the
// effective installed set. Package is the dependent; Missing the absent or
// constraint-violating dependency names.
type MissingError struct {
	Package string
	Missing []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("unsatisfied dependency: %s requires %s",
		e.Package, strings.Join(e.Missing, ", "))
}

func (e *MissingError) Unwrap() error { return ErrUnsatisfiedDependency }

// BlockedError reports packages whose dependency on the target blocks an
// unload or uninstall. The full blocking set is reported at once.
type BlockedError struct {
	Package  string
	Blockers []string
}

func (e *BlockedError) Error() string {
	bl := append([]string(nil), e.Blockers...)
	sort.Strings(bl)
	return fmt.Sprintf("%s is required by: %s", e.Package, strings.Join(bl, ", "))
}

func (e *BlockedError) Unwrap() error { return ErrBlocked }
