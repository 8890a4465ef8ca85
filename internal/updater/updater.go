// Package updater compares installed packages against the forge and drives
// reinstalls for the out-of-date ones. One package's lookup failure is a
// warning, never an abort: the rest of the set is still checked.
package updater

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/gnu-octave/pkg-tool/internal/installer"
	"github.com/gnu-octave/pkg-tool/pkg/types"
)

// Index answers latest-version lookups, normally the forge client.
type Index interface {
	Latest(name string) (string, error)
}

// Installer queues reinstalls for outdated packages.
type Installer interface {
	Install(sources []string, opts installer.Options) (*installer.Result, error)
}

// Update describes one out-of-date package.
type Update struct {
	Name      string
	Installed string
	Available string
}

// Warning is a non-fatal per-package check failure.
type Warning struct {
	Name string
	Err  error
}

// Checker performs update checks over the effective installed set.
type Checker struct {
	Index     Index
	Installer Installer
	Log       *zap.Logger
}

// New returns a Checker. A nil logger is replaced with a no-op one.
func New(index Index, inst Installer, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{Index: index, Installer: inst, Log: log}
}

// Check compares each named package (or the whole effective set when names
// is empty) against the forge. Lookup and comparison failures are returned
// as warnings alongside the updates found.
func (c *Checker) Check(names []string, effective map[string]*types.PackageRecord) ([]Update, []Warning) {
	if len(names) == 0 {
		for name := range effective {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	var updates []Update
	var warnings []Warning
	for _, name := range names {
		rec, ok := effective[name]
		if !ok {
			warnings = append(warnings, Warning{Name: name, Err: fmt.Errorf("%w: %s", types.ErrNotFound, name)})
			continue
		}
		remote, err := c.Index.Latest(name)
		if err != nil {
			warnings = append(warnings, Warning{Name: name, Err: err})
			c.Log.Warn("forge lookup failed", zap.String("name", name), zap.Error(err))
			continue
		}
		cmp, err := types.CompareVersions(remote, rec.Version)
		if err != nil {
			warnings = append(warnings, Warning{Name: name, Err: err})
			continue
		}
		if cmp == types.Greater {
			updates = append(updates, Update{Name: name, Installed: rec.Version, Available: remote})
		}
	}
	return updates, warnings
}

// Run checks and then reinstalls every outdated package through the
// orchestrator. The install batch carries its own per-package failure
// semantics; its result is returned as-is.
func (c *Checker) Run(names []string, effective map[string]*types.PackageRecord, opts installer.Options) ([]Update, []Warning, *installer.Result, error) {
	updates, warnings := c.Check(names, effective)
	if len(updates) == 0 {
		return updates, warnings, &installer.Result{}, nil
	}
	sources := make([]string, len(updates))
	for i, u := range updates {
		sources[i] = u.Name
	}
	result, err := c.Installer.Install(sources, opts)
	return updates, warnings, result, err
}
