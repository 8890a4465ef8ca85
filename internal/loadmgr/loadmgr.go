// Package loadmgr activates and deactivates installed packages against the
// interpreter's search path. Ordering and safety verdicts come from the
// resolver; the actual path mutation goes through the Activator interface.
package loadmgr

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gnu-octave/pkg-tool/internal/resolver"
	"github.com/gnu-octave/pkg-tool/pkg/types"
)

// Activator mutates the interpreter's search path. Activate must be
// idempotent for a directory that is already active. An empty archDir is
// skipped by implementations.
type Activator interface {
	Activate(dir, archDir string) error
	Deactivate(dir, archDir string) error
}

// Manager wires the resolver's orderings to an Activator.
type Manager struct {
	Activator Activator
	Log       *zap.Logger
}

// New returns a Manager. A nil logger is replaced with a no-op one.
func New(act Activator, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{Activator: act, Log: log}
}

// Load activates target and its dependencies, dependencies first. Records
// already in loadedSet are left alone. Nothing is activated if resolution
// fails: the operation either activates the full ordering or nothing.
// Returns the records activated, in activation order.
func (m *Manager) Load(target string, effective map[string]*types.PackageRecord, loadedSet map[string]bool, allowMissing bool) ([]*types.PackageRecord, error) {
	order, err := resolver.LoadOrder(target, effective, loadedSet, allowMissing)
	if err != nil {
		return nil, err
	}
	for _, rec := range order {
		if err := m.Activator.Activate(rec.Dir, rec.ArchDir); err != nil {
			return nil, fmt.Errorf("activating %s: %w", rec.Name, err)
		}
		m.Log.Debug("activated package",
			zap.String("name", rec.Name),
			zap.String("dir", rec.Dir))
	}
	return order, nil
}

// Unload deactivates target only; dependencies stay active for other
// consumers. Blocked unloads deactivate nothing and report the full
// blocking set. Unloading a package that is not loaded is a no-op.
func (m *Manager) Unload(target string, effective map[string]*types.PackageRecord, loadedSet map[string]bool, allowMissing bool) error {
	rec, ok := effective[target]
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrNotFound, target)
	}
	if !loadedSet[target] {
		return nil
	}
	if err := resolver.UnloadSafety(target, effective, loadedSet, allowMissing); err != nil {
		return err
	}
	if err := m.Activator.Deactivate(rec.Dir, rec.ArchDir); err != nil {
		return fmt.Errorf("deactivating %s: %w", rec.Name, err)
	}
	m.Log.Debug("deactivated package", zap.String("name", rec.Name))
	return nil
}

// LoadedSet derives the per-session loaded set: a package is loaded when its
// directory is on the active search path. Loaded flags on the records are
// updated as a side effect so listings can show them.
func LoadedSet(effective map[string]*types.PackageRecord, activeDirs map[string]bool) map[string]bool {
	loaded := make(map[string]bool)
	for name, rec := range effective {
		if activeDirs[rec.Dir] {
			loaded[name] = true
			rec.Loaded = true
		}
	}
	return loaded
}
