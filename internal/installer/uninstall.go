package installer

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/gnu-octave/pkg-tool/internal/registry"
	"github.com/gnu-octave/pkg-tool/pkg/types"
)

// Uninstall removes each named package: safety check, file removal, record
// removal, persist. Best-effort batch; each failure is isolated.
func (o *Orchestrator) Uninstall(names []string, opts Options) (*Result, error) {
	result := &Result{}
	for _, name := range names {
		if err := o.removeOne(name, opts); err != nil {
			result.Failures = append(result.Failures, Failure{Source: name, Err: err})
			o.Log.Warn("package uninstall failed", zap.String("name", name), zap.Error(err))
			continue
		}
		result.Removed = append(result.Removed, name)
		o.Log.Info("uninstalled package", zap.String("name", name))
	}
	return result, nil
}

// removeOne uninstalls a single package. A local record shadows a global one
// of the same name, so the local registry is searched first; removing a
// shadowing record exposes the global record again, and dependents whose
// constraints the exposed record satisfies do not block the removal.
func (o *Orchestrator) removeOne(name string, opts Options) error {
	owner := o.Local
	rec, ok := owner.Find(name)
	if !ok {
		owner = o.Global
		rec, ok = owner.Find(name)
	}
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrNotFound, name)
	}

	if !opts.NoDeps {
		if err := o.uninstallBlockers(name, owner); err != nil {
			return err
		}
	}

	owner.Remove(name)
	if err := owner.Persist(); err != nil {
		owner.Upsert(rec)
		return fmt.Errorf("persisting registry: %w", err)
	}

	// Registry is authoritative; file removal failures after the record is
	// gone are not fatal.
	if rec.Dir != "" {
		if err := os.RemoveAll(rec.Dir); err != nil {
			o.Log.Warn("removing package files failed",
				zap.String("dir", rec.Dir), zap.Error(err))
		}
	}
	return nil
}

// uninstallBlockers returns a BlockedError naming every installed package
// whose dependency on name would become unsatisfiable after the removal.
func (o *Orchestrator) uninstallBlockers(name string, owner *registry.Registry) error {
	before := registry.Effective(o.Local, o.Global)

	// View after removal: the same merge without the owner's record. When
	// the local record shadowed a global one, the global record resurfaces.
	removed, _ := owner.Find(name)
	owner.Remove(name)
	after := registry.Effective(o.Local, o.Global)
	owner.Upsert(removed)

	var blockers []string
	for other, rec := range before {
		if other == name {
			continue
		}
		for _, dep := range rec.Depends {
			if dep.Name != name {
				continue
			}
			fallback, present := after[name]
			if present {
				satisfied, err := dep.SatisfiedBy(fallback.Version)
				if err != nil {
					return fmt.Errorf("checking dependency of %s: %w", other, err)
				}
				if satisfied {
					continue
				}
			}
			blockers = append(blockers, other)
			break
		}
	}
	if len(blockers) > 0 {
		return &types.BlockedError{Package: name, Blockers: blockers}
	}
	return nil
}
