// Package resolver computes orderings and safety verdicts over the package
// dependency graph: load order, install order, and unload/uninstall safety.
// Traversal is an explicit-stack depth-first walk with color marking
// (unvisited, in-progress, done), so cycles are detected without relying on
// recursion depth.
package resolver

import (
	"fmt"
	"strings"

	"github.com/gnu-octave/pkg-tool/pkg/types"
)

type color int

const (
	white color = iota // unvisited
	grey               // on the active traversal stack
	black              // fully visited
)

// frame is one node on the explicit DFS stack. next is the index of the next
// dependency edge to follow.
type frame struct {
	rec  *types.PackageRecord
	next int
}

// LoadOrder returns the records to activate, dependencies before dependents,
// for loading target from the effective installed set. Records already in
// loadedSet are validated for presence but not re-emitted and not descended
// into. With allowMissing, unresolvable dependencies are skipped instead of
// failing; without it, the full set of missing names is reported in one
// MissingError.
//
// Dependency edges are followed in declaration order, so the result is
// deterministic for a given input.
func LoadOrder(target string, effective map[string]*types.PackageRecord, loadedSet map[string]bool, allowMissing bool) ([]*types.PackageRecord, error) {
	root, ok := effective[target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, target)
	}

	colors := make(map[string]color)
	var stack []frame
	var path []string // names currently grey, in stack order
	var order []*types.PackageRecord
	var missing []string

	stack = append(stack, frame{rec: root})
	colors[target] = grey
	path = append(path, target)

	for len(stack) > 0 {
		f := &stack[len(stack)-1]

		if f.next < len(f.rec.Depends) {
			dep := f.rec.Depends[f.next]
			f.next++

			depRec, present := effective[dep.Name]
			if present {
				satisfied, err := dep.SatisfiedBy(depRec.Version)
				if err != nil {
					return nil, fmt.Errorf("checking %s dependency %s: %w", f.rec.Name, dep.Name, err)
				}
				present = satisfied
			}
			if !present {
				if !allowMissing {
					missing = appendUnique(missing, dep.String())
				}
				continue
			}

			if loadedSet[dep.Name] {
				// Already active this session; validated above, not re-visited.
				continue
			}

			switch colors[dep.Name] {
			case black:
				continue
			case grey:
				return nil, &types.CycleError{Cycle: cycleFrom(path, dep.Name)}
			default:
				colors[dep.Name] = grey
				path = append(path, dep.Name)
				stack = append(stack, frame{rec: depRec})
			}
			continue
		}

		// All edges done: post-order emit.
		colors[f.rec.Name] = black
		path = path[:len(path)-1]
		if !loadedSet[f.rec.Name] {
			order = append(order, f.rec)
		}
		stack = stack[:len(stack)-1]
	}

	if len(missing) > 0 {
		return nil, &types.MissingError{Package: target, Missing: missing}
	}
	return order, nil
}

// UnloadSafety reports whether target can be deactivated. Every other loaded
// package's dependency list is scanned; any that lists target blocks the
// unload. The whole blocking set is returned at once. allowMissing disables
// the check entirely.
func UnloadSafety(target string, effective map[string]*types.PackageRecord, loadedSet map[string]bool, allowMissing bool) error {
	if allowMissing {
		return nil
	}
	var blockers []string
	for name := range loadedSet {
		if name == target || !loadedSet[name] {
			continue
		}
		rec, ok := effective[name]
		if !ok {
			continue
		}
		if dependsOn(rec, target) {
			blockers = append(blockers, name)
		}
	}
	if len(blockers) > 0 {
		return &types.BlockedError{Package: target, Blockers: blockers}
	}
	return nil
}

// UninstallSafety reports whether target can be removed from the installed
// set. Unlike UnloadSafety it scans every installed record, loaded or not:
// removal must not break an installed package that merely is not active
// right now.
func UninstallSafety(target string, installed map[string]*types.PackageRecord, allowMissing bool) error {
	if allowMissing {
		return nil
	}
	var blockers []string
	for name, rec := range installed {
		if name == target {
			continue
		}
		if dependsOn(rec, target) {
			blockers = append(blockers, name)
		}
	}
	if len(blockers) > 0 {
		return &types.BlockedError{Package: target, Blockers: blockers}
	}
	return nil
}

// InstallOrder orders a multi-package install request so that a package is
// never installed before a dependency that is part of the same request.
// Dependencies already satisfied by the effective installed set are not part
// of the returned order. A cycle confined to the requested set fails with
// ErrUnresolvableRequest.
//
// Request order is preserved wherever the graph allows, so batch installs
// are reproducible.
func InstallOrder(requested []*types.PackageRecord, effective map[string]*types.PackageRecord) ([]string, error) {
	byName := make(map[string]*types.PackageRecord, len(requested))
	for _, rec := range requested {
		byName[rec.Name] = rec
	}

	colors := make(map[string]color)
	var order []string

	for _, root := range requested {
		if colors[root.Name] == black {
			continue
		}

		var stack []frame
		var path []string
		stack = append(stack, frame{rec: root})
		colors[root.Name] = grey
		path = append(path, root.Name)

		for len(stack) > 0 {
			f := &stack[len(stack)-1]

			if f.next < len(f.rec.Depends) {
				dep := f.rec.Depends[f.next]
				f.next++

				depRec, inRequest := byName[dep.Name]
				if !inRequest {
					// Satisfied (or not) by what is already installed;
					// either way it is not ours to order. The orchestrator
					// validates presence separately.
					continue
				}
				switch colors[dep.Name] {
				case black:
					continue
				case grey:
					return nil, fmt.Errorf("%w: %s", types.ErrUnresolvableRequest,
						strings.Join(cycleFrom(path, dep.Name), " -> "))
				default:
					colors[dep.Name] = grey
					path = append(path, dep.Name)
					stack = append(stack, frame{rec: depRec})
				}
				continue
			}

			colors[f.rec.Name] = black
			path = path[:len(path)-1]
			order = append(order, f.rec.Name)
			stack = stack[:len(stack)-1]
		}
	}
	return order, nil
}

// dependsOn reports whether rec declares a dependency on name.
func dependsOn(rec *types.PackageRecord, name string) bool {
	for _, d := range rec.Depends {
		if d.Name == name {
			return true
		}
	}
	return false
}

// cycleFrom extracts the cycle from the grey path, starting at the first
// occurrence of name and closing back on it.
func cycleFrom(path []string, name string) []string {
	start := 0
	for i, n := range path {
		if n == name {
			start = i
			break
		}
	}
	cycle := append([]string(nil), path[start:]...)
	return append(cycle, name)
}

// appendUnique appends s to list if not already present, preserving order.
func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}
