// Package installer sequences fetch, build, and registration for package
// installs, and the reverse for uninstalls. Batches are best-effort: a
// failure aborts only the package it belongs to, and the aggregate outcome
// is reported at the end. Registry mutation per package is all-or-nothing.
package installer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gnu-octave/pkg-tool/internal/buildtool"
	"github.com/gnu-octave/pkg-tool/internal/registry"
	"github.com/gnu-octave/pkg-tool/internal/resolver"
	"github.com/gnu-octave/pkg-tool/pkg/types"
)

// Fetcher resolves a source locator to a local archive path.
type Fetcher interface {
	Fetch(source, destDir string) (string, error)
}

// Builder runs the native build step in a staged package tree.
type Builder interface {
	Build(stagingDir string) error
}

// Options control one install or uninstall invocation.
type Options struct {
	// NoDeps disables dependency validation and safety checks.
	NoDeps bool
	// Global targets the system-wide registry and prefix.
	Global bool
}

// Failure is one package's outcome in a partially failed batch.
type Failure struct {
	Source string
	Err    error
}

// Result aggregates a batch outcome.
type Result struct {
	Installed []*types.PackageRecord
	Removed   []string
	Failures  []Failure
}

// Failed reports whether any package in the batch failed.
func (r *Result) Failed() bool { return len(r.Failures) > 0 }

// Orchestrator owns the two registries for the duration of one command and
// performs every mutation of them.
type Orchestrator struct {
	Local        *registry.Registry
	Global       *registry.Registry
	LocalPrefix  string
	GlobalPrefix string
	Fetcher      Fetcher
	Builder      Builder
	Log          *zap.Logger
}

// New returns an Orchestrator. A nil logger is replaced with a no-op one.
func New(local, global *registry.Registry, localPrefix, globalPrefix string, f Fetcher, b Builder, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		Local:        local,
		Global:       global,
		LocalPrefix:  localPrefix,
		GlobalPrefix: globalPrefix,
		Fetcher:      f,
		Builder:      b,
		Log:          log,
	}
}

// candidate is a staged, built, parsed package awaiting registration.
type candidate struct {
	source  string
	staged  string // extracted tree inside the staging dir
	cleanup func()
	rec     *types.PackageRecord
}

// Install runs the pipeline for each source: fetch, extract, build, parse the
// manifest, validate dependencies, move into place, register, persist. Multi-
// package requests are ordered so dependencies inside the batch install
// first. A cycle confined to the request aborts the whole batch; any other
// failure is per-package.
func (o *Orchestrator) Install(sources []string, opts Options) (*Result, error) {
	result := &Result{}

	// Stage every source first so ordering can see the whole batch.
	staged := make(map[string]*candidate)
	var candidates []*types.PackageRecord
	for _, source := range sources {
		cand, err := o.stage(source)
		if err != nil {
			result.Failures = append(result.Failures, Failure{Source: source, Err: err})
			continue
		}
		defer cand.cleanup()
		if prev, dup := staged[cand.rec.Name]; dup {
			result.Failures = append(result.Failures, Failure{
				Source: source,
				Err:    fmt.Errorf("duplicate package %s in request (also from %s)", cand.rec.Name, prev.source),
			})
			continue
		}
		staged[cand.rec.Name] = cand
		candidates = append(candidates, cand.rec)
	}

	effective := registry.Effective(o.Local, o.Global)
	order, err := resolver.InstallOrder(candidates, effective)
	if err != nil {
		return result, err
	}

	for _, name := range order {
		cand := staged[name]
		if err := o.place(cand, effective, opts); err != nil {
			result.Failures = append(result.Failures, Failure{Source: cand.source, Err: err})
			o.Log.Warn("package install failed",
				zap.String("source", cand.source), zap.Error(err))
			continue
		}
		effective[name] = cand.rec
		result.Installed = append(result.Installed, cand.rec)
		o.Log.Info("installed package",
			zap.String("name", cand.rec.Name),
			zap.String("version", cand.rec.Version))
	}
	return result, nil
}

// stage fetches, extracts, builds, and parses one source into a candidate.
// The returned cleanup removes the staging directory; it is safe to call on
// every exit path.
func (o *Orchestrator) stage(source string) (cand *candidate, err error) {
	stagingDir := filepath.Join(os.TempDir(), "octave-pkg-"+uuid.NewString())
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(stagingDir) }
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	archive, err := o.Fetcher.Fetch(source, stagingDir)
	if err != nil {
		return nil, err
	}
	root, err := buildtool.Extract(archive, stagingDir)
	if err != nil {
		return nil, err
	}
	if err := o.Builder.Build(root); err != nil {
		return nil, err
	}
	man, err := ParseManifest(filepath.Join(root, "DESCRIPTION"))
	if err != nil {
		return nil, err
	}

	return &candidate{
		source:  source,
		staged:  root,
		cleanup: cleanup,
		rec: &types.PackageRecord{
			Name:    man.Name,
			Version: man.Version,
			Depends: graphDepends(man.Depends),
		},
	}, nil
}

// place validates a candidate against the effective set, moves its files
// into the final package directory, and registers it. The registry is
// persisted before place returns; on any error the registry file is
// untouched.
func (o *Orchestrator) place(cand *candidate, effective map[string]*types.PackageRecord, opts Options) error {
	if !opts.NoDeps {
		if err := o.validateDepends(cand.rec, effective); err != nil {
			return err
		}
	}

	reg, prefix := o.Local, o.LocalPrefix
	if opts.Global {
		reg, prefix = o.Global, o.GlobalPrefix
	}

	destDir := filepath.Join(prefix, cand.rec.Name+"-"+cand.rec.Version)

	// Reinstall replaces files entirely.
	old, existed := reg.Find(cand.rec.Name)
	if err := os.RemoveAll(destDir); err != nil {
		return fmt.Errorf("clearing %s: %w", destDir, err)
	}
	if err := copyTree(cand.staged, destDir); err != nil {
		os.RemoveAll(destDir)
		return err
	}
	if err := placePackinfo(destDir); err != nil {
		os.RemoveAll(destDir)
		return err
	}

	cand.rec.Dir = destDir
	if arch := filepath.Join(destDir, ArchDirName()); dirExists(arch) {
		cand.rec.ArchDir = arch
	}

	reg.Upsert(cand.rec)
	if err := reg.Persist(); err != nil {
		reg.Remove(cand.rec.Name)
		if existed {
			reg.Upsert(old)
		}
		os.RemoveAll(destDir)
		return fmt.Errorf("persisting registry: %w", err)
	}

	// The record now owns destDir; stale files from a replaced version can go.
	if existed && old.Dir != "" && old.Dir != destDir {
		os.RemoveAll(old.Dir)
	}
	return nil
}

// validateDepends checks every declared dependency of rec against the
// effective set, reporting all problems at once.
func (o *Orchestrator) validateDepends(rec *types.PackageRecord, effective map[string]*types.PackageRecord) error {
	var missing []string
	for _, dep := range rec.Depends {
		installed, ok := effective[dep.Name]
		if ok {
			satisfied, err := dep.SatisfiedBy(installed.Version)
			if err != nil {
				return fmt.Errorf("checking dependency %s: %w", dep.Name, err)
			}
			ok = satisfied
		}
		if !ok {
			missing = append(missing, dep.String())
		}
	}
	if len(missing) > 0 {
		return &types.MissingError{Package: rec.Name, Missing: missing}
	}
	return nil
}

// ArchDirName is the architecture-dependent subdirectory name used for
// compiled package files.
func ArchDirName() string {
	return runtime.GOARCH + "-" + runtime.GOOS + "-api-v1"
}

// placePackinfo copies the DESCRIPTION into <dir>/packinfo/, where the
// registry rebuild scan looks for it.
func placePackinfo(dir string) error {
	packinfo := filepath.Join(dir, "packinfo")
	if err := os.MkdirAll(packinfo, 0o755); err != nil {
		return fmt.Errorf("creating packinfo: %w", err)
	}
	return copyFile(filepath.Join(dir, "DESCRIPTION"), filepath.Join(packinfo, "DESCRIPTION"))
}

// copyTree copies src into dest recursively. Staging lives in the system
// temp dir, which may be a different filesystem from the prefix, so a plain
// rename is not an option.
func copyTree(src, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

// copyFile copies one regular file, preserving its mode bits.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode()&0o777)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dest, err)
	}
	return out.Close()
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
