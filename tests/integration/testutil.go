// Package integration provides shared helpers for end-to-end tests that
// exercise the registries, installer, and load manager against real temp
// directories and real tar.gz archives.
package integration

import (
	"archive/tar"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/gnu-octave/pkg-tool/internal/buildtool"
	"github.com/gnu-octave/pkg-tool/internal/installer"
	"github.com/gnu-octave/pkg-tool/internal/loadmgr"
	"github.com/gnu-octave/pkg-tool/internal/paths"
	"github.com/gnu-octave/pkg-tool/internal/registry"
	"github.com/gnu-octave/pkg-tool/pkg/types"
)

// testEnv is one isolated installation: two prefixes, two registries, a
// load-path file, and an orchestrator wired to a local archive fetcher.
type testEnv struct {
	LocalPrefix  string
	GlobalPrefix string
	ArchiveDir   string

	Local    *registry.Registry
	Global   *registry.Registry
	PathFile *loadmgr.PathFile
	Fetcher  archiveFetcher
	Orch     *installer.Orchestrator
	Manager  *loadmgr.Manager
}

// newTestEnv builds a fresh environment under t.TempDir.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		LocalPrefix:  filepath.Join(root, "local"),
		GlobalPrefix: filepath.Join(root, "global"),
		ArchiveDir:   filepath.Join(root, "archives"),
		Fetcher:      archiveFetcher{},
	}
	for _, dir := range []string{env.LocalPrefix, env.GlobalPrefix, env.ArchiveDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	var err error
	env.Local, err = registry.Load(paths.RegistryPath(env.LocalPrefix), types.InstallerUser)
	if err != nil {
		t.Fatalf("load local registry: %v", err)
	}
	env.Global, err = registry.Load(paths.RegistryPath(env.GlobalPrefix), types.InstallerSystem)
	if err != nil {
		t.Fatalf("load global registry: %v", err)
	}

	env.PathFile = loadmgr.NewPathFile(filepath.Join(root, "octave_load_path"))
	env.Orch = installer.New(env.Local, env.Global, env.LocalPrefix, env.GlobalPrefix,
		env.Fetcher, buildtool.New(nil), nil)
	env.Manager = loadmgr.New(env.PathFile, nil)
	return env
}

// Effective returns the merged installed set, local shadowing global.
func (e *testEnv) Effective() map[string]*types.PackageRecord {
	return registry.Effective(e.Local, e.Global)
}

// LoadedSet derives the loaded set from the load-path file.
func (e *testEnv) LoadedSet(t *testing.T) map[string]bool {
	t.Helper()
	active, err := e.PathFile.ActiveDirs()
	if err != nil {
		t.Fatalf("reading load path: %v", err)
	}
	return loadmgr.LoadedSet(e.Effective(), active)
}

// Pack writes a release archive for name-version into ArchiveDir and
// registers it with the fetcher under the bare name. depends may be empty.
func (e *testEnv) Pack(t *testing.T, name, version, depends string) string {
	t.Helper()
	archive := packArchive(t, e.ArchiveDir, name, version, depends, map[string]string{
		"inst/" + name + ".m": fmt.Sprintf("function %s()\nend\n", name),
	})
	e.Fetcher[name] = archive
	return archive
}

// archiveFetcher resolves bare package names to pre-packed archives.
type archiveFetcher map[string]string

func (f archiveFetcher) Fetch(source, destDir string) (string, error) {
	path, ok := f[source]
	if !ok {
		return "", fmt.Errorf("%w: %s", types.ErrFetch, source)
	}
	return path, nil
}

// packArchive writes a tar.gz release archive with the conventional
// <name>-<version>/ top-level directory and a DESCRIPTION manifest.
func packArchive(t *testing.T, dir, name, version, depends string, files map[string]string) string {
	t.Helper()

	manifest := fmt.Sprintf("Name: %s\nVersion: %s\nDescription: test package\n", name, version)
	if depends != "" {
		manifest += "Depends: " + depends + "\n"
	}

	archive := filepath.Join(dir, name+"-"+version+".tar.gz")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatalf("creating archive: %v", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	top := name + "-" + version

	writeEntry := func(rel, content string) {
		hdr := &tar.Header{
			Name: top + "/" + rel,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header %s: %v", rel, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("tar write %s: %v", rel, err)
		}
	}

	writeEntry("DESCRIPTION", manifest)
	for rel, content := range files {
		writeEntry(rel, content)
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("closing gzip: %v", err)
	}
	return archive
}
