package installer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnu-octave/pkg-tool/internal/registry"
	"github.com/gnu-octave/pkg-tool/pkg/types"
)

func TestRebuild_ReproducesRegistryFromDirectoryScan(t *testing.T) {
	h := newHarness(t)
	h.addPackage(t, "io", "2.4.0", "")
	h.addPackage(t, "statistics", "1.6.0", "io (>= 2.4.0)")
	_, err := h.orch.Install([]string{"io", "statistics"}, Options{})
	require.NoError(t, err)

	registryPath := filepath.Join(h.local, "octave_packages")

	// Corrupt the registry file, then rebuild from the prefix scan.
	require.NoError(t, os.WriteFile(registryPath, []byte("{garbage"), 0o644))
	_, err = registry.Load(registryPath, types.InstallerUser)
	require.ErrorIs(t, err, types.ErrCorruptRegistry)

	rebuilt, err := Rebuild(h.local, registryPath, types.InstallerUser, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"io", "statistics"}, rebuilt.Names())

	stats, ok := rebuilt.Find("statistics")
	require.True(t, ok)
	assert.Equal(t, "1.6.0", stats.Version)
	assert.Equal(t, filepath.Join(h.local, "statistics-1.6.0"), stats.Dir)
	require.Len(t, stats.Depends, 1)
	assert.Equal(t, "io", stats.Depends[0].Name)

	// The rebuilt registry is persisted and loads cleanly again.
	reloaded, err := registry.Load(registryPath, types.InstallerUser)
	require.NoError(t, err)
	assert.Equal(t, []string{"io", "statistics"}, reloaded.Names())
}

func TestRebuild_SkipsForeignDirectories(t *testing.T) {
	prefix := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(prefix, "not-a-package"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(prefix, "io-2.4.0", "packinfo"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(prefix, "io-2.4.0", "packinfo", "DESCRIPTION"),
		[]byte("Name: io\nVersion: 2.4.0\n"), 0o644))

	reg, err := Rebuild(prefix, filepath.Join(prefix, "octave_packages"), types.InstallerUser, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"io"}, reg.Names())
}

func TestRebuild_EmptyPrefix(t *testing.T) {
	dir := t.TempDir()
	reg, err := Rebuild(filepath.Join(dir, "missing"), filepath.Join(dir, "octave_packages"), types.InstallerUser, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
	assert.FileExists(t, filepath.Join(dir, "octave_packages"))
}
