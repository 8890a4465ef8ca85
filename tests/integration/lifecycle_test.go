// End-to-end lifecycle: install, load, unload, uninstall, with dependency
// safety enforced at every step.
package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnu-octave/pkg-tool/internal/installer"
	"github.com/gnu-octave/pkg-tool/internal/paths"
	"github.com/gnu-octave/pkg-tool/pkg/types"
)

func TestLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.Pack(t, "io", "2.4.0", "octave (>= 7.0.0)")
	env.Pack(t, "statistics", "1.5.0", "io (>= 2.0.0)")

	// Install both in one request; the dependency orders first regardless
	// of the order asked for.
	result, err := env.Orch.Install([]string{"statistics", "io"}, installer.Options{})
	require.NoError(t, err)
	require.False(t, result.Failed(), "failures: %v", result.Failures)
	require.Len(t, result.Installed, 2)
	assert.Equal(t, "io", result.Installed[0].Name)
	assert.Equal(t, "statistics", result.Installed[1].Name)

	// Files landed under the local prefix, manifest copied into packinfo.
	ioDir := filepath.Join(env.LocalPrefix, "io-2.4.0")
	assert.FileExists(t, filepath.Join(ioDir, "inst", "io.m"))
	assert.FileExists(t, filepath.Join(ioDir, "packinfo", "DESCRIPTION"))
	assert.FileExists(t, paths.RegistryPath(env.LocalPrefix))

	// The interpreter-version constraint is not a package dependency.
	rec, ok := env.Local.Find("statistics")
	require.True(t, ok)
	require.Len(t, rec.Depends, 1)
	assert.Equal(t, "io", rec.Depends[0].Name)

	// Loading statistics pulls io onto the path first.
	loaded, err := env.Manager.Load("statistics", env.Effective(), env.LoadedSet(t), false)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "io", loaded[0].Name)
	assert.True(t, env.LoadedSet(t)["io"])
	assert.True(t, env.LoadedSet(t)["statistics"])

	// io cannot be unloaded while statistics needs it.
	err = env.Manager.Unload("io", env.Effective(), env.LoadedSet(t), false)
	var blocked *types.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, []string{"statistics"}, blocked.Blockers)
	assert.True(t, env.LoadedSet(t)["io"], "blocked unload must not deactivate")

	// Unload in dependency order succeeds; only the target leaves the path.
	require.NoError(t, env.Manager.Unload("statistics", env.Effective(), env.LoadedSet(t), false))
	assert.True(t, env.LoadedSet(t)["io"])
	require.NoError(t, env.Manager.Unload("io", env.Effective(), env.LoadedSet(t), false))
	assert.Empty(t, env.LoadedSet(t))

	// Uninstall honors the same dependency direction.
	result, err = env.Orch.Uninstall([]string{"io"}, installer.Options{})
	require.NoError(t, err)
	require.True(t, result.Failed())
	require.ErrorAs(t, result.Failures[0].Err, &blocked)

	result, err = env.Orch.Uninstall([]string{"statistics"}, installer.Options{})
	require.NoError(t, err)
	require.False(t, result.Failed())
	result, err = env.Orch.Uninstall([]string{"io"}, installer.Options{})
	require.NoError(t, err)
	require.False(t, result.Failed())

	assert.Empty(t, env.Effective())
	_, err = os.Stat(ioDir)
	assert.True(t, os.IsNotExist(err), "package files should be removed")
}

func TestReinstallReplacesVersion(t *testing.T) {
	env := newTestEnv(t)
	env.Pack(t, "io", "2.4.0", "")
	result, err := env.Orch.Install([]string{"io"}, installer.Options{})
	require.NoError(t, err)
	require.False(t, result.Failed())
	oldDir := filepath.Join(env.LocalPrefix, "io-2.4.0")

	env.Pack(t, "io", "2.5.0", "")
	result, err = env.Orch.Install([]string{"io"}, installer.Options{})
	require.NoError(t, err)
	require.False(t, result.Failed())

	rec, ok := env.Local.Find("io")
	require.True(t, ok)
	assert.Equal(t, "2.5.0", rec.Version)
	_, err = os.Stat(oldDir)
	assert.True(t, os.IsNotExist(err), "replaced version's files should be removed")
}

func TestGlobalShadowedByLocal(t *testing.T) {
	env := newTestEnv(t)
	env.Pack(t, "io", "2.0.0", "")
	result, err := env.Orch.Install([]string{"io"}, installer.Options{Global: true})
	require.NoError(t, err)
	require.False(t, result.Failed())

	env.Pack(t, "io", "2.4.0", "")
	result, err = env.Orch.Install([]string{"io"}, installer.Options{})
	require.NoError(t, err)
	require.False(t, result.Failed())

	// Local wins in the effective set.
	effective := env.Effective()
	require.Contains(t, effective, "io")
	assert.Equal(t, "2.4.0", effective["io"].Version)
	assert.Equal(t, types.InstallerUser, effective["io"].Installer)

	// Removing the local copy exposes the global one again.
	result, err = env.Orch.Uninstall([]string{"io"}, installer.Options{})
	require.NoError(t, err)
	require.False(t, result.Failed())
	effective = env.Effective()
	require.Contains(t, effective, "io")
	assert.Equal(t, "2.0.0", effective["io"].Version)
}

func TestInstallRejectsMissingDependency(t *testing.T) {
	env := newTestEnv(t)
	env.Pack(t, "statistics", "1.5.0", "io (>= 2.0.0)")

	result, err := env.Orch.Install([]string{"statistics"}, installer.Options{})
	require.NoError(t, err)
	require.True(t, result.Failed())
	var missing *types.MissingError
	require.ErrorAs(t, result.Failures[0].Err, &missing)
	assert.Equal(t, []string{"io (>= 2.0.0)"}, missing.Missing)
	assert.Empty(t, env.Effective())

	// The escape hatch installs it anyway.
	result, err = env.Orch.Install([]string{"statistics"}, installer.Options{NoDeps: true})
	require.NoError(t, err)
	require.False(t, result.Failed())
	assert.Contains(t, env.Effective(), "statistics")
}
