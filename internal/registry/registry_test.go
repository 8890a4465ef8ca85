package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnu-octave/pkg-tool/pkg/types"
)

func testRecord(name, version string, deps ...types.Dependency) *types.PackageRecord {
	return &types.PackageRecord{
		Name:    name,
		Version: version,
		Dir:     "/opt/octave/" + name + "-" + version,
		Depends: deps,
	}
}

func TestLoad_AbsentFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "octave_packages")
	r, err := Load(path, types.InstallerUser)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "octave_packages")
	r := New(path, types.InstallerUser)
	r.Upsert(testRecord("io", "2.4.0"))
	r.Upsert(testRecord("statistics", "1.6.0", types.Dependency{Name: "io", Operator: ">=", Version: "2.4"}))
	require.NoError(t, r.Persist())

	got, err := Load(path, types.InstallerUser)
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())

	stats, ok := got.Find("statistics")
	require.True(t, ok)
	assert.Equal(t, "1.6.0", stats.Version)
	require.Len(t, stats.Depends, 1)
	assert.Equal(t, ">=", stats.Depends[0].Operator)
	assert.Equal(t, types.InstallerUser, stats.Installer)
}

func TestLoad_CorruptLineIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "octave_packages")
	content := `{"name":"io","version":"2.4.0","dir":"/opt/io","installer":"user"}` + "\n" +
		"{not json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path, types.InstallerUser)
	assert.ErrorIs(t, err, types.ErrCorruptRegistry)
}

func TestLoad_DuplicateNameIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "octave_packages")
	line := `{"name":"io","version":"2.4.0","dir":"/opt/io","installer":"user"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(line+line), 0o644))

	_, err := Load(path, types.InstallerUser)
	assert.ErrorIs(t, err, types.ErrCorruptRegistry)
}

func TestLoad_InvalidRecordIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "octave_packages")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"io","version":"not.a.version"}`+"\n"), 0o644))

	_, err := Load(path, types.InstallerUser)
	assert.ErrorIs(t, err, types.ErrCorruptRegistry)
}

func TestPersist_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	r := New(filepath.Join(dir, "octave_packages"), types.InstallerUser)
	r.Upsert(testRecord("io", "2.4.0"))
	require.NoError(t, r.Persist())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".registry-"), "temp file %s left behind", e.Name())
	}
}

func TestRemove(t *testing.T) {
	r := New("", types.InstallerUser)
	r.Upsert(testRecord("io", "2.4.0"))
	assert.True(t, r.Remove("io"))
	assert.False(t, r.Remove("io"))
	_, ok := r.Find("io")
	assert.False(t, ok)
}

func TestFind_CaseSensitive(t *testing.T) {
	r := New("", types.InstallerUser)
	r.Upsert(testRecord("Signal", "1.0"))
	_, ok := r.Find("signal")
	assert.False(t, ok)
	_, ok = r.Find("Signal")
	assert.True(t, ok)
}

func TestEffective_LocalShadowsGlobal(t *testing.T) {
	local := New("", types.InstallerUser)
	global := New("", types.InstallerSystem)

	global.Upsert(testRecord("io", "2.0.0"))
	global.Upsert(testRecord("signal", "1.4.0"))
	local.Upsert(testRecord("io", "2.4.0"))

	eff := Effective(local, global)
	require.Len(t, eff, 2)
	assert.Equal(t, "2.4.0", eff["io"].Version, "local record shadows global")
	assert.Equal(t, types.InstallerUser, eff["io"].Installer)
	assert.Equal(t, "1.4.0", eff["signal"].Version)

	// Removing the local record exposes the global one again.
	local.Remove("io")
	eff = Effective(local, global)
	assert.Equal(t, "2.0.0", eff["io"].Version)
	assert.Equal(t, types.InstallerSystem, eff["io"].Installer)
}
