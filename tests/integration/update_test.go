// Update flow against a fake forge: lookup, cache, download, reinstall.
package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnu-octave/pkg-tool/internal/buildtool"
	"github.com/gnu-octave/pkg-tool/internal/forge"
	"github.com/gnu-octave/pkg-tool/internal/installer"
	"github.com/gnu-octave/pkg-tool/internal/updater"
)

func TestUpdateReinstallsFromForge(t *testing.T) {
	env := newTestEnv(t)
	env.Pack(t, "io", "2.4.0", "")
	result, err := env.Orch.Install([]string{"io"}, installer.Options{})
	require.NoError(t, err)
	require.False(t, result.Failed())

	newArchive := packArchive(t, env.ArchiveDir, "io", "2.5.0", "", map[string]string{
		"inst/io.m": "function io()\nend\n",
	})

	lookups := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/latest/io":
			lookups++
			json.NewEncoder(w).Encode(map[string]string{"name": "io", "version": "2.5.0"})
		case "/download/io-2.5.0.tar.gz":
			http.ServeFile(w, r, newArchive)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "forge_cache.db")
	cache, err := forge.OpenCache(cachePath, 0)
	require.NoError(t, err)
	defer cache.Close()

	client := forge.NewClient(srv.URL, cache, nil)
	orch := installer.New(env.Local, env.Global, env.LocalPrefix, env.GlobalPrefix,
		client, buildtool.New(nil), nil)

	check := updater.New(client, orch, nil)
	updates, warnings, result, err := check.Run(nil, env.Effective(), installer.Options{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, updates, 1)
	assert.Equal(t, "2.4.0", updates[0].Installed)
	assert.Equal(t, "2.5.0", updates[0].Available)
	require.False(t, result.Failed(), "failures: %v", result.Failures)

	rec, ok := env.Local.Find("io")
	require.True(t, ok)
	assert.Equal(t, "2.5.0", rec.Version)
	assert.FileExists(t, filepath.Join(env.LocalPrefix, "io-2.5.0", "inst", "io.m"))
	_, err = os.Stat(filepath.Join(env.LocalPrefix, "io-2.4.0"))
	assert.True(t, os.IsNotExist(err), "old version's files should be removed")

	// The second check is answered from the SQLite cache.
	updates, warnings = check.Check(nil, env.Effective())
	assert.Empty(t, warnings)
	assert.Empty(t, updates)
	assert.Equal(t, 1, lookups, "lookup should be cached")
}
