package buildtool

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnu-octave/pkg-tool/pkg/types"
)

// writeArchive builds a tar.gz with the given name→content entries.
func writeArchive(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "io-2.4.0.tar.gz")
	writeArchive(t, archive, map[string]string{
		"io-2.4.0/DESCRIPTION": "Name: io\nVersion: 2.4.0\n",
		"io-2.4.0/inst/read.m": "function read()\nend\n",
		"io-2.4.0/COPYING":     "GPL",
	})

	dest := t.TempDir()
	root, err := Extract(archive, dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "io-2.4.0"), root)

	data, err := os.ReadFile(filepath.Join(root, "DESCRIPTION"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Name: io")

	_, err = os.Stat(filepath.Join(root, "inst", "read.m"))
	assert.NoError(t, err)
}

func TestExtract_RejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.tar.gz")
	writeArchive(t, archive, map[string]string{
		"../outside.txt": "nope",
	})

	_, err := Extract(archive, t.TempDir())
	assert.ErrorIs(t, err, types.ErrBuild)
}

func TestExtract_NotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := Extract(path, t.TempDir())
	assert.ErrorIs(t, err, types.ErrBuild)
}

func TestBuild_NoSrcDirIsNoop(t *testing.T) {
	tc := New(nil)
	assert.NoError(t, tc.Build(t.TempDir()))
}

func TestBuild_FailedMakeIsBuildError(t *testing.T) {
	staging := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(staging, "src"), 0o755))

	tc := New(nil)
	tc.Make = "definitely-not-a-real-make-binary"
	err := tc.Build(staging)
	assert.ErrorIs(t, err, types.ErrBuild)
}
