package paths

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigDir_FlagWins(t *testing.T) {
	t.Setenv(EnvConfigDir, "/env/cfg")
	got, err := ResolveConfigDir("/flag/cfg")
	require.NoError(t, err)
	assert.Equal(t, "/flag/cfg", got)
}

func TestResolveConfigDir_EnvBeatsDefault(t *testing.T) {
	t.Setenv(EnvConfigDir, "/env/cfg")
	got, err := ResolveConfigDir("")
	require.NoError(t, err)
	assert.Equal(t, "/env/cfg", got)
}

func TestResolveConfigDir_LinuxXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG behavior is Linux-only")
	}
	t.Setenv(EnvConfigDir, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	got, err := ResolveConfigDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "octave-pkg"), got)
}

func TestResolveLocalPrefix_Precedence(t *testing.T) {
	t.Setenv(EnvLocalPrefix, "/env/prefix")

	got, err := ResolveLocalPrefix("/cfg/prefix")
	require.NoError(t, err)
	assert.Equal(t, "/cfg/prefix", got, "config value beats env")

	got, err = ResolveLocalPrefix("")
	require.NoError(t, err)
	assert.Equal(t, "/env/prefix", got, "env beats platform default")
}

func TestResolveGlobalPrefix_Default(t *testing.T) {
	t.Setenv(EnvGlobalPrefix, "")
	got, err := ResolveGlobalPrefix("")
	require.NoError(t, err)
	assert.Equal(t, DefaultGlobalPrefix, got)
}

func TestRegistryPath(t *testing.T) {
	assert.Equal(t, "/prefix/octave_packages", RegistryPath("/prefix"))
}

func TestLoadPathFile(t *testing.T) {
	assert.Equal(t, "/cfg/octave_load_path", LoadPathFile("/cfg"))
}
