// Package buildtool extracts package archives and drives the native build
// step for packages that ship compiled sources. The build itself is opaque:
// configure and make run inside the staged tree, and only their success or
// failure matters to the installer.
package buildtool

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/gnu-octave/pkg-tool/pkg/types"
)

// Toolchain runs native builds in staged package trees.
type Toolchain struct {
	// Make is the make binary; defaults to "make".
	Make string
	Log  *zap.Logger
}

// New returns a Toolchain. A nil logger is replaced with a no-op one.
func New(log *zap.Logger) *Toolchain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Toolchain{Make: "make", Log: log}
}

// Extract unpacks a .tar.gz archive into destDir and returns the path of the
// single top-level directory it contained. Entries escaping destDir are
// rejected.
func Extract(archivePath, destDir string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("%w: opening archive: %v", types.ErrBuild, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("%w: reading gzip: %v", types.ErrBuild, err)
	}
	defer gz.Close()

	var topLevel string
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: reading tar: %v", types.ErrBuild, err)
		}

		name := filepath.Clean(hdr.Name)
		if name == "." || strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			return "", fmt.Errorf("%w: archive entry escapes destination: %q", types.ErrBuild, hdr.Name)
		}
		if topLevel == "" {
			topLevel = strings.SplitN(name, string(filepath.Separator), 2)[0]
		}

		target := filepath.Join(destDir, name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", fmt.Errorf("%w: creating dir: %v", types.ErrBuild, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return "", fmt.Errorf("%w: creating dir: %v", types.ErrBuild, err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode)&0o777)
			if err != nil {
				return "", fmt.Errorf("%w: creating file: %v", types.ErrBuild, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return "", fmt.Errorf("%w: writing %s: %v", types.ErrBuild, name, err)
			}
			out.Close()
		default:
			// Symlinks and the rest are not part of the package format.
			continue
		}
	}

	if topLevel == "" {
		return "", fmt.Errorf("%w: empty archive", types.ErrBuild)
	}
	return filepath.Join(destDir, topLevel), nil
}

// Build runs the native build inside a staged package tree. Packages without
// a src directory have nothing to compile and succeed immediately. With one,
// an executable src/configure runs first, then make.
func (t *Toolchain) Build(stagingDir string) error {
	srcDir := filepath.Join(stagingDir, "src")
	info, err := os.Stat(srcDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	if fi, err := os.Stat(filepath.Join(srcDir, "configure")); err == nil && fi.Mode()&0o111 != 0 {
		if err := t.run(srcDir, "./configure"); err != nil {
			return err
		}
	}
	makeBin := t.Make
	if makeBin == "" {
		makeBin = "make"
	}
	return t.run(srcDir, makeBin)
}

// run executes one build command in dir, folding failure into ErrBuild.
func (t *Toolchain) run(dir, command string, args ...string) error {
	cmd := exec.Command(command, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Log.Debug("build command failed",
			zap.String("command", command),
			zap.ByteString("output", out))
		return fmt.Errorf("%w: %s in %s: %v", types.ErrBuild, command, dir, err)
	}
	return nil
}
