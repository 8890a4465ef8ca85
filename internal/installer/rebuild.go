package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gnu-octave/pkg-tool/internal/registry"
	"github.com/gnu-octave/pkg-tool/pkg/types"
)

// Rebuild reconstructs a registry from a directory scan of prefix. Every
// subdirectory with a packinfo/DESCRIPTION (or a top-level DESCRIPTION) is
// re-registered; anything else is skipped with a warning. The rebuilt
// registry is persisted to registryPath, replacing whatever was there.
// This is the recovery path for a corrupt registry file.
func Rebuild(prefix, registryPath, installerKind string, log *zap.Logger) (*registry.Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	reg := registry.New(registryPath, installerKind)

	entries, err := os.ReadDir(prefix)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing installed: rebuild to an empty registry.
			if err := reg.Persist(); err != nil {
				return nil, err
			}
			return reg, nil
		}
		return nil, fmt.Errorf("scanning prefix %s: %w", prefix, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(prefix, entry.Name())
		manifest := filepath.Join(dir, "packinfo", "DESCRIPTION")
		if _, err := os.Stat(manifest); err != nil {
			manifest = filepath.Join(dir, "DESCRIPTION")
			if _, err := os.Stat(manifest); err != nil {
				continue
			}
		}

		man, err := ParseManifest(manifest)
		if err != nil {
			log.Warn("skipping unreadable package dir",
				zap.String("dir", dir), zap.Error(err))
			continue
		}

		rec := &types.PackageRecord{
			Name:    man.Name,
			Version: man.Version,
			Dir:     dir,
			Depends: graphDepends(man.Depends),
		}
		if arch := filepath.Join(dir, ArchDirName()); dirExists(arch) {
			rec.ArchDir = arch
		}
		reg.Upsert(rec)
	}

	if err := reg.Persist(); err != nil {
		return nil, err
	}
	return reg, nil
}
