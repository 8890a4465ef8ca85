// Shared wiring for octave-pkg commands: config, registries, collaborators.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gnu-octave/pkg-tool/internal/buildtool"
	"github.com/gnu-octave/pkg-tool/internal/forge"
	"github.com/gnu-octave/pkg-tool/internal/installer"
	"github.com/gnu-octave/pkg-tool/internal/loadmgr"
	"github.com/gnu-octave/pkg-tool/internal/paths"
	"github.com/gnu-octave/pkg-tool/internal/registry"
	"github.com/gnu-octave/pkg-tool/pkg/types"
)

// app holds everything one command invocation needs: configuration, the two
// registries, and the collaborator clients. The engine is single-threaded;
// one app serves exactly one command and is closed when it finishes.
type app struct {
	cfg       *viper.Viper
	configDir string
	log       *zap.Logger

	local        *registry.Registry
	global       *registry.Registry
	localPrefix  string
	globalPrefix string

	pathFile *loadmgr.PathFile
	cache    *forge.Cache
	forge    *forge.Client
}

// newApp resolves directories, loads config, and reads both registries.
// A corrupt registry aborts here, before any command logic runs.
func newApp() (*app, error) {
	configDir, err := paths.ResolveConfigDir(flagConfigDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}
	log, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	localPrefix, err := paths.ResolveLocalPrefix(cfg.GetString(cfgKeyLocalPrefix))
	if err != nil {
		return nil, fmt.Errorf("resolve local prefix: %w", err)
	}
	globalPrefix, err := paths.ResolveGlobalPrefix(cfg.GetString(cfgKeyGlobalPrefix))
	if err != nil {
		return nil, fmt.Errorf("resolve global prefix: %w", err)
	}

	local, err := registry.Load(paths.RegistryPath(localPrefix), types.InstallerUser)
	if err != nil {
		return nil, err
	}
	global, err := registry.Load(paths.RegistryPath(globalPrefix), types.InstallerSystem)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:          cfg,
		configDir:    configDir,
		log:          log,
		local:        local,
		global:       global,
		localPrefix:  localPrefix,
		globalPrefix: globalPrefix,
		pathFile:     loadmgr.NewPathFile(paths.LoadPathFile(configDir)),
	}, nil
}

// close releases resources opened lazily during the command.
func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
	a.log.Sync()
}

// forgeClient builds the forge client with its lookup cache, once per
// command. Cache open failures degrade to an uncached client.
func (a *app) forgeClient() *forge.Client {
	if a.forge != nil {
		return a.forge
	}
	cache, err := forge.OpenCache(filepath.Join(a.configDir, "forge_cache.db"), 0)
	if err != nil {
		a.log.Warn("forge cache unavailable", zap.Error(err))
		cache = nil
	}
	a.cache = cache
	a.forge = forge.NewClient(a.cfg.GetString(cfgKeyForgeURL), cache, a.log)
	return a.forge
}

// orchestrator wires the installer to the forge fetcher and build toolchain.
func (a *app) orchestrator(forgeOnly bool) *installer.Orchestrator {
	fetcher := &sourceFetcher{client: a.forgeClient(), forgeOnly: forgeOnly}
	return installer.New(a.local, a.global, a.localPrefix, a.globalPrefix,
		fetcher, buildtool.New(a.log), a.log)
}

// sourceFetcher adapts the forge client to the installer's Fetcher. With
// forgeOnly, every source is treated as a forge package name even when a
// local file of that name exists.
type sourceFetcher struct {
	client    *forge.Client
	forgeOnly bool
}

func (f *sourceFetcher) Fetch(source, destDir string) (string, error) {
	if f.forgeOnly {
		return f.client.FetchPackage(source, destDir)
	}
	return f.client.Fetch(source, destDir)
}

// effective returns the merged installed set, local shadowing global.
func (a *app) effective() map[string]*types.PackageRecord {
	return registry.Effective(a.local, a.global)
}

// loadedSet derives the session loaded set from the load-path file and
// marks the Loaded flag on the effective records.
func (a *app) loadedSet(effective map[string]*types.PackageRecord) (map[string]bool, error) {
	active, err := a.pathFile.ActiveDirs()
	if err != nil {
		return nil, fmt.Errorf("reading load path: %w", err)
	}
	return loadmgr.LoadedSet(effective, active), nil
}

// reportFailures prints per-package failures and returns an aggregate error
// when any occurred.
func reportFailures(result *installer.Result) error {
	for _, f := range result.Failures {
		fmt.Printf("  %s: %v\n", f.Source, f.Err)
	}
	if result.Failed() {
		return fmt.Errorf("%d package(s) failed", len(result.Failures))
	}
	return nil
}
