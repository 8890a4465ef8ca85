// Package registry implements the on-disk package registries. Two instances
// exist per installation: the local registry owned by the current user and
// the global registry owned by the system. Each is a JSONL file with one
// package record per line.
package registry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gnu-octave/pkg-tool/pkg/types"
)

// Registry is the in-memory form of one registry file. It is the source of
// truth for the duration of one command; Persist writes it back.
type Registry struct {
	// Path is where the registry is persisted. May be empty for
	// throwaway registries in tests.
	Path string

	// Installer is stamped onto records inserted into this registry,
	// types.InstallerUser or types.InstallerSystem.
	Installer string

	records map[string]*types.PackageRecord
}

// New returns an empty registry persisted at path.
func New(path, installer string) *Registry {
	return &Registry{
		Path:      path,
		Installer: installer,
		records:   make(map[string]*types.PackageRecord),
	}
}

// Load reads a registry file. An absent file yields an empty registry; an
// unparseable line or invalid record yields ErrCorruptRegistry. There is no
// skip-and-continue for bad lines: a registry that cannot be read in full is
// fatal for the whole command.
func Load(path, installer string) (*Registry, error) {
	r := New(path, installer)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec types.PackageRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", types.ErrCorruptRegistry, path, lineNo, err)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", types.ErrCorruptRegistry, path, lineNo, err)
		}
		if _, dup := r.records[rec.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate record for %q", types.ErrCorruptRegistry, path, rec.Name)
		}
		rec.Installer = installer
		r.records[rec.Name] = &rec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return r, nil
}

// Persist writes the full registry atomically using the temp-file, fsync,
// rename pattern. No partial-write state is ever observable at Path.
func (r *Registry) Persist() error {
	dir := filepath.Dir(r.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating registry dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".registry-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, name := range r.Names() {
		line, err := json.Marshal(r.records[name])
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("encoding record %s: %w", name, err)
		}
		if _, err := w.Write(line); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Find returns the record for name. Name comparison is exact and
// case-sensitive.
func (r *Registry) Find(name string) (*types.PackageRecord, bool) {
	rec, ok := r.records[name]
	return rec, ok
}

// Upsert inserts or replaces the record for rec.Name. Replacement is
// wholesale; old and new metadata are never merged.
func (r *Registry) Upsert(rec *types.PackageRecord) {
	rec.Installer = r.Installer
	r.records[rec.Name] = rec
}

// Remove deletes the record for name and reports whether it was present.
func (r *Registry) Remove(name string) bool {
	_, ok := r.records[name]
	delete(r.records, name)
	return ok
}

// Names returns all package names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of records.
func (r *Registry) Len() int { return len(r.records) }

// Effective merges the two registries into the effective installed set:
// local entries shadow global entries of the same name.
func Effective(local, global *Registry) map[string]*types.PackageRecord {
	eff := make(map[string]*types.PackageRecord, local.Len()+global.Len())
	for name, rec := range global.records {
		eff[name] = rec
	}
	for name, rec := range local.records {
		eff[name] = rec
	}
	return eff
}
