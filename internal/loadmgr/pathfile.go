package loadmgr

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// PathFile is a file-backed Activator: the session load path is a plain text
// file with one active directory per line, rewritten atomically on every
// mutation. The interpreter side sources this file to build its search path.
type PathFile struct {
	path string
}

// NewPathFile returns a PathFile persisted at path. The file is created on
// first mutation; an absent file means an empty load path.
func NewPathFile(path string) *PathFile {
	return &PathFile{path: path}
}

// Dirs returns the active directories in file order.
func (p *PathFile) Dirs() ([]string, error) {
	f, err := os.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening load path file: %w", err)
	}
	defer f.Close()

	var dirs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			dirs = append(dirs, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning load path file: %w", err)
	}
	return dirs, nil
}

// ActiveDirs returns the active directories as a set.
func (p *PathFile) ActiveDirs() (map[string]bool, error) {
	dirs, err := p.Dirs()
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		set[d] = true
	}
	return set, nil
}

// Activate appends dir (and archDir when non-empty) to the load path.
// Idempotent: directories already present are not duplicated.
func (p *PathFile) Activate(dir, archDir string) error {
	dirs, err := p.Dirs()
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		have[d] = true
	}
	for _, d := range []string{dir, archDir} {
		if d != "" && !have[d] {
			dirs = append(dirs, d)
			have[d] = true
		}
	}
	return p.write(dirs)
}

// Deactivate removes dir and archDir from the load path. Absent entries are
// ignored.
func (p *PathFile) Deactivate(dir, archDir string) error {
	dirs, err := p.Dirs()
	if err != nil {
		return err
	}
	kept := dirs[:0]
	for _, d := range dirs {
		if d != dir && (archDir == "" || d != archDir) {
			kept = append(kept, d)
		}
	}
	return p.write(kept)
}

// write rewrites the load path file atomically, temp file then rename.
func (p *PathFile) write(dirs []string) error {
	parent := filepath.Dir(p.path)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("creating load path dir: %w", err)
	}
	tmp, err := os.CreateTemp(parent, ".loadpath-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, d := range dirs {
		if _, err := fmt.Fprintln(w, d); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing load path: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing load path: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
