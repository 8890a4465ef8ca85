package installer

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/gnu-octave/pkg-tool/pkg/types"
)

// Manifest is the parsed DESCRIPTION file of a staged package.
type Manifest struct {
	Name        string
	Version     string
	Description string
	Depends     []types.Dependency
}

// depPattern matches one Depends entry: a name optionally followed by a
// parenthesized constraint, e.g. "io (>= 2.4.0)" or "struct".
var depPattern = regexp.MustCompile(`^([A-Za-z][\w.+-]*)\s*(?:\(\s*(==|!=|<=|>=|<|>)\s*([\d.]+)\s*\))?$`)

// ParseManifest reads a DESCRIPTION file: "Key: value" lines, with
// continuation lines starting with whitespace appended to the previous
// value. Name and Version are required; Version must parse.
func ParseManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	fields := make(map[string]string)
	var lastKey string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if lastKey != "" {
				fields[lastKey] += " " + strings.TrimSpace(line)
			}
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("malformed manifest line %q in %s", line, path)
		}
		lastKey = strings.ToLower(strings.TrimSpace(key))
		fields[lastKey] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	m := &Manifest{
		Name:        fields["name"],
		Version:     fields["version"],
		Description: fields["description"],
	}
	if m.Name == "" {
		return nil, fmt.Errorf("manifest %s: missing Name", path)
	}
	if !types.ValidVersion(m.Version) {
		return nil, fmt.Errorf("manifest %s: %w: %q", path, types.ErrInvalidVersion, m.Version)
	}

	if deps := fields["depends"]; deps != "" {
		m.Depends, err = parseDepends(deps)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
	}
	return m, nil
}

// parseDepends splits a Depends value into dependency constraints.
func parseDepends(s string) ([]types.Dependency, error) {
	var deps []types.Dependency
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		match := depPattern.FindStringSubmatch(part)
		if match == nil {
			return nil, fmt.Errorf("malformed dependency %q", part)
		}
		dep := types.Dependency{Name: match[1], Operator: match[2], Version: match[3]}
		if dep.Operator != "" && !types.ValidVersion(dep.Version) {
			return nil, fmt.Errorf("dependency %q: %w", part, types.ErrInvalidVersion)
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// graphDepends returns the dependencies that participate in the package
// graph. The reserved name "octave" constrains the interpreter itself, not
// another package, and is excluded.
func graphDepends(deps []types.Dependency) []types.Dependency {
	var out []types.Dependency
	for _, d := range deps {
		if d.Name == "octave" {
			continue
		}
		out = append(out, d)
	}
	return out
}
