package types

import "fmt"

// Installer identifies which registry owns a package record.
const (
	InstallerUser   = "user"
	InstallerSystem = "system"
)

// Dependency is one declared requirement of a package: another package's
// name, a comparison operator, and a version. Operator may be empty, which
// means any installed version satisfies the dependency.
type Dependency struct {
	Name     string `json:"name"`
	Operator string `json:"operator,omitempty"`
	Version  string `json:"version,omitempty"`
}

// validOperators is the set of recognized constraint operators.
var validOperators = map[string]bool{
	"": true, "==": true, "!=": true,
	"<": true, "<=": true, ">": true, ">=": true,
}

// SatisfiedBy reports whether an installed version v satisfies the
// constraint. Returns ErrInvalidVersion for unparseable versions and an
// error for unknown operators.
func (d Dependency) SatisfiedBy(v string) (bool, error) {
	if !validOperators[d.Operator] {
		return false, fmt.Errorf("unknown constraint operator %q", d.Operator)
	}
	if d.Operator == "" {
		return true, nil
	}
	c, err := CompareVersions(v, d.Version)
	if err != nil {
		return false, err
	}
	switch d.Operator {
	case "==":
		return c == Equal, nil
	case "!=":
		return c != Equal, nil
	case "<":
		return c == Less, nil
	case "<=":
		return c != Greater, nil
	case ">":
		return c == Greater, nil
	default: // ">="
		return c != Less, nil
	}
}

func (d Dependency) String() string {
	if d.Operator == "" {
		return d.Name
	}
	return fmt.Sprintf("%s (%s %s)", d.Name, d.Operator, d.Version)
}

// PackageRecord is the metadata for one installed package. Name is unique
// within a registry and case-sensitive. Loaded is session state derived from
// the load path; it is never persisted with the record.
type PackageRecord struct {
	Name      string       `json:"name"`
	Version   string       `json:"version"`
	Dir       string       `json:"dir"`
	ArchDir   string       `json:"archdir,omitempty"`
	Depends   []Dependency `json:"depends,omitempty"`
	Installer string       `json:"installer"`

	Loaded bool `json:"-"`
}

// Validate checks the fields a registry requires before accepting a record.
func (p *PackageRecord) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("package record has empty name")
	}
	if !ValidVersion(p.Version) {
		return fmt.Errorf("package %s: %w: %q", p.Name, ErrInvalidVersion, p.Version)
	}
	for _, d := range p.Depends {
		if d.Name == "" {
			return fmt.Errorf("package %s: dependency with empty name", p.Name)
		}
		if !validOperators[d.Operator] {
			return fmt.Errorf("package %s: unknown constraint operator %q", p.Name, d.Operator)
		}
	}
	return nil
}

// Clone returns a deep copy of the record.
func (p *PackageRecord) Clone() *PackageRecord {
	cp := *p
	cp.Depends = append([]Dependency(nil), p.Depends...)
	return &cp
}
