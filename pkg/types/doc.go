// Package types defines the package record, version comparison, dependency
// constraints, and standard errors shared by the octave-pkg components.
package types
