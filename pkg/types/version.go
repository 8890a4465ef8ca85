package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Comparison is the result of comparing two version strings.
type Comparison int

const (
	Less    Comparison = -1
	Equal   Comparison = 0
	Greater Comparison = 1
)

// CompareVersions compares two dot-separated numeric version strings.
// Segments are compared numerically left to right; the first differing
// segment decides. If one version is a strict prefix of the other, the
// shorter one is Less ("1.2" < "1.2.0").
// Returns ErrInvalidVersion if any segment is not a non-negative integer.
func CompareVersions(a, b string) (Comparison, error) {
	as, err := parseVersion(a)
	if err != nil {
		return Equal, err
	}
	bs, err := parseVersion(b)
	if err != nil {
		return Equal, err
	}

	n := len(as)
	if len(bs) < n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		switch {
		case as[i] < bs[i]:
			return Less, nil
		case as[i] > bs[i]:
			return Greater, nil
		}
	}
	switch {
	case len(as) < len(bs):
		return Less, nil
	case len(as) > len(bs):
		return Greater, nil
	}
	return Equal, nil
}

// parseVersion splits a version string into its numeric segments.
func parseVersion(v string) ([]int, error) {
	if v == "" {
		return nil, fmt.Errorf("%w: empty version", ErrInvalidVersion)
	}
	parts := strings.Split(v, ".")
	segs := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, v)
		}
		segs[i] = n
	}
	return segs, nil
}

// ValidVersion reports whether v parses as a version string.
func ValidVersion(v string) bool {
	_, err := parseVersion(v)
	return err == nil
}
