// Package options provides shared utilities for option validation across packages.
package options

import (
	"fmt"
	"strings"
)

// Source names one way of supplying input and whether it was set.
type Source struct {
	Name string
	Set  bool
}

// ValidateSingleInputSource ensures exactly one of sources is set. Errors
// are prefixed with pkg and name the available or conflicting sources.
func ValidateSingleInputSource(pkg string, sources ...Source) error {
	var all, set []string
	for _, s := range sources {
		all = append(all, s.Name)
		if s.Set {
			set = append(set, s.Name)
		}
	}

	switch len(set) {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("%s: must specify an input source (use %s)", pkg, joinOr(all))
	default:
		return fmt.Errorf("%s: must specify exactly one input source, got %s", pkg, strings.Join(set, " and "))
	}
}

// joinOr renders names as "a, b, or c".
func joinOr(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " or " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + ", or " + names[len(names)-1]
}
