package trace

import (
	"fmt"
	"strings"
)

// names maps the small enums of this package to their flag spellings.
// Index 0 is the zero value's name.
type names []string

func (n names) str(v uint8) string {
	if int(v) < len(n) && n[v] != "" {
		return n[v]
	}
	return "unknown"
}

// parse matches s case-insensitively. aliases adds extra spellings.
func (n names) parse(what, s string, aliases map[string]uint8) (uint8, error) {
	s = strings.ToLower(s)
	for i, name := range n {
		if name != "" && name == s {
			return uint8(i), nil //nolint:gosec // len(n) is tiny
		}
	}
	if v, ok := aliases[s]; ok {
		return v, nil
	}
	var valid []string
	for _, name := range n {
		if name != "" {
			valid = append(valid, name)
		}
	}
	return 0, fmt.Errorf("invalid trace %s: %q (expected: %s)", what, s, strings.Join(valid, "|"))
}
