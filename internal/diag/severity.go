package diag

import (
	"fmt"
	"strings"
)

// Severity orders diagnostics. Only SevError fails a run.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// ParseSeverity accepts the names String produces in any case.
func ParseSeverity(name string) (Severity, error) {
	for s := SevInfo; s <= SevError; s++ {
		if strings.EqualFold(name, severityNames[s]) {
			return s, nil
		}
	}
	return SevInfo, fmt.Errorf("unknown severity %q (must be info, warning or error)", name)
}
