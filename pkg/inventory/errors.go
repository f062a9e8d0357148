package inventory

import (
	"fmt"
	"sort"
	"strings"
)

// UnsupportedFormatError is returned when an inventory file has a format
// (or extension) the parser does not recognize.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported inventory format: %s", e.Format)
}

// InvalidHostError is returned when a normalized record has neither a
// hostname nor an IP address.
type InvalidHostError struct {
	Record map[string]string
}

func (e *InvalidHostError) Error() string {
	keys := make([]string, 0, len(e.Record))
	for k := range e.Record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("host record must have either hostname or ip address (keys: %s)", strings.Join(keys, ", "))
}
