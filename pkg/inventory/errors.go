package inventory

import (
	"errors"
	"fmt"
)

// UnknownGroupError reports a host whose groups list names a group
// absent from the groups table.
type UnknownGroupError struct {
	// Host is the inventory key of the offending host.
	Host string

	// Group is the name that has no declaration.
	Group string
}

// Error implements the error interface.
func (e *UnknownGroupError) Error() string {
	return fmt.Sprintf("host %q references unknown group %q", e.Host, e.Group)
}

// IsUnknownGroup returns true if err reports a missing group
// declaration.
func IsUnknownGroup(err error) bool {
	var e *UnknownGroupError
	return errors.As(err, &e)
}
