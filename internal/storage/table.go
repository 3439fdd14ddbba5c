package storage

import (
	"fmt"
	"regexp"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidateTableName rejects table names that cannot be safely interpolated
// into a query. An optional schema qualifier is allowed.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("%w: table name %q", ErrInvalidInput, name)
	}
	return nil
}
