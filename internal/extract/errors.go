package extract

import "fmt"

// UnsupportedDialectError is returned when an Extractor is requested for a
// dialect it cannot read.
type UnsupportedDialectError struct {
	Dialect string
}

// Error implements the error interface.
func (e *UnsupportedDialectError) Error() string {
	return fmt.Sprintf("unsupported dialect: %q", e.Dialect)
}
