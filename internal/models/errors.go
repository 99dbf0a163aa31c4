package models

import "fmt"

// MissingReferenceError reports a write whose teacher, department or focus
// area reference did not resolve to an existing row.
type MissingReferenceError struct {
	Kind string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s does not exist", e.Kind)
}
