package analytics

import "fmt"

// ValidationError reports a filter parameter that references an unknown
// category or an invalid range. It is local to the request that supplied
// the parameter.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid filter %s=%q: %s", e.Field, e.Value, e.Reason)
}

// InsufficientDataError reports an aggregate requested over too few valid
// rows. Callers treat it as an empty/placeholder state, not a failure.
type InsufficientDataError struct {
	Op   string
	Rows int
	Min  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %d valid rows, need at least %d", e.Op, e.Rows, e.Min)
}
