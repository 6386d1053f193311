// errors/analysis_errors.go
package errors

import "errors"

// Precondition violations surfaced at the analysis call boundary,
// before any pass runs. Everything detected during analysis itself is
// returned as structured conflicts or warnings, not as errors.
var (
	ErrEmptyPolicySnapshot = errors.New("policy snapshot is empty")
	ErrNilSnapshot         = errors.New("entity snapshot is missing")
	ErrInvalidRequest      = errors.New("invalid access request")
)
