package grammar

import "errors"

// Grammar-specific errors
var (
	ErrInvalidRule       = errors.New("invalid rule")
	ErrDuplicateRule     = errors.New("duplicate rule key")
	ErrInvalidIterations = errors.New("iteration count out of range")
	ErrExpansionLimit    = errors.New("expansion exceeds token limit")
)
