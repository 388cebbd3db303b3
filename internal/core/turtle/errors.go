package turtle

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid interpreter config")
	ErrUnbalancedClose = errors.New("close without matching open")
	ErrNilSource       = errors.New("random source is required")
)
