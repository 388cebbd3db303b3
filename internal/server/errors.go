package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/zeusync/arbor/internal/core/grammar"
	"github.com/zeusync/arbor/internal/core/mesh"
	"github.com/zeusync/arbor/internal/core/preset"
	"github.com/zeusync/arbor/internal/core/turtle"
)

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerNotRunning     = errors.New("server is not running")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrForestTooLarge       = errors.New("forest size exceeds limit")
	ErrUnsupportedFormat    = errors.New("unsupported mesh format")
)

// statusFor maps generation errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, preset.ErrPresetNotFound):
		return http.StatusNotFound
	case errors.Is(err, grammar.ErrExpansionLimit), errors.Is(err, ErrForestTooLarge):
		return http.StatusRequestEntityTooLarge
	// Checked before ErrInvalidPreset, which wraps these.
	case errors.Is(err, turtle.ErrUnbalancedClose),
		errors.Is(err, turtle.ErrInvalidConfig),
		errors.Is(err, grammar.ErrInvalidIterations),
		errors.Is(err, mesh.ErrInvalidMesh):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, preset.ErrInvalidPreset):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
