package api

import "codeberg.org/mutker/geotrackd/internal/errors"

const (
	// Server errors. Request-level failures (auth, unknown route) are
	// expressed as response envelopes, not error codes.
	ErrPortInUse    = errors.ErrorCode("api_port_in_use")
	ErrServerClosed = errors.ErrorCode("api_server_close_failed")
)

var errFactory = errors.New()
