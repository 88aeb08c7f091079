package probe

import "codeberg.org/mutker/geotrackd/internal/errors"

const (
	// ErrUnavailable means no provider could produce a reading this cycle.
	ErrUnavailable = errors.ErrorCode("probe_unavailable")

	// Provider errors
	ErrNoFix          = errors.ErrorCode("probe_no_fix")
	ErrGpsdConnect    = errors.ErrorCode("probe_gpsd_connect_failed")
	ErrGpsdProtocol   = errors.ErrorCode("probe_gpsd_protocol_error")
	ErrProviderClosed = errors.ErrorCode("probe_provider_disabled")
)

var errFactory = errors.New()
