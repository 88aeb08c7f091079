package probe

import (
	"context"

	"codeberg.org/mutker/geotrackd/internal/model"
)

// Location is a single position reading in signed degrees.
type Location struct {
	Latitude  float64
	Longitude float64
}

// LocationProvider is one source of position readings. A provider that has
// no usable reading returns a probe error; that is a normal input for the
// caller, not a defect.
type LocationProvider interface {
	Name() string
	CurrentLocation(ctx context.Context) (Location, error)
}

// DeviceProbe exposes the platform readings the agent core needs.
type DeviceProbe interface {
	CurrentLocation(ctx context.Context) (Location, error)
	Status(ctx context.Context) model.DeviceStatus
}

type Config struct {
	// Gpsd is the address of the local gpsd daemon, the high-accuracy
	// primary source.
	Gpsd string
	// Fallback enables the coarse fixed-position secondary source.
	Fallback    bool
	FallbackLat float64
	FallbackLon float64
	// Connectivity is the address dialed to test internet reachability.
	Connectivity string
	// DataDir is the filesystem whose free space is reported.
	DataDir string
}
