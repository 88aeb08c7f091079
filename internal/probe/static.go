package probe

import "context"

// staticProvider reports a fixed position configured by the operator. It is
// the coarse secondary source for installs without a GPS receiver.
type staticProvider struct {
	enabled  bool
	location Location
}

func NewStaticProvider(enabled bool, lat, lon float64) LocationProvider {
	return &staticProvider{
		enabled:  enabled,
		location: Location{Latitude: lat, Longitude: lon},
	}
}

func (*staticProvider) Name() string {
	return "static"
}

func (p *staticProvider) CurrentLocation(_ context.Context) (Location, error) {
	if !p.enabled {
		return Location{}, errFactory.New(ErrProviderClosed)
	}

	return p.location, nil
}
