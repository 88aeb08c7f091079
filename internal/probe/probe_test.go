package probe_test

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"testing"

	"codeberg.org/mutker/geotrackd/internal/errors"
	"codeberg.org/mutker/geotrackd/internal/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGpsd serves canned gpsd JSON lines to one connection.
func fakeGpsd(t *testing.T, lines ...string) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		// Consume the WATCH command before reporting.
		reader := bufio.NewReader(conn)
		if _, err := reader.ReadString('\n'); err != nil {
			return
		}

		for _, line := range lines {
			fmt.Fprintln(conn, line)
		}
	}()

	return listener.Addr().String()
}

func TestGpsdProviderFix(t *testing.T) {
	addr := fakeGpsd(t,
		`{"class":"VERSION","release":"3.25"}`,
		`{"class":"DEVICES","devices":[]}`,
		`{"class":"TPV","mode":3,"lat":59.913,"lon":10.752}`,
	)

	provider := probe.NewGpsdProvider(addr)

	location, err := provider.CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 59.913, location.Latitude, 1e-9)
	assert.InDelta(t, 10.752, location.Longitude, 1e-9)
}

func TestGpsdProviderSkipsReportsWithoutFix(t *testing.T) {
	addr := fakeGpsd(t,
		`{"class":"TPV","mode":1}`,
		`{"class":"TPV","mode":2}`,
		`{"class":"SKY","satellites":[]}`,
		`{"class":"TPV","mode":2,"lat":59.9,"lon":10.7}`,
	)

	provider := probe.NewGpsdProvider(addr)

	location, err := provider.CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 59.9, location.Latitude, 1e-9)
	assert.InDelta(t, 10.7, location.Longitude, 1e-9)
}

func TestGpsdProviderNoFix(t *testing.T) {
	addr := fakeGpsd(t,
		`{"class":"VERSION","release":"3.25"}`,
		`{"class":"TPV","mode":1}`,
	)

	provider := probe.NewGpsdProvider(addr)

	_, err := provider.CurrentLocation(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, probe.ErrNoFix))
}

func TestGpsdProviderConnectFailure(t *testing.T) {
	// A listener that is closed immediately leaves a refusing port.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	provider := probe.NewGpsdProvider(addr)

	_, err = provider.CurrentLocation(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, probe.ErrGpsdConnect))
}

func TestStaticProvider(t *testing.T) {
	provider := probe.NewStaticProvider(true, 59.91, 10.75)

	location, err := provider.CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 59.91, location.Latitude, 1e-9)
	assert.InDelta(t, 10.75, location.Longitude, 1e-9)
}

func TestStaticProviderDisabled(t *testing.T) {
	provider := probe.NewStaticProvider(false, 59.91, 10.75)

	_, err := provider.CurrentLocation(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, probe.ErrProviderClosed))
}

type stubProvider struct {
	name     string
	location probe.Location
	err      error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) CurrentLocation(context.Context) (probe.Location, error) {
	return p.location, p.err
}

func TestPrimaryWins(t *testing.T) {
	primary := &stubProvider{name: "primary", location: probe.Location{Latitude: 1, Longitude: 2}}
	secondary := &stubProvider{name: "secondary", location: probe.Location{Latitude: 3, Longitude: 4}}

	p := probe.NewWithProviders(primary, secondary, probe.Config{DataDir: t.TempDir()})

	location, err := p.CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, location.Latitude, 1e-9)
}

func TestFallbackOnPrimaryFailure(t *testing.T) {
	errs := errors.New()
	primary := &stubProvider{name: "primary", err: errs.New(probe.ErrNoFix)}
	secondary := &stubProvider{name: "secondary", location: probe.Location{Latitude: 3, Longitude: 4}}

	p := probe.NewWithProviders(primary, secondary, probe.Config{DataDir: t.TempDir()})

	location, err := p.CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 3.0, location.Latitude, 1e-9)
}

func TestBothProvidersFail(t *testing.T) {
	errs := errors.New()
	primary := &stubProvider{name: "primary", err: errs.New(probe.ErrNoFix)}
	secondary := &stubProvider{name: "secondary", err: errs.New(probe.ErrProviderClosed)}

	p := probe.NewWithProviders(primary, secondary, probe.Config{DataDir: t.TempDir()})

	_, err := p.CurrentLocation(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, probe.ErrUnavailable))
}

func TestStatusSnapshot(t *testing.T) {
	p := probe.NewWithProviders(
		&stubProvider{name: "primary"},
		&stubProvider{name: "secondary"},
		probe.Config{DataDir: t.TempDir(), Connectivity: "127.0.0.1:1"},
	)

	status := p.Status(context.Background())

	// Available storage comes from the data directory's filesystem.
	assert.Positive(t, status.AvailableStorage)
	assert.NotZero(t, status.Timestamp)
}
