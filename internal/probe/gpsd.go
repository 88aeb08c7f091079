package probe

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

const (
	gpsdWatch       = `?WATCH={"enable":true,"json":true}`
	gpsdFixDeadline = 10 * time.Second

	// Minimum TPV mode carrying a position (2D fix).
	gpsdMode2D = 2
)

// gpsdProvider reads position reports from a local gpsd daemon over its
// JSON protocol.
type gpsdProvider struct {
	addr string
}

func NewGpsdProvider(addr string) LocationProvider {
	return &gpsdProvider{addr: addr}
}

func (*gpsdProvider) Name() string {
	return "gpsd"
}

// tpvReport is the subset of a gpsd TPV report the provider cares about.
// Lat and Lon are pointers: gpsd omits them entirely while there is no fix.
type tpvReport struct {
	Class string   `json:"class"`
	Mode  int      `json:"mode"`
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
}

func (g *gpsdProvider) CurrentLocation(ctx context.Context) (Location, error) {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", g.addr)
	if err != nil {
		return Location{}, errFactory.Wrap(ErrGpsdConnect, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(gpsdFixDeadline)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return Location{}, errFactory.Wrap(ErrGpsdConnect, err)
	}

	if _, err := fmt.Fprintln(conn, gpsdWatch); err != nil {
		return Location{}, errFactory.Wrap(ErrGpsdProtocol, err)
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var report tpvReport
		if err := json.Unmarshal(scanner.Bytes(), &report); err != nil {
			// gpsd interleaves VERSION, DEVICES and SKY reports; skip
			// anything that does not decode as a position.
			continue
		}

		if report.Class != "TPV" {
			continue
		}

		if report.Mode < gpsdMode2D || report.Lat == nil || report.Lon == nil {
			continue
		}

		return Location{Latitude: *report.Lat, Longitude: *report.Lon}, nil
	}

	if err := scanner.Err(); err != nil {
		return Location{}, errFactory.Wrap(ErrNoFix, err)
	}

	return Location{}, errFactory.New(ErrNoFix)
}
