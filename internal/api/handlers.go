package api

import (
	"net/http"
	"strconv"
	"time"
)

// handleSensorData serves samples in a time range, newest first. Both
// bounds are optional epoch-millisecond values; invalid values fall back
// to the defaults (0 and now).
func (s *Server) handleSensorData(r *http.Request) (any, error) {
	query := r.URL.Query()

	start := int64(0)
	if v, err := strconv.ParseInt(query.Get("start_time"), 10, 64); err == nil {
		start = v
	}

	end := time.Now().UnixMilli()
	if v, err := strconv.ParseInt(query.Get("end_time"), 10, 64); err == nil {
		end = v
	}

	return s.store.SamplesByTimeRange(r.Context(), start, end)
}

func (s *Server) handleDeviceStatus(r *http.Request) (any, error) {
	return s.probe.Status(r.Context()), nil
}
