package api_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/mutker/geotrackd/internal/api"
	"codeberg.org/mutker/geotrackd/internal/errors"
	"codeberg.org/mutker/geotrackd/internal/model"
	"codeberg.org/mutker/geotrackd/internal/probe"
	"codeberg.org/mutker/geotrackd/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "8c5f2a9e-3d41-4f6b-9b2e-1a7c8d9e0f12"

type fakeStore struct {
	storage.Store

	samples  []model.Sample
	token    string
	tokenErr error
	queryErr error

	gotStart, gotEnd int64
}

func (s *fakeStore) Token(context.Context) (string, error) {
	return s.token, s.tokenErr
}

func (s *fakeStore) SamplesByTimeRange(_ context.Context, start, end int64) ([]model.Sample, error) {
	s.gotStart, s.gotEnd = start, end
	if s.queryErr != nil {
		return nil, s.queryErr
	}

	out := make([]model.Sample, 0)
	for _, sample := range s.samples {
		if start <= sample.Timestamp && sample.Timestamp <= end {
			out = append(out, sample)
		}
	}

	return out, nil
}

type fakeProbe struct {
	status model.DeviceStatus
}

func (p *fakeProbe) CurrentLocation(context.Context) (probe.Location, error) {
	return probe.Location{}, errors.New().New(probe.ErrUnavailable)
}

func (p *fakeProbe) Status(context.Context) model.DeviceStatus {
	return p.status
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	Timestamp int64           `json:"timestamp"`
}

func request(t *testing.T, handler http.Handler, target, token string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotZero(t, body.Timestamp)

	return rec.Code, body
}

func newTestServer(store *fakeStore, p *fakeProbe) http.Handler {
	return api.NewServer(":0", store, p).Handler()
}

func TestMissingAuthorization(t *testing.T) {
	handler := newTestServer(&fakeStore{token: testToken}, &fakeProbe{})

	code, body := request(t, handler, "/api/sensor_data", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, body.Success)
	assert.Equal(t, "missing authorization header", body.Message)
}

func TestWrongToken(t *testing.T) {
	handler := newTestServer(&fakeStore{token: testToken}, &fakeProbe{})

	code, body := request(t, handler, "/api/sensor_data", "wrong")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, body.Success)
	assert.Equal(t, "invalid api token", body.Message)
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	handler := newTestServer(&fakeStore{token: testToken}, &fakeProbe{})

	req := httptest.NewRequest(http.MethodGet, "/api/sensor_data", nil)
	req.Header.Set("Authorization", testToken)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEmptyStoredTokenNeverAuthenticates(t *testing.T) {
	handler := newTestServer(&fakeStore{token: ""}, &fakeProbe{})

	code, _ := request(t, handler, "/api/sensor_data", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = request(t, handler, "/api/sensor_data", " ")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUnknownRouteRequiresAuth(t *testing.T) {
	handler := newTestServer(&fakeStore{token: testToken}, &fakeProbe{})

	// Without credentials the route's existence is not revealed.
	code, body := request(t, handler, "/api/nope", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, body.Success)
}

func TestUnknownRouteNotFound(t *testing.T) {
	handler := newTestServer(&fakeStore{token: testToken}, &fakeProbe{})

	code, body := request(t, handler, "/api/nope", testToken)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, body.Success)
	assert.Equal(t, "endpoint not found", body.Message)
}

func TestSensorData(t *testing.T) {
	store := &fakeStore{
		token: testToken,
		samples: []model.Sample{
			{ID: 2, DeviceID: "device-1", Latitude: 59.91, Longitude: 10.75, Timestamp: 3000},
			{ID: 1, DeviceID: "device-1", Latitude: 59.92, Longitude: 10.76, Timestamp: 1000},
		},
	}
	handler := newTestServer(store, &fakeProbe{})

	code, body := request(t, handler, "/api/sensor_data", testToken)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, body.Success)
	assert.Empty(t, body.Message)

	var samples []model.Sample
	require.NoError(t, json.Unmarshal(body.Data, &samples))
	require.Len(t, samples, 2)
	assert.Equal(t, int64(3000), samples[0].Timestamp)

	// Defaults when no bounds are given: full history up to now.
	assert.Zero(t, store.gotStart)
	assert.GreaterOrEqual(t, store.gotEnd, int64(3000))
}

func TestSensorDataTimeRange(t *testing.T) {
	store := &fakeStore{token: testToken}
	handler := newTestServer(store, &fakeProbe{})

	code, _ := request(t, handler, "/api/sensor_data?start_time=1000&end_time=2000", testToken)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(1000), store.gotStart)
	assert.Equal(t, int64(2000), store.gotEnd)
}

func TestSensorDataInvalidBoundsFallBack(t *testing.T) {
	store := &fakeStore{token: testToken}
	handler := newTestServer(store, &fakeProbe{})

	code, _ := request(t, handler, "/api/sensor_data?start_time=abc&end_time=xyz", testToken)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, store.gotStart)
	assert.Greater(t, store.gotEnd, int64(0))
}

func TestSensorDataInvertedRangeIsEmpty(t *testing.T) {
	store := &fakeStore{
		token:   testToken,
		samples: []model.Sample{{ID: 1, DeviceID: "device-1", Timestamp: 1500}},
	}
	handler := newTestServer(store, &fakeProbe{})

	code, body := request(t, handler, "/api/sensor_data?start_time=2000&end_time=1000", testToken)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, body.Success)
	assert.Equal(t, "[]", string(body.Data))
}

func TestSensorDataStoreFailure(t *testing.T) {
	store := &fakeStore{
		token:    testToken,
		queryErr: errors.New().WithMessage(errors.ErrOperationFailed, "database is locked"),
	}
	handler := newTestServer(store, &fakeProbe{})

	code, body := request(t, handler, "/api/sensor_data", testToken)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, body.Success)
	assert.Contains(t, body.Message, "database is locked")
}

func TestDeviceStatus(t *testing.T) {
	p := &fakeProbe{status: model.DeviceStatus{
		BatteryLevel:     87,
		DeviceModel:      "test-device",
		OSVersion:        "test-os 1.0",
		AvailableStorage: 1 << 30,
		NetworkConnected: true,
		Timestamp:        12345,
	}}
	handler := newTestServer(&fakeStore{token: testToken}, p)

	code, body := request(t, handler, "/api/device_status", testToken)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, body.Success)

	var status model.DeviceStatus
	require.NoError(t, json.Unmarshal(body.Data, &status))
	assert.Equal(t, p.status, status)
}

func TestTokenLookupFailure(t *testing.T) {
	store := &fakeStore{
		tokenErr: errors.New().WithMessage(errors.ErrOperationFailed, "database is locked"),
	}
	handler := newTestServer(store, &fakeProbe{})

	code, body := request(t, handler, "/api/sensor_data", testToken)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, body.Success)
}

func TestStartPortInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	server := api.NewServer(listener.Addr().String(), &fakeStore{token: testToken}, &fakeProbe{})

	err = server.Start()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, api.ErrPortInUse))
	assert.False(t, server.Running())
}

func TestStartStop(t *testing.T) {
	server := api.NewServer("127.0.0.1:0", &fakeStore{token: testToken}, &fakeProbe{})

	require.NoError(t, server.Start())
	assert.True(t, server.Running())

	// Starting again is a no-op.
	require.NoError(t, server.Start())

	require.NoError(t, server.Stop(context.Background()))
	assert.False(t, server.Running())

	// Stopping again is a no-op.
	require.NoError(t, server.Stop(context.Background()))
}
