package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxwave/fleetmesh/pkg/broker/brokertest"
	"github.com/nyxwave/fleetmesh/pkg/registry"
	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/nyxwave/fleetmesh/pkg/twinstore/adapters/memory"
)

func newTestHandlers() (*handlers, *echo.Echo, *brokertest.Client) {
	store := memory.New()
	fakeBroker := brokertest.New()
	reg := registry.New(registry.Config{}, fakeBroker, store, nil)
	h := newHandlers(store, reg)
	e := echo.New()
	h.register(e)
	return h, e, fakeBroker
}

func doJSON(e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateThenFetchDevice(t *testing.T) {
	_, e, _ := newTestHandlers()

	rec := doJSON(e, http.MethodPost, "/devicetwins", twin.NewDeviceRequest{DeviceID: "pig5", ModelID: "m1", Status: twin.StatusEnabled})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodGet, "/devicetwins?device_id=pig5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got twin.Twin
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "pig5", got.Meta.DeviceID)
	assert.Equal(t, twin.ConnectionStateDisconnected, got.Meta.ConnectionState)
	assert.Equal(t, twin.StatusReasonProvisioned, got.Meta.StatusReason)
	assert.Equal(t, uint64(0), got.Desired.Version)
}

func TestGetUnknownDeviceIsNotFound(t *testing.T) {
	_, e, _ := newTestHandlers()

	rec := doJSON(e, http.MethodGet, "/devicetwins?device_id=ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutTagThenStaleWriteIsConflict(t *testing.T) {
	_, e, _ := newTestHandlers()
	doJSON(e, http.MethodPost, "/devicetwins", twin.NewDeviceRequest{DeviceID: "pig5"})

	rec := doJSON(e, http.MethodPut, "/devicetwins/tag?device_id=pig5", twin.Properties{Values: map[string]any{"zone": "west"}, Version: 5})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPut, "/devicetwins/tag?device_id=pig5", twin.Properties{Values: map[string]any{"zone": "east"}, Version: 3})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(e, http.MethodGet, "/devicetwins/tag?device_id=pig5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var props twin.Properties
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &props))
	assert.Equal(t, uint64(5), props.Version)
	assert.Equal(t, "west", props.Values["zone"])
}

func TestPutDesiredFansOutToDeviceInbox(t *testing.T) {
	_, e, fakeBroker := newTestHandlers()
	doJSON(e, http.MethodPost, "/devicetwins", twin.NewDeviceRequest{DeviceID: "pig5"})

	rec := doJSON(e, http.MethodPut, "/devicetwins/desired?device_id=pig5", twin.Properties{Values: map[string]any{"fan_speed": 2}, Version: 1})
	require.Equal(t, http.StatusOK, rec.Code)

	msgs := fakeBroker.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "pig5", msgs[0].RoutingKey)

	var published twin.Properties
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &published))
	assert.Equal(t, uint64(1), published.Version)
	assert.EqualValues(t, 2, published.Values["fan_speed"])
}

func TestDeleteDevice(t *testing.T) {
	_, e, _ := newTestHandlers()
	doJSON(e, http.MethodPost, "/devicetwins", twin.NewDeviceRequest{DeviceID: "pig5"})

	rec := doJSON(e, http.MethodDelete, "/devicetwins?device_id=pig5", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodGet, "/devicetwins?device_id=pig5", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
