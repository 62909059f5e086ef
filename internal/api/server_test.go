package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_simulator/internal/action"
	"energy_simulator/internal/model"
	"energy_simulator/internal/simulator"
	"energy_simulator/internal/store"
	"energy_simulator/internal/ws"
)

type testEnv struct {
	store  *store.Store
	engine *simulator.Engine
	server *httptest.Server
	ids    map[model.Class]uuid.UUID
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	s := store.New()
	ids := map[model.Class]uuid.UUID{}
	for _, c := range model.Classes {
		ids[c] = uuid.New()
		require.NoError(t, s.Add(model.Catalog[c].New(ids[c], model.DisplayName(c))))
	}

	clk := clock.NewMock()
	clk.Set(time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC))

	engine := simulator.New(s, simulator.Callbacks{}, clk, simulator.Config{Location: time.UTC, Seed: 1})
	srv := New(s, engine, action.NewExecutor(s, nil), Options{
		Latitude:       48,
		Longitude:      10,
		Location:       time.FixedZone("cest", 2*3600),
		DiscoveryCount: 3,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "# metrics")
		}),
	})

	server := httptest.NewServer(srv.Handler())
	t.Cleanup(server.Close)

	return testEnv{store: s, engine: engine, server: server, ids: ids}
}

func (e testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var res T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsMounted(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDevices(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/devices", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]ws.DevicePayload](t, resp), len(model.Classes))

	resp = env.do(t, http.MethodGet, "/api/devices?class=car", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cars := decode[[]ws.DevicePayload](t, resp)
	require.Len(t, cars, 1)
	assert.Equal(t, env.ids[model.ClassCar], cars[0].ID)

	resp = env.do(t, http.MethodGet, "/api/devices?class=toaster", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDevice(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/devices/"+env.ids[model.ClassStove].String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d := decode[ws.DevicePayload](t, resp)
	assert.Equal(t, model.ClassStove, d.Class)
	assert.Equal(t, false, d.States["power"])

	resp = env.do(t, http.MethodGet, "/api/devices/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/devices/nope", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeviceAction(t *testing.T) {
	env := newTestEnv(t)
	stove := env.ids[model.ClassStove].String()

	resp := env.do(t, http.MethodPost, "/api/devices/"+stove+"/actions", `{"type":"power","value":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode[ws.DevicePayload](t, resp).States["power"])

	d, _ := env.store.Find(env.ids[model.ClassStove])
	assert.True(t, d.(model.Stove).Powered)
}

func TestDeviceAction_Errors(t *testing.T) {
	env := newTestEnv(t)
	car := env.ids[model.ClassCar].String()
	wallbox := env.ids[model.ClassWallbox].String()

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown device", "/api/devices/" + uuid.NewString() + "/actions", `{"type":"power","value":true}`, http.StatusNotFound},
		{"unsupported", "/api/devices/" + car + "/actions", `{"type":"power","value":true}`, http.StatusBadRequest},
		{"invalid value", "/api/devices/" + wallbox + "/actions", `{"type":"maxChargingCurrent","value":40}`, http.StatusBadRequest},
		{"malformed body", "/api/devices/" + wallbox + "/actions", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, decode[errorResponse](t, resp).Error)
		})
	}
}

func TestDeviceAction_NoFreeWallbox(t *testing.T) {
	env := newTestEnv(t)

	second := uuid.New()
	require.NoError(t, env.store.Add(model.Catalog[model.ClassCar].New(second, "Second car")))

	resp := env.do(t, http.MethodPost, "/api/devices/"+env.ids[model.ClassCar].String()+"/actions", `{"type":"pluggedIn","value":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/devices/"+second.String()+"/actions", `{"type":"pluggedIn","value":true}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Error, "no free wallbox found")
}

func TestAddRemoveDevice(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/devices", `{"class":"stove","name":"Oven"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decode[ws.DevicePayload](t, resp)
	assert.Equal(t, "Oven", d.Name)
	assert.Equal(t, len(model.Classes)+1, env.store.Count())

	resp = env.do(t, http.MethodDelete, "/api/devices/"+d.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, len(model.Classes), env.store.Count())

	resp = env.do(t, http.MethodDelete, "/api/devices/"+d.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/devices", `{"class":"toaster"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDiscovery(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/discovery/wallbox", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]action.Descriptor](t, resp), 3)

	resp = env.do(t, http.MethodGet, "/api/discovery/toaster", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSun(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/sun?date=2024-06-21", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sun := decode[SunPayload](t, resp)
	assert.Equal(t, "2024-06-21", sun.Date)
	assert.Empty(t, sun.Polar)

	rise, err := time.Parse(time.RFC3339, sun.Sunrise)
	require.NoError(t, err)
	set, err := time.Parse(time.RFC3339, sun.Sunset)
	require.NoError(t, err)
	assert.Equal(t, 5, rise.Hour())
	assert.Equal(t, 21, set.Hour())

	resp = env.do(t, http.MethodGet, "/api/sun?date=21.06.2024", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSimCommands(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/sim/step", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, uint64(1), decode[ws.SimStatePayload](t, resp).Ticks)

	resp = env.do(t, http.MethodPost, "/api/sim/start", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[ws.SimStatePayload](t, resp).Running)

	resp = env.do(t, http.MethodPost, "/api/sim/pause", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[ws.SimStatePayload](t, resp).Running)

	resp = env.do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5.0, decode[ws.SimStatePayload](t, resp).IntervalSec)

	resp = env.do(t, http.MethodPost, "/api/sim/rewind", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, errorStatus(fmt.Errorf("x: %w", action.ErrDeviceNotFound)))
	assert.Equal(t, http.StatusConflict, errorStatus(action.ErrHardwareNotAvailable))
	assert.Equal(t, http.StatusBadRequest, errorStatus(action.ErrInvalidValue))
	assert.Equal(t, http.StatusInternalServerError, errorStatus(assert.AnError))
}
