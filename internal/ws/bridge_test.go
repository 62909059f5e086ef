package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_simulator/internal/model"
	"energy_simulator/internal/simulator"
)

var startTime = time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)

func newTestBridge() (*Bridge, *Client) {
	hub := NewHub()
	client := newClient(hub, nil, "test")
	hub.Register(client)
	bridge := NewBridge(hub)
	return bridge, client
}

func receiveEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	msg := <-c.send
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestBridge_OnState(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnState(simulator.State{
		Time:     startTime,
		Interval: 5 * time.Second,
		Running:  true,
		Ticks:    7,
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeSimState, env.Type)

	var p SimStatePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "2024-06-21T12:00:00Z", p.Time)
	assert.Equal(t, 5.0, p.IntervalSec)
	assert.True(t, p.Running)
	assert.Equal(t, uint64(7), p.Ticks)
}

func TestBridge_OnStateBeforeFirstTick(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnState(simulator.State{Interval: time.Second})

	var p SimStatePayload
	require.NoError(t, json.Unmarshal(receiveEnvelope(t, client).Payload, &p))
	assert.Empty(t, p.Time)
}

func TestBridge_OnDevice(t *testing.T) {
	bridge, client := newTestBridge()
	id := uuid.New()

	bridge.OnDevice(model.Stove{
		Base:          model.Base{ID: id, Name: "Kitchen"},
		Powered:       true,
		CurrentPowerW: 2000,
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeDeviceUpdate, env.Type)

	var p DevicePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, id, p.ID)
	assert.Equal(t, "Kitchen", p.Name)
	assert.Equal(t, model.ClassStove, p.Class)
	assert.Equal(t, true, p.States["power"])
	assert.Equal(t, 2000.0, p.States["currentPower"])
}

func TestBridge_OnMeter(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnMeter(model.SmartMeter{Base: model.Base{Name: "Meter"}, TotalPowerW: -1200})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeMeterUpdate, env.Type)

	var p DevicePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, model.ClassSmartMeter, p.Class)
	assert.Equal(t, -1200.0, p.States["currentPower"])
}

func TestBridge_OnBalance(t *testing.T) {
	bridge, client := newTestBridge()

	var b simulator.Balance
	b.Consumption = model.PhasePower{100, 200, 300}
	b.Production.Add(model.PhaseAll, -900)
	bridge.OnBalance(startTime, b)

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeBalanceUpdate, env.Type)

	var p BalancePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.InDelta(t, -200, p.Phases["A"], 1e-9)
	assert.InDelta(t, 0, p.Phases["C"], 1e-9)
	assert.InDelta(t, -300, p.TotalW, 1e-9)
	assert.InDelta(t, -900, p.TotalProductionW, 1e-9)
	assert.InDelta(t, 600, p.TotalConsumptionW, 1e-9)
}

func TestBridge_ImplementsCallback(t *testing.T) {
	var _ simulator.Callback = NewBridge(NewHub())
}
