package simulator

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_simulator/internal/model"
	"energy_simulator/internal/store"
)

type mockCallback struct {
	mu       sync.Mutex
	states   []State
	devices  []model.Device
	meters   []model.SmartMeter
	balances []Balance
}

func (m *mockCallback) OnState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, s)
}

func (m *mockCallback) OnDevice(d model.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = append(m.devices, d)
}

func (m *mockCallback) OnMeter(meter model.SmartMeter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meters = append(m.meters, meter)
}

func (m *mockCallback) OnBalance(_ time.Time, b Balance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances = append(m.balances, b)
}

func (m *mockCallback) lastState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.states) == 0 {
		return State{}
	}
	return m.states[len(m.states)-1]
}

func (m *mockCallback) meterCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.meters)
}

func newEngine(t *testing.T) (*Engine, *store.Store, *clock.Mock, *mockCallback) {
	t.Helper()

	s := store.New()
	for _, c := range model.Classes {
		require.NoError(t, s.Add(model.Catalog[c].New(uuid.New(), model.DisplayName(c))))
	}

	clk := clock.NewMock()
	clk.Set(noon)

	cb := &mockCallback{}
	e := New(s, cb, clk, Config{
		Interval:  time.Second,
		Latitude:  48,
		Longitude: 10,
		Location:  time.UTC,
		Seed:      1,
	})
	return e, s, clk, cb
}

func TestEngine_Defaults(t *testing.T) {
	e := New(store.New(), Callbacks{}, clock.NewMock(), Config{})

	state := e.State()
	assert.Equal(t, DefaultInterval, state.Interval)
	assert.False(t, state.Running)
	assert.Zero(t, state.Ticks)
}

func TestEngine_NoStepNoChange(t *testing.T) {
	e, s, _, cb := newEngine(t)
	before := s.Snapshot()

	assert.Zero(t, e.State().Ticks)
	assert.Equal(t, before, s.Snapshot())
	assert.Empty(t, cb.states)
}

func TestEngine_Step(t *testing.T) {
	e, s, _, cb := newEngine(t)

	e.Step()

	state := e.State()
	assert.Equal(t, uint64(1), state.Ticks)
	assert.Equal(t, noon, state.Time)
	assert.False(t, state.Running)

	snap := s.Snapshot()
	assert.Less(t, snap.Inverters[0].CurrentPowerW, 0.0)
	assert.Equal(t, 49, snap.Cars[0].BatteryLevel)

	require.Len(t, cb.meters, 1)
	require.Len(t, cb.balances, 1)
	assert.Len(t, cb.devices, snap.Len()-1)
	assert.Equal(t, snap.Meters[0], cb.meters[0])
	assert.InDelta(t, cb.balances[0].Total(), cb.meters[0].TotalPowerW, 1e-9)
	assert.Equal(t, uint64(1), cb.lastState().Ticks)
}

func TestEngine_StepUsesClock(t *testing.T) {
	e, _, clk, _ := newEngine(t)

	e.Step()
	clk.Add(time.Minute)
	e.Step()

	state := e.State()
	assert.Equal(t, noon.Add(time.Minute), state.Time)
	assert.Equal(t, uint64(2), state.Ticks)
}

func TestEngine_StartPause(t *testing.T) {
	e, _, clk, cb := newEngine(t)

	e.Start()
	assert.True(t, e.State().Running)
	assert.True(t, cb.lastState().Running)

	// start twice is a no-op
	e.Start()

	assert.Eventually(t, func() bool {
		clk.Add(time.Second)
		return cb.meterCount() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	e.Pause()
	assert.False(t, e.State().Running)
	assert.False(t, cb.lastState().Running)

	// pause twice is a no-op
	e.Pause()
}

func TestEngine_SetInterval(t *testing.T) {
	e, _, _, cb := newEngine(t)

	e.SetInterval(10 * time.Second)
	assert.Equal(t, 10*time.Second, e.Interval())
	assert.Equal(t, 10*time.Second, cb.lastState().Interval)

	e.SetInterval(0)
	assert.Equal(t, 10*time.Second, e.Interval())
}

func TestEngine_SetIntervalWhileRunning(t *testing.T) {
	e, _, clk, cb := newEngine(t)
	e.Start()
	defer e.Pause()

	e.SetInterval(time.Minute)

	assert.Eventually(t, func() bool {
		clk.Add(time.Minute)
		return cb.meterCount() >= 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, e.State().Running)
}

func TestCallbacks_FanOut(t *testing.T) {
	a, b := &mockCallback{}, &mockCallback{}
	cbs := Callbacks{a, b}

	cbs.OnState(State{Ticks: 3})
	cbs.OnMeter(model.SmartMeter{TotalPowerW: 1})
	cbs.OnDevice(model.Stove{})
	cbs.OnBalance(noon, Balance{})

	for _, m := range []*mockCallback{a, b} {
		assert.Equal(t, uint64(3), m.lastState().Ticks)
		assert.Len(t, m.meters, 1)
		assert.Len(t, m.devices, 1)
		assert.Len(t, m.balances, 1)
	}
}
