package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_simulator/internal/model"
	"energy_simulator/internal/simulator"
)

func TestCollector_Meter(t *testing.T) {
	c := New()

	c.OnMeter(model.SmartMeter{
		Base:                   model.Base{Name: "Meter"},
		PowerPhaseAW:           100,
		PowerPhaseBW:           -200,
		PowerPhaseCW:           300,
		TotalEnergyConsumedKWh: 1.5,
		TotalEnergyProducedKWh: 0.5,
	})

	assert.Equal(t, 100.0, testutil.ToFloat64(c.meterPower.WithLabelValues("Meter", "A")))
	assert.Equal(t, -200.0, testutil.ToFloat64(c.meterPower.WithLabelValues("Meter", "B")))
	assert.Equal(t, 1.5, testutil.ToFloat64(c.meterConsumed.WithLabelValues("Meter")))
	assert.Equal(t, 0.5, testutil.ToFloat64(c.meterProduced.WithLabelValues("Meter")))
}

func TestCollector_Devices(t *testing.T) {
	c := New()

	c.OnDevice(model.Inverter{Base: model.Base{Name: "Roof"}, CurrentPowerW: -4000})
	c.OnDevice(model.Stove{Base: model.Base{Name: "Stove"}, CurrentPowerW: 2000})
	c.OnDevice(model.Car{Base: model.Base{Name: "Car"}, BatteryLevel: 42})
	c.OnDevice(model.Wallbox{Base: model.Base{Name: "Wallbox"}})

	assert.Equal(t, -4000.0, testutil.ToFloat64(c.devicePower.WithLabelValues("Roof", "solar_inverter")))
	assert.Equal(t, 2000.0, testutil.ToFloat64(c.devicePower.WithLabelValues("Stove", "stove")))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.carBattery.WithLabelValues("Car")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.devicePower))
}

func TestCollector_StateAndTicks(t *testing.T) {
	c := New()

	c.OnState(simulator.State{Running: true, Interval: 5 * time.Second})
	c.OnBalance(time.Now(), simulator.Balance{Consumption: model.PhasePower{100, 100, 100}})
	c.OnBalance(time.Now(), simulator.Balance{})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.running))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.intervalSecond))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ticks))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.gridPower))
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.OnBalance(time.Now(), simulator.Balance{})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "energysim_ticks_total 1")
}

func TestCollector_ImplementsCallback(t *testing.T) {
	var _ simulator.Callback = New()
}
