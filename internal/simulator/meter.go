package simulator

import (
	"time"

	"energy_simulator/internal/model"
)

// Accumulate publishes the balance on meter m and integrates the net power
// over interval into the consumed or produced energy counter.
func Accumulate(m model.SmartMeter, b Balance, interval time.Duration) model.SmartMeter {
	m.PowerPhaseAW = b.Phase(model.PhaseA)
	m.PowerPhaseBW = b.Phase(model.PhaseB)
	m.PowerPhaseCW = b.Phase(model.PhaseC)
	m.TotalPowerW = b.Total()

	kWh := m.TotalPowerW / 1000 * interval.Hours()
	if m.TotalPowerW > 0 {
		m.TotalEnergyConsumedKWh += kWh
	} else {
		m.TotalEnergyProducedKWh -= kWh
	}

	return m
}
