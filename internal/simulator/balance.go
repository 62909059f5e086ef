package simulator

import (
	"energy_simulator/internal/model"
)

// BaseLoadW is the idle household draw attributed to each phase.
const BaseLoadW = 100

// JitterW is the exclusive upper bound of the random extra draw per phase.
const JitterW = 10

// Jitter is a source of uniformly distributed numbers in [0,1).
type Jitter interface {
	Float64() float64
}

// Balance holds the per-phase production and consumption of one tick.
// Production values are negative.
type Balance struct {
	Production  model.PhasePower `json:"production"`
	Consumption model.PhasePower `json:"consumption"`
}

// Phase returns the net power on a single phase.
func (b Balance) Phase(p model.Phase) float64 {
	return b.Consumption.Get(p) + b.Production.Get(p)
}

// TotalProduction returns the summed production of all phases.
func (b Balance) TotalProduction() float64 { return b.Production.Sum() }

// TotalConsumption returns the summed consumption of all phases.
func (b Balance) TotalConsumption() float64 { return b.Consumption.Sum() }

// Total returns the net household power; negative when feeding the grid.
func (b Balance) Total() float64 {
	return b.TotalConsumption() + b.TotalProduction()
}

// Aggregate distributes the power of every device onto the three phases.
func Aggregate(snap model.Snapshot, jitter Jitter) Balance {
	var b Balance

	for _, p := range snap.Producers() {
		b.Production.Add(p.ProducerPhase(), p.CurrentPower())
	}

	for i := range b.Consumption {
		b.Consumption[i] = BaseLoadW + jitter.Float64()*JitterW
	}

	for _, c := range snap.Consumers() {
		b.Consumption.Add(c.ConsumerPhase(), c.CurrentPower())
	}

	for _, wb := range snap.Wallboxes {
		if charging(&snap, wb) {
			b.Consumption.Add(wb.Settings.Phase, chargingPower(wb))
		}
	}

	return b
}
