package simulator

import (
	"time"

	"energy_simulator/internal/model"
	"energy_simulator/internal/solar"
)

// TickInput carries everything a tick depends on besides device state.
type TickInput struct {
	Now       time.Time
	Interval  time.Duration
	Latitude  float64
	Longitude float64
	Jitter    Jitter
}

// Tick advances all devices by one step. prev is left untouched, the
// returned snapshot holds the new state for the caller to commit.
func Tick(prev model.Snapshot, in TickInput) (model.Snapshot, Balance) {
	snap := prev.Clone()

	daylight := solar.Daylight(in.Latitude, in.Longitude, in.Now)
	updateInverters(&snap, daylight, in.Now)
	updateCharging(&snap, in.Now)
	drainCars(&snap)
	updateStoves(&snap, in.Interval)

	balance := Aggregate(snap, in.Jitter)
	for i := range snap.Meters {
		snap.Meters[i] = Accumulate(snap.Meters[i], balance, in.Interval)
	}

	return snap, balance
}
