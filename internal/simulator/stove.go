package simulator

import (
	"time"

	"energy_simulator/internal/model"
)

const (
	stoveCycleTicks  = 12
	stoveActiveTicks = 4
)

// updateStoves runs the duty cycle of every powered stove: full power for the
// first third of each cycle, idle for the rest. The cycle is tick-indexed,
// energy is integrated over interval.
func updateStoves(snap *model.Snapshot, interval time.Duration) {
	for i := range snap.Stoves {
		s := &snap.Stoves[i]
		s.CurrentPowerW = 0
		if !s.Powered {
			continue
		}

		pos := s.Cycle % stoveCycleTicks
		if pos < stoveActiveTicks {
			s.CurrentPowerW = s.Settings.MaxPowerW
			s.TotalEnergyConsumedKWh += s.Settings.MaxPowerW / 1000 * interval.Hours()
		}
		s.Cycle = pos + 1
	}
}
