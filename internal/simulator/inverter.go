package simulator

import (
	"time"

	"energy_simulator/internal/model"
	"energy_simulator/internal/solar"
)

// updateInverters sets every inverter's output along the daylight curve.
func updateInverters(snap *model.Snapshot, daylight solar.Window, now time.Time) {
	for i := range snap.Inverters {
		inv := &snap.Inverters[i]
		inv.CurrentPowerW = 0
		if p := solar.Production(daylight, now, inv.Settings.MaxCapacityW); p != 0 {
			inv.CurrentPowerW = -p
		}
	}
}
