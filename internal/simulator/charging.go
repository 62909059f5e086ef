package simulator

import (
	"math"
	"time"

	"energy_simulator/internal/model"
)

// Voltage is the nominal line voltage used to convert current to power.
const Voltage = 230

// chargingPower returns the power drawn by a wallbox at its current limit.
func chargingPower(w model.Wallbox) float64 {
	return Voltage * w.MaxChargingCurrentA
}

// charging reports whether wallbox w is delivering power to a car in snap.
func charging(snap *model.Snapshot, w model.Wallbox) bool {
	if !w.Powered || !w.PluggedIn {
		return false
	}
	car, ok := snap.ConnectedCar(w)
	return ok && car.BatteryLevel < 100
}

// updateCharging advances the battery level of every car on an active wallbox.
// Charge accumulates across ticks and is committed in whole percent once at
// least one percent has been gathered.
func updateCharging(snap *model.Snapshot, now time.Time) {
	for _, wb := range snap.Wallboxes {
		if !charging(snap, wb) {
			continue
		}

		car := &snap.Cars[snap.CarIndex(wb.CarID)]
		if car.LastChargeUpdate.IsZero() {
			car.LastChargeUpdate = now
			continue
		}
		if car.Settings.CapacityWh <= 0 {
			continue
		}

		hours := now.Sub(car.LastChargeUpdate).Hours()
		chargedWh := chargingPower(wb) * hours
		// capacity is in Wh, so no kWh conversion is needed
		chargedPct := chargedWh * 100 / car.Settings.CapacityWh

		if chargedPct < 1 {
			continue
		}

		car.SetBatteryLevel(car.BatteryLevel + int(math.Round(chargedPct)))
		car.LastChargeUpdate = now
	}
}

// drainCars takes one percent off every unplugged car per tick.
func drainCars(snap *model.Snapshot) {
	for i := range snap.Cars {
		car := &snap.Cars[i]
		if !car.PluggedIn && car.BatteryLevel > 0 {
			car.SetBatteryLevel(car.BatteryLevel - 1)
		}
	}
}
