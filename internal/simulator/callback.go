package simulator

import (
	"time"

	"energy_simulator/internal/model"
)

// Callback receives simulation events.
type Callback interface {
	OnState(state State)
	OnDevice(device model.Device)
	OnMeter(meter model.SmartMeter)
	OnBalance(at time.Time, balance Balance)
}

// Callbacks fans events out to several sinks in order.
type Callbacks []Callback

func (cs Callbacks) OnState(state State) {
	for _, c := range cs {
		c.OnState(state)
	}
}

func (cs Callbacks) OnDevice(device model.Device) {
	for _, c := range cs {
		c.OnDevice(device)
	}
}

func (cs Callbacks) OnMeter(meter model.SmartMeter) {
	for _, c := range cs {
		c.OnMeter(meter)
	}
}

func (cs Callbacks) OnBalance(at time.Time, balance Balance) {
	for _, c := range cs {
		c.OnBalance(at, balance)
	}
}
