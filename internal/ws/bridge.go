package ws

import (
	"time"

	"energy_simulator/internal/model"
	"energy_simulator/internal/simulator"
	"energy_simulator/internal/util"
)

// Bridge implements simulator.Callback and broadcasts events to the WebSocket hub.
type Bridge struct {
	log *util.Logger
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{log: util.NewLogger("ws"), hub: hub}
}

func (b *Bridge) OnState(s simulator.State) {
	b.broadcast(TypeSimState, SimStateFromEngine(s))
}

func (b *Bridge) OnDevice(d model.Device) {
	b.broadcast(TypeDeviceUpdate, DeviceFromModel(d))
}

func (b *Bridge) OnMeter(m model.SmartMeter) {
	b.broadcast(TypeMeterUpdate, DeviceFromModel(m))
}

func (b *Bridge) OnBalance(at time.Time, balance simulator.Balance) {
	b.broadcast(TypeBalanceUpdate, BalanceFromEngine(at, balance))
}

func (b *Bridge) broadcast(msgType string, payload any) {
	if err := b.hub.Publish(msgType, payload); err != nil {
		b.log.ERROR.Printf("marshaling %s: %v", msgType, err)
	}
}
