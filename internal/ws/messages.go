package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"energy_simulator/internal/model"
	"energy_simulator/internal/simulator"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeSimStart       = "sim:start"
	TypeSimPause       = "sim:pause"
	TypeSimStep        = "sim:step"
	TypeSimSetInterval = "sim:set_interval"
	TypeDeviceAction   = "device:action"

	// Server -> Client
	TypeSimState      = "sim:state"
	TypeDeviceUpdate  = "device:update"
	TypeMeterUpdate   = "meter:update"
	TypeBalanceUpdate = "balance:update"
	TypeDevicesLoaded = "devices:loaded"
	TypeActionError   = "action:error"
)

// Client -> Server messages

type SetIntervalPayload struct {
	IntervalSec float64 `json:"interval_sec"`
}

// Server -> Client messages

type SimStatePayload struct {
	Time        string  `json:"time"`
	IntervalSec float64 `json:"interval_sec"`
	Running     bool    `json:"running"`
	Ticks       uint64  `json:"ticks"`
}

type DevicePayload struct {
	ID     uuid.UUID      `json:"id"`
	Name   string         `json:"name"`
	Class  model.Class    `json:"class"`
	States map[string]any `json:"states"`
}

type DevicesLoadedPayload struct {
	Devices []DevicePayload `json:"devices"`
}

type BalancePayload struct {
	Time              string             `json:"time"`
	Phases            map[string]float64 `json:"phases"`
	TotalW            float64            `json:"total_w"`
	TotalProductionW  float64            `json:"total_production_w"`
	TotalConsumptionW float64            `json:"total_consumption_w"`
}

type ActionErrorPayload struct {
	DeviceID uuid.UUID `json:"device_id"`
	Type     string    `json:"type"`
	Error    string    `json:"error"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func SimStateFromEngine(s simulator.State) SimStatePayload {
	p := SimStatePayload{
		IntervalSec: s.Interval.Seconds(),
		Running:     s.Running,
		Ticks:       s.Ticks,
	}
	if !s.Time.IsZero() {
		p.Time = s.Time.Format(time.RFC3339)
	}
	return p
}

func DeviceFromModel(d model.Device) DevicePayload {
	return DevicePayload{
		ID:     d.DeviceID(),
		Name:   d.DeviceName(),
		Class:  d.Class(),
		States: d.States(),
	}
}

func DevicesLoaded(devices []model.Device) DevicesLoadedPayload {
	res := DevicesLoadedPayload{Devices: make([]DevicePayload, 0, len(devices))}
	for _, d := range devices {
		res.Devices = append(res.Devices, DeviceFromModel(d))
	}
	return res
}

func BalanceFromEngine(at time.Time, b simulator.Balance) BalancePayload {
	phases := make(map[string]float64, len(model.Phases))
	for _, p := range model.Phases {
		phases[string(p)] = b.Phase(p)
	}
	return BalancePayload{
		Time:              at.Format(time.RFC3339),
		Phases:            phases,
		TotalW:            b.Total(),
		TotalProductionW:  b.TotalProduction(),
		TotalConsumptionW: b.TotalConsumption(),
	}
}
