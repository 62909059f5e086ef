package action

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"energy_simulator/internal/model"
	"energy_simulator/internal/simulator"
	"energy_simulator/internal/store"
	"energy_simulator/internal/util"
)

var (
	ErrDeviceNotFound       = errors.New("device not found")
	ErrUnsupportedAction    = errors.New("unsupported action")
	ErrInvalidValue         = errors.New("invalid value")
	ErrHardwareNotAvailable = errors.New("hardware not available")
)

// Action types.
const (
	TypePower              = "power"
	TypeMaxChargingCurrent = "maxChargingCurrent"
	TypePluggedIn          = "pluggedIn"
	TypeMinChargingCurrent = "minChargingCurrent"
)

// Charging current limits in ampere.
const (
	MinCurrentA = model.MinCurrentA
	MaxCurrentA = model.MaxCurrentA
)

// Action is a state change requested for a single device.
type Action struct {
	DeviceID uuid.UUID       `json:"device_id"`
	Type     string          `json:"type"`
	Value    json.RawMessage `json:"value"`
}

// Executor applies actions to the device store.
type Executor struct {
	log      *util.Logger
	store    *store.Store
	callback simulator.Callback
}

// NewExecutor creates an executor. Devices changed by an action are reported
// to cb, which may be nil.
func NewExecutor(s *store.Store, cb simulator.Callback) *Executor {
	return &Executor{
		log:      util.NewLogger("action"),
		store:    s,
		callback: cb,
	}
}

// Execute applies a. All changes of one action are committed together or not at all.
func (e *Executor) Execute(ctx context.Context, a Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var changed []uuid.UUID
	err := e.store.Update(func(snap *model.Snapshot) error {
		d, ok := snap.Find(a.DeviceID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, a.DeviceID)
		}

		var err error
		switch d.Class() {
		case model.ClassStove:
			changed, err = stoveAction(snap, a)
		case model.ClassWallbox:
			changed, err = wallboxAction(snap, a)
		case model.ClassCar:
			changed, err = carAction(snap, a)
		default:
			err = fmt.Errorf("%w: %s on %s", ErrUnsupportedAction, a.Type, d.Class())
		}
		return err
	})
	if err != nil {
		e.log.WARN.Printf("%s %s: %v", a.DeviceID, a.Type, err)
		return err
	}

	e.log.DEBUG.Printf("%s %s: %s", a.DeviceID, a.Type, a.Value)

	if e.callback != nil {
		snap := e.store.Snapshot()
		for _, id := range changed {
			if d, ok := snap.Find(id); ok {
				e.callback.OnDevice(d)
			}
		}
	}

	return nil
}

func stoveAction(snap *model.Snapshot, a Action) ([]uuid.UUID, error) {
	if a.Type != TypePower {
		return nil, fmt.Errorf("%w: %s on stove", ErrUnsupportedAction, a.Type)
	}

	on, err := boolValue(a.Value)
	if err != nil {
		return nil, err
	}

	for i := range snap.Stoves {
		if s := &snap.Stoves[i]; s.ID == a.DeviceID {
			s.Powered = on
			if !on {
				s.CurrentPowerW = 0
			}
		}
	}
	return []uuid.UUID{a.DeviceID}, nil
}

func wallboxAction(snap *model.Snapshot, a Action) ([]uuid.UUID, error) {
	w := &snap.Wallboxes[snap.WallboxIndex(a.DeviceID)]

	switch a.Type {
	case TypePower:
		on, err := boolValue(a.Value)
		if err != nil {
			return nil, err
		}
		w.Powered = on

	case TypeMaxChargingCurrent:
		current, err := currentValue(a.Value)
		if err != nil {
			return nil, err
		}
		w.MaxChargingCurrentA = current

	default:
		return nil, fmt.Errorf("%w: %s on wallbox", ErrUnsupportedAction, a.Type)
	}

	return []uuid.UUID{a.DeviceID}, nil
}

func carAction(snap *model.Snapshot, a Action) ([]uuid.UUID, error) {
	car := &snap.Cars[snap.CarIndex(a.DeviceID)]

	switch a.Type {
	case TypePluggedIn:
		plug, err := boolValue(a.Value)
		if err != nil {
			return nil, err
		}
		if plug {
			return plugIn(snap, car.ID)
		}
		return unplug(snap, car.ID)

	case TypeMinChargingCurrent:
		current, err := currentValue(a.Value)
		if err != nil {
			return nil, err
		}
		car.MinChargingCurrentA = current
		return []uuid.UUID{car.ID}, nil
	}

	return nil, fmt.Errorf("%w: %s on car", ErrUnsupportedAction, a.Type)
}

// plugIn connects the car to the first free wallbox.
func plugIn(snap *model.Snapshot, carID uuid.UUID) ([]uuid.UUID, error) {
	car := snap.Cars[snap.CarIndex(carID)]
	if car.WallboxID != uuid.Nil {
		return []uuid.UUID{carID, car.WallboxID}, nil
	}

	for _, w := range snap.Wallboxes {
		if !w.Free() {
			continue
		}
		if err := snap.Link(w.ID, carID); err != nil {
			return nil, err
		}
		return []uuid.UUID{carID, w.ID}, nil
	}

	return nil, fmt.Errorf("%w: no free wallbox found", ErrHardwareNotAvailable)
}

func unplug(snap *model.Snapshot, carID uuid.UUID) ([]uuid.UUID, error) {
	wallboxID := snap.Cars[snap.CarIndex(carID)].WallboxID

	if err := snap.Unlink(carID); err != nil && !errors.Is(err, model.ErrNotLinked) {
		return nil, err
	}

	if wallboxID == uuid.Nil {
		return []uuid.UUID{carID}, nil
	}
	return []uuid.UUID{carID, wallboxID}, nil
}

func boolValue(raw json.RawMessage) (bool, error) {
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, fmt.Errorf("%w: expected bool: %s", ErrInvalidValue, raw)
	}
	return v, nil
}

func currentValue(raw json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("%w: expected number: %s", ErrInvalidValue, raw)
	}
	if err := model.CheckCurrent(v); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return v, nil
}
