package model

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

var ErrNotLinked = errors.New("devices not linked")

// Snapshot holds the state of every simulated device grouped by class.
// It is a plain value: Clone it before mutating a copy others may hold.
type Snapshot struct {
	Inverters []Inverter   `json:"inverters"`
	Stoves    []Stove      `json:"stoves"`
	Cars      []Car        `json:"cars"`
	Wallboxes []Wallbox    `json:"wallboxes"`
	Meters    []SmartMeter `json:"meters"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Inverters: slices.Clone(s.Inverters),
		Stoves:    slices.Clone(s.Stoves),
		Cars:      slices.Clone(s.Cars),
		Wallboxes: slices.Clone(s.Wallboxes),
		Meters:    slices.Clone(s.Meters),
	}
}

// Len returns the number of devices.
func (s Snapshot) Len() int {
	return len(s.Inverters) + len(s.Stoves) + len(s.Cars) + len(s.Wallboxes) + len(s.Meters)
}

// Devices lists devices of the given class, or all devices for an empty class.
func (s Snapshot) Devices(class Class) []Device {
	var res []Device
	if class == "" || class == ClassSolarInverter {
		for _, d := range s.Inverters {
			res = append(res, d)
		}
	}
	if class == "" || class == ClassStove {
		for _, d := range s.Stoves {
			res = append(res, d)
		}
	}
	if class == "" || class == ClassCar {
		for _, d := range s.Cars {
			res = append(res, d)
		}
	}
	if class == "" || class == ClassWallbox {
		for _, d := range s.Wallboxes {
			res = append(res, d)
		}
	}
	if class == "" || class == ClassSmartMeter {
		for _, d := range s.Meters {
			res = append(res, d)
		}
	}
	return res
}

// Find looks a device up by id.
func (s Snapshot) Find(id uuid.UUID) (Device, bool) {
	for _, d := range s.Devices("") {
		if d.DeviceID() == id {
			return d, true
		}
	}
	return nil, false
}

// Producers returns all devices feeding power into the grid.
func (s Snapshot) Producers() []Producer {
	res := make([]Producer, 0, len(s.Inverters))
	for _, d := range s.Inverters {
		res = append(res, d)
	}
	return res
}

// Consumers returns all devices reporting their own consumption.
// Meters are never consumers so they cannot count themselves as a load.
func (s Snapshot) Consumers() []Consumer {
	res := make([]Consumer, 0, len(s.Stoves))
	for _, d := range s.Stoves {
		res = append(res, d)
	}
	return res
}

// CarIndex returns the index of the car with the given id, -1 if absent.
func (s Snapshot) CarIndex(id uuid.UUID) int {
	if id == uuid.Nil {
		return -1
	}
	return slices.IndexFunc(s.Cars, func(c Car) bool { return c.ID == id })
}

// WallboxIndex returns the index of the wallbox with the given id, -1 if absent.
func (s Snapshot) WallboxIndex(id uuid.UUID) int {
	if id == uuid.Nil {
		return -1
	}
	return slices.IndexFunc(s.Wallboxes, func(w Wallbox) bool { return w.ID == id })
}

// ConnectedCar returns the car linked to wallbox w.
func (s Snapshot) ConnectedCar(w Wallbox) (Car, bool) {
	i := s.CarIndex(w.CarID)
	if i < 0 {
		return Car{}, false
	}
	return s.Cars[i], true
}

// Link connects car and wallbox on both sides. Both must currently be unlinked.
func (s *Snapshot) Link(wallboxID, carID uuid.UUID) error {
	wi, ci := s.WallboxIndex(wallboxID), s.CarIndex(carID)
	if wi < 0 || ci < 0 {
		return errors.New("unknown wallbox or car")
	}
	if !s.Wallboxes[wi].Free() || s.Cars[ci].WallboxID != uuid.Nil {
		return errors.New("wallbox or car already linked")
	}

	s.Wallboxes[wi].CarID = carID
	s.Wallboxes[wi].PluggedIn = true
	s.Cars[ci].WallboxID = wallboxID
	s.Cars[ci].PluggedIn = true
	return nil
}

// Unlink disconnects the car from whatever wallbox it is plugged into and
// clears both sides. The car is left unplugged even if it was not linked.
func (s *Snapshot) Unlink(carID uuid.UUID) error {
	ci := s.CarIndex(carID)
	if ci < 0 {
		return errors.New("unknown car")
	}

	car := &s.Cars[ci]
	car.PluggedIn = false
	car.LastChargeUpdate = time.Time{}

	wi := slices.IndexFunc(s.Wallboxes, func(w Wallbox) bool { return w.CarID == carID })
	car.WallboxID = uuid.Nil
	if wi < 0 {
		return ErrNotLinked
	}

	s.Wallboxes[wi].CarID = uuid.Nil
	s.Wallboxes[wi].PluggedIn = false
	return nil
}

// Remove deletes the device with the given id, clearing any link it holds.
func (s *Snapshot) Remove(id uuid.UUID) bool {
	if i := s.CarIndex(id); i >= 0 {
		_ = s.Unlink(id)
		s.Cars = slices.Delete(s.Cars, i, i+1)
		return true
	}
	if i := s.WallboxIndex(id); i >= 0 {
		if car := s.Wallboxes[i].CarID; car != uuid.Nil {
			_ = s.Unlink(car)
		}
		s.Wallboxes = slices.Delete(s.Wallboxes, i, i+1)
		return true
	}

	n := s.Len()
	s.Inverters = slices.DeleteFunc(s.Inverters, func(d Inverter) bool { return d.ID == id })
	s.Stoves = slices.DeleteFunc(s.Stoves, func(d Stove) bool { return d.ID == id })
	s.Meters = slices.DeleteFunc(s.Meters, func(d SmartMeter) bool { return d.ID == id })
	return s.Len() < n
}

// Add appends a device to the matching class.
func (s *Snapshot) Add(d Device) error {
	if _, ok := s.Find(d.DeviceID()); ok {
		return errors.New("duplicate device id")
	}

	switch v := d.(type) {
	case Inverter:
		s.Inverters = append(s.Inverters, v)
	case Stove:
		s.Stoves = append(s.Stoves, v)
	case Car:
		v.WallboxID, v.PluggedIn = uuid.Nil, false
		s.Cars = append(s.Cars, v)
	case Wallbox:
		v.CarID, v.PluggedIn = uuid.Nil, false
		s.Wallboxes = append(s.Wallboxes, v)
	case SmartMeter:
		s.Meters = append(s.Meters, v)
	default:
		return errors.New("unsupported device type")
	}
	return nil
}
