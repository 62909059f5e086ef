package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Class identifies the kind of simulated device.
type Class string

const (
	ClassSolarInverter Class = "solar_inverter"
	ClassStove         Class = "stove"
	ClassCar           Class = "car"
	ClassWallbox       Class = "wallbox"
	ClassSmartMeter    Class = "smart_meter"
)

// Classes lists all device classes in a stable order.
var Classes = []Class{ClassSolarInverter, ClassStove, ClassCar, ClassWallbox, ClassSmartMeter}

// ParseClass validates a class name.
func ParseClass(s string) (Class, error) {
	for _, c := range Classes {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown device class %q", s)
}

// Device is the capability every simulated device offers regardless of class.
type Device interface {
	DeviceID() uuid.UUID
	DeviceName() string
	Class() Class
	// States returns the externally visible named state values.
	States() map[string]any
}

// Producer is a device feeding power into the grid.
type Producer interface {
	Device
	ProducerPhase() Phase
	CurrentPower() float64
}

// Consumer is a device drawing power reported on its own phase.
type Consumer interface {
	Device
	ConsumerPhase() Phase
	CurrentPower() float64
}

// Base holds the identity shared by all devices.
type Base struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func (b Base) DeviceID() uuid.UUID { return b.ID }
func (b Base) DeviceName() string  { return b.Name }

// InverterSettings are fixed at setup.
type InverterSettings struct {
	MaxCapacityW float64 `json:"max_capacity_w" mapstructure:"maxCapacity"`
	Phase        Phase   `json:"phase" mapstructure:"phase"`
}

// Inverter is a solar inverter. CurrentPowerW is negative while producing.
type Inverter struct {
	Base
	Settings      InverterSettings `json:"settings"`
	CurrentPowerW float64          `json:"current_power_w"`
}

func (Inverter) Class() Class            { return ClassSolarInverter }
func (i Inverter) ProducerPhase() Phase  { return i.Settings.Phase }
func (i Inverter) CurrentPower() float64 { return i.CurrentPowerW }
func (i Inverter) States() map[string]any {
	return map[string]any{
		"currentPower": i.CurrentPowerW,
	}
}

// StoveSettings are fixed at setup.
type StoveSettings struct {
	MaxPowerW float64 `json:"max_power_w" mapstructure:"maxPowerConsumption"`
	Phase     Phase   `json:"phase" mapstructure:"phase"`
}

// Stove is an electric stove running a fixed duty cycle while powered.
type Stove struct {
	Base
	Settings               StoveSettings `json:"settings"`
	Powered                bool          `json:"powered"`
	CurrentPowerW          float64       `json:"current_power_w"`
	TotalEnergyConsumedKWh float64       `json:"total_energy_consumed_kwh"`

	// Cycle is the position within the duty cycle, advanced once per powered tick.
	Cycle int `json:"-"`
}

func (Stove) Class() Class            { return ClassStove }
func (s Stove) ConsumerPhase() Phase  { return s.Settings.Phase }
func (s Stove) CurrentPower() float64 { return s.CurrentPowerW }
func (s Stove) States() map[string]any {
	return map[string]any{
		"power":               s.Powered,
		"currentPower":        s.CurrentPowerW,
		"totalEnergyConsumed": s.TotalEnergyConsumedKWh,
	}
}

// CarSettings are fixed at setup.
type CarSettings struct {
	CapacityWh float64 `json:"capacity_wh" mapstructure:"capacity"`
}

// CriticalBatteryLevel is the level below which a car battery is critical.
const CriticalBatteryLevel = 10

// Car is an electric vehicle.
type Car struct {
	Base
	Settings            CarSettings `json:"settings"`
	PluggedIn           bool        `json:"plugged_in"`
	BatteryLevel        int         `json:"battery_level"`
	BatteryCritical     bool        `json:"battery_critical"`
	MinChargingCurrentA float64     `json:"min_charging_current_a"`

	// LastChargeUpdate is when charge was last committed; zero before the first charging tick.
	LastChargeUpdate time.Time `json:"-"`
	// WallboxID is the wallbox the car is plugged into, uuid.Nil if none.
	WallboxID uuid.UUID `json:"wallbox_id"`
}

func (Car) Class() Class { return ClassCar }
func (c Car) States() map[string]any {
	return map[string]any{
		"pluggedIn":          c.PluggedIn,
		"batteryLevel":       c.BatteryLevel,
		"batteryCritical":    c.BatteryCritical,
		"capacity":           c.Settings.CapacityWh / 1000,
		"minChargingCurrent": c.MinChargingCurrentA,
	}
}

// SetBatteryLevel clamps level to [0,100] and keeps BatteryCritical in sync.
func (c *Car) SetBatteryLevel(level int) {
	c.BatteryLevel = min(max(level, 0), 100)
	c.BatteryCritical = c.BatteryLevel < CriticalBatteryLevel
}

// Charging current limits in ampere.
const (
	MinCurrentA = 6
	MaxCurrentA = 32
)

// ErrCurrentRange is returned for a charging current outside MinCurrentA..MaxCurrentA.
var ErrCurrentRange = fmt.Errorf("charging current outside %d..%d A", MinCurrentA, MaxCurrentA)

// CheckCurrent validates a charging current.
func CheckCurrent(a float64) error {
	if a < MinCurrentA || a > MaxCurrentA {
		return fmt.Errorf("%w: %g A", ErrCurrentRange, a)
	}
	return nil
}

// WallboxSettings are fixed at setup.
type WallboxSettings struct {
	Phase Phase `json:"phase" mapstructure:"phase"`
}

// Wallbox is an EV charger with at most one connected car.
type Wallbox struct {
	Base
	Settings            WallboxSettings `json:"settings"`
	Powered             bool            `json:"powered"`
	PluggedIn           bool            `json:"plugged_in"`
	MaxChargingCurrentA float64         `json:"max_charging_current_a"`

	// CarID is the connected car, uuid.Nil if none.
	CarID uuid.UUID `json:"car_id"`
}

func (Wallbox) Class() Class { return ClassWallbox }
func (w Wallbox) States() map[string]any {
	return map[string]any{
		"power":              w.Powered,
		"pluggedIn":          w.PluggedIn,
		"maxChargingCurrent": w.MaxChargingCurrentA,
	}
}

// Free reports whether no car is connected.
func (w Wallbox) Free() bool { return w.CarID == uuid.Nil }

// SmartMeter is derived from the whole household every tick.
type SmartMeter struct {
	Base
	PowerPhaseAW           float64 `json:"power_phase_a_w"`
	PowerPhaseBW           float64 `json:"power_phase_b_w"`
	PowerPhaseCW           float64 `json:"power_phase_c_w"`
	TotalPowerW            float64 `json:"total_power_w"`
	TotalEnergyConsumedKWh float64 `json:"total_energy_consumed_kwh"`
	TotalEnergyProducedKWh float64 `json:"total_energy_produced_kwh"`
}

func (SmartMeter) Class() Class { return ClassSmartMeter }
func (m SmartMeter) States() map[string]any {
	return map[string]any{
		"currentPowerPhaseA":  m.PowerPhaseAW,
		"currentPowerPhaseB":  m.PowerPhaseBW,
		"currentPowerPhaseC":  m.PowerPhaseCW,
		"currentPower":        m.TotalPowerW,
		"totalEnergyConsumed": m.TotalEnergyConsumedKWh,
		"totalEnergyProduced": m.TotalEnergyProducedKWh,
	}
}

var (
	_ Producer = Inverter{}
	_ Consumer = Stove{}
	_ Device   = Car{}
	_ Device   = Wallbox{}
	_ Device   = SmartMeter{}
)
