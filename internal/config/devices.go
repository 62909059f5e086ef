package config

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"energy_simulator/internal/model"
)

// Device describes a device to create at startup.
type Device struct {
	ID       string         `mapstructure:"id"`
	Class    string         `mapstructure:"class"`
	Name     string         `mapstructure:"name"`
	Settings map[string]any `mapstructure:"settings"`
	State    map[string]any `mapstructure:"state"`
}

// Household is the initial device population.
type Household struct {
	Devices []model.Device
	// PluggedIn lists cars to connect to a free wallbox once all devices exist.
	PluggedIn []uuid.UUID
}

// Household builds the configured devices, or the demo household when none are configured.
func (c Config) Household() (Household, error) {
	if len(c.Devices) == 0 {
		return Demo(), nil
	}

	var res Household
	for i, dc := range c.Devices {
		d, plugged, err := dc.build()
		if err != nil {
			return Household{}, fmt.Errorf("device %d (%s): %w", i, dc.Name, err)
		}
		res.Devices = append(res.Devices, d)
		if plugged {
			res.PluggedIn = append(res.PluggedIn, d.DeviceID())
		}
	}

	return res, nil
}

// Demo returns one device of every class with the car plugged into the wallbox.
func Demo() Household {
	inv := model.Catalog[model.ClassSolarInverter].New(uuid.New(), "Roof").(model.Inverter)

	stove := model.Catalog[model.ClassStove].New(uuid.New(), "Stove").(model.Stove)
	stove.Settings.Phase = model.PhaseA
	stove.Powered = true

	car := model.Catalog[model.ClassCar].New(uuid.New(), "Car")

	wb := model.Catalog[model.ClassWallbox].New(uuid.New(), "Wallbox").(model.Wallbox)
	wb.Settings.Phase = model.PhaseB

	meter := model.Catalog[model.ClassSmartMeter].New(uuid.New(), "Meter")

	return Household{
		Devices:   []model.Device{inv, stove, car, wb, meter},
		PluggedIn: []uuid.UUID{car.DeviceID()},
	}
}

func (dc Device) build() (model.Device, bool, error) {
	class, err := model.ParseClass(dc.Class)
	if err != nil {
		return nil, false, err
	}

	id := uuid.New()
	if dc.ID != "" {
		if id, err = uuid.Parse(dc.ID); err != nil {
			return nil, false, fmt.Errorf("id: %w", err)
		}
	}

	name := dc.Name
	if name == "" {
		name = model.DisplayName(class)
	}

	switch d := model.Catalog[class].New(id, name).(type) {
	case model.Inverter:
		if err := decodeBoth(dc, &d.Settings, &struct{}{}); err != nil {
			return nil, false, err
		}
		return d, false, nil

	case model.Stove:
		st := struct {
			Power bool `mapstructure:"power"`
		}{d.Powered}
		if err := decodeBoth(dc, &d.Settings, &st); err != nil {
			return nil, false, err
		}
		d.Powered = st.Power
		return d, false, nil

	case model.Car:
		st := struct {
			BatteryLevel       int     `mapstructure:"batteryLevel"`
			MinChargingCurrent float64 `mapstructure:"minChargingCurrent"`
			PluggedIn          bool    `mapstructure:"pluggedIn"`
		}{d.BatteryLevel, d.MinChargingCurrentA, false}
		if err := decodeBoth(dc, &d.Settings, &st); err != nil {
			return nil, false, err
		}
		if err := model.CheckCurrent(st.MinChargingCurrent); err != nil {
			return nil, false, fmt.Errorf("state: minChargingCurrent: %w", err)
		}
		d.SetBatteryLevel(st.BatteryLevel)
		d.MinChargingCurrentA = st.MinChargingCurrent
		return d, st.PluggedIn, nil

	case model.Wallbox:
		st := struct {
			Power              bool    `mapstructure:"power"`
			MaxChargingCurrent float64 `mapstructure:"maxChargingCurrent"`
		}{d.Powered, d.MaxChargingCurrentA}
		if err := decodeBoth(dc, &d.Settings, &st); err != nil {
			return nil, false, err
		}
		if err := model.CheckCurrent(st.MaxChargingCurrent); err != nil {
			return nil, false, fmt.Errorf("state: maxChargingCurrent: %w", err)
		}
		d.Powered = st.Power
		d.MaxChargingCurrentA = st.MaxChargingCurrent
		return d, false, nil

	case model.SmartMeter:
		st := struct {
			TotalEnergyConsumed float64 `mapstructure:"totalEnergyConsumed"`
			TotalEnergyProduced float64 `mapstructure:"totalEnergyProduced"`
		}{}
		if err := decodeBoth(dc, &struct{}{}, &st); err != nil {
			return nil, false, err
		}
		d.TotalEnergyConsumedKWh = st.TotalEnergyConsumed
		d.TotalEnergyProducedKWh = st.TotalEnergyProduced
		return d, false, nil
	}

	return nil, false, fmt.Errorf("unsupported class %s", class)
}

func decodeBoth(dc Device, settings, state any) error {
	if err := decode(dc.Settings, settings); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if err := decode(dc.State, state); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	return nil
}

// decode applies the keys of in onto res, leaving fields without a key untouched.
func decode(in map[string]any, res any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           res,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       phaseHook,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(in)
}

func phaseHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(model.Phase("")) {
		return data, nil
	}
	return model.ParsePhase(data.(string))
}
