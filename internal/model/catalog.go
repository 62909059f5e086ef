package model

import "github.com/google/uuid"

// ClassInfo holds display name, interfaces and defaults for a device class.
type ClassInfo struct {
	Name       string
	Interfaces []string
	// New instantiates a device of this class with default settings.
	New func(id uuid.UUID, name string) Device
}

// Catalog maps every known Class to its description.
var Catalog = map[Class]ClassInfo{
	ClassSolarInverter: {
		Name:       "Solar inverter",
		Interfaces: []string{"solarinverter", "smartmeterproducer"},
		New: func(id uuid.UUID, name string) Device {
			return Inverter{
				Base:     Base{ID: id, Name: name},
				Settings: InverterSettings{MaxCapacityW: 5000, Phase: PhaseAll},
			}
		},
	},
	ClassStove: {
		Name:       "Electric stove",
		Interfaces: []string{"smartmeterconsumer", "power"},
		New: func(id uuid.UUID, name string) Device {
			return Stove{
				Base:     Base{ID: id, Name: name},
				Settings: StoveSettings{MaxPowerW: 2000, Phase: PhaseAll},
			}
		},
	},
	ClassCar: {
		Name:       "Electric car",
		Interfaces: []string{"electricvehicle", "battery"},
		New: func(id uuid.UUID, name string) Device {
			c := Car{
				Base:                Base{ID: id, Name: name},
				Settings:            CarSettings{CapacityWh: 50000},
				MinChargingCurrentA: 6,
			}
			c.SetBatteryLevel(50)
			return c
		},
	},
	ClassWallbox: {
		Name:       "Wallbox",
		Interfaces: []string{"evcharger", "smartmeterconsumer"},
		New: func(id uuid.UUID, name string) Device {
			return Wallbox{
				Base:                Base{ID: id, Name: name},
				Settings:            WallboxSettings{Phase: PhaseAll},
				Powered:             true,
				MaxChargingCurrentA: 16,
			}
		},
	},
	ClassSmartMeter: {
		Name:       "Smart meter",
		Interfaces: []string{"energymeter"},
		New: func(id uuid.UUID, name string) Device {
			return SmartMeter{Base: Base{ID: id, Name: name}}
		},
	},
}

// DisplayName returns the catalog name of a class, the class itself if unknown.
func DisplayName(c Class) string {
	if info, ok := Catalog[c]; ok {
		return info.Name
	}
	return string(c)
}
