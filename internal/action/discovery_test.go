package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_simulator/internal/model"
	"energy_simulator/internal/store"
)

func TestDiscover(t *testing.T) {
	res, err := Discover(model.ClassWallbox, 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "Wallbox 1", res[0].Name)
	assert.Equal(t, "Wallbox 3", res[2].Name)

	res, err = Discover(model.ClassStove, 0)
	require.NoError(t, err)
	assert.Len(t, res, DefaultResultCount)

	_, err = Discover("toaster", 1)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestDescriptor_Device(t *testing.T) {
	res, err := Discover(model.ClassCar, 2)
	require.NoError(t, err)

	s := store.New()
	for _, d := range res {
		dev, err := d.Device()
		require.NoError(t, err)
		require.NoError(t, s.Add(dev))
	}

	cars := s.Devices(model.ClassCar)
	require.Len(t, cars, 2)
	assert.NotEqual(t, cars[0].DeviceID(), cars[1].DeviceID())

	car := cars[0].(model.Car)
	assert.Equal(t, 50000.0, car.Settings.CapacityWh)
	assert.Equal(t, 50, car.BatteryLevel)

	_, err = Descriptor{Class: "toaster"}.Device()
	assert.ErrorIs(t, err, ErrInvalidValue)
}
