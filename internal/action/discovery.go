package action

import (
	"fmt"

	"github.com/google/uuid"

	"energy_simulator/internal/model"
)

// DefaultResultCount is the number of descriptors returned by discovery.
const DefaultResultCount = 2

// Descriptor is a device that discovery offers for setup.
type Descriptor struct {
	Class model.Class `json:"class"`
	Name  string      `json:"name"`
}

// Device instantiates the described device with a new id and default settings.
func (d Descriptor) Device() (model.Device, error) {
	info, ok := model.Catalog[d.Class]
	if !ok {
		return nil, fmt.Errorf("%w: unknown class %q", ErrInvalidValue, d.Class)
	}
	return info.New(uuid.New(), d.Name), nil
}

// Discover returns count descriptors of the given class.
func Discover(class model.Class, count int) ([]Descriptor, error) {
	if _, ok := model.Catalog[class]; !ok {
		return nil, fmt.Errorf("%w: unknown class %q", ErrInvalidValue, class)
	}
	if count <= 0 {
		count = DefaultResultCount
	}

	name := model.DisplayName(class)
	res := make([]Descriptor, 0, count)
	for i := range count {
		res = append(res, Descriptor{
			Class: class,
			Name:  fmt.Sprintf("%s %d", name, i+1),
		})
	}
	return res, nil
}
