package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"energy_simulator/internal/model"
)

var ErrNotFound = errors.New("device not found")

// Store holds all simulated devices in memory. Reads hand out copies;
// writes go through Update which commits atomically.
type Store struct {
	mu   sync.RWMutex
	snap model.Snapshot
}

func New() *Store {
	return &Store{}
}

// Snapshot returns a deep copy of the current device state.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Update runs fn on a copy of the current state and commits the copy only
// when fn returns nil. Updates are serialized.
func (s *Store) Update(fn func(*model.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	s.snap = next
	return nil
}

// Add registers a device.
func (s *Store) Add(d model.Device) error {
	return s.Update(func(snap *model.Snapshot) error {
		if err := snap.Add(d); err != nil {
			return fmt.Errorf("adding %s: %w", d.DeviceID(), err)
		}
		return nil
	})
}

// Remove deletes a device, clearing any wallbox link it holds.
func (s *Store) Remove(id uuid.UUID) error {
	return s.Update(func(snap *model.Snapshot) error {
		if !snap.Remove(id) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Devices returns all devices of a class, all devices for an empty class.
func (s *Store) Devices(class model.Class) []model.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Devices(class)
}

// Find looks a device up by id.
func (s *Store) Find(id uuid.UUID) (model.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Find(id)
}

// Count returns the number of registered devices.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Len()
}
