package model

import "fmt"

// Phase is an electrical line a device is attributed to.
type Phase string

const (
	PhaseA   Phase = "A"
	PhaseB   Phase = "B"
	PhaseC   Phase = "C"
	PhaseAll Phase = "All"
)

// Phases are the three physical lines in order.
var Phases = [3]Phase{PhaseA, PhaseB, PhaseC}

// ParsePhase validates a phase setting.
func ParsePhase(s string) (Phase, error) {
	switch p := Phase(s); p {
	case PhaseA, PhaseB, PhaseC, PhaseAll:
		return p, nil
	}
	return "", fmt.Errorf("invalid phase %q", s)
}

// Index returns the position of a single phase in Phases, -1 for All or unknown.
func (p Phase) Index() int {
	for i, ph := range Phases {
		if ph == p {
			return i
		}
	}
	return -1
}

// PhasePower holds one value per physical phase.
type PhasePower [3]float64

// Add attributes watts to phase p, splitting evenly across all lines for All.
func (pp *PhasePower) Add(p Phase, watts float64) {
	if i := p.Index(); i >= 0 {
		pp[i] += watts
		return
	}
	for i := range pp {
		pp[i] += watts / 3
	}
}

// Get returns the value on a single phase.
func (pp PhasePower) Get(p Phase) float64 {
	if i := p.Index(); i >= 0 {
		return pp[i]
	}
	return pp.Sum()
}

// Sum totals all phases.
func (pp PhasePower) Sum() float64 {
	return pp[0] + pp[1] + pp[2]
}
