package model

import (
	"fmt"
	"strings"
)

// Family identifies one fixed metric family.
type Family string

const (
	FamilyCPU     Family = "cpu"
	FamilyMemory  Family = "memory"
	FamilyGPU     Family = "gpu"
	FamilyNetwork Family = "network" // placeholder, never populated
)

// Selectable lists the families that can back the detail view, in display order.
func Selectable() []Family { return []Family{FamilyCPU, FamilyMemory, FamilyGPU} }

// ParseFamily maps user input ("cpu", "mem", "memory", "gpu") to a selectable Family.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cpu":
		return FamilyCPU, nil
	case "mem", "memory", "ram":
		return FamilyMemory, nil
	case "gpu":
		return FamilyGPU, nil
	}
	return "", fmt.Errorf("unknown metric family %q (want cpu, memory or gpu)", s)
}

// Selectable reports whether f can be chosen for the detail view.
func (f Family) Selectable() bool {
	return f == FamilyCPU || f == FamilyMemory || f == FamilyGPU
}

func (f Family) String() string { return string(f) }

// State is the engine lifecycle state.
type State int

const (
	StateIdle        State = iota // no cycle has completed
	StateCalibrating              // the first cycle is running
	StateStreaming                // at least one cycle completed, including the first
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCalibrating:
		return "calibrating"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON output.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
