// Package components defines ECS components for the simulation.
package components

import "fmt"

// Species identifies an agent's behaviour set.
type Species uint8

const (
	SpeciesPrey Species = iota
	SpeciesPredator
	SpeciesCleaner

	NumSpecies = 3
)

// AllSpecies lists every species in registration order.
var AllSpecies = [NumSpecies]Species{SpeciesPrey, SpeciesPredator, SpeciesCleaner}

func (s Species) String() string {
	switch s {
	case SpeciesPrey:
		return "prey"
	case SpeciesPredator:
		return "predator"
	case SpeciesCleaner:
		return "cleaner"
	}
	return fmt.Sprintf("species(%d)", uint8(s))
}

// ParseSpecies converts a config name into a Species.
func ParseSpecies(name string) (Species, error) {
	switch name {
	case "prey":
		return SpeciesPrey, nil
	case "predator", "predators":
		return SpeciesPredator, nil
	case "cleaner", "cleaners":
		return SpeciesCleaner, nil
	}
	return 0, fmt.Errorf("unknown species %q", name)
}

// DeathCause records why an agent stopped being alive.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseAge
	CauseStarvation
	CauseEaten
)

func (c DeathCause) String() string {
	switch c {
	case CauseAge:
		return "age"
	case CauseStarvation:
		return "starvation"
	case CauseEaten:
		return "eaten"
	}
	return "none"
}

// HuntMode selects how a predator chooses between empty cells and prey.
type HuntMode uint8

const (
	// HuntPreferEmpty moves to an empty neighbour when one exists and only
	// attacks when boxed in.
	HuntPreferEmpty HuntMode = iota
	// HuntUniform picks uniformly among empty and prey-occupied neighbours.
	HuntUniform
)

// ParseHuntMode converts a config name into a HuntMode. Empty selects the default.
func ParseHuntMode(name string) (HuntMode, error) {
	switch name {
	case "", "prefer_empty":
		return HuntPreferEmpty, nil
	case "uniform":
		return HuntUniform, nil
	}
	return 0, fmt.Errorf("unknown hunt mode %q", name)
}
