package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridsoup/components"
)

// Activation selects how the scheduler orders agents each tick.
type Activation uint8

const (
	// ActivateRandom shuffles all agents together.
	ActivateRandom Activation = iota
	// ActivateBySpecies runs species in a fixed order, shuffling within each.
	ActivateBySpecies
)

// ParseActivation converts a config name into an Activation.
func ParseActivation(name string) Activation {
	if name == "by_species" {
		return ActivateBySpecies
	}
	return ActivateRandom
}

// Phase is the scheduler's position within a tick.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseTickStart
	PhaseActivating
	PhaseTickEnd
)

type scheduled struct {
	e       ecs.Entity
	species components.Species
}

// Scheduler holds the live agent set and activates each agent once per tick.
// The activation order is frozen at tick start, so agents added during a tick
// are not invoked until the next one.
type Scheduler struct {
	agents  []scheduled
	present map[ecs.Entity]bool
	stale   int // removed entries still in agents

	activation Activation
	order      [components.NumSpecies]int // species -> rank
	phase      Phase
	steps      int

	frozen []scheduled
}

// NewScheduler creates a scheduler. speciesOrder ranks species for
// ActivateBySpecies; species not listed run last in registration order.
func NewScheduler(activation Activation, speciesOrder []components.Species) *Scheduler {
	s := &Scheduler{
		present:    make(map[ecs.Entity]bool),
		activation: activation,
	}
	for i := range s.order {
		s.order[i] = len(speciesOrder) + i
	}
	for rank, sp := range speciesOrder {
		s.order[sp] = rank
	}
	return s
}

// Add registers e. Adding an entity twice is a no-op.
func (s *Scheduler) Add(e ecs.Entity, species components.Species) {
	if s.present[e] {
		return
	}
	// A stale entry for e would otherwise resurrect as a duplicate.
	s.compact()
	s.present[e] = true
	s.agents = append(s.agents, scheduled{e: e, species: species})
}

// Remove unregisters e. Safe during a tick: a removed agent that has not
// been invoked yet is skipped.
func (s *Scheduler) Remove(e ecs.Entity) {
	if !s.Contains(e) {
		return
	}
	delete(s.present, e)
	s.stale++
}

// Contains reports whether e is registered.
func (s *Scheduler) Contains(e ecs.Entity) bool {
	return s.present[e]
}

// Len returns the number of registered agents.
func (s *Scheduler) Len() int { return len(s.present) }

// Steps returns the number of completed ticks.
func (s *Scheduler) Steps() int { return s.steps }

// Phase returns the current activation phase.
func (s *Scheduler) Phase() Phase { return s.phase }

// Agents appends the registered agents to dst in registration order.
func (s *Scheduler) Agents(dst []ecs.Entity) []ecs.Entity {
	s.compact()
	for _, a := range s.agents {
		dst = append(dst, a.e)
	}
	return dst
}

func (s *Scheduler) compact() {
	if s.stale == 0 {
		return
	}
	kept := s.agents[:0]
	for _, a := range s.agents {
		if s.present[a.e] {
			kept = append(kept, a)
		}
	}
	clear(s.agents[len(kept):])
	s.agents = kept
	s.stale = 0
}

// Step activates every agent registered at tick start exactly once, in an
// order drawn from rng.
func (s *Scheduler) Step(rng *rand.Rand, activate func(ecs.Entity)) {
	s.phase = PhaseTickStart
	s.compact()
	s.frozen = append(s.frozen[:0], s.agents...)
	s.shuffle(rng)

	s.phase = PhaseActivating
	for _, a := range s.frozen {
		if !s.present[a.e] {
			continue
		}
		activate(a.e)
	}

	s.phase = PhaseTickEnd
	s.steps++
	s.phase = PhaseIdle
}

func (s *Scheduler) shuffle(rng *rand.Rand) {
	order := s.frozen
	if s.activation == ActivateRandom {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		return
	}

	// Stable group by species rank, then shuffle inside each group.
	var groups [components.NumSpecies][]scheduled
	for _, a := range order {
		groups[a.species] = append(groups[a.species], a)
	}
	ranked := components.AllSpecies
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && s.order[ranked[j]] < s.order[ranked[j-1]]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	order = order[:0]
	for _, sp := range ranked {
		g := groups[sp]
		rng.Shuffle(len(g), func(i, j int) { g[i], g[j] = g[j], g[i] })
		order = append(order, g...)
	}
	s.frozen = order
}
