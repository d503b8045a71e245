package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridsoup/components"
)

// SpawnRequest describes an agent to create.
type SpawnRequest struct {
	Species  components.Species
	Pos      components.Position
	Energy   float64
	ParentID uint32 // 0 for the initial population
	Active   bool
}

// Spawner creates agents: entity, grid placement and scheduling.
type Spawner interface {
	Spawn(req SpawnRequest) (ecs.Entity, error)
}

// EventSink receives per-action events for telemetry.
type EventSink interface {
	OnForage(e ecs.Entity, amount float64)
	OnKill(predator, prey ecs.Entity, gained float64)
	OnClean(e ecs.Entity, amount float64)
	OnDeath(e ecs.Entity, cause components.DeathCause)
}

// Env is everything an agent step may read or mutate.
//
// Component pointers obtained from the maps are invalidated when Spawn adds
// an entity. Re-fetch after spawning.
type Env struct {
	Grid      *SpatialGrid
	Field     *ResourceField
	Rng       *rand.Rand
	Traits    *components.TraitTable
	Positions *ecs.Map1[components.Position]
	Vitals    *ecs.Map1[components.Vitals]
	Organisms *ecs.Map1[components.Organism]
	Spawner   Spawner
	Events    EventSink
}

// Behavior is the per-species action set run once per tick for a live,
// active agent. Ageing and metabolism are applied by StepAgent afterwards.
type Behavior interface {
	Act(env *Env, e ecs.Entity)
}

var (
	preyBehavior     = PreyBehavior{}
	predatorBehavior = PredatorBehavior{}
	cleanerBehavior  = CleanerBehavior{}
)

// BehaviorFor returns the behaviour of species s.
func BehaviorFor(s components.Species) Behavior {
	switch s {
	case components.SpeciesPredator:
		return predatorBehavior
	case components.SpeciesCleaner:
		return cleanerBehavior
	default:
		return preyBehavior
	}
}

// StepAgent runs one tick for e: the species behaviour, then ageing and
// metabolism. Dead or inactive agents are left untouched.
func StepAgent(env *Env, e ecs.Entity) {
	org := env.Organisms.Get(e)
	species := org.Species
	traits := env.Traits.Of(species)

	v := env.Vitals.Get(e)
	if !v.Active || !v.Alive {
		return
	}
	if !v.Refresh(traits.MaxAge) {
		env.Events.OnDeath(e, v.Cause)
		return
	}

	BehaviorFor(species).Act(env, e)

	v = env.Vitals.Get(e)
	v.Age++
	v.Energy = max(v.Energy-traits.MetabolicRate, 0)
	if !v.Refresh(traits.MaxAge) {
		env.Events.OnDeath(e, v.Cause)
	}
}

// reproduce places a child with half the parent's energy in a random empty
// orthogonal neighbour. The child starts inactive.
func reproduce(env *Env, e ecs.Entity, species components.Species) bool {
	pos := *env.Positions.Get(e)
	target, err := env.Grid.FindRandomEmpty(pos, components.Orthogonal, env.Rng)
	if err != nil {
		return false
	}

	v := env.Vitals.Get(e)
	share := v.Energy / 2
	v.Energy -= share
	parent := env.Organisms.Get(e).ID

	_, err = env.Spawner.Spawn(SpawnRequest{
		Species:  species,
		Pos:      target,
		Energy:   share,
		ParentID: parent,
	})
	if err != nil {
		env.Vitals.Get(e).Energy += share
		return false
	}
	env.Organisms.Get(e).Children++
	return true
}

// canReproduce checks the age and energy gates, then draws against the
// species reproduction probability.
func canReproduce(env *Env, v *components.Vitals, t *components.Traits) bool {
	if v.Age <= t.MinReproductionAge || v.Energy <= t.ReproductionThreshold {
		return false
	}
	return env.Rng.Float64() < t.ReproductionProbability
}
