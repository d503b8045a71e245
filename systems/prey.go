package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridsoup/components"
)

// PreyBehavior wanders, grazes the field and breeds when no predator is near.
type PreyBehavior struct{}

func (PreyBehavior) Act(env *Env, e ecs.Entity) {
	t := env.Traits.Of(components.SpeciesPrey)

	preyMove(env, e, t)
	preyEat(env, e, t)

	v := env.Vitals.Get(e)
	if canReproduce(env, v, t) && !predatorNearby(env, *env.Positions.Get(e), t.Sense) {
		reproduce(env, e, components.SpeciesPrey)
	}
}

func preyMove(env *Env, e ecs.Entity, t *components.Traits) {
	pos := *env.Positions.Get(e)
	target, err := env.Grid.FindRandomEmpty(pos, t.Move, env.Rng)
	if err != nil {
		return
	}
	if err := env.Grid.Move(e, target); err != nil {
		return
	}
	env.Organisms.Get(e).Moves++
}

// preyEat takes everything on the current cell and writes back whatever
// overflows the prey's capacity.
func preyEat(env *Env, e ecs.Entity, t *components.Traits) {
	v := env.Vitals.Get(e)
	if v.Energy >= t.Capacity {
		return
	}
	pos := *env.Positions.Get(e)
	avail, err := env.Field.At(pos)
	if err != nil || avail <= 0 {
		return
	}
	taken, err := env.Field.Consume(pos, avail)
	if err != nil {
		return
	}
	v.Energy += taken
	if over := v.Energy - t.Capacity; over > 0 {
		v.Energy = t.Capacity
		taken -= over
		// Consume succeeded on pos, so the write-back cannot fail.
		_ = env.Field.Deposit(pos, over)
	}
	env.Events.OnForage(e, taken)
}

// predatorNearby reports whether a live predator occupies a cell in the
// given neighbourhood of p.
func predatorNearby(env *Env, p components.Position, conn components.Connectivity) bool {
	for _, other := range env.Grid.Neighbors(p, conn, false) {
		if env.Organisms.Get(other).Species != components.SpeciesPredator {
			continue
		}
		if env.Vitals.Get(other).Alive {
			return true
		}
	}
	return false
}
