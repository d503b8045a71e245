package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridsoup/components"
)

// PredatorBehavior roams orthogonally, eats adjacent prey and breeds.
type PredatorBehavior struct{}

func (PredatorBehavior) Act(env *Env, e ecs.Entity) {
	t := env.Traits.Of(components.SpeciesPredator)

	predatorMove(env, e, t)

	v := env.Vitals.Get(e)
	if canReproduce(env, v, t) {
		reproduce(env, e, components.SpeciesPredator)
	}
}

type huntTarget struct {
	pos     components.Position
	prey    ecs.Entity
	hasPrey bool
}

func predatorMove(env *Env, e ecs.Entity, t *components.Traits) {
	pos := *env.Positions.Get(e)

	var cellsBuf [8]components.Position
	var empty, prey [8]huntTarget
	nEmpty, nPrey := 0, 0
	for _, c := range env.Grid.Neighborhood(cellsBuf[:0], pos, t.Move, false) {
		occupants := env.Grid.At(c)
		if len(occupants) == 0 {
			empty[nEmpty] = huntTarget{pos: c}
			nEmpty++
			continue
		}
		if victim, ok := firstPrey(env, occupants); ok {
			prey[nPrey] = huntTarget{pos: c, prey: victim, hasPrey: true}
			nPrey++
		}
	}

	var choice huntTarget
	switch {
	case t.Hunt == components.HuntUniform:
		n := nEmpty + nPrey
		if n == 0 {
			return
		}
		i := env.Rng.Intn(n)
		if i < nEmpty {
			choice = empty[i]
		} else {
			choice = prey[i-nEmpty]
		}
	case nEmpty > 0:
		choice = empty[env.Rng.Intn(nEmpty)]
	case nPrey > 0:
		choice = prey[env.Rng.Intn(nPrey)]
	default:
		return
	}

	if !choice.hasPrey {
		if env.Grid.Move(e, choice.pos) == nil {
			env.Organisms.Get(e).Moves++
		}
		return
	}
	attack(env, e, t, choice)
}

// firstPrey returns the first prey among occupants.
func firstPrey(env *Env, occupants []ecs.Entity) (ecs.Entity, bool) {
	for _, o := range occupants {
		if env.Organisms.Get(o).Species == components.SpeciesPrey {
			return o, true
		}
	}
	return ecs.Entity{}, false
}

// attack eats the prey at target and moves into its cell. A sated predator
// stays put. A prey that already died yields no energy but is still cleared.
func attack(env *Env, e ecs.Entity, t *components.Traits, target huntTarget) {
	v := env.Vitals.Get(e)
	if v.Energy >= t.Capacity {
		return
	}

	preyVitals := env.Vitals.Get(target.prey)
	if preyVitals.Alive {
		value := env.Traits.Of(components.SpeciesPrey).EnergyValue
		gained := min(value, t.Capacity-v.Energy)
		v.Energy += gained
		preyVitals.Kill(components.CauseEaten)
		env.Events.OnKill(e, target.prey, gained)
	}
	env.Grid.Remove(target.prey)

	if err := env.Grid.Move(e, target.pos); err == nil {
		org := env.Organisms.Get(e)
		org.Moves++
		org.Kills++
	}
}
