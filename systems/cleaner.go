package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridsoup/components"
)

// CleanerBehavior cleans its cell when dirty, otherwise takes one random step.
type CleanerBehavior struct{}

func (CleanerBehavior) Act(env *Env, e ecs.Entity) {
	t := env.Traits.Of(components.SpeciesCleaner)
	pos := *env.Positions.Get(e)

	if dirt, err := env.Field.At(pos); err == nil && dirt > 0 {
		cleaned, err := env.Field.Consume(pos, dirt)
		if err == nil {
			env.Events.OnClean(e, cleaned)
		}
		return
	}

	offsets := t.Move.Offsets()
	target := pos.Add(offsets[env.Rng.Intn(len(offsets))])
	if err := env.Grid.Move(e, target); err != nil {
		return
	}
	env.Organisms.Get(e).Moves++
}
