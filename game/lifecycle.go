package game

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridsoup/components"
	"github.com/pthm-cable/gridsoup/systems"
	"github.com/pthm-cable/gridsoup/telemetry"
)

// spawnInitialPopulation places predators, then prey, then cleaners on cells
// drawn from a random permutation of the lattice. On multi-occupancy grids
// the permutation is walked again once every cell holds an agent.
func (g *Game) spawnInitialPopulation() error {
	cells := g.rng.Perm(g.grid.Width() * g.grid.Height())
	next := 0

	freeCell := func() (components.Position, error) {
		for range cells {
			idx := cells[next%len(cells)]
			next++
			p := components.Position{X: idx % g.grid.Width(), Y: idx / g.grid.Width()}
			if g.grid.HasRoom(p) {
				return p, nil
			}
		}
		return components.Position{}, systems.ErrNoneAvailable
	}

	pop := g.cfg.Population
	batches := []struct {
		species components.Species
		count   int
	}{
		{components.SpeciesPredator, pop.Predators},
		{components.SpeciesPrey, pop.Prey},
		{components.SpeciesCleaner, pop.Cleaners},
	}
	for _, b := range batches {
		energy := g.traits.Of(b.species).InitialEnergy
		for i := 0; i < b.count; i++ {
			p, err := freeCell()
			if err != nil {
				return fmt.Errorf("placing %s %d of %d: %w", b.species, i+1, b.count, err)
			}
			if _, err := g.Spawn(systems.SpawnRequest{
				Species: b.species,
				Pos:     p,
				Energy:  energy,
				Active:  true,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Spawn creates an agent, places it on the grid and registers it with the
// scheduler. If the cell has no room no entity is left behind.
func (g *Game) Spawn(req systems.SpawnRequest) (ecs.Entity, error) {
	id := g.nextID + 1
	pos := req.Pos
	vitals := components.Vitals{Energy: req.Energy, Alive: true, Active: req.Active}
	org := components.Organism{
		ID:       id,
		Species:  req.Species,
		ParentID: req.ParentID,
		Born:     g.tick,
	}

	entity := g.agentMapper.NewEntity(&pos, &vitals, &org)
	if err := g.grid.Place(entity, req.Pos); err != nil {
		g.world.RemoveEntity(entity)
		return ecs.Entity{}, err
	}
	g.nextID = id
	g.scheduler.Add(entity, req.Species)
	g.population[req.Species]++

	g.lifetime.Register(id, g.tick, req.Species, req.ParentID)
	g.lifetime.UpdateEnergy(id, req.Energy)
	if req.ParentID != 0 {
		g.lifetime.RecordChild(req.ParentID)
		g.collector.Record(telemetry.NewBirthEvent(g.tick, id, req.ParentID, req.Species))
	}
	return entity, nil
}

// cleanupDead removes every agent that is no longer alive from the grid,
// the scheduler and the world.
func (g *Game) cleanupDead() {
	// Collect first; the world cannot change while a query is open.
	type deadInfo struct {
		entity ecs.Entity
		id     uint32
	}
	var toRemove []deadInfo

	query := g.agentFilter.Query()
	for query.Next() {
		_, vitals, org := query.Get()
		if !vitals.Alive {
			toRemove = append(toRemove, deadInfo{entity: query.Entity(), id: org.ID})
		}
	}

	for _, dead := range toRemove {
		g.grid.Remove(dead.entity)
		g.scheduler.Remove(dead.entity)
		g.lifetime.Remove(dead.id)
		g.world.RemoveEntity(dead.entity)
	}
}

// activateNewborns makes agents created last tick eligible to act.
func (g *Game) activateNewborns() {
	query := g.agentFilter.Query()
	for query.Next() {
		_, vitals, _ := query.Get()
		if vitals.Alive {
			vitals.Active = true
		}
	}
}

// OnForage records resource eaten by prey.
func (g *Game) OnForage(e ecs.Entity, amount float64) {
	id := g.orgMap.Get(e).ID
	g.lifetime.RecordForage(id, amount)
	g.collector.Record(telemetry.NewForageEvent(g.tick, id, amount))
}

// OnClean records dirt removed by a cleaner.
func (g *Game) OnClean(e ecs.Entity, amount float64) {
	id := g.orgMap.Get(e).ID
	g.lifetime.RecordForage(id, amount)
	g.collector.Record(telemetry.NewCleanEvent(g.tick, id, amount))
}

// OnKill records a predator eating prey. The prey's death is counted here.
func (g *Game) OnKill(predator, prey ecs.Entity, gained float64) {
	predOrg := g.orgMap.Get(predator)
	preyOrg := g.orgMap.Get(prey)
	g.lifetime.RecordKill(predOrg.ID)
	g.lifetime.UpdateEnergy(predOrg.ID, g.vitalsMap.Get(predator).Energy)
	g.collector.Record(telemetry.NewKillEvent(g.tick, predOrg.ID, preyOrg.ID, gained))
	g.recordDeath(prey, components.CauseEaten)
}

// OnDeath records death by age or starvation.
func (g *Game) OnDeath(e ecs.Entity, cause components.DeathCause) {
	g.recordDeath(e, cause)
}

func (g *Game) recordDeath(e ecs.Entity, cause components.DeathCause) {
	org := g.orgMap.Get(e)
	g.population[org.Species]--
	g.collector.Record(telemetry.NewDeathEvent(g.tick, org.ID, org.Species, g.vitalsMap.Get(e).Age, cause))
}
