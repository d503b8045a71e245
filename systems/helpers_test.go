package systems

import (
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridsoup/components"
	"github.com/pthm-cable/gridsoup/config"
)

func init() {
	config.MustInit("")
}

// testWorld is a minimal engine: it wires an ECS world to a grid, field and
// scheduler and records events.
type testWorld struct {
	world  *ecs.World
	mapper *ecs.Map3[components.Position, components.Vitals, components.Organism]
	grid   *SpatialGrid
	field  *ResourceField
	sched  *Scheduler
	traits components.TraitTable
	env    *Env
	nextID uint32

	births  int
	kills   int
	deaths  map[components.DeathCause]int
	foraged float64
	cleaned float64
}

func newTestWorld(t *testing.T, w, h int, opts GridOptions, seed int64) *testWorld {
	t.Helper()
	traits, err := components.TraitTableFromConfig(config.Cfg())
	if err != nil {
		t.Fatal(err)
	}
	world := ecs.NewWorld()
	posMap := ecs.NewMap1[components.Position](world)
	tw := &testWorld{
		world:  world,
		mapper: ecs.NewMap3[components.Position, components.Vitals, components.Organism](world),
		grid:   NewSpatialGrid(w, h, opts, posMap),
		field:  NewResourceField(w, h, 0),
		sched:  NewScheduler(ActivateRandom, nil),
		traits: traits,
		deaths: make(map[components.DeathCause]int),
	}
	tw.env = &Env{
		Grid:      tw.grid,
		Field:     tw.field,
		Rng:       rand.New(rand.NewSource(seed)),
		Traits:    &tw.traits,
		Positions: posMap,
		Vitals:    ecs.NewMap1[components.Vitals](world),
		Organisms: ecs.NewMap1[components.Organism](world),
		Spawner:   tw,
		Events:    tw,
	}
	return tw
}

func (tw *testWorld) Spawn(req SpawnRequest) (ecs.Entity, error) {
	tw.nextID++
	pos := req.Pos
	vit := components.Vitals{Energy: req.Energy, Alive: true, Active: req.Active}
	org := components.Organism{ID: tw.nextID, Species: req.Species, ParentID: req.ParentID}
	e := tw.mapper.NewEntity(&pos, &vit, &org)
	if err := tw.grid.Place(e, req.Pos); err != nil {
		tw.world.RemoveEntity(e)
		return ecs.Entity{}, err
	}
	tw.sched.Add(e, req.Species)
	if req.ParentID != 0 {
		tw.births++
	}
	return e, nil
}

func (tw *testWorld) OnForage(e ecs.Entity, amount float64)             { tw.foraged += amount }
func (tw *testWorld) OnKill(pred, prey ecs.Entity, gained float64)      { tw.kills++; tw.deaths[components.CauseEaten]++ }
func (tw *testWorld) OnClean(e ecs.Entity, amount float64)              { tw.cleaned += amount }
func (tw *testWorld) OnDeath(e ecs.Entity, cause components.DeathCause) { tw.deaths[cause]++ }

// add places an active agent with the given energy.
func (tw *testWorld) add(t *testing.T, sp components.Species, x, y int, energy float64) ecs.Entity {
	t.Helper()
	e, err := tw.Spawn(SpawnRequest{Species: sp, Pos: components.Position{X: x, Y: y}, Energy: energy, Active: true})
	if err != nil {
		t.Fatalf("spawn %v at (%d,%d): %v", sp, x, y, err)
	}
	return e
}

func (tw *testWorld) vitals(e ecs.Entity) *components.Vitals {
	return tw.env.Vitals.Get(e)
}

func (tw *testWorld) pos(e ecs.Entity) components.Position {
	return *tw.env.Positions.Get(e)
}

// checkOccupancy fails if any cell holds more agents than the grid allows or
// an agent's stored position disagrees with the grid.
func (tw *testWorld) checkOccupancy(t *testing.T) {
	t.Helper()
	for i, cell := range tw.grid.cells {
		if tw.grid.capacity != Unlimited && len(cell) > tw.grid.capacity {
			t.Fatalf("cell %v holds %d agents", tw.grid.position(i), len(cell))
		}
		for _, e := range cell {
			if got := tw.pos(e); got != tw.grid.position(i) {
				t.Fatalf("agent position %v, grid cell %v", got, tw.grid.position(i))
			}
		}
	}
}

func (tw *testWorld) entityCount() int {
	query := ecs.NewFilter1[components.Organism](tw.world).Query()
	n := 0
	for query.Next() {
		n++
	}
	return n
}
