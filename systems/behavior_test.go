package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridsoup/components"
)

func TestPreyEatStopsAtCapacity(t *testing.T) {
	tw := newTestWorld(t, 3, 3, GridOptions{Capacity: 1}, 1)
	e := tw.add(t, components.SpeciesPrey, 1, 1, 44)
	p := components.Position{X: 1, Y: 1}
	_ = tw.field.Deposit(p, 10)

	preyEat(tw.env, e, tw.traits.Of(components.SpeciesPrey))

	if got := tw.vitals(e).Energy; got != 45 {
		t.Errorf("energy = %v, want 45", got)
	}
	if got, _ := tw.field.At(p); got != 9 {
		t.Errorf("field = %v, want 9", got)
	}
	if tw.foraged != 1 {
		t.Errorf("foraged = %v, want 1", tw.foraged)
	}
}

func TestPreyEatTakesWholeCellBelowCapacity(t *testing.T) {
	tw := newTestWorld(t, 3, 3, GridOptions{Capacity: 1}, 1)
	e := tw.add(t, components.SpeciesPrey, 0, 0, 10)
	_ = tw.field.Deposit(components.Position{}, 20)

	preyEat(tw.env, e, tw.traits.Of(components.SpeciesPrey))

	if got := tw.vitals(e).Energy; got != 30 {
		t.Errorf("energy = %v, want 30", got)
	}
	if got, _ := tw.field.At(components.Position{}); got != 0 {
		t.Errorf("field = %v, want 0", got)
	}
}

func TestPreyStarvesWithoutFood(t *testing.T) {
	tw := newTestWorld(t, 10, 10, GridOptions{Capacity: 1}, 1)
	e := tw.add(t, components.SpeciesPrey, 5, 5, 10)

	for tick := 1; tick <= 4; tick++ {
		StepAgent(tw.env, e)
		if tick < 4 && !tw.vitals(e).Alive {
			t.Fatalf("prey died early at tick %d", tick)
		}
	}
	v := tw.vitals(e)
	if v.Alive || v.Cause != components.CauseStarvation {
		t.Fatalf("prey should have starved by tick 4, got %+v", *v)
	}
	if v.Energy < 0 {
		t.Errorf("energy went negative: %v", v.Energy)
	}

	pos := tw.pos(e)
	age := v.Age
	StepAgent(tw.env, e)
	if tw.pos(e) != pos || tw.vitals(e).Age != age {
		t.Error("dead agent acted")
	}
	if tw.deaths[components.CauseStarvation] != 1 {
		t.Errorf("starvation deaths = %d, want 1", tw.deaths[components.CauseStarvation])
	}
}

func TestInactiveAgentDoesNotAct(t *testing.T) {
	tw := newTestWorld(t, 5, 5, GridOptions{Capacity: 1}, 1)
	e, err := tw.Spawn(SpawnRequest{Species: components.SpeciesPrey, Pos: components.Position{X: 2, Y: 2}, Energy: 10})
	if err != nil {
		t.Fatal(err)
	}
	StepAgent(tw.env, e)
	v := tw.vitals(e)
	if v.Age != 0 || v.Energy != 10 || tw.pos(e) != (components.Position{X: 2, Y: 2}) {
		t.Errorf("inactive agent changed: %+v at %v", *v, tw.pos(e))
	}
}

func TestPreyReproduction(t *testing.T) {
	tw := newTestWorld(t, 5, 5, GridOptions{Capacity: 1}, 1)
	tw.traits[components.SpeciesPrey].ReproductionProbability = 1
	tw.traits[components.SpeciesPrey].MetabolicRate = 0
	parent := tw.add(t, components.SpeciesPrey, 2, 2, 44)
	tw.vitals(parent).Age = 11

	StepAgent(tw.env, parent)

	if tw.births != 1 {
		t.Fatalf("births = %d, want 1", tw.births)
	}
	if tw.sched.Len() != 2 {
		t.Fatalf("scheduled agents = %d, want 2", tw.sched.Len())
	}
	child := tw.sched.Agents(nil)[1]
	cv := tw.vitals(child)
	if cv.Active {
		t.Error("newborn should be inactive")
	}
	if cv.Energy != 22 || tw.vitals(parent).Energy != 22 {
		t.Errorf("energy split parent=%v child=%v, want 22/22", tw.vitals(parent).Energy, cv.Energy)
	}
	pp, cp := tw.pos(parent), tw.pos(child)
	if abs(pp.X-cp.X)+abs(pp.Y-cp.Y) != 1 {
		t.Errorf("child at %v is not an orthogonal neighbour of %v", cp, pp)
	}
	if tw.env.Organisms.Get(child).ParentID != tw.env.Organisms.Get(parent).ID {
		t.Error("child parent id not recorded")
	}
	tw.checkOccupancy(t)
}

func TestPredatorNearby(t *testing.T) {
	tests := []struct {
		name    string
		px, py  int
		conn    components.Connectivity
		kill    bool
		blocked bool
	}{
		{"orthogonal predator blocks", 2, 1, components.Orthogonal, false, true},
		{"diagonal predator ignored orthogonally", 1, 1, components.Orthogonal, false, false},
		{"diagonal predator seen with moore", 1, 1, components.Moore, false, true},
		{"dead predator ignored", 2, 1, components.Orthogonal, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := newTestWorld(t, 5, 5, GridOptions{Capacity: 1}, 1)
			tw.add(t, components.SpeciesPrey, 2, 2, 44)
			pred := tw.add(t, components.SpeciesPredator, tt.px, tt.py, 100)
			if tt.kill {
				tw.vitals(pred).Kill(components.CauseAge)
			}
			got := predatorNearby(tw.env, components.Position{X: 2, Y: 2}, tt.conn)
			if got != tt.blocked {
				t.Errorf("predatorNearby = %v, want %v", got, tt.blocked)
			}
		})
	}
}

func TestPredatorPrefersEmptyCell(t *testing.T) {
	tw := newTestWorld(t, 3, 1, GridOptions{Capacity: 1}, 1)
	pred := tw.add(t, components.SpeciesPredator, 1, 0, 100)
	prey := tw.add(t, components.SpeciesPrey, 0, 0, 10)

	predatorMove(tw.env, pred, tw.traits.Of(components.SpeciesPredator))

	if got := tw.pos(pred); got != (components.Position{X: 2, Y: 0}) {
		t.Errorf("predator at %v, want (2,0)", got)
	}
	if !tw.vitals(prey).Alive {
		t.Error("prey should survive when an empty cell was available")
	}
}

func TestPredatorEatsWhenBoxedIn(t *testing.T) {
	tw := newTestWorld(t, 2, 1, GridOptions{Capacity: 1}, 1)
	pred := tw.add(t, components.SpeciesPredator, 1, 0, 190)
	prey := tw.add(t, components.SpeciesPrey, 0, 0, 10)

	predatorMove(tw.env, pred, tw.traits.Of(components.SpeciesPredator))

	if tw.vitals(prey).Alive || tw.vitals(prey).Cause != components.CauseEaten {
		t.Fatalf("prey should be eaten, got %+v", *tw.vitals(prey))
	}
	if got := tw.vitals(pred).Energy; got != 200 {
		t.Errorf("predator energy = %v, want capped 200", got)
	}
	if got := tw.pos(pred); got != (components.Position{}) {
		t.Errorf("predator at %v, want (0,0)", got)
	}
	if _, placed := tw.grid.Where(prey); placed {
		t.Error("eaten prey still on the grid")
	}
	if tw.kills != 1 || tw.env.Organisms.Get(pred).Kills != 1 {
		t.Errorf("kills = %d", tw.kills)
	}
	tw.checkOccupancy(t)
}

func TestSatedPredatorDoesNotAttack(t *testing.T) {
	tw := newTestWorld(t, 2, 1, GridOptions{Capacity: 1}, 1)
	pred := tw.add(t, components.SpeciesPredator, 1, 0, 200)
	prey := tw.add(t, components.SpeciesPrey, 0, 0, 10)

	predatorMove(tw.env, pred, tw.traits.Of(components.SpeciesPredator))

	if !tw.vitals(prey).Alive {
		t.Error("sated predator attacked")
	}
	if got := tw.pos(pred); got != (components.Position{X: 1, Y: 0}) {
		t.Errorf("predator moved to %v", got)
	}
}

func TestFirstPredatorWinsContestedPrey(t *testing.T) {
	tw := newTestWorld(t, 3, 1, GridOptions{Capacity: 1}, 1)
	a := tw.add(t, components.SpeciesPredator, 0, 0, 100)
	tw.add(t, components.SpeciesPrey, 1, 0, 10)
	b := tw.add(t, components.SpeciesPredator, 2, 0, 100)

	predatorMove(tw.env, a, tw.traits.Of(components.SpeciesPredator))
	predatorMove(tw.env, b, tw.traits.Of(components.SpeciesPredator))

	if tw.kills != 1 {
		t.Fatalf("kills = %d, want 1", tw.kills)
	}
	if tw.vitals(a).Energy != 130 || tw.vitals(b).Energy != 100 {
		t.Errorf("energies a=%v b=%v, want 130/100", tw.vitals(a).Energy, tw.vitals(b).Energy)
	}
}

func TestCleanerCleansThenMoves(t *testing.T) {
	tw := newTestWorld(t, 4, 4, GridOptions{Toroidal: true, Capacity: Unlimited}, 1)
	e := tw.add(t, components.SpeciesCleaner, 1, 1, 1)
	p := components.Position{X: 1, Y: 1}
	_ = tw.field.Deposit(p, 1)

	StepAgent(tw.env, e)
	if got, _ := tw.field.At(p); got != 0 {
		t.Errorf("cell not cleaned: %v", got)
	}
	if tw.pos(e) != p {
		t.Error("cleaner moved while cleaning")
	}
	if tw.cleaned != 1 {
		t.Errorf("cleaned = %v, want 1", tw.cleaned)
	}

	StepAgent(tw.env, e)
	if tw.pos(e) == p {
		t.Error("cleaner should move off a clean cell on a torus")
	}
	org := tw.env.Organisms.Get(e)
	if org.Moves != 1 {
		t.Errorf("moves = %d, want 1", org.Moves)
	}
	if !tw.vitals(e).Alive {
		t.Error("cleaner should not die")
	}
}

func TestOccupancyHoldsOverManyTicks(t *testing.T) {
	tw := newTestWorld(t, 8, 8, GridOptions{Capacity: 1}, 11)
	tw.traits[components.SpeciesPrey].ReproductionProbability = 1
	tw.field.Fill(20)
	for i := 0; i < 8; i++ {
		tw.add(t, components.SpeciesPrey, i, 0, 30)
		tw.add(t, components.SpeciesPredator, i, 7, 150)
	}

	for tick := 0; tick < 30; tick++ {
		// Activate newborns from the previous tick, then run everyone.
		for _, e := range tw.sched.Agents(nil) {
			tw.vitals(e).Active = true
		}
		tw.sched.Step(tw.env.Rng, func(e ecs.Entity) { StepAgent(tw.env, e) })
		tw.field.GrowAll(1)
		tw.checkOccupancy(t)
		for _, e := range tw.sched.Agents(nil) {
			if tw.vitals(e).Energy < 0 {
				t.Fatalf("negative energy at tick %d", tick)
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
