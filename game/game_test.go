package game

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/gridsoup/components"
	"github.com/pthm-cable/gridsoup/config"
	"github.com/pthm-cable/gridsoup/systems"
	"github.com/pthm-cable/gridsoup/telemetry"
)

func testConfig(t *testing.T, mutate func(*config.Config)) *config.Config {
	t.Helper()
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	if mutate != nil {
		mutate(cfg)
	}
	cfg.Recompute()
	return cfg
}

func newTestGame(t *testing.T, cfg *config.Config, seed int64) *Game {
	t.Helper()
	g, err := NewGameWithOptions(Options{Config: cfg, Seed: seed})
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

// checkInvariants fails if a cell is over capacity or a living agent has
// no energy or has outlived its species.
func checkInvariants(t *testing.T, g *Game) {
	t.Helper()
	for y := 0; y < g.grid.Height(); y++ {
		for x := 0; x < g.grid.Width(); x++ {
			p := components.Position{X: x, Y: y}
			if c := g.grid.Capacity(); c != systems.Unlimited && g.grid.Occupancy(p) > c {
				t.Fatalf("tick %d: cell %v holds %d agents", g.tick, p, g.grid.Occupancy(p))
			}
		}
	}
	query := g.agentFilter.Query()
	for query.Next() {
		_, v, org := query.Get()
		if !v.Alive {
			continue
		}
		maxAge := g.traits.Of(org.Species).MaxAge
		if v.Energy <= 0 || (maxAge > 0 && v.Age >= maxAge) {
			query.Close()
			t.Fatalf("tick %d: live agent %d has energy %v age %d", g.tick, org.ID, v.Energy, v.Age)
		}
	}
}

func TestInitialPopulation(t *testing.T) {
	g := newTestGame(t, testConfig(t, nil), 1)
	cfg := g.cfg
	if got := g.Population(components.SpeciesPrey); got != cfg.Population.Prey {
		t.Errorf("prey = %d, want %d", got, cfg.Population.Prey)
	}
	if got := g.Population(components.SpeciesPredator); got != cfg.Population.Predators {
		t.Errorf("predators = %d, want %d", got, cfg.Population.Predators)
	}
	if g.grid.Len() != cfg.Population.Total() {
		t.Errorf("grid holds %d agents, want %d", g.grid.Len(), cfg.Population.Total())
	}
	snap := g.Snapshot()
	if snap.Count(systems.CellPrey) != cfg.Population.Prey || snap.Count(systems.CellPredator) != cfg.Population.Predators {
		t.Errorf("snapshot counts prey=%d predators=%d", snap.Count(systems.CellPrey), snap.Count(systems.CellPredator))
	}
	if got, want := g.Snapshot().Count(systems.CellEmpty), cfg.World.Width*cfg.World.Height-cfg.Population.Total(); got != want {
		t.Errorf("empty cells = %d, want %d", got, want)
	}
	if !g.Snapshot().Equal(snap) {
		t.Error("two snapshots of the same tick differ")
	}
	checkInvariants(t, g)
}

func TestInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero width", func(c *config.Config) { c.World.Width = 0 }},
		{"negative height", func(c *config.Config) { c.World.Height = -3 }},
		{"population exceeds grid", func(c *config.Config) {
			c.World.Width, c.World.Height = 3, 3
			c.Population.Prey, c.Population.Predators = 8, 2
		}},
		{"bad activation", func(c *config.Config) { c.Scheduler.Activation = "sometimes" }},
		{"seeded prey without energy", func(c *config.Config) {
			c.Population.Prey = 3
			c.Species.Prey.InitialEnergy = 0
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGameWithOptions(Options{Config: testConfig(t, tt.mutate), Seed: 1})
			if !errors.Is(err, config.ErrInvalidConfiguration) {
				t.Fatalf("got %v, want ErrInvalidConfiguration", err)
			}
			if g != nil {
				t.Error("a game was built from an invalid configuration")
			}
		})
	}
}

func TestPreyStarvesByTickFour(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.World.Width, c.World.Height = 10, 10
		c.Population = config.PopulationConfig{Prey: 1}
		c.Resource.InitialFill = 0
		c.Resource.GrowthRate = 0
		c.Species.Prey.InitialEnergy = 10
		c.Species.Prey.MetabolicRate = 3
	})
	g := newTestGame(t, cfg, 5)

	for i := 0; i < 3; i++ {
		g.Step()
		if g.Population(components.SpeciesPrey) != 1 {
			t.Fatalf("prey died at tick %d", g.Tick())
		}
	}
	g.Step()
	if g.Population(components.SpeciesPrey) != 0 {
		t.Fatal("prey alive after tick 4")
	}

	before := g.Snapshot()
	if before.Count(systems.CellPrey) != 0 {
		t.Error("dead prey shown in snapshot")
	}
	g.Step()
	if g.grid.Len() != 0 {
		t.Errorf("dead prey not cleaned up: %d agents on grid", g.grid.Len())
	}
	if g.scheduler.Len() != 0 {
		t.Errorf("dead prey still scheduled")
	}
}

func TestNewbornsWaitOneTick(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.World.Width, c.World.Height = 12, 12
		c.Population = config.PopulationConfig{Prey: 10}
		c.Species.Prey.MinReproductionAge = 0
		c.Species.Prey.ReproductionThreshold = 5
		c.Species.Prey.ReproductionProbability = 1
		c.Species.Prey.MetabolicRate = 1
		c.Species.Prey.InitialEnergy = 20
	})
	g := newTestGame(t, cfg, 9)

	births := 0
	for i := 0; i < 6; i++ {
		g.Step()
		justRan := g.Tick() - 1
		query := g.agentFilter.Query()
		for query.Next() {
			_, v, org := query.Get()
			switch {
			case org.ParentID != 0 && org.Born == justRan:
				births++
				if v.Active || v.Age != 0 {
					t.Errorf("tick %d: newborn %d active=%v age=%d", justRan, org.ID, v.Active, v.Age)
				}
			case org.ParentID != 0 && org.Born == justRan-1:
				if !v.Active || v.Age != 1 {
					t.Errorf("tick %d: agent %d born last tick has active=%v age=%d", justRan, org.ID, v.Active, v.Age)
				}
			}
		}
	}
	if births == 0 {
		t.Fatal("no births happened")
	}
}

func TestInvariantsHoldOverRun(t *testing.T) {
	g := newTestGame(t, testConfig(t, nil), 3)
	for i := 0; i < 80 && !g.IsFinished(); i++ {
		g.Step()
		checkInvariants(t, g)
	}
}

func TestDeterminismForFixedSeed(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Telemetry.KeepHistory = true
		c.Resource.Patchiness = 0.5
	})
	a := newTestGame(t, cfg, 77)
	b := newTestGame(t, cfg.Clone(), 77)
	a.Run(60)
	b.Run(60)

	ha, hb := a.History(), b.History()
	if len(ha) == 0 || len(ha) != len(hb) {
		t.Fatalf("history lengths %d and %d", len(ha), len(hb))
	}
	for i := range ha {
		if !ha[i].Equal(hb[i]) {
			t.Fatalf("snapshots diverge at tick %d", ha[i].Tick)
		}
	}
}

func TestIsFinished(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		steps  int
		want   bool
	}{
		{"max ticks reached", func(c *config.Config) {
			c.Termination = config.TerminationConfig{MaxTicks: 3}
		}, 3, true},
		{"max ticks not reached", func(c *config.Config) {
			c.Termination = config.TerminationConfig{MaxTicks: 3}
		}, 2, false},
		{"grid full", func(c *config.Config) {
			c.World.Width, c.World.Height = 2, 2
			c.Population = config.PopulationConfig{Prey: 4}
			c.Termination = config.TerminationConfig{StopWhenFull: true}
		}, 0, true},
		{"field depleted", func(c *config.Config) {
			c.Resource.InitialFill, c.Resource.GrowthRate = 0, 0
			c.Termination = config.TerminationConfig{StopWhenFieldDepleted: true}
		}, 0, true},
		{"predators extinct", func(c *config.Config) {
			c.Population = config.PopulationConfig{Predators: 1}
			c.Species.Predator.InitialEnergy = 1
			c.Termination = config.TerminationConfig{StopOnExtinction: true}
		}, 1, true},
		{"no condition enabled", func(c *config.Config) {
			c.Termination = config.TerminationConfig{}
		}, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, testConfig(t, tt.mutate), 1)
			for i := 0; i < tt.steps; i++ {
				g.Step()
			}
			if got := g.IsFinished(); got != tt.want {
				t.Errorf("IsFinished = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestObserversAndHistoryLimit(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Telemetry.KeepHistory = true
		c.Telemetry.HistoryLimit = 5
		c.Termination = config.TerminationConfig{}
	})
	g := newTestGame(t, cfg, 2)
	var seen []int
	g.AddObserver(func(s systems.Snapshot) { seen = append(seen, s.Tick) })

	for i := 0; i < 10; i++ {
		g.Step()
	}
	if len(seen) != 10 || seen[0] != 0 || seen[9] != 9 {
		t.Errorf("observer saw ticks %v", seen)
	}
	h := g.History()
	if len(h) != 5 || h[0].Tick != 5 || h[4].Tick != 9 {
		t.Errorf("history holds %d snapshots", len(h))
	}
}

func TestCleanerVariant(t *testing.T) {
	cfg, err := config.Load("../configs/cleaner.yaml")
	if err != nil {
		t.Fatal(err)
	}
	g := newTestGame(t, cfg, 4)

	start := g.DirtyPercentage()
	if math.Abs(start-40) > 1e-9 {
		t.Fatalf("initial dirty percentage = %v, want 40", start)
	}
	g.Run(0)

	if !g.IsFinished() || g.Tick() > cfg.Termination.MaxTicks {
		t.Fatalf("run stopped at tick %d, finished=%v", g.Tick(), g.IsFinished())
	}
	if g.Tick() < cfg.Termination.MaxTicks && !g.Field().AllEmpty() {
		t.Error("run ended early with dirt left")
	}
	if g.DirtyPercentage() >= start {
		t.Errorf("dirty percentage %v did not fall from %v", g.DirtyPercentage(), start)
	}
	if g.Population(components.SpeciesCleaner) != 4 {
		t.Errorf("cleaners = %d, want 4", g.Population(components.SpeciesCleaner))
	}
	moves := 0
	for _, m := range g.MoveCounts() {
		moves += m
	}
	if moves == 0 {
		t.Error("no cleaner moved")
	}
	codes := g.Snapshot().Codes(true)
	if len(codes) != cfg.World.Width || len(codes[0]) != cfg.World.Height {
		t.Errorf("codes grid %dx%d", len(codes), len(codes[0]))
	}
}

func TestTelemetryOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	cfg := testConfig(t, func(c *config.Config) {
		c.Telemetry.StatsWindow = 10
		c.Termination = config.TerminationConfig{}
	})
	var windows []telemetry.WindowStats
	g, err := NewGameWithOptions(Options{
		Config:        cfg,
		Seed:          8,
		OutputDir:     dir,
		StatsCallback: func(s telemetry.WindowStats) { windows = append(windows, s) },
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		g.Step()
	}
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}

	if len(windows) != 2 || windows[1].WindowEndTick != 20 {
		t.Fatalf("got %d windows", len(windows))
	}
	if g.Stats().WindowEndTick != 20 {
		t.Errorf("latest stats end at %d", g.Stats().WindowEndTick)
	}

	lines := func(name string) int {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		return len(strings.Split(strings.TrimSpace(string(data)), "\n"))
	}
	if n := lines("population.csv"); n != 21 {
		t.Errorf("population.csv has %d lines, want 21", n)
	}
	if n := lines("telemetry.csv"); n != 3 {
		t.Errorf("telemetry.csv has %d lines, want 3", n)
	}
	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}

func TestAgentsAt(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.World.Width, c.World.Height = 1, 1
		c.Population = config.PopulationConfig{Predators: 1}
	})
	g := newTestGame(t, cfg, 1)

	agents := g.AgentsAt(components.Position{})
	if len(agents) != 1 {
		t.Fatalf("got %d agents", len(agents))
	}
	a := agents[0]
	if a.ID != 1 || a.Species != components.SpeciesPredator || a.Energy != cfg.Species.Predator.InitialEnergy || !a.Alive {
		t.Errorf("agent = %+v", a)
	}
	if got := g.AgentsAt(components.Position{X: 3}); len(got) != 0 {
		t.Errorf("off-grid cell returned %v", got)
	}
}
