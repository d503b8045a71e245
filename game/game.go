package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gridsoup/components"
	"github.com/pthm-cable/gridsoup/config"
	"github.com/pthm-cable/gridsoup/systems"
	"github.com/pthm-cable/gridsoup/telemetry"
)

// Options configures a Game.
type Options struct {
	Config        *config.Config // nil uses config.Cfg()
	Seed          int64
	OutputDir     string // empty disables CSV output
	LogStats      bool
	StatsCallback func(telemetry.WindowStats)
}

// Observer receives every snapshot recorded at the start of a tick.
type Observer func(systems.Snapshot)

// Game owns the ECS world and runs the tick pipeline.
type Game struct {
	cfg *config.Config
	rng *rand.Rand

	world       *ecs.World
	agentMapper *ecs.Map3[components.Position, components.Vitals, components.Organism]
	agentFilter *ecs.Filter3[components.Position, components.Vitals, components.Organism]
	posMap      *ecs.Map1[components.Position]
	vitalsMap   *ecs.Map1[components.Vitals]
	orgMap      *ecs.Map1[components.Organism]

	grid      *systems.SpatialGrid
	field     *systems.ResourceField
	scheduler *systems.Scheduler
	traits    components.TraitTable
	env       *systems.Env
	stepAgent func(ecs.Entity)

	tick       int
	nextID     uint32
	population [components.NumSpecies]int

	history   []systems.Snapshot
	observers []Observer

	// Telemetry
	collector     *telemetry.Collector
	lifetime      *telemetry.LifetimeTracker
	bookmarks     *telemetry.BookmarkDetector
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	latestStats   telemetry.WindowStats
	logStats      bool
	statsCallback func(telemetry.WindowStats)
}

// NewGameWithOptions validates the configuration and builds a seeded world.
// An invalid configuration returns an error wrapping
// config.ErrInvalidConfiguration and no world is built.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	traits, err := components.TraitTableFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfiguration, err)
	}
	order := make([]components.Species, 0, len(cfg.Scheduler.SpeciesOrder))
	for _, name := range cfg.Scheduler.SpeciesOrder {
		sp, err := components.ParseSpecies(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfiguration, err)
		}
		order = append(order, sp)
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:         cfg,
		rng:         rand.New(rand.NewSource(opts.Seed)),
		world:       world,
		agentMapper: ecs.NewMap3[components.Position, components.Vitals, components.Organism](world),
		agentFilter: ecs.NewFilter3[components.Position, components.Vitals, components.Organism](world),
		posMap:      ecs.NewMap1[components.Position](world),
		vitalsMap:   ecs.NewMap1[components.Vitals](world),
		orgMap:      ecs.NewMap1[components.Organism](world),
		traits:      traits,
		scheduler:   systems.NewScheduler(systems.ParseActivation(cfg.Scheduler.Activation), order),

		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		lifetime:      telemetry.NewLifetimeTracker(),
		bookmarks:     telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks),
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}

	g.grid = systems.NewSpatialGrid(cfg.World.Width, cfg.World.Height, systems.GridOptions{
		Toroidal: cfg.World.Toroidal,
		Capacity: cfg.World.CellCapacity,
	}, g.posMap)
	g.field = systems.NewResourceFieldFromConfig(cfg.World.Width, cfg.World.Height, cfg.Resource, opts.Seed, g.rng)

	g.env = &systems.Env{
		Grid:      g.grid,
		Field:     g.field,
		Rng:       g.rng,
		Traits:    &g.traits,
		Positions: g.posMap,
		Vitals:    g.vitalsMap,
		Organisms: g.orgMap,
		Spawner:   g,
		Events:    g,
	}
	g.stepAgent = func(e ecs.Entity) { systems.StepAgent(g.env, e) }

	if err := g.spawnInitialPopulation(); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfiguration, err)
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.output = output
	if err := g.output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	g.logRunStart(opts.Seed)
	return g, nil
}

// Close flushes and closes telemetry output.
func (g *Game) Close() error {
	g.logRunEnd()
	return g.output.Close()
}

// AddObserver registers fn to receive each tick's snapshot.
func (g *Game) AddObserver(fn Observer) {
	g.observers = append(g.observers, fn)
}

// Config returns the configuration the game was built with.
func (g *Game) Config() *config.Config { return g.cfg }

// Tick returns the number of completed ticks.
func (g *Game) Tick() int { return g.tick }

// Grid returns the spatial index.
func (g *Game) Grid() *systems.SpatialGrid { return g.grid }

// Field returns the resource field.
func (g *Game) Field() *systems.ResourceField { return g.field }

// Population returns the number of living agents of species s.
func (g *Game) Population(s components.Species) int { return g.population[s] }

// Stats returns the most recent telemetry window.
func (g *Game) Stats() telemetry.WindowStats { return g.latestStats }

// Perf returns the rolling step timing.
func (g *Game) Perf() *telemetry.PerfCollector { return g.perf }

// Snapshot captures the current grid state.
func (g *Game) Snapshot() systems.Snapshot {
	return systems.TakeSnapshot(g.tick, g.grid, g.field, g.vitalsMap, g.orgMap)
}

// History returns the snapshots recorded at the start of each tick, oldest
// first. Empty unless telemetry.keep_history is set.
func (g *Game) History() []systems.Snapshot { return g.history }

// DirtyPercentage returns the share of cells with resource left, in percent.
func (g *Game) DirtyPercentage() float64 {
	return g.field.NonZeroFraction() * 100
}

// MoveCounts returns the move counter of every agent keyed by agent id.
func (g *Game) MoveCounts() map[uint32]int {
	counts := make(map[uint32]int)
	query := g.agentFilter.Query()
	for query.Next() {
		_, _, org := query.Get()
		counts[org.ID] = org.Moves
	}
	return counts
}

// IsFinished reports whether any enabled termination condition holds.
func (g *Game) IsFinished() bool {
	t := g.cfg.Termination
	switch {
	case t.MaxTicks > 0 && g.tick >= t.MaxTicks:
		return true
	case t.StopWhenFull && !g.grid.HasEmptyCells():
		return true
	case t.StopWhenFieldDepleted && g.field.AllEmpty():
		return true
	case t.StopOnExtinction && g.extinct():
		return true
	}
	return false
}

// extinct reports whether a species that was seeded has died out.
func (g *Game) extinct() bool {
	p := g.cfg.Population
	return (p.Prey > 0 && g.population[components.SpeciesPrey] == 0) ||
		(p.Predators > 0 && g.population[components.SpeciesPredator] == 0)
}

// AgentInfo is a read-only view of one agent.
type AgentInfo struct {
	ID       uint32
	Species  components.Species
	ParentID uint32
	Energy   float64
	Capacity float64
	Age      int
	MaxAge   int // 0 = no age limit
	Alive    bool
	Active   bool
	Moves    int
	Kills    int
	Children int
}

// AgentsAt describes the agents occupying cell p.
func (g *Game) AgentsAt(p components.Position) []AgentInfo {
	var out []AgentInfo
	for _, e := range g.grid.At(p) {
		v := g.vitalsMap.Get(e)
		org := g.orgMap.Get(e)
		tr := g.traits.Of(org.Species)
		out = append(out, AgentInfo{
			ID:       org.ID,
			Species:  org.Species,
			ParentID: org.ParentID,
			Energy:   v.Energy,
			Capacity: tr.Capacity,
			Age:      v.Age,
			MaxAge:   tr.MaxAge,
			Alive:    v.Alive,
			Active:   v.Active,
			Moves:    org.Moves,
			Kills:    org.Kills,
			Children: org.Children,
		})
	}
	return out
}
