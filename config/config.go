// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfiguration is returned when a configuration cannot start a simulation.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	World       WorldConfig       `yaml:"world"`
	Population  PopulationConfig  `yaml:"population"`
	Species     SpeciesTable      `yaml:"species"`
	Resource    ResourceConfig    `yaml:"resource"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Termination TerminationConfig `yaml:"termination"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Bookmarks   BookmarksConfig   `yaml:"bookmarks"`
	Screen      ScreenConfig      `yaml:"screen"`
	Stream      StreamConfig      `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig describes the lattice.
type WorldConfig struct {
	Width    int  `yaml:"width"`
	Height   int  `yaml:"height"`
	Toroidal bool `yaml:"toroidal"`
	// CellCapacity is the number of agents a cell may hold. 1 is single occupancy,
	// 0 means unlimited.
	CellCapacity int `yaml:"cell_capacity"`
}

// PopulationConfig holds initial agent counts.
type PopulationConfig struct {
	Prey      int `yaml:"prey"`
	Predators int `yaml:"predators"`
	Cleaners  int `yaml:"cleaners"`
}

// Total returns the number of agents placed at startup.
func (p PopulationConfig) Total() int {
	return p.Prey + p.Predators + p.Cleaners
}

// SpeciesTable groups the per-species parameters.
type SpeciesTable struct {
	Prey     SpeciesConfig `yaml:"prey"`
	Predator SpeciesConfig `yaml:"predator"`
	Cleaner  SpeciesConfig `yaml:"cleaner"`
}

// SpeciesConfig holds the constant parameters of one species.
type SpeciesConfig struct {
	InitialEnergy           float64 `yaml:"initial_energy"`
	Capacity                float64 `yaml:"capacity"`
	MetabolicRate           float64 `yaml:"metabolic_rate"`
	MinReproductionAge      int     `yaml:"min_reproduction_age"`
	MaxAge                  int     `yaml:"max_age"` // 0 = no age limit
	ReproductionThreshold   float64 `yaml:"reproduction_threshold"`
	ReproductionProbability float64 `yaml:"reproduction_probability"`
	EnergyValue             float64 `yaml:"energy_value"`      // energy a predator gains by eating this species
	MoveConnectivity        int     `yaml:"move_connectivity"` // 4 or 8
	SenseConnectivity       int     `yaml:"sense_connectivity"`
	HuntMode                string  `yaml:"hunt_mode"` // prefer_empty | uniform
}

// ResourceConfig describes the regenerating floor.
type ResourceConfig struct {
	InitialFill   float64 `yaml:"initial_fill"`
	GrowthRate    float64 `yaml:"growth_rate"`
	MaxLevel      float64 `yaml:"max_level"` // 0 = unbounded
	DirtyFraction float64 `yaml:"dirty_fraction"`
	DirtyLevel    float64 `yaml:"dirty_level"`
	Patchiness    float64 `yaml:"patchiness"` // 0..1 blend of simplex noise into the initial fill
	PatchScale    float64 `yaml:"patch_scale"`
}

// SchedulerConfig controls activation order.
type SchedulerConfig struct {
	Activation   string   `yaml:"activation"` // random | by_species
	SpeciesOrder []string `yaml:"species_order"`
}

// TerminationConfig selects the conditions IsFinished checks. Any enabled
// condition ends the run.
type TerminationConfig struct {
	MaxTicks              int  `yaml:"max_ticks"` // 0 = no limit
	StopWhenFull          bool `yaml:"stop_when_full"`
	StopWhenFieldDepleted bool `yaml:"stop_when_field_depleted"`
	StopOnExtinction      bool `yaml:"stop_on_extinction"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int  `yaml:"stats_window"` // ticks per window
	KeepHistory         bool `yaml:"keep_history"`
	HistoryLimit        int  `yaml:"history_limit"` // 0 = unbounded
	BookmarkHistorySize int  `yaml:"bookmark_history_size"`
	PerfWindow          int  `yaml:"perf_window"`
}

// BookmarksConfig holds thresholds for automatic bookmark detection.
type BookmarksConfig struct {
	PreyCrashDrop              float64 `yaml:"prey_crash_drop"`
	PredatorRecoveryMin        int     `yaml:"predator_recovery_min"`
	PredatorRecoveryMultiplier float64 `yaml:"predator_recovery_multiplier"`
	StableWindows              int     `yaml:"stable_windows"`
	StableCV                   float64 `yaml:"stable_cv"`
	HuntBreakthroughMultiplier float64 `yaml:"hunt_breakthrough_multiplier"`
}

// ScreenConfig holds viewer settings.
type ScreenConfig struct {
	Width         int `yaml:"width"`
	Height        int `yaml:"height"`
	TargetFPS     int `yaml:"target_fps"`
	TicksPerFrame int `yaml:"ticks_per_frame"`
}

// StreamConfig holds WebSocket snapshot streaming settings.
type StreamConfig struct {
	Addr       string `yaml:"addr"` // empty disables streaming
	Path       string `yaml:"path"`
	SendBuffer int    `yaml:"send_buffer"`
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	Cells        int     // width * height
	GridCapacity int     // agents the grid can hold, 0 = unlimited
	CellPixels   float32 // viewer cell size
	GridPixelsW  int32
	GridPixelsH  int32
}

// Global config instance
var global *Config

// Init loads configuration from path (or defaults if empty) and sets the global config.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	cfg.computeDerived()
	return cfg, nil
}

// Clone returns a deep copy, used when several simulations run from one base config.
func (c *Config) Clone() *Config {
	out := *c
	out.Scheduler.SpeciesOrder = append([]string(nil), c.Scheduler.SpeciesOrder...)
	return &out
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() {
	c.computeDerived()
}

func (c *Config) computeDerived() {
	c.Derived.Cells = c.World.Width * c.World.Height
	if c.World.CellCapacity > 0 {
		c.Derived.GridCapacity = c.Derived.Cells * c.World.CellCapacity
	} else {
		c.Derived.GridCapacity = 0
	}

	// Cells are square; fit the larger dimension to the window.
	if c.World.Width > 0 && c.World.Height > 0 {
		px := float32(c.Screen.Width) / float32(c.World.Width)
		py := float32(c.Screen.Height) / float32(c.World.Height)
		c.Derived.CellPixels = min(px, py)
		c.Derived.GridPixelsW = int32(c.Derived.CellPixels * float32(c.World.Width))
		c.Derived.GridPixelsH = int32(c.Derived.CellPixels * float32(c.World.Height))
	}
}

// Validate reports every rule the configuration violates, wrapped in
// ErrInvalidConfiguration.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.World.Width <= 0 || c.World.Height <= 0 {
		bad("grid dimensions must be positive, got %dx%d", c.World.Width, c.World.Height)
	}
	if c.World.CellCapacity < 0 {
		bad("cell_capacity must be >= 0, got %d", c.World.CellCapacity)
	}
	if c.Population.Prey < 0 || c.Population.Predators < 0 || c.Population.Cleaners < 0 {
		bad("population counts must be >= 0")
	}
	if c.World.Width > 0 && c.World.Height > 0 && c.World.CellCapacity > 0 {
		capacity := c.World.Width * c.World.Height * c.World.CellCapacity
		if total := c.Population.Total(); total > capacity {
			bad("population %d exceeds grid capacity %d", total, capacity)
		}
	}

	c.Species.Prey.validate("prey", bad)
	c.Species.Predator.validate("predator", bad)
	c.Species.Cleaner.validate("cleaner", bad)
	for _, sp := range []struct {
		name  string
		count int
		cfg   SpeciesConfig
	}{
		{"prey", c.Population.Prey, c.Species.Prey},
		{"predator", c.Population.Predators, c.Species.Predator},
		{"cleaner", c.Population.Cleaners, c.Species.Cleaner},
	} {
		if sp.count > 0 && sp.cfg.InitialEnergy <= 0 {
			bad("%s: initial_energy must be > 0 for a seeded species, got %g", sp.name, sp.cfg.InitialEnergy)
		}
	}

	r := c.Resource
	if r.InitialFill < 0 || r.GrowthRate < 0 || r.MaxLevel < 0 || r.DirtyLevel < 0 {
		bad("resource levels and growth rate must be >= 0")
	}
	if r.DirtyFraction < 0 || r.DirtyFraction > 1 {
		bad("resource.dirty_fraction must be in [0,1], got %g", r.DirtyFraction)
	}
	if r.Patchiness < 0 || r.Patchiness > 1 {
		bad("resource.patchiness must be in [0,1], got %g", r.Patchiness)
	}

	switch c.Scheduler.Activation {
	case "random", "by_species":
	default:
		bad("scheduler.activation must be random or by_species, got %q", c.Scheduler.Activation)
	}
	for _, name := range c.Scheduler.SpeciesOrder {
		switch name {
		case "prey", "predator", "cleaner":
		default:
			bad("scheduler.species_order: unknown species %q", name)
		}
	}

	if c.Termination.MaxTicks < 0 {
		bad("termination.max_ticks must be >= 0")
	}
	if c.Telemetry.StatsWindow < 0 || c.Telemetry.HistoryLimit < 0 {
		bad("telemetry windows must be >= 0")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfiguration, errors.Join(errs...))
}

func (s SpeciesConfig) validate(name string, bad func(string, ...any)) {
	if s.InitialEnergy < 0 || s.Capacity < 0 || s.MetabolicRate < 0 || s.EnergyValue < 0 {
		bad("%s: energies and rates must be >= 0", name)
	}
	if s.MinReproductionAge < 0 || s.MaxAge < 0 {
		bad("%s: ages must be >= 0", name)
	}
	if s.ReproductionProbability < 0 || s.ReproductionProbability > 1 {
		bad("%s: reproduction_probability must be in [0,1], got %g", name, s.ReproductionProbability)
	}
	for _, conn := range []int{s.MoveConnectivity, s.SenseConnectivity} {
		if conn != 4 && conn != 8 {
			bad("%s: connectivity must be 4 or 8, got %d", name, conn)
		}
	}
	switch s.HuntMode {
	case "", "prefer_empty", "uniform":
	default:
		bad("%s: unknown hunt_mode %q", name, s.HuntMode)
	}
}

// WriteYAML saves the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
