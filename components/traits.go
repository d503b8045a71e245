package components

import "github.com/pthm-cable/gridsoup/config"

// Traits are the constant parameters shared by every agent of a species.
type Traits struct {
	InitialEnergy           float64
	Capacity                float64
	MetabolicRate           float64
	MinReproductionAge      int
	MaxAge                  int
	ReproductionThreshold   float64
	ReproductionProbability float64
	EnergyValue             float64
	Move                    Connectivity
	Sense                   Connectivity
	Hunt                    HuntMode
}

// TraitTable holds Traits indexed by Species.
type TraitTable [NumSpecies]Traits

// Of returns the traits for s.
func (t *TraitTable) Of(s Species) *Traits {
	return &t[s]
}

// TraitsFromConfig converts a species config block.
func TraitsFromConfig(sc config.SpeciesConfig) (Traits, error) {
	hunt, err := ParseHuntMode(sc.HuntMode)
	if err != nil {
		return Traits{}, err
	}
	return Traits{
		InitialEnergy:           sc.InitialEnergy,
		Capacity:                sc.Capacity,
		MetabolicRate:           sc.MetabolicRate,
		MinReproductionAge:      sc.MinReproductionAge,
		MaxAge:                  sc.MaxAge,
		ReproductionThreshold:   sc.ReproductionThreshold,
		ReproductionProbability: sc.ReproductionProbability,
		EnergyValue:             sc.EnergyValue,
		Move:                    ConnectivityFrom(sc.MoveConnectivity),
		Sense:                   ConnectivityFrom(sc.SenseConnectivity),
		Hunt:                    hunt,
	}, nil
}

// TraitTableFromConfig builds the table for every species.
func TraitTableFromConfig(cfg *config.Config) (TraitTable, error) {
	var t TraitTable
	blocks := [NumSpecies]config.SpeciesConfig{
		SpeciesPrey:     cfg.Species.Prey,
		SpeciesPredator: cfg.Species.Predator,
		SpeciesCleaner:  cfg.Species.Cleaner,
	}
	for i, sc := range blocks {
		tr, err := TraitsFromConfig(sc)
		if err != nil {
			return t, err
		}
		t[i] = tr
	}
	return t, nil
}
