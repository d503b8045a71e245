package components

// Vitals tracks an agent's metabolic state.
type Vitals struct {
	Energy float64
	Age    int
	Alive  bool
	// Active is false for the tick an agent is born in.
	Active bool
	Cause  DeathCause
}

// Refresh re-derives Alive from age and energy and returns it. A maxAge of 0
// disables death by age. Once dead, an agent stays dead.
func (v *Vitals) Refresh(maxAge int) bool {
	if !v.Alive {
		return false
	}
	switch {
	case maxAge > 0 && v.Age >= maxAge:
		v.Kill(CauseAge)
	case v.Energy <= 0:
		v.Kill(CauseStarvation)
	}
	return v.Alive
}

// Kill marks the agent dead. The first cause recorded wins.
func (v *Vitals) Kill(cause DeathCause) {
	if !v.Alive {
		return
	}
	v.Alive = false
	v.Cause = cause
}

// Organism bundles identity and per-agent counters.
type Organism struct {
	ID       uint32
	Species  Species
	ParentID uint32 // 0 for the initial population
	Born     int    // tick of creation
	Moves    int
	Kills    int
	Children int
}
