// Package telemetry provides population tracking, bookmarking and CSV output.
package telemetry

import "github.com/pthm-cable/gridsoup/components"

// EventType identifies telemetry events.
type EventType uint8

const (
	EventBirth EventType = iota
	EventDeath
	EventKill
	EventForage
	EventClean
)

// Event is a single agent-level occurrence within a tick.
type Event struct {
	Type     EventType
	Tick     int
	EntityID uint32
	Species  components.Species

	TargetID uint32                // kill: prey id; birth: parent id
	Amount   float64               // forage/clean: resource taken; kill: energy gained
	Age      int                   // death: age at death
	Cause    components.DeathCause // death only
}

// NewBirthEvent creates a birth event.
func NewBirthEvent(tick int, childID, parentID uint32, species components.Species) Event {
	return Event{Type: EventBirth, Tick: tick, EntityID: childID, Species: species, TargetID: parentID}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(tick int, id uint32, species components.Species, age int, cause components.DeathCause) Event {
	return Event{Type: EventDeath, Tick: tick, EntityID: id, Species: species, Age: age, Cause: cause}
}

// NewKillEvent creates a kill event.
func NewKillEvent(tick int, predatorID, preyID uint32, gained float64) Event {
	return Event{
		Type:     EventKill,
		Tick:     tick,
		EntityID: predatorID,
		Species:  components.SpeciesPredator,
		TargetID: preyID,
		Amount:   gained,
	}
}

// NewForageEvent creates a grazing event.
func NewForageEvent(tick int, id uint32, amount float64) Event {
	return Event{Type: EventForage, Tick: tick, EntityID: id, Species: components.SpeciesPrey, Amount: amount}
}

// NewCleanEvent creates a cleaning event.
func NewCleanEvent(tick int, id uint32, amount float64) Event {
	return Event{Type: EventClean, Tick: tick, EntityID: id, Species: components.SpeciesCleaner, Amount: amount}
}
