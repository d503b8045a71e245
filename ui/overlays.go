package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayResource  OverlayID = "resource"
	OverlayDirt      OverlayID = "dirt"
	OverlayGridLines OverlayID = "grid_lines"
	OverlayInspector OverlayID = "inspector"
	OverlayPerf      OverlayID = "perf"
	OverlayStats     OverlayID = "stats"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID
	Name        string
	Description string
	Key         int32  // 0 = no key
	KeyLabel    string // e.g. "R"
	Category    string // "view" or "debug"
	Exclusive   []OverlayID
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with the default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:          OverlayResource,
		Name:        "Resource",
		Description: "Shade empty cells by resource level",
		Key:         rl.KeyR,
		KeyLabel:    "R",
		Category:    "view",
		Exclusive:   []OverlayID{OverlayDirt},
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayDirt,
		Name:        "Dirt",
		Description: "Draw cells with resource left as dirt",
		Key:         rl.KeyD,
		KeyLabel:    "D",
		Category:    "view",
		Exclusive:   []OverlayID{OverlayResource},
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayGridLines,
		Name:        "Grid Lines",
		Description: "Outline every cell",
		Key:         rl.KeyG,
		KeyLabel:    "G",
		Category:    "view",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayInspector,
		Name:        "Inspector",
		Description: "Show the agents in the hovered cell",
		Key:         rl.KeyI,
		KeyLabel:    "I",
		Category:    "debug",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayStats,
		Name:        "Window Stats",
		Description: "Show the last telemetry window",
		Key:         rl.KeyT,
		KeyLabel:    "T",
		Category:    "debug",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Performance",
		Description: "Show tick phase timings",
		Key:         rl.KeyF,
		KeyLabel:    "F",
		Category:    "debug",
	})
}

// Register adds an overlay to the registry, initially disabled.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off and returns the new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	r.SetEnabled(id, !r.enabled[id])
	return r.enabled[id]
}

// SetEnabled explicitly sets an overlay's state. Enabling an overlay
// disables the overlays it excludes.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}
	r.enabled[id] = enabled
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in registration order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress toggles the overlay bound to key.
// Returns the overlay ID, its new state and whether a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			return desc.ID, r.Toggle(desc.ID), true
		}
	}
	return "", false, false
}

// EnabledOverlays returns the enabled overlay IDs in registration order.
func (r *OverlayRegistry) EnabledOverlays() []OverlayID {
	var result []OverlayID
	for _, desc := range r.descriptors {
		if r.enabled[desc.ID] {
			result = append(result, desc.ID)
		}
	}
	return result
}

func categoryLabel(cat string) string {
	switch cat {
	case "view":
		return "View"
	case "debug":
		return "Debug"
	}
	return cat
}
