package ui

import (
	"slices"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestOverlayToggleExclusive(t *testing.T) {
	reg := NewOverlayRegistry()

	if !reg.Toggle(OverlayResource) {
		t.Fatal("resource should be enabled after first toggle")
	}
	if !reg.Toggle(OverlayDirt) {
		t.Fatal("dirt should be enabled after first toggle")
	}
	if reg.IsEnabled(OverlayResource) {
		t.Error("enabling dirt should disable resource shading")
	}
	if reg.Toggle(OverlayDirt) {
		t.Error("second toggle should disable dirt")
	}
	if reg.Toggle("missing") {
		t.Error("unknown overlay toggled on")
	}
}

func TestOverlayHandleKeyPress(t *testing.T) {
	tests := []struct {
		key     int32
		id      OverlayID
		handled bool
	}{
		{rl.KeyG, OverlayGridLines, true},
		{rl.KeyI, OverlayInspector, true},
		{rl.KeyF, OverlayPerf, true},
		{rl.KeyZ, "", false},
	}
	for _, tt := range tests {
		reg := NewOverlayRegistry()
		id, state, handled := reg.HandleKeyPress(tt.key)
		if id != tt.id || handled != tt.handled || state != tt.handled {
			t.Errorf("key %d: got (%q, %v, %v), want (%q, %v, %v)",
				tt.key, id, state, handled, tt.id, tt.handled, tt.handled)
		}
	}
}

func TestOverlayCategories(t *testing.T) {
	reg := NewOverlayRegistry()
	if got := reg.Categories(); !slices.Equal(got, []string{"view", "debug"}) {
		t.Errorf("categories = %v", got)
	}
	if n := len(reg.ByCategory("view")); n != 3 {
		t.Errorf("view overlays = %d, want 3", n)
	}

	reg.SetEnabled(OverlayPerf, true)
	reg.SetEnabled(OverlayGridLines, true)
	want := []OverlayID{OverlayGridLines, OverlayPerf}
	if got := reg.EnabledOverlays(); !slices.Equal(got, want) {
		t.Errorf("enabled = %v, want %v", got, want)
	}
}
