package nav

import (
	"testing"

	"github.com/Faultbox/globedrape/pkg/geo"
)

type fakeMap struct {
	center geo.Coordinate
	sets   int
}

func (m *fakeMap) SetCenter(c geo.Coordinate) {
	m.center = c
	m.sets++
}

func (m *fakeMap) Center() geo.Coordinate {
	return m.center
}

func TestZoomRoundTrip(t *testing.T) {
	start := geo.New(12.5, -45.25, 6)
	m := &fakeMap{center: start}
	c := NewController(m, nil, nil)

	c.HandleKey('=')
	if m.center.Zoom != 7 {
		t.Fatalf("zoom after '=' = %d, want 7", m.center.Zoom)
	}
	c.HandleKey('-')

	if m.center != start {
		t.Errorf("center after round trip = %v, want %v", m.center, start)
	}
}

func TestPresetExact(t *testing.T) {
	m := &fakeMap{center: geo.New(0, 0, 3)}
	c := NewController(m, nil, nil)

	if !c.HandleKey('2') {
		t.Fatal("expected key '2' to be bound")
	}

	want := geo.Coordinate{Latitude: -33.856958, Longitude: 151.210337, Zoom: 6}
	if m.center != want {
		t.Errorf("center = %v, want %v", m.center, want)
	}
}

func TestPresetKeys(t *testing.T) {
	tests := []struct {
		key  rune
		name string
	}{
		{'1', "chicago"},
		{'2', "sydney"},
		{'3', "estancia-san-pablo"},
		{'4', "astana"},
	}

	presets := DefaultPresets()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMap{}
			c := NewController(m, nil, nil)
			c.HandleKey(tt.key)

			i := int(tt.key - '1')
			if presets[i].Name != tt.name {
				t.Fatalf("preset %d = %s, want %s", i, presets[i].Name, tt.name)
			}
			if m.center != presets[i].Center {
				t.Errorf("center = %v, want %v", m.center, presets[i].Center)
			}
			if m.center.Zoom != PresetZoom {
				t.Errorf("zoom = %d, want %d", m.center.Zoom, PresetZoom)
			}
		})
	}
}

func TestUnboundKeys(t *testing.T) {
	m := &fakeMap{center: geo.New(1, 2, 3)}
	c := NewController(m, nil, nil)

	for _, k := range []rune{'5', '0', 'a', ' '} {
		if c.HandleKey(k) {
			t.Errorf("key %q should not be bound", k)
		}
	}
	if m.sets != 0 {
		t.Errorf("SetCenter called %d times, want 0", m.sets)
	}
}

func TestZoomNotClamped(t *testing.T) {
	m := &fakeMap{center: geo.New(0, 0, 0)}
	c := NewController(m, nil, nil)

	c.ZoomBy(-1)
	if m.center.Zoom != -1 {
		t.Errorf("zoom = %d, want -1", m.center.Zoom)
	}
}

func TestCustomPresets(t *testing.T) {
	m := &fakeMap{}
	custom := []Preset{{Name: "origin", Center: geo.New(0, 0, 2)}}
	c := NewController(m, custom, nil)

	if c.SelectPreset(1) {
		t.Error("expected second preset to be missing")
	}
	if !c.SelectPreset(0) || m.center.Zoom != 2 {
		t.Errorf("center = %v", m.center)
	}
}
