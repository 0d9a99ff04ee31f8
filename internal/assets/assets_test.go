package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindPriority(t *testing.T) {
	low := t.TempDir()
	high := t.TempDir()
	writeFile(t, filepath.Join(low, "earth.jpg"), "low")
	writeFile(t, filepath.Join(high, "earth.jpg"), "high")
	writeFile(t, filepath.Join(low, "provider.json"), "{}")

	m := NewManager(low, high)

	path, err := m.Find("earth.jpg")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if path != filepath.Join(high, "earth.jpg") {
		t.Errorf("Find = %s, want the later directory", path)
	}

	path, err = m.Find("provider.json")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if path != filepath.Join(low, "provider.json") {
		t.Errorf("Find = %s, want the only match", path)
	}
}

func TestFindAbsolute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.png")
	writeFile(t, path, "x")

	got, err := NewManager().Find(path)
	if err != nil || got != path {
		t.Errorf("Find(%s) = %s, %v", path, got, err)
	}
}

func TestFindMissing(t *testing.T) {
	m := NewManager(t.TempDir())
	for _, name := range []string{"", "nope.jpg", "/does/not/exist.jpg"} {
		if _, err := m.Find(name); !errors.Is(err, ErrNotFound) {
			t.Errorf("Find(%q) error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestFindSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "earth.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(dir).Find("earth.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("directory matched as asset: %v", err)
	}
}

func TestLoadCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "provider.json")
	writeFile(t, path, `{"id":"osm"}`)

	m := NewManager(dir)
	data, err := m.Load("provider.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != `{"id":"osm"}` {
		t.Errorf("Load = %q", data)
	}

	// Served from cache after the file is gone.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load("provider.json"); err != nil {
		t.Errorf("cached Load: %v", err)
	}

	hits, misses := m.cache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits %d misses, want 1 and 1", hits, misses)
	}

	m.Close()
	if _, err := m.Load("provider.json"); err == nil {
		t.Error("expected error after Close dropped the cache")
	}
}
