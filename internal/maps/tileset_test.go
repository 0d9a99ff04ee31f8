package maps

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"
)

type fakeSource struct {
	mu    sync.Mutex
	data  map[TileCoord][]byte
	calls map[TileCoord]int
	fail  bool
	block chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		data:  make(map[TileCoord][]byte),
		calls: make(map[TileCoord]int),
	}
}

func (s *fakeSource) Fetch(ctx context.Context, c TileCoord) ([]byte, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[c]++
	if s.fail {
		return nil, errors.New("source down")
	}
	d, ok := s.data[c]
	if !ok {
		return nil, errors.New("no such tile")
	}
	return d, nil
}

func (s *fakeSource) callCount(c TileCoord) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[c]
}

type memStore struct {
	mu    sync.Mutex
	tiles map[TileCoord][]byte
}

func newMemStore() *memStore {
	return &memStore{tiles: make(map[TileCoord][]byte)}
}

func (m *memStore) Get(_ context.Context, c TileCoord) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.tiles[c]
	if !ok {
		return nil, ErrTileNotCached
	}
	return d, nil
}

func (m *memStore) Put(_ context.Context, c TileCoord, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiles[c] = data
	return nil
}

func (m *memStore) has(c TileCoord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tiles[c]
	return ok
}

// waitFor polls the tile set until cond holds or a timeout passes.
func waitFor(t *testing.T, ts *TileSet, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ts.Poll()
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for tile set")
}

func TestTileSetLoadsFromSource(t *testing.T) {
	c := TileCoord{Zoom: 2, X: 1, Y: 1}
	src := newFakeSource()
	src.data[c] = solidPNG(t, 16, color.White)
	store := newMemStore()

	ts := NewTileSet(src, store, TileSetOptions{})
	defer ts.Close()

	if img := ts.Request(c); img != nil {
		t.Fatal("expected nil on first request")
	}
	waitFor(t, ts, func() bool { return ts.Len() == 1 })

	img := ts.Request(c)
	if img == nil {
		t.Fatal("expected tile after load")
	}
	if img.Bounds().Dx() != 16 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
	if !store.has(c) {
		t.Error("expected tile to be written to the store")
	}
	if ts.Pending() != 0 {
		t.Errorf("pending = %d", ts.Pending())
	}
}

func TestTileSetPrefersStore(t *testing.T) {
	c := TileCoord{Zoom: 1, X: 0, Y: 1}
	src := newFakeSource()
	store := newMemStore()
	store.tiles[c] = solidPNG(t, 8, color.Black)

	ts := NewTileSet(src, store, TileSetOptions{})
	defer ts.Close()

	ts.Request(c)
	waitFor(t, ts, func() bool { return ts.Len() == 1 })

	if n := src.callCount(c); n != 0 {
		t.Errorf("source called %d times, want 0", n)
	}
}

func TestTileSetSingleLoadPerTile(t *testing.T) {
	c := TileCoord{Zoom: 3, X: 4, Y: 4}
	src := newFakeSource()
	src.data[c] = solidPNG(t, 8, color.White)
	src.block = make(chan struct{})

	ts := NewTileSet(src, nil, TileSetOptions{})
	defer ts.Close()

	for i := 0; i < 10; i++ {
		ts.Request(c)
	}
	if ts.Pending() != 1 {
		t.Errorf("pending = %d, want 1", ts.Pending())
	}

	close(src.block)
	waitFor(t, ts, func() bool { return ts.Len() == 1 })

	if n := src.callCount(c); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}
}

func TestTileSetReloadsAfterEviction(t *testing.T) {
	a := TileCoord{Zoom: 1, X: 0, Y: 0}
	b := TileCoord{Zoom: 1, X: 1, Y: 0}
	src := newFakeSource()
	src.data[a] = solidPNG(t, 4, color.White)
	src.data[b] = solidPNG(t, 4, color.Black)

	ts := NewTileSet(src, nil, TileSetOptions{Capacity: 1})
	defer ts.Close()

	ts.Request(a)
	waitFor(t, ts, func() bool { return ts.Peek(a) != nil })
	if ts.Pending() != 0 {
		t.Fatalf("pending = %d after load applied, want 0", ts.Pending())
	}

	ts.Request(b)
	waitFor(t, ts, func() bool { return ts.Peek(b) != nil })

	// a was evicted; asking again must fetch it again.
	if ts.Request(a) != nil {
		t.Fatal("expected evicted tile to miss")
	}
	waitFor(t, ts, func() bool { return ts.Peek(a) != nil })

	if n := src.callCount(a); n != 2 {
		t.Errorf("source called %d times for the evicted tile, want 2", n)
	}
}

func TestTileSetBackoff(t *testing.T) {
	c := TileCoord{Zoom: 2, X: 0, Y: 0}
	src := newFakeSource()
	src.fail = true

	ts := NewTileSet(src, nil, TileSetOptions{RetryBackoff: time.Hour})
	defer ts.Close()

	now := time.Unix(1000, 0)
	ts.now = func() time.Time { return now }

	ts.Request(c)
	waitFor(t, ts, func() bool { return ts.Pending() == 0 })

	ts.Request(c)
	if ts.Pending() != 0 {
		t.Fatal("expected failed tile not to be retried during backoff")
	}

	now = now.Add(2 * time.Hour)
	src.mu.Lock()
	src.fail = false
	src.data[c] = solidPNG(t, 8, color.White)
	src.mu.Unlock()

	ts.Request(c)
	waitFor(t, ts, func() bool { return ts.Len() == 1 })
	if n := src.callCount(c); n != 2 {
		t.Errorf("source called %d times, want 2", n)
	}
}

func TestTileSetEvicts(t *testing.T) {
	src := newFakeSource()
	coords := []TileCoord{{Zoom: 1, X: 0, Y: 0}, {Zoom: 1, X: 1, Y: 0}, {Zoom: 1, X: 0, Y: 1}}
	for _, c := range coords {
		src.data[c] = solidPNG(t, 4, color.White)
	}

	ts := NewTileSet(src, nil, TileSetOptions{Capacity: 2})
	defer ts.Close()

	for _, c := range coords {
		ts.Request(c)
		waitFor(t, ts, func() bool { return ts.Peek(c) != nil })
	}

	if ts.Len() != 2 {
		t.Errorf("len = %d, want 2", ts.Len())
	}
	if ts.Peek(coords[0]) != nil {
		t.Error("expected least recently used tile to be evicted")
	}
}

func TestTileSetRejectsOutOfRange(t *testing.T) {
	ts := NewTileSet(newFakeSource(), nil, TileSetOptions{})
	defer ts.Close()

	ts.Request(TileCoord{Zoom: 2, X: 0, Y: 4})
	if ts.Pending() != 0 {
		t.Error("expected no load for a row beyond the pole")
	}
}

func TestTileSetFallback(t *testing.T) {
	parent := TileCoord{Zoom: 1, X: 0, Y: 0}

	// Parent tile: left half red, right half blue.
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if x < 8 {
				img.Set(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.Set(x, y, color.RGBA{0, 0, 255, 255})
			}
		}
	}

	ts := NewTileSet(newFakeSource(), nil, TileSetOptions{})
	defer ts.Close()
	ts.tiles.Add(parent, image.Image(img))

	// Zoom 2, x=1 is the right half of parent x=0.
	fb := ts.Fallback(TileCoord{Zoom: 2, X: 1, Y: 0})
	if fb == nil {
		t.Fatal("expected fallback from parent")
	}
	if fb.Bounds().Dx() != 16 || fb.Bounds().Dy() != 16 {
		t.Errorf("fallback size = %v", fb.Bounds())
	}
	r, g, b, _ := fb.At(3, 3).RGBA()
	if r != 0 || g != 0 || b == 0 {
		t.Errorf("expected blue pixel, got %d,%d,%d", r, g, b)
	}

	fb = ts.Fallback(TileCoord{Zoom: 3, X: 0, Y: 1})
	if fb == nil {
		t.Fatal("expected fallback two levels up")
	}
	r, _, b, _ = fb.At(15, 15).RGBA()
	if r == 0 || b != 0 {
		t.Errorf("expected red pixel, got r=%d b=%d", r, b)
	}

	if fb := ts.Fallback(TileCoord{Zoom: 7, X: 0, Y: 0}); fb != nil {
		t.Error("expected no fallback beyond the level limit")
	}
}

func TestTileSetCloseCancelsLoads(t *testing.T) {
	c := TileCoord{Zoom: 2, X: 2, Y: 2}
	src := newFakeSource()
	src.block = make(chan struct{})

	ts := NewTileSet(src, nil, TileSetOptions{})
	ts.Request(c)

	done := make(chan struct{})
	go func() {
		ts.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}

	ts.Request(TileCoord{Zoom: 2, X: 3, Y: 2})
	if ts.Pending() != 1 {
		t.Errorf("pending = %d, want only the cancelled load", ts.Pending())
	}
}
