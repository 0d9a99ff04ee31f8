package maps

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/sync/semaphore"

	"github.com/Faultbox/globedrape/internal/metrics"
)

// Tile set defaults.
const (
	DefaultTileSetSize  = 1024
	DefaultFetchWorkers = 64
	DefaultRetryBackoff = 5 * time.Second
	MaxFallbackLevels   = 4
)

// TileSource downloads encoded tiles.
type TileSource interface {
	Fetch(ctx context.Context, c TileCoord) ([]byte, error)
}

// TileStore persists encoded tiles between runs.
type TileStore interface {
	Get(ctx context.Context, c TileCoord) ([]byte, error)
	Put(ctx context.Context, c TileCoord, data []byte) error
}

// TileSetOptions configures a TileSet.
type TileSetOptions struct {
	Capacity     int
	Workers      int
	RetryBackoff time.Duration
	Logger       *zap.Logger
}

type loadResult struct {
	coord TileCoord
	img   image.Image
	err   error
}

// TileSet keeps recently used decoded tiles in memory and loads missing
// ones in the background, first from the store and then from the source.
// Request, Poll and Fallback belong to the frame thread; loads run on their
// own goroutines and are only applied by Poll.
type TileSet struct {
	source TileSource
	store  TileStore
	log    *zap.Logger

	tiles   *lru.Cache
	backoff time.Duration
	now     func() time.Time

	sem     *semaphore.Weighted
	results chan loadResult

	mu      sync.Mutex
	pending map[TileCoord]struct{}
	failed  map[TileCoord]time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTileSet creates a tile set. store may be nil.
func NewTileSet(source TileSource, store TileStore, opts TileSetOptions) *TileSet {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultTileSetSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultFetchWorkers
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	ts := &TileSet{
		source:  source,
		store:   store,
		log:     opts.Logger,
		tiles:   lru.New(opts.Capacity),
		backoff: opts.RetryBackoff,
		now:     time.Now,
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
		results: make(chan loadResult, opts.Workers),
		pending: make(map[TileCoord]struct{}),
		failed:  make(map[TileCoord]time.Time),
		ctx:     ctx,
		cancel:  cancel,
	}
	return ts
}

// Request returns the decoded tile for c, or nil when it is not loaded yet.
// A miss schedules a background load unless one is already running or the
// tile failed recently.
func (ts *TileSet) Request(c TileCoord) image.Image {
	c = c.Wrapped()
	if !c.IsValid() {
		return nil
	}

	if v, ok := ts.tiles.Get(c); ok {
		metrics.TileSetLookups.WithLabelValues("hit").Inc()
		return v.(image.Image)
	}
	metrics.TileSetLookups.WithLabelValues("miss").Inc()

	ts.schedule(c)
	return nil
}

// Peek returns the tile for c if it is loaded, without scheduling anything.
func (ts *TileSet) Peek(c TileCoord) image.Image {
	if v, ok := ts.tiles.Get(c.Wrapped()); ok {
		return v.(image.Image)
	}
	return nil
}

// Poll applies finished loads and returns how many tiles were added.
func (ts *TileSet) Poll() int {
	added := 0
	for {
		select {
		case r := <-ts.results:
			if ts.apply(r) {
				added++
			}
		default:
			ts.mu.Lock()
			metrics.TilesPending.Set(float64(len(ts.pending)))
			ts.mu.Unlock()
			metrics.TileSetSize.Set(float64(ts.tiles.Len()))
			return added
		}
	}
}

func (ts *TileSet) apply(r loadResult) bool {
	ts.mu.Lock()
	delete(ts.pending, r.coord)
	if r.err != nil {
		ts.failed[r.coord] = ts.now()
	} else {
		delete(ts.failed, r.coord)
	}
	ts.mu.Unlock()

	if r.err != nil {
		return false
	}
	ts.tiles.Add(r.coord, r.img)
	return true
}

// Fallback builds a stand-in for c from the closest loaded ancestor by
// scaling up the part of the ancestor that covers c. It returns nil when no
// ancestor within MaxFallbackLevels is loaded.
func (ts *TileSet) Fallback(c TileCoord) image.Image {
	c = c.Wrapped()
	for levels := 1; levels <= MaxFallbackLevels && levels <= c.Zoom; levels++ {
		parent, offX, offY := c.Parent(levels)
		img := ts.Peek(parent)
		if img == nil {
			continue
		}
		metrics.TileSetLookups.WithLabelValues("fallback").Inc()
		return upscaleQuadrant(img, levels, offX, offY)
	}
	return nil
}

// upscaleQuadrant crops the (offX, offY) cell of a 2^levels grid laid over
// src and scales it to the full size of src.
func upscaleQuadrant(src image.Image, levels, offX, offY int) image.Image {
	b := src.Bounds()
	div := 1 << uint(levels)
	cw := b.Dx() / div
	ch := b.Dy() / div
	if cw == 0 || ch == 0 {
		return nil
	}

	sr := image.Rect(
		b.Min.X+offX*cw,
		b.Min.Y+offY*ch,
		b.Min.X+(offX+1)*cw,
		b.Min.Y+(offY+1)*ch,
	)
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, sr, draw.Src, nil)
	return dst
}

// Len returns the number of decoded tiles held.
func (ts *TileSet) Len() int {
	return ts.tiles.Len()
}

// Pending returns the number of loads in flight.
func (ts *TileSet) Pending() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.pending)
}

// Close cancels in-flight loads and waits for their goroutines.
func (ts *TileSet) Close() {
	ts.cancel()
	ts.wg.Wait()
}

// schedule starts one load for c. The pending set keeps it at one until Poll
// applies the result, so repeated requests across frames never stack up.
func (ts *TileSet) schedule(c TileCoord) {
	ts.mu.Lock()
	if _, ok := ts.pending[c]; ok {
		ts.mu.Unlock()
		return
	}
	if at, ok := ts.failed[c]; ok && ts.now().Sub(at) < ts.backoff {
		ts.mu.Unlock()
		return
	}
	if ts.ctx.Err() != nil {
		ts.mu.Unlock()
		return
	}
	ts.pending[c] = struct{}{}
	ts.mu.Unlock()

	ts.wg.Add(1)
	go ts.load(c)
}

func (ts *TileSet) load(c TileCoord) {
	defer ts.wg.Done()

	if err := ts.sem.Acquire(ts.ctx, 1); err != nil {
		return
	}
	img, err := ts.loadTile(c)
	ts.sem.Release(1)

	r := loadResult{coord: c, img: img, err: err}
	if err != nil && !errors.Is(err, context.Canceled) {
		ts.log.Debug("tile load failed", zap.Stringer("tile", c), zap.Error(err))
	}

	select {
	case ts.results <- r:
	case <-ts.ctx.Done():
	}
}

func (ts *TileSet) loadTile(c TileCoord) (image.Image, error) {
	if ts.store != nil {
		start := time.Now()
		data, err := ts.store.Get(ts.ctx, c)
		switch {
		case err == nil:
			img, derr := DecodeTile(data)
			if derr == nil {
				metrics.TilesLoaded.WithLabelValues("cache").Inc()
				metrics.TileLoadDuration.WithLabelValues("cache").Observe(time.Since(start).Seconds())
				return img, nil
			}
			metrics.TileLoadErrors.WithLabelValues("decode").Inc()
			ts.log.Warn("discarding undecodable cached tile", zap.Stringer("tile", c), zap.Error(derr))
		case !errors.Is(err, ErrTileNotCached):
			metrics.TileLoadErrors.WithLabelValues("cache").Inc()
			ts.log.Warn("tile cache read failed", zap.Stringer("tile", c), zap.Error(err))
		}
	}

	start := time.Now()
	data, err := ts.source.Fetch(ts.ctx, c)
	if err != nil {
		metrics.TileLoadErrors.WithLabelValues("fetch").Inc()
		return nil, err
	}
	img, err := DecodeTile(data)
	if err != nil {
		metrics.TileLoadErrors.WithLabelValues("decode").Inc()
		return nil, err
	}
	metrics.TilesLoaded.WithLabelValues("network").Inc()
	metrics.TileLoadDuration.WithLabelValues("network").Observe(time.Since(start).Seconds())

	if ts.store != nil {
		if err := ts.store.Put(ts.ctx, c, data); err != nil {
			metrics.TileLoadErrors.WithLabelValues("store").Inc()
			ts.log.Warn("tile cache write failed", zap.Stringer("tile", c), zap.Error(err))
		}
	}
	return img, nil
}
