// Package metrics exposes Prometheus instrumentation for tile loading and
// the draping pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "globedrape"

var (
	// Tile metrics
	TilesLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tiles",
		Name:      "loaded_total",
		Help:      "Tiles loaded, by source (cache or network)",
	}, []string{"source"})

	TileLoadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tiles",
		Name:      "load_errors_total",
		Help:      "Tile load failures, by stage",
	}, []string{"stage"})

	TileLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tiles",
		Name:      "load_duration_seconds",
		Help:      "Time to load a tile, by source",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"source"})

	TileSetLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tileset",
		Name:      "lookups_total",
		Help:      "In-memory tile set lookups, by result (hit or miss)",
	}, []string{"result"})

	TileSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "tileset",
		Name:      "tiles",
		Help:      "Decoded tiles held in memory",
	})

	TilesPending = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "tileset",
		Name:      "pending",
		Help:      "Tile loads in flight",
	})

	// Drape metrics
	MeshRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "drape",
		Name:      "mesh_rebuilds_total",
		Help:      "Drape meshes generated",
	})

	MeshRebuildsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "drape",
		Name:      "mesh_rebuilds_skipped_total",
		Help:      "Frames that kept the previous drape mesh, by reason",
	}, []string{"reason"})

	MeshBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "drape",
		Name:      "mesh_build_duration_seconds",
		Help:      "Time to generate the drape mesh",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.025},
	})

	FrameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "render",
		Name:      "frame_duration_seconds",
		Help:      "Wall time per frame",
		Buckets:   []float64{0.004, 0.008, 0.016, 0.033, 0.05, 0.1, 0.25},
	})
)

// Server serves the /metrics endpoint.
type Server struct {
	srv *http.Server
}

// Serve starts a /metrics endpoint on addr in the background. Listen errors
// are passed to onError.
func Serve(addr string, onError func(error)) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if onError != nil {
				onError(err)
			}
		}
	}()

	return s
}

// Close shuts the endpoint down.
func (s *Server) Close() error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
