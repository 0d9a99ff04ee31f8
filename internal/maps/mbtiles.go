package maps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

// ErrTileNotCached is returned by Get when the tile is not in the cache.
var ErrTileNotCached = errors.New("tile not cached")

// Tile cache schema, MBTiles 1.3 layout.
const mbtilesSchema = `
CREATE TABLE IF NOT EXISTS metadata (
    name TEXT NOT NULL PRIMARY KEY,
    value TEXT
);

CREATE TABLE IF NOT EXISTS tiles (
    zoom_level INTEGER NOT NULL,
    tile_column INTEGER NOT NULL,
    tile_row INTEGER NOT NULL,
    tile_data BLOB NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row);
`

// MBTilesCache stores downloaded tiles in an MBTiles SQLite file. Rows are
// kept in TMS order, so y is flipped relative to the XYZ coordinates used
// everywhere else. It is safe for concurrent use.
type MBTilesCache struct {
	path string
	db   *sql.DB
}

// CachePath returns the cache file for provider p under dir.
func CachePath(dir string, p *Provider) string {
	return filepath.Join(dir, p.ID+".mbtiles")
}

// OpenMBTiles opens or creates the tile cache for p under dir.
func OpenMBTiles(dir string, p *Provider) (*MBTilesCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	path := CachePath(dir, p)
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening tile cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to tile cache: %w", err)
	}
	if _, err := db.Exec(mbtilesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tile cache schema: %w", err)
	}

	c := &MBTilesCache{path: path, db: db}
	if err := c.writeMetadata(p); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *MBTilesCache) writeMetadata(p *Provider) error {
	meta := map[string]string{
		"name":        p.Name,
		"format":      p.Format,
		"type":        "baselayer",
		"version":     "1.3",
		"minzoom":     strconv.Itoa(p.MinZoom),
		"maxzoom":     strconv.Itoa(p.MaxZoom),
		"attribution": p.Attribution,
	}
	for k, v := range meta {
		if _, err := c.db.Exec(`INSERT OR IGNORE INTO metadata (name, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("writing cache metadata %s: %w", k, err)
		}
	}
	return nil
}

// Path returns the cache file path.
func (c *MBTilesCache) Path() string {
	return c.path
}

// Metadata returns the value stored under name, or "" when absent.
func (c *MBTilesCache) Metadata(ctx context.Context, name string) (string, error) {
	var v sql.NullString
	err := c.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE name = ?`, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading cache metadata %s: %w", name, err)
	}
	return v.String, nil
}

// Get returns the encoded tile for t.
func (c *MBTilesCache) Get(ctx context.Context, t TileCoord) ([]byte, error) {
	t = t.Wrapped()

	var data []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`,
		t.Zoom, t.X, tmsRow(t),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTileNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("reading tile %s: %w", t, err)
	}
	return data, nil
}

// Put stores the encoded tile for t, replacing any previous copy.
func (c *MBTilesCache) Put(ctx context.Context, t TileCoord, data []byte) error {
	t = t.Wrapped()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)
		 ON CONFLICT (zoom_level, tile_column, tile_row) DO UPDATE SET tile_data = excluded.tile_data`,
		t.Zoom, t.X, tmsRow(t), data,
	)
	if err != nil {
		return fmt.Errorf("writing tile %s: %w", t, err)
	}
	return nil
}

// Count returns the number of cached tiles.
func (c *MBTilesCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tiles: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (c *MBTilesCache) Close() error {
	return c.db.Close()
}

// tmsRow converts an XYZ row to the TMS row stored in MBTiles.
func tmsRow(t TileCoord) int {
	return NumTiles(t.Zoom) - 1 - t.Y
}
