package cellulite

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
	h3 "github.com/uber/h3-go/v4"
	bolt "go.etcd.io/bbolt"

	"github.com/Aman-CERP/cellulite/internal/h3x"
)

func newTestDB(t *testing.T) *bolt.DB {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "cellulite.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func newTestIndex(t *testing.T, threshold uint64) (*bolt.DB, *Index) {
	t.Helper()
	db := newTestDB(t)
	var index *Index
	err := db.Update(func(tx *bolt.Tx) error {
		var err error
		index, err = Create(tx, Options{Threshold: threshold})
		return err
	})
	require.NoError(t, err)
	return db, index
}

// anchor returns a coordinate safely inside a base cell: the center of the
// base cell containing Paris. Offsets of a fraction of a degree stay far
// from any level-zero boundary.
func anchor(t *testing.T) (lng, lat float64) {
	t.Helper()
	cell, err := h3x.LatLngCell(48.8566, 2.3522, 0)
	require.NoError(t, err)
	center, err := h3.CellToLatLng(cell)
	require.NoError(t, err)
	return center.Lng, center.Lat
}

func pointGeoJSON(lng, lat float64) []byte {
	return []byte(fmt.Sprintf(`{"type":"Point","coordinates":[%g,%g]}`, lng, lat))
}

func addPoint(t *testing.T, db *bolt.DB, index *Index, id uint32, lng, lat float64) {
	t.Helper()
	err := db.Update(func(tx *bolt.Tx) error {
		return index.Add(tx, id, pointGeoJSON(lng, lat))
	})
	require.NoError(t, err)
}

func deleteItem(t *testing.T, db *bolt.DB, index *Index, id uint32) {
	t.Helper()
	err := db.Update(func(tx *bolt.Tx) error {
		return index.Delete(tx, id)
	})
	require.NoError(t, err)
}

func buildIndex(t *testing.T, db *bolt.DB, index *Index) {
	t.Helper()
	err := db.Update(func(tx *bolt.Tx) error {
		return index.Build(tx, nil, nil)
	})
	require.NoError(t, err)
}

func box(minLng, minLat, maxLng, maxLat float64) orb.Polygon {
	return orb.Polygon{{
		{minLng, minLat}, {maxLng, minLat}, {maxLng, maxLat}, {minLng, maxLat}, {minLng, minLat},
	}}
}

// boxAround is a small query box centered on a point.
func boxAround(lng, lat, half float64) orb.Polygon {
	return box(lng-half, lat-half, lng+half, lat+half)
}

func queryShape(t *testing.T, db *bolt.DB, index *Index, polygon orb.Polygon) []uint32 {
	t.Helper()
	var ids []uint32
	err := db.View(func(tx *bolt.Tx) error {
		bm, err := index.InShape(tx, polygon)
		if err != nil {
			return err
		}
		ids = bm.ToArray()
		return nil
	})
	require.NoError(t, err)
	return ids
}

func indexStats(t *testing.T, db *bolt.DB, index *Index) Stats {
	t.Helper()
	var stats Stats
	err := db.View(func(tx *bolt.Tx) error {
		var err error
		stats, err = index.Stats(tx)
		return err
	})
	require.NoError(t, err)
	return stats
}

// cellsByResolution collects every cell-variant bitmap grouped by
// resolution.
func cellsByResolution(t *testing.T, db *bolt.DB, index *Index) map[int][]*roaring.Bitmap {
	t.Helper()
	out := make(map[int][]*roaring.Bitmap)
	err := db.View(func(tx *bolt.Tx) error {
		return index.InnerDBCells(tx, func(cell h3.Cell, items *roaring.Bitmap) error {
			out[cell.Resolution()] = append(out[cell.Resolution()], items)
			return nil
		})
	})
	require.NoError(t, err)
	return out
}
