package cellulite

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/Aman-CERP/cellulite/pkg/zerometry"
)

func TestOpenBeforeCreateFails(t *testing.T) {
	db := newTestDB(t)
	err := db.View(func(tx *bolt.Tx) error {
		_, err := Open(tx, Options{})
		return err
	})
	require.ErrorIs(t, err, ErrDatabaseDoesntExist)
}

func TestCreateThenOpen(t *testing.T) {
	db, _ := newTestIndex(t, 2)
	err := db.View(func(tx *bolt.Tx) error {
		_, err := Open(tx, Options{Threshold: 2})
		return err
	})
	require.NoError(t, err)
}

func TestTwoIndexesCoexistUnderDifferentPrefixes(t *testing.T) {
	db := newTestDB(t)
	var parks, shops *Index
	err := db.Update(func(tx *bolt.Tx) error {
		var err error
		if parks, err = Create(tx, Options{Prefix: "parks"}); err != nil {
			return err
		}
		shops, err = Create(tx, Options{Prefix: "shops"})
		return err
	})
	require.NoError(t, err)

	err = db.Update(func(tx *bolt.Tx) error {
		if err := parks.AddGeometry(tx, 1, orb.Point{2.35, 48.85}); err != nil {
			return err
		}
		if err := parks.Build(tx, nil, nil); err != nil {
			return err
		}
		return shops.Build(tx, nil, nil)
	})
	require.NoError(t, err)

	assert.Equal(t, 1, indexStats(t, db, parks).TotalItems)
	assert.Equal(t, 0, indexStats(t, db, shops).TotalItems)
}

func TestAddRejectsUnsupportedGeoJSON(t *testing.T) {
	db, index := newTestIndex(t, 2)
	err := db.Update(func(tx *bolt.Tx) error {
		return index.Add(tx, 3, []byte(`{"type":"Sphere"}`))
	})
	var invalid *InvalidGeoJSONError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, uint32(3), invalid.Item)
}

func TestAddRejectsDegenerateGeometry(t *testing.T) {
	db, index := newTestIndex(t, 2)
	err := db.Update(func(tx *bolt.Tx) error {
		return index.Add(tx, 4, []byte(`{"type":"LineString","coordinates":[[0,0]]}`))
	})
	var invalid *InvalidGeometryError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, uint32(4), invalid.Item)
}

func TestAddFlattensFeatureCollection(t *testing.T) {
	db, index := newTestIndex(t, 2)
	doc := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{"type":"Feature","properties":{"name":"a"},"geometry":{"type":"Point","coordinates":[1,2]}},
			{"type":"Feature","properties":{"name":"b"},"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}
		]
	}`)
	err := db.Update(func(tx *bolt.Tx) error {
		return index.Add(tx, 0, doc)
	})
	require.NoError(t, err)

	err = db.View(func(tx *bolt.Tx) error {
		z, ok, err := index.Item(tx, 0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, zerometry.TypeCollection, z.Type())
		c := z.Collection()
		assert.Equal(t, 1, c.Points().NumPoints())
		assert.Equal(t, 1, c.Lines().NumLines())
		assert.Equal(t, 0, c.Polygons().NumPolygons())
		return nil
	})
	require.NoError(t, err)
}

func TestItemRoundTripsBounds(t *testing.T) {
	db, index := newTestIndex(t, 2)
	polygon := orb.Polygon{{
		{-36.80, 59.85}, {-8.57, 65.77}, {12.59, 56.10},
		{6.17, 41.49}, {-11.23, 37.06}, {-32.81, 44.36}, {-36.80, 59.85},
	}}
	err := db.Update(func(tx *bolt.Tx) error {
		return index.AddGeometry(tx, 9, polygon)
	})
	require.NoError(t, err)

	err = db.View(func(tx *bolt.Tx) error {
		z, ok, err := index.Item(tx, 9)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, zerometry.Bound{MinLng: -36.80, MaxLng: 12.59, MinLat: 37.06, MaxLat: 65.77}, z.Bound())
		assert.Equal(t, polygon, z.ToOrb())
		return nil
	})
	require.NoError(t, err)
}

func TestAddOverwritesPreviousGeometry(t *testing.T) {
	db, index := newTestIndex(t, 2)
	lng, lat := anchor(t)

	addPoint(t, db, index, 0, lng, lat)
	buildIndex(t, db, index)
	require.Equal(t, []uint32{0}, queryShape(t, db, index, boxAround(lng, lat, 0.01)))

	// Move the item elsewhere and rebuild.
	addPoint(t, db, index, 0, lng+0.5, lat)
	buildIndex(t, db, index)

	assert.Contains(t, queryShape(t, db, index, boxAround(lng+0.5, lat, 0.01)), uint32(0))
}

func TestAddRawZerometryTrustsBytes(t *testing.T) {
	db, index := newTestIndex(t, 2)
	raw, err := zerometry.Marshal(orb.Point{5, 6})
	require.NoError(t, err)

	err = db.Update(func(tx *bolt.Tx) error {
		return index.AddRawZerometry(tx, 11, raw)
	})
	require.NoError(t, err)
	buildIndex(t, db, index)

	err = db.View(func(tx *bolt.Tx) error {
		z, ok, err := index.Item(tx, 11)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, orb.Point{5, 6}, z.ToOrb())
		return nil
	})
	require.NoError(t, err)
}

func TestClearTruncatesEverything(t *testing.T) {
	db, index := newTestIndex(t, 2)
	lng, lat := anchor(t)
	addPoint(t, db, index, 0, lng, lat)
	buildIndex(t, db, index)

	err := db.Update(func(tx *bolt.Tx) error {
		return index.Clear(tx)
	})
	require.NoError(t, err)

	stats := indexStats(t, db, index)
	assert.Zero(t, stats.TotalItems)
	assert.Zero(t, stats.TotalCells)
	assert.Zero(t, stats.TotalBellyCells)
}

func TestItemsIterationOrder(t *testing.T) {
	db, index := newTestIndex(t, 2)
	for _, id := range []uint32{42, 7, 1000} {
		err := db.Update(func(tx *bolt.Tx) error {
			return index.AddGeometry(tx, id, orb.Point{1, 1})
		})
		require.NoError(t, err)
	}

	var seen []uint32
	err := db.View(func(tx *bolt.Tx) error {
		return index.Items(tx, func(item uint32, _ zerometry.Zerometry) error {
			seen = append(seen, item)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{7, 42, 1000}, seen, "big-endian keys iterate in numeric order")
}

func TestZeroThresholdMeansDefault(t *testing.T) {
	db := newTestDB(t)
	err := db.Update(func(tx *bolt.Tx) error {
		index, err := Create(tx, Options{})
		if err != nil {
			return err
		}
		assert.Equal(t, uint64(DefaultThreshold), index.Threshold())
		return nil
	})
	require.NoError(t, err)
}
