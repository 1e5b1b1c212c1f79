package cellulite

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	h3 "github.com/uber/h3-go/v4"
	bolt "go.etcd.io/bbolt"
)

func TestInShapeDisjointQueryIsEmpty(t *testing.T) {
	db, index := newTestIndex(t, 2)
	lng, lat := anchor(t)
	for i := uint32(0); i < 4; i++ {
		addPoint(t, db, index, i, lng+0.01*float64(i), lat)
	}
	buildIndex(t, db, index)

	// A query on the other side of the globe returns nothing.
	ids := queryShape(t, db, index, boxAround(-lng+20, -lat, 1))
	assert.Empty(t, ids)
}

func TestInShapeEnvelopeContainsItem(t *testing.T) {
	db, index := newTestIndex(t, 2)
	lng, lat := anchor(t)
	for i := uint32(0); i < 6; i++ {
		addPoint(t, db, index, i, lng+0.02*float64(i), lat+0.01*float64(i%2))
	}
	buildIndex(t, db, index)

	// Every stored item is found by a query around its envelope.
	for i := uint32(0); i < 6; i++ {
		ids := queryShape(t, db, index, boxAround(lng+0.02*float64(i), lat+0.01*float64(i%2), 0.005))
		assert.Contains(t, ids, i)
	}
}

func TestInShapeInspectorStepsAreReported(t *testing.T) {
	db, index := newTestIndex(t, 2)
	lng, lat := anchor(t)
	addPoint(t, db, index, 0, lng, lat)
	buildIndex(t, db, index)

	steps := make(map[FilteringStep]int)
	err := db.View(func(tx *bolt.Tx) error {
		_, err := index.InShapeWithInspector(tx, boxAround(lng, lat, 0.01),
			func(step FilteringStep, cell h3.Cell) {
				steps[step]++
			})
		return err
	})
	require.NoError(t, err)
	assert.Positive(t, steps[StepRequireDoubleCheck],
		"a small populated cell partially overlapped by the query is double-checked")
}

func TestInShapeReturnsPolygonItems(t *testing.T) {
	db, index := newTestIndex(t, 2)

	zone := orb.Polygon{{
		{2.2, 48.8}, {2.5, 48.8}, {2.5, 49.0}, {2.2, 49.0}, {2.2, 48.8},
	}}
	err := db.Update(func(tx *bolt.Tx) error {
		return index.AddGeometry(tx, 42, zone)
	})
	require.NoError(t, err)
	buildIndex(t, db, index)

	// Query overlapping the zone's corner.
	ids := queryShape(t, db, index, box(2.4, 48.9, 2.7, 49.2))
	assert.Equal(t, []uint32{42}, ids)

	// Query fully inside the zone.
	ids = queryShape(t, db, index, box(2.3, 48.85, 2.35, 48.9))
	assert.Equal(t, []uint32{42}, ids)

	// Disjoint query.
	ids = queryShape(t, db, index, box(3.0, 48.0, 3.2, 48.2))
	assert.Empty(t, ids)
}

func TestInCircleConservativeness(t *testing.T) {
	db, index := newTestIndex(t, 2)
	center := orb.Point{2.3522, 48.8566}

	// Points every 500m from the center outwards, along a fixed bearing.
	var id uint32
	distances := make(map[uint32]float64)
	for d := 500.0; d <= 15_000; d += 500 {
		p := geo.PointAtBearingAndDistance(center, 63, d)
		addPoint(t, db, index, id, p[0], p[1])
		distances[id] = d
		id++
	}
	buildIndex(t, db, index)

	var ids []uint32
	err := db.View(func(tx *bolt.Tx) error {
		bm, err := index.InCircle(tx, center, 10_000, 32)
		if err != nil {
			return err
		}
		ids = bm.ToArray()
		return nil
	})
	require.NoError(t, err)

	returned := make(map[uint32]bool, len(ids))
	for _, item := range ids {
		returned[item] = true
	}
	for item, d := range distances {
		if d <= 9_000 {
			assert.Truef(t, returned[item], "item %d at %.0fm is well inside the circle", item, d)
		}
		if d > 10_000 {
			assert.Falsef(t, returned[item], "item %d at %.0fm is outside the circle", item, d)
		}
	}
}

func TestInCircleInspectorVariant(t *testing.T) {
	db, index := newTestIndex(t, 2)
	center := orb.Point{2.3522, 48.8566}
	addPoint(t, db, index, 0, center[0], center[1])
	buildIndex(t, db, index)

	visited := 0
	err := db.View(func(tx *bolt.Tx) error {
		bm, err := index.InCircleWithInspector(tx, center, 5_000, 32,
			func(FilteringStep, h3.Cell) { visited++ })
		if err != nil {
			return err
		}
		assert.Equal(t, []uint32{0}, bm.ToArray())
		return nil
	})
	require.NoError(t, err)
	assert.Positive(t, visited)
}

func TestQueriesDoNotMutate(t *testing.T) {
	db, index := newTestIndex(t, 2)
	lng, lat := anchor(t)
	addPoint(t, db, index, 0, lng, lat)
	buildIndex(t, db, index)

	before := indexStats(t, db, index)
	_ = queryShape(t, db, index, boxAround(lng, lat, 0.5))
	assert.Equal(t, before, indexStats(t, db, index))
}
