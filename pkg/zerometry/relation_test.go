package zerometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minLng, minLat, maxLng, maxLat float64) orb.Polygon {
	return orb.Polygon{{
		{minLng, minLat}, {maxLng, minLat}, {maxLng, maxLat}, {minLng, maxLat}, {minLng, minLat},
	}}
}

func TestPointPolygonRelation(t *testing.T) {
	poly := marshal(t, square(0, 0, 10, 10))

	inside := marshal(t, orb.Point{5, 5})
	rel := inside.AnyRelation(poly)
	assert.True(t, rel.Intersects)
	assert.True(t, rel.Contained)
	assert.True(t, rel.StrictContained)
	assert.False(t, rel.StrictContains)

	// The polygon strictly contains the point, not the other way around.
	rel = poly.AnyRelation(inside)
	assert.True(t, rel.StrictContains)
	assert.True(t, rel.Intersects)
	assert.False(t, rel.Contained)

	boundary := marshal(t, orb.Point{0, 5})
	rel = boundary.AnyRelation(poly)
	assert.True(t, rel.Intersects)
	assert.True(t, rel.Contained)
	assert.False(t, rel.StrictContained, "boundary contact is not strict containment")

	outside := marshal(t, orb.Point{15, 5})
	assert.False(t, outside.AnyRelation(poly).Any())
}

func TestPolygonPolygonContainment(t *testing.T) {
	outer := marshal(t, square(0, 0, 10, 10))
	inner := marshal(t, square(2, 2, 8, 8))

	rel := outer.AnyRelation(inner)
	assert.True(t, rel.StrictContains)
	assert.True(t, rel.Intersects)
	assert.False(t, rel.Contained)

	rel = inner.AnyRelation(outer)
	assert.True(t, rel.Contained)
	assert.True(t, rel.StrictContained)
	assert.False(t, rel.StrictContains)

	// Sharing an edge: inclusive containment only.
	flush := marshal(t, square(0, 2, 8, 8))
	rel = flush.AnyRelation(outer)
	assert.True(t, rel.Contained)
	assert.False(t, rel.StrictContained)
	assert.True(t, rel.Intersects)
	rel = outer.AnyRelation(flush)
	assert.False(t, rel.StrictContains)
}

func TestPolygonPolygonIntersection(t *testing.T) {
	a := marshal(t, square(0, 0, 10, 10))
	b := marshal(t, square(5, 5, 15, 15))

	rel := a.AnyRelation(b)
	assert.True(t, rel.Intersects)
	assert.False(t, rel.StrictContains)
	assert.False(t, rel.Contained)

	disjoint := marshal(t, square(20, 20, 30, 30))
	assert.False(t, a.AnyRelation(disjoint).Any())
}

func TestOverlappingBboxesExactTestDecides(t *testing.T) {
	// Overlapping bboxes but disjoint shapes: the screen lets them
	// through and the exact test rejects them.
	l := marshal(t, orb.LineString{{0, 0}, {10, 10}})
	poly := marshal(t, square(6, 0, 10, 4))
	assert.False(t, l.AnyRelation(poly).Intersects)

	crossing := marshal(t, orb.LineString{{0, 2}, {12, 2}})
	assert.True(t, crossing.AnyRelation(poly).Intersects)
}

func TestLinePolygonRelation(t *testing.T) {
	poly := marshal(t, square(0, 0, 10, 10))

	inside := marshal(t, orb.LineString{{2, 2}, {8, 8}})
	rel := inside.AnyRelation(poly)
	assert.True(t, rel.Intersects)
	assert.True(t, rel.Contained)
	assert.True(t, rel.StrictContained)

	crossing := marshal(t, orb.LineString{{-5, 5}, {15, 5}})
	rel = crossing.AnyRelation(poly)
	assert.True(t, rel.Intersects)
	assert.False(t, rel.Contained)

	rel = poly.AnyRelation(inside)
	assert.True(t, rel.StrictContains)

	outside := marshal(t, orb.LineString{{20, 20}, {30, 30}})
	assert.False(t, outside.AnyRelation(poly).Any())
}

func TestMultiPolygonOrSemantics(t *testing.T) {
	multi := marshal(t, orb.MultiPolygon{
		square(0, 0, 10, 10),
		square(100, 0, 110, 10),
	})
	cell := marshal(t, square(2, 2, 8, 8))

	// One member strictly contains the cell, the other is far away; the
	// summary is the OR of per-member relations.
	rel := multi.AnyRelation(cell)
	assert.True(t, rel.StrictContains)
	assert.True(t, rel.Intersects)
}

func TestCollectionRelation(t *testing.T) {
	collection := marshal(t, orb.Collection{
		orb.Point{5, 5},
		orb.LineString{{60, 40}, {61, 41}},
	})
	poly := marshal(t, square(0, 0, 10, 10))

	rel := collection.AnyRelation(poly)
	assert.True(t, rel.Intersects, "the point member lands in the polygon")
	assert.True(t, rel.Contained, "per-part OR: one part inside is enough")
}

func TestMaskSkipsUnrequestedBits(t *testing.T) {
	outer := marshal(t, square(0, 0, 10, 10))
	inner := marshal(t, square(2, 2, 8, 8))

	rel := outer.Relation(inner, MaskIntersects)
	assert.True(t, rel.Intersects)
	assert.False(t, rel.StrictContains, "not requested, must stay unset")

	assert.Equal(t, Relation{}, outer.Relation(inner, 0))
}

func TestPolygonViewRelation(t *testing.T) {
	multi := marshal(t, orb.MultiPolygon{
		square(0, 0, 10, 10),
		square(100, 0, 110, 10),
	})
	cell := marshal(t, square(2, 2, 8, 8))

	polys := multi.MultiPolygon().Polygons()
	require.Len(t, polys, 2)
	assert.True(t, polys[0].Relation(cell, MaskStrictContains).StrictContains)
	assert.False(t, polys[1].Relation(cell, MaskStrictContains).StrictContains)
}

func TestTransmeridianBound(t *testing.T) {
	// A shape with raw coordinates on both sides of ±180 reads as a
	// wrapping box.
	wrap := marshal(t, orb.Polygon{{{179, 0}, {-179, 0}, {-179, 2}, {179, 2}, {179, 0}}})
	require.True(t, wrap.Bound().Transmeridian())

	near := Bound{MinLng: 179.2, MaxLng: 179.8, MinLat: 0, MaxLat: 2}
	assert.True(t, wrap.Bound().Overlaps(near), "east side of the seam")

	farWest := Bound{MinLng: -179.9, MaxLng: -179.2, MinLat: 0, MaxLat: 2}
	assert.True(t, wrap.Bound().Overlaps(farWest), "west side of the seam")

	middle := Bound{MinLng: -10, MaxLng: 10, MinLat: 0, MaxLat: 2}
	assert.False(t, wrap.Bound().Overlaps(middle), "the wrap excludes the prime meridian")
}
