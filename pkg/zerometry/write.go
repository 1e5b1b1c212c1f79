package zerometry

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/paulmach/orb"
)

// Marshal serializes an orb geometry. Bounding boxes are computed while
// writing. Polygon holes are dropped; nested collections are flattened into
// the canonical point/line/polygon triple.
func Marshal(g orb.Geometry) ([]byte, error) {
	return Append(nil, g)
}

// Write serializes g and writes the bytes to w.
func Write(w io.Writer, g orb.Geometry) error {
	buf, err := Marshal(g)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// Append serializes g at the end of dst and returns the extended slice.
func Append(dst []byte, g orb.Geometry) ([]byte, error) {
	switch g := g.(type) {
	case orb.Point:
		dst = appendTag(dst, TypePoint)
		return appendCoord(dst, g), nil
	case orb.MultiPoint:
		dst = appendTag(dst, TypeMultiPoints)
		return appendMultiPoints(dst, g), nil
	case orb.LineString:
		if len(g) < 2 {
			return nil, fmt.Errorf("line with %d coordinates, need at least 2", len(g))
		}
		dst = appendTag(dst, TypeLine)
		return appendCoordList(dst, g), nil
	case orb.MultiLineString:
		dst = appendTag(dst, TypeMultiLines)
		return appendMultiLines(dst, g)
	case orb.Ring:
		return Append(dst, orb.Polygon{g})
	case orb.Polygon:
		ring, err := exteriorRing(g)
		if err != nil {
			return nil, err
		}
		dst = appendTag(dst, TypePolygon)
		return appendCoordList(dst, ring), nil
	case orb.MultiPolygon:
		dst = appendTag(dst, TypeMultiPolygon)
		return appendMultiPolygon(dst, g)
	case orb.Bound:
		return Append(dst, g.ToPolygon())
	case orb.Collection:
		points, lines, polygons := flatten(g)
		dst = appendTag(dst, TypeCollection)
		return appendCollection(dst, points, lines, polygons)
	default:
		return nil, fmt.Errorf("unsupported geometry type %T", g)
	}
}

// flatten buckets every member of a collection, recursively, into the three
// canonical multi geometries.
func flatten(c orb.Collection) (orb.MultiPoint, orb.MultiLineString, orb.MultiPolygon) {
	var points orb.MultiPoint
	var lines orb.MultiLineString
	var polygons orb.MultiPolygon
	for _, g := range c {
		switch g := g.(type) {
		case orb.Point:
			points = append(points, g)
		case orb.MultiPoint:
			points = append(points, g...)
		case orb.LineString:
			lines = append(lines, g)
		case orb.MultiLineString:
			lines = append(lines, g...)
		case orb.Ring:
			polygons = append(polygons, orb.Polygon{g})
		case orb.Polygon:
			polygons = append(polygons, g)
		case orb.MultiPolygon:
			polygons = append(polygons, g...)
		case orb.Bound:
			polygons = append(polygons, g.ToPolygon())
		case orb.Collection:
			p, l, pl := flatten(g)
			points = append(points, p...)
			lines = append(lines, l...)
			polygons = append(polygons, pl...)
		}
	}
	return points, lines, polygons
}

// exteriorRing returns the closed exterior ring of a polygon, closing it if
// the input left it open. Holes are dropped.
func exteriorRing(p orb.Polygon) (orb.Ring, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("polygon without an exterior ring")
	}
	ring := p[0]
	if len(ring) >= 2 && ring[0] != ring[len(ring)-1] {
		closed := make(orb.Ring, len(ring)+1)
		copy(closed, ring)
		closed[len(ring)] = ring[0]
		ring = closed
	}
	if len(ring) < 4 {
		return nil, fmt.Errorf("polygon ring with %d coordinates, need at least 4", len(ring))
	}
	return ring, nil
}

func appendTag(dst []byte, t Type) []byte {
	return append(dst, byte(t), 0, 0, 0, 0, 0, 0, 0)
}

func appendFloat(dst []byte, f float64) []byte {
	return binary.LittleEndian.AppendUint64(dst, math.Float64bits(f))
}

func appendCoord(dst []byte, p orb.Point) []byte {
	dst = appendFloat(dst, p[0])
	return appendFloat(dst, p[1])
}

func appendBound(dst []byte, b Bound) []byte {
	dst = appendFloat(dst, b.MinLng)
	dst = appendFloat(dst, b.MaxLng)
	dst = appendFloat(dst, b.MinLat)
	return appendFloat(dst, b.MaxLat)
}

func appendMultiHeader(dst []byte, b Bound, count int) []byte {
	dst = appendBound(dst, b)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(count))
	return append(dst, 0, 0, 0, 0)
}

func coordsBound(pts []orb.Point) Bound {
	if len(pts) == 0 {
		return Bound{}
	}
	b := Bound{MinLng: pts[0][0], MaxLng: pts[0][0], MinLat: pts[0][1], MaxLat: pts[0][1]}
	for _, p := range pts[1:] {
		b.extend(p[0], p[1])
	}
	return b
}

func appendCoordList(dst []byte, pts []orb.Point) []byte {
	dst = appendMultiHeader(dst, coordsBound(pts), len(pts))
	for _, p := range pts {
		dst = appendCoord(dst, p)
	}
	return dst
}

func appendMultiPoints(dst []byte, pts orb.MultiPoint) []byte {
	return appendCoordList(dst, pts)
}

func appendMultiLines(dst []byte, lines orb.MultiLineString) ([]byte, error) {
	var b Bound
	for i, l := range lines {
		if len(l) < 2 {
			return nil, fmt.Errorf("line with %d coordinates, need at least 2", len(l))
		}
		lb := coordsBound(l)
		if i == 0 {
			b = lb
		} else {
			b.merge(lb)
		}
	}
	dst = appendMultiHeader(dst, b, len(lines))
	for _, l := range lines {
		dst = appendCoordList(dst, l)
	}
	return dst, nil
}

func appendMultiPolygon(dst []byte, polys orb.MultiPolygon) ([]byte, error) {
	rings := make([]orb.Ring, len(polys))
	var b Bound
	for i, p := range polys {
		ring, err := exteriorRing(p)
		if err != nil {
			return nil, err
		}
		rings[i] = ring
		rb := coordsBound(ring)
		if i == 0 {
			b = rb
		} else {
			b.merge(rb)
		}
	}
	dst = appendMultiHeader(dst, b, len(rings))
	for _, ring := range rings {
		dst = appendCoordList(dst, ring)
	}
	return dst, nil
}

func appendCollection(dst []byte, points orb.MultiPoint, lines orb.MultiLineString, polygons orb.MultiPolygon) ([]byte, error) {
	var b Bound
	seeded := false
	seed := func(nb Bound) {
		if seeded {
			b.merge(nb)
		} else {
			b = nb
			seeded = true
		}
	}
	if len(points) > 0 {
		seed(coordsBound(points))
	}
	for _, l := range lines {
		seed(coordsBound(l))
	}
	for _, p := range polygons {
		if len(p) > 0 {
			seed(coordsBound(p[0]))
		}
	}
	dst = appendBound(dst, b)
	dst = appendMultiPoints(dst, points)
	var err error
	dst, err = appendMultiLines(dst, lines)
	if err != nil {
		return nil, err
	}
	return appendMultiPolygon(dst, polygons)
}
