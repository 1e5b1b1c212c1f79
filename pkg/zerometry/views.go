package zerometry

import (
	"encoding/binary"

	"github.com/paulmach/orb"
)

// Point is a borrowed view over a single (lng, lat) pair.
type Point struct {
	buf []byte
}

func (p Point) Lng() float64 { return readFloat(p.buf[0:]) }
func (p Point) Lat() float64 { return readFloat(p.buf[8:]) }

func (p Point) ToOrb() orb.Point { return orb.Point{p.Lng(), p.Lat()} }

// MultiPoints is a borrowed view over a bbox header and inline coordinates.
type MultiPoints struct {
	buf []byte
}

func (m MultiPoints) Bound() Bound { return readBound(m.buf) }

func (m MultiPoints) NumPoints() int {
	return int(binary.LittleEndian.Uint32(m.buf[bboxSize:]))
}

func (m MultiPoints) PointAt(i int) Point {
	off := multiHeaderSize + i*coordSize
	return Point{buf: m.buf[off : off+coordSize]}
}

func (m MultiPoints) ToOrb() orb.MultiPoint {
	out := make(orb.MultiPoint, m.NumPoints())
	for i := range out {
		out[i] = m.PointAt(i).ToOrb()
	}
	return out
}

func (m MultiPoints) byteLen() int {
	return multiHeaderSize + m.NumPoints()*coordSize
}

// Line is a borrowed view over a bbox header and at least two coordinates.
// Polygon exterior rings share this layout with a closed coordinate list.
type Line struct {
	buf []byte
}

func (l Line) Bound() Bound { return readBound(l.buf) }

func (l Line) NumCoords() int {
	return int(binary.LittleEndian.Uint32(l.buf[bboxSize:]))
}

func (l Line) Lng(i int) float64 {
	return readFloat(l.buf[multiHeaderSize+i*coordSize:])
}

func (l Line) Lat(i int) float64 {
	return readFloat(l.buf[multiHeaderSize+i*coordSize+8:])
}

func (l Line) PointAt(i int) Point {
	off := multiHeaderSize + i*coordSize
	return Point{buf: l.buf[off : off+coordSize]}
}

func (l Line) ToOrb() orb.LineString {
	out := make(orb.LineString, l.NumCoords())
	for i := range out {
		out[i] = l.PointAt(i).ToOrb()
	}
	return out
}

func (l Line) byteLen() int {
	return multiHeaderSize + l.NumCoords()*coordSize
}

// MultiLines is a borrowed view over a bbox header and inline lines.
type MultiLines struct {
	buf []byte
}

func (m MultiLines) Bound() Bound { return readBound(m.buf) }

func (m MultiLines) NumLines() int {
	return int(binary.LittleEndian.Uint32(m.buf[bboxSize:]))
}

// LineAt walks the inline lines up to i. Iterate with Lines when visiting
// all of them.
func (m MultiLines) LineAt(i int) Line {
	off := multiHeaderSize
	for ; i > 0; i-- {
		off += Line{buf: m.buf[off:]}.byteLen()
	}
	return Line{buf: m.buf[off:]}
}

// Lines returns a view per inline line, in order.
func (m MultiLines) Lines() []Line {
	out := make([]Line, m.NumLines())
	off := multiHeaderSize
	for i := range out {
		l := Line{buf: m.buf[off:]}
		out[i] = l
		off += l.byteLen()
	}
	return out
}

func (m MultiLines) ToOrb() orb.MultiLineString {
	lines := m.Lines()
	out := make(orb.MultiLineString, len(lines))
	for i, l := range lines {
		out[i] = l.ToOrb()
	}
	return out
}

func (m MultiLines) byteLen() int {
	off := multiHeaderSize
	for i, n := 0, m.NumLines(); i < n; i++ {
		off += Line{buf: m.buf[off:]}.byteLen()
	}
	return off
}

// Polygon is a borrowed view over an exterior ring. Holes are not stored.
type Polygon struct {
	buf []byte
}

func (p Polygon) Bound() Bound { return readBound(p.buf) }

// Ring returns the closed exterior ring.
func (p Polygon) Ring() Line { return Line{buf: p.buf} }

func (p Polygon) ToOrb() orb.Polygon {
	return orb.Polygon{orb.Ring(p.Ring().ToOrb())}
}

func (p Polygon) byteLen() int { return p.Ring().byteLen() }

// MultiPolygon is a borrowed view over a bbox header and inline polygons.
type MultiPolygon struct {
	buf []byte
}

func (m MultiPolygon) Bound() Bound { return readBound(m.buf) }

func (m MultiPolygon) NumPolygons() int {
	return int(binary.LittleEndian.Uint32(m.buf[bboxSize:]))
}

// Polygons returns a view per inline polygon, in order.
func (m MultiPolygon) Polygons() []Polygon {
	out := make([]Polygon, m.NumPolygons())
	off := multiHeaderSize
	for i := range out {
		p := Polygon{buf: m.buf[off:]}
		out[i] = p
		off += p.byteLen()
	}
	return out
}

func (m MultiPolygon) ToOrb() orb.MultiPolygon {
	polys := m.Polygons()
	out := make(orb.MultiPolygon, len(polys))
	for i, p := range polys {
		out[i] = p.ToOrb()
	}
	return out
}

func (m MultiPolygon) byteLen() int {
	off := multiHeaderSize
	for i, n := 0, m.NumPolygons(); i < n; i++ {
		off += Polygon{buf: m.buf[off:]}.byteLen()
	}
	return off
}

// Collection groups a MultiPoints, a MultiLines and a MultiPolygon, in that
// order, all addressable in place.
type Collection struct {
	buf []byte
}

func (c Collection) Bound() Bound { return readBound(c.buf) }

func (c Collection) Points() MultiPoints {
	return MultiPoints{buf: c.buf[bboxSize:]}
}

func (c Collection) Lines() MultiLines {
	off := bboxSize + c.Points().byteLen()
	return MultiLines{buf: c.buf[off:]}
}

func (c Collection) Polygons() MultiPolygon {
	off := bboxSize + c.Points().byteLen()
	off += c.Lines().byteLen()
	return MultiPolygon{buf: c.buf[off:]}
}

func (c Collection) ToOrb() orb.Collection {
	var out orb.Collection
	if pts := c.Points(); pts.NumPoints() > 0 {
		out = append(out, pts.ToOrb())
	}
	if lns := c.Lines(); lns.NumLines() > 0 {
		out = append(out, lns.ToOrb())
	}
	if pls := c.Polygons(); pls.NumPolygons() > 0 {
		out = append(out, pls.ToOrb())
	}
	return out
}
