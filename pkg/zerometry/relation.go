package zerometry

// Mask selects which relation bits a caller needs. Skipping bits skips the
// corresponding vertex and edge scans.
type Mask uint8

const (
	MaskStrictContains Mask = 1 << iota
	MaskContained
	MaskStrictContained
	MaskIntersects
)

// MaskAll requests every relation bit.
const MaskAll = MaskStrictContains | MaskContained | MaskStrictContained | MaskIntersects

// Relation is the summary of how a subject shape relates to an object
// shape. Only the bits requested through the mask are filled; the rest stay
// false. "Strict" means boundary-disjoint containment.
type Relation struct {
	// StrictContains: the subject properly contains the object.
	StrictContains bool
	// Contained: the subject lies inside the object, boundary contact allowed.
	Contained bool
	// StrictContained: the subject lies properly inside the object.
	StrictContained bool
	// Intersects: the shapes share at least one point.
	Intersects bool
}

// Any reports whether any relation bit is set.
func (r Relation) Any() bool {
	return r.StrictContains || r.Contained || r.StrictContained || r.Intersects
}

func (r *Relation) or(o Relation) {
	r.StrictContains = r.StrictContains || o.StrictContains
	r.Contained = r.Contained || o.Contained
	r.StrictContained = r.StrictContained || o.StrictContained
	r.Intersects = r.Intersects || o.Intersects
}

func (r Relation) covers(mask Mask) bool {
	if mask&MaskStrictContains != 0 && !r.StrictContains {
		return false
	}
	if mask&MaskContained != 0 && !r.Contained {
		return false
	}
	if mask&MaskStrictContained != 0 && !r.StrictContained {
		return false
	}
	if mask&MaskIntersects != 0 && !r.Intersects {
		return false
	}
	return true
}

// AnyRelation computes every relation bit between z and other.
func (z Zerometry) AnyRelation(other Zerometry) Relation {
	return z.Relation(other, MaskAll)
}

// Relation computes the requested relation bits between z (subject) and
// other (object). Disjoint bounding boxes short-circuit to no relation.
// Multi-part shapes combine per-part relations with OR.
func (z Zerometry) Relation(other Zerometry, mask Mask) Relation {
	if mask == 0 {
		return Relation{}
	}
	if !z.Bound().Overlaps(other.Bound()) {
		return Relation{}
	}
	return relateParts(z.parts(), other.parts(), mask)
}

// Relation computes the requested bits between the polygon (subject) and
// other (object). Used where a single polygon of a multi-part shape is the
// subject, e.g. classifying one polygon against a grid cell.
func (p Polygon) Relation(other Zerometry, mask Mask) Relation {
	if mask == 0 {
		return Relation{}
	}
	if !p.Bound().Overlaps(other.Bound()) {
		return Relation{}
	}
	return relateParts([]part{ringPart(p.Ring())}, other.parts(), mask)
}

func relateParts(subject, object []part, mask Mask) Relation {
	var out Relation
scan:
	for _, a := range subject {
		for _, b := range object {
			out.or(partRelation(a, b, mask))
			if out.covers(mask) {
				break scan
			}
		}
	}
	// Some part relations fill bits for free; keep only the requested ones.
	out.StrictContains = out.StrictContains && mask&MaskStrictContains != 0
	out.Contained = out.Contained && mask&MaskContained != 0
	out.StrictContained = out.StrictContained && mask&MaskStrictContained != 0
	out.Intersects = out.Intersects && mask&MaskIntersects != 0
	return out
}

type partKind uint8

const (
	partPoint partKind = iota
	partLine
	partRing
)

// part is one primitive component of a shape: a point, an open line, or a
// closed polygon exterior ring. Rings reuse the Line view.
type part struct {
	kind  partKind
	point Point
	line  Line
}

func pointPart(p Point) part { return part{kind: partPoint, point: p} }
func linePart(l Line) part   { return part{kind: partLine, line: l} }
func ringPart(l Line) part   { return part{kind: partRing, line: l} }

func (z Zerometry) parts() []part {
	switch z.Type() {
	case TypePoint:
		return []part{pointPart(z.Point())}
	case TypeMultiPoints:
		return multiPointsParts(z.MultiPoints(), nil)
	case TypeLine:
		return []part{linePart(z.Line())}
	case TypeMultiLines:
		return multiLinesParts(z.MultiLines(), nil)
	case TypePolygon:
		return []part{ringPart(z.Polygon().Ring())}
	case TypeMultiPolygon:
		return multiPolygonParts(z.MultiPolygon(), nil)
	case TypeCollection:
		c := z.Collection()
		out := multiPointsParts(c.Points(), nil)
		out = multiLinesParts(c.Lines(), out)
		return multiPolygonParts(c.Polygons(), out)
	default:
		return nil
	}
}

func multiPointsParts(m MultiPoints, out []part) []part {
	for i, n := 0, m.NumPoints(); i < n; i++ {
		out = append(out, pointPart(m.PointAt(i)))
	}
	return out
}

func multiLinesParts(m MultiLines, out []part) []part {
	for _, l := range m.Lines() {
		out = append(out, linePart(l))
	}
	return out
}

func multiPolygonParts(m MultiPolygon, out []part) []part {
	for _, p := range m.Polygons() {
		out = append(out, ringPart(p.Ring()))
	}
	return out
}

func partRelation(a, b part, mask Mask) Relation {
	switch a.kind {
	case partPoint:
		return pointPartRelation(a.point, b)
	case partLine:
		return linePartRelation(a.line, b, mask)
	default:
		return ringPartRelation(a.line, b, mask)
	}
}

func pointPartRelation(p Point, b part) Relation {
	x, y := p.Lng(), p.Lat()
	switch b.kind {
	case partPoint:
		if x == b.point.Lng() && y == b.point.Lat() {
			return Relation{Intersects: true, Contained: true}
		}
		return Relation{}
	case partLine:
		if pointOnLine(x, y, b.line) {
			return Relation{Intersects: true, Contained: true}
		}
		return Relation{}
	default:
		inside, onEdge := pointInRing(x, y, b.line)
		switch {
		case inside:
			return Relation{Intersects: true, Contained: true, StrictContained: true}
		case onEdge:
			return Relation{Intersects: true, Contained: true}
		default:
			return Relation{}
		}
	}
}

func linePartRelation(l Line, b part, mask Mask) Relation {
	switch b.kind {
	case partPoint:
		if pointOnLine(b.point.Lng(), b.point.Lat(), l) {
			return Relation{Intersects: true}
		}
		return Relation{}
	case partLine:
		if edgesRelation(l, b.line) != segNone {
			return Relation{Intersects: true}
		}
		return Relation{}
	default:
		return lineRingRelation(l, b.line, mask)
	}
}

// lineRingRelation relates an open line (subject) to a polygon ring
// (object).
func lineRingRelation(l, ring Line, mask Mask) Relation {
	edges := edgesRelation(l, ring)
	verts := countVerticesInRing(l, ring)

	var out Relation
	out.Intersects = edges != segNone || verts.inside > 0 || verts.onEdge > 0
	if mask&MaskContained != 0 {
		out.Contained = edges != segProper && verts.outside == 0
	}
	if mask&MaskStrictContained != 0 {
		out.StrictContained = edges == segNone && verts.onEdge == 0 && verts.outside == 0 && verts.inside > 0
	}
	return out
}

func ringPartRelation(ring Line, b part, mask Mask) Relation {
	switch b.kind {
	case partPoint:
		inside, onEdge := pointInRing(b.point.Lng(), b.point.Lat(), ring)
		switch {
		case inside:
			return Relation{Intersects: true, StrictContains: true}
		case onEdge:
			return Relation{Intersects: true}
		default:
			return Relation{}
		}
	case partLine:
		// Mirror of lineRingRelation with the ring as subject.
		edges := edgesRelation(b.line, ring)
		verts := countVerticesInRing(b.line, ring)
		var out Relation
		out.Intersects = edges != segNone || verts.inside > 0 || verts.onEdge > 0
		if mask&MaskStrictContains != 0 {
			out.StrictContains = edges == segNone && verts.onEdge == 0 && verts.outside == 0 && verts.inside > 0
		}
		return out
	default:
		return ringRingRelation(ring, b.line, mask)
	}
}

// ringRingRelation relates two polygon exterior rings. Containment reduces
// to every vertex of one ring inside the other with no edge crossing;
// intersection is any segment contact or any vertex inclusion.
func ringRingRelation(a, b Line, mask Mask) Relation {
	edges := edgesRelation(a, b)

	var out Relation
	if edges == segProper {
		out.Intersects = true
		return out
	}

	aInB := countVerticesInRing(a, b)
	out.Intersects = edges != segNone || aInB.inside > 0 || aInB.onEdge > 0

	if mask&(MaskContained|MaskStrictContained) != 0 {
		if mask&MaskContained != 0 {
			out.Contained = aInB.outside == 0 && (aInB.inside > 0 || aInB.onEdge > 0)
		}
		if mask&MaskStrictContained != 0 {
			out.StrictContained = edges == segNone && aInB.onEdge == 0 && aInB.outside == 0 && aInB.inside > 0
		}
	}

	if mask&(MaskStrictContains|MaskIntersects) != 0 && (mask&MaskStrictContains != 0 || !out.Intersects) {
		bInA := countVerticesInRing(b, a)
		out.Intersects = out.Intersects || bInA.inside > 0 || bInA.onEdge > 0
		if mask&MaskStrictContains != 0 {
			out.StrictContains = edges == segNone && bInA.onEdge == 0 && bInA.outside == 0 && bInA.inside > 0
		}
	}
	return out
}
