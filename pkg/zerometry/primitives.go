package zerometry

// crossProduct returns twice the signed area of the triangle (a, b, c). Positive when c
// is left of a→b, zero when collinear.
func crossProduct(ax, ay, bx, by, cx, cy float64) float64 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// onSegment reports whether (px, py), already known to be collinear with
// the segment, lies within its bounding box.
func onSegment(px, py, ax, ay, bx, by float64) bool {
	return minf(ax, bx) <= px && px <= maxf(ax, bx) &&
		minf(ay, by) <= py && py <= maxf(ay, by)
}

type segClass uint8

const (
	segNone segClass = iota
	// segTouch covers shared endpoints and collinear overlap.
	segTouch
	// segProper is a crossing with both segments split in two.
	segProper
)

// classifySegments computes how segment a1→a2 meets segment b1→b2.
func classifySegments(a1x, a1y, a2x, a2y, b1x, b1y, b2x, b2y float64) segClass {
	d1 := crossProduct(b1x, b1y, b2x, b2y, a1x, a1y)
	d2 := crossProduct(b1x, b1y, b2x, b2y, a2x, a2y)
	d3 := crossProduct(a1x, a1y, a2x, a2y, b1x, b1y)
	d4 := crossProduct(a1x, a1y, a2x, a2y, b2x, b2y)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return segProper
	}
	if d1 == 0 && onSegment(a1x, a1y, b1x, b1y, b2x, b2y) {
		return segTouch
	}
	if d2 == 0 && onSegment(a2x, a2y, b1x, b1y, b2x, b2y) {
		return segTouch
	}
	if d3 == 0 && onSegment(b1x, b1y, a1x, a1y, a2x, a2y) {
		return segTouch
	}
	if d4 == 0 && onSegment(b2x, b2y, a1x, a1y, a2x, a2y) {
		return segTouch
	}
	return segNone
}

// pointInRing runs an even-odd ray cast along constant latitude. The ring
// is closed (first coordinate repeated last). onEdge is reported separately
// so callers can distinguish strict from inclusive containment.
func pointInRing(x, y float64, ring Line) (inside, onEdge bool) {
	n := ring.NumCoords()
	for i := 0; i+1 < n; i++ {
		x1, y1 := ring.Lng(i), ring.Lat(i)
		x2, y2 := ring.Lng(i+1), ring.Lat(i+1)
		if crossProduct(x1, y1, x2, y2, x, y) == 0 && onSegment(x, y, x1, y1, x2, y2) {
			return false, true
		}
		if (y1 > y) != (y2 > y) {
			xint := x1 + (y-y1)*(x2-x1)/(y2-y1)
			if x < xint {
				inside = !inside
			}
		}
	}
	return inside, false
}

// pointOnLine reports whether (x, y) lies on any segment of an open line.
func pointOnLine(x, y float64, line Line) bool {
	n := line.NumCoords()
	for i := 0; i+1 < n; i++ {
		x1, y1 := line.Lng(i), line.Lat(i)
		x2, y2 := line.Lng(i+1), line.Lat(i+1)
		if crossProduct(x1, y1, x2, y2, x, y) == 0 && onSegment(x, y, x1, y1, x2, y2) {
			return true
		}
	}
	return false
}

// edgesRelation classifies the strongest contact between the segments of
// two coordinate lists: proper crossing beats touch beats none.
func edgesRelation(a, b Line) segClass {
	best := segNone
	na, nb := a.NumCoords(), b.NumCoords()
	for i := 0; i+1 < na; i++ {
		a1x, a1y := a.Lng(i), a.Lat(i)
		a2x, a2y := a.Lng(i+1), a.Lat(i+1)
		for j := 0; j+1 < nb; j++ {
			switch classifySegments(a1x, a1y, a2x, a2y, b.Lng(j), b.Lat(j), b.Lng(j+1), b.Lat(j+1)) {
			case segProper:
				return segProper
			case segTouch:
				best = segTouch
			}
		}
	}
	return best
}

// vertexCount classifies every vertex of a coordinate list against a ring.
type vertexCount struct {
	inside  int
	onEdge  int
	outside int
}

func countVerticesInRing(coords Line, ring Line) vertexCount {
	var c vertexCount
	n := coords.NumCoords()
	for i := 0; i < n; i++ {
		inside, onEdge := pointInRing(coords.Lng(i), coords.Lat(i), ring)
		switch {
		case onEdge:
			c.onEdge++
		case inside:
			c.inside++
		default:
			c.outside++
		}
	}
	return c
}
