// Package h3x wraps the parts of the H3 grid library cellulite relies on:
// covers-mode polygon tiling, line plotting, the child covering used by the
// recursive splitter, and great-circle polygon helpers.
package h3x

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	h3 "github.com/uber/h3-go/v4"
)

// MaxResolution is the finest H3 resolution.
const MaxResolution = 15

// LatLngCell returns the cell containing (lat, lng) at the given resolution.
func LatLngCell(lat, lng float64, res int) (h3.Cell, error) {
	return h3.LatLngToCell(h3.NewLatLng(lat, lng), res)
}

// Res0Cells returns the 122 base cells.
func Res0Cells() ([]h3.Cell, error) {
	return h3.Res0Cells()
}

// CellPolygon returns the closed boundary ring of a cell.
func CellPolygon(cell h3.Cell) (orb.Polygon, error) {
	boundary, err := h3.CellToBoundary(cell)
	if err != nil {
		return nil, err
	}
	ring := make(orb.Ring, 0, len(boundary)+1)
	for _, v := range boundary {
		ring = append(ring, orb.Point{v.Lng, v.Lat})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}, nil
}

func geoLoop(ring orb.Ring) h3.GeoLoop {
	loop := make(h3.GeoLoop, 0, len(ring))
	for _, p := range ring {
		loop = append(loop, h3.NewLatLng(p[1], p[0]))
	}
	return loop
}

// Cover tiles a polygon at the given resolution in covers mode: every cell
// that overlaps the polygon in any way is returned.
func Cover(polygon orb.Polygon, res int) ([]h3.Cell, error) {
	if len(polygon) == 0 {
		return nil, nil
	}
	gp := h3.GeoPolygon{GeoLoop: geoLoop(polygon[0])}
	return h3.PolygonToCellsExperimental(gp, res, h3.ContainmentOverlapping)
}

// avgEdgeMeters is the average hexagon edge length per resolution, used to
// pick the sampling step when plotting lines.
var avgEdgeMeters = [16]float64{
	1281256.011, 483056.8391, 182512.9565, 68979.22179,
	26071.75968, 9854.090990, 3724.532667, 1406.475763,
	531.4140101, 200.7861476, 75.86378287, 28.66389748,
	10.83018784, 4.092010473, 1.546099657, 0.584168630,
}

// PlotLine rasterizes a line at the given resolution: every segment is
// sampled along its great circle at a quarter of the cell edge length and
// each sample maps to its cell. Consecutive duplicates are dropped; cells
// revisited by later segments are left in.
func PlotLine(line orb.LineString, res int) ([]h3.Cell, error) {
	step := avgEdgeMeters[res] / 4

	var out []h3.Cell
	var last h3.Cell
	visit := func(p orb.Point) error {
		cell, err := LatLngCell(p[1], p[0], res)
		if err != nil {
			return err
		}
		if len(out) == 0 || cell != last {
			out = append(out, cell)
			last = cell
		}
		return nil
	}

	for i := 0; i+1 < len(line); i++ {
		cur, end := line[i], line[i+1]
		if err := visit(cur); err != nil {
			return nil, err
		}
		for geo.Distance(cur, end) > step {
			cur = geo.PointAtBearingAndDistance(cur, geo.Bearing(cur, end), step)
			if err := visit(cur); err != nil {
				return nil, err
			}
		}
	}
	if err := visit(line[len(line)-1]); err != nil {
		return nil, err
	}
	return out, nil
}

// ChildrenCovering returns the cells used to tile a parent cell at the next
// resolution: the center child and its grid disk of radius 2. The disk
// intentionally over-covers the parent; the native seven children leave
// gaps around pentagon distortions. Returns nil when the parent is already
// at the finest resolution.
func ChildrenCovering(cell h3.Cell) ([]h3.Cell, error) {
	res := cell.Resolution()
	if res >= MaxResolution {
		return nil, nil
	}
	center, err := cell.CenterChild(res + 1)
	if err != nil {
		return nil, err
	}
	return h3.GridDisk(center, 2)
}

// Densify subdivides every edge of the polygon along great circles until no
// segment is longer than maxSegmentMeters.
func Densify(polygon orb.Polygon, maxSegmentMeters float64) orb.Polygon {
	out := make(orb.Polygon, 0, len(polygon))
	for _, ring := range polygon {
		out = append(out, densifyRing(ring, maxSegmentMeters))
	}
	return out
}

func densifyRing(ring orb.Ring, maxSegmentMeters float64) orb.Ring {
	if len(ring) < 2 {
		return ring
	}
	out := make(orb.Ring, 0, len(ring))
	for i := 0; i+1 < len(ring); i++ {
		out = append(out, ring[i])
		cur, end := ring[i], ring[i+1]
		for geo.Distance(cur, end) > maxSegmentMeters {
			cur = geo.PointAtBearingAndDistance(cur, geo.Bearing(cur, end), maxSegmentMeters)
			out = append(out, cur)
		}
	}
	return append(out, ring[len(ring)-1])
}

// CirclePolygon builds the polygon inscribed in the circle of the given
// radius: vertices sit on the ring, so the polygon never covers ground
// outside the true circle.
func CirclePolygon(center orb.Point, radiusMeters float64, vertices int) orb.Polygon {
	ring := make(orb.Ring, 0, vertices+1)
	for i := 0; i < vertices; i++ {
		bearing := 360 * float64(i) / float64(vertices)
		ring = append(ring, geo.PointAtBearingAndDistance(center, bearing, radiusMeters))
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}
