package cellulite

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/paulmach/orb"
	h3 "github.com/uber/h3-go/v4"
	bolt "go.etcd.io/bbolt"

	"github.com/Aman-CERP/cellulite/internal/h3x"
	"github.com/Aman-CERP/cellulite/pkg/zerometry"
)

// densifySegmentMeters is the target edge length of the query polygon
// after great-circle densification. Long geodesic edges would otherwise
// skip over cells they actually traverse.
const densifySegmentMeters = 1_000

// deepDiveFanoutLimit is the number of children a single deep dive may
// produce before subsequent dives tile the cell polygon instead of the
// query polygon. Tiling an enormous query once per visited cell would blow
// up quadratically.
const deepDiveFanoutLimit = 3

// FilteringStep tags the reason a cell was handled the way it was during a
// query, for the inspector callback.
type FilteringStep int

const (
	// StepNotPresentInDB: the cell has no stored row.
	StepNotPresentInDB FilteringStep = iota
	// StepOutsideOfShape: the cell does not touch the query polygon.
	StepOutsideOfShape
	// StepReturned: the query polygon contains the cell; its whole bitmap
	// is part of the result.
	StepReturned
	// StepRequireDoubleCheck: the cell partially overlaps the query; its
	// items are verified one by one.
	StepRequireDoubleCheck
	// StepDeepDive: the cell partially overlaps the query and is large
	// enough to explore at the next resolution.
	StepDeepDive
)

func (s FilteringStep) String() string {
	switch s {
	case StepNotPresentInDB:
		return "NotPresentInDB"
	case StepOutsideOfShape:
		return "OutsideOfShape"
	case StepReturned:
		return "Returned"
	case StepRequireDoubleCheck:
		return "RequireDoubleCheck"
	case StepDeepDive:
		return "DeepDive"
	default:
		return "Unknown"
	}
}

// Inspector observes every cell visited by a query.
type Inspector func(step FilteringStep, cell h3.Cell)

// InShape returns the ids of all items whose geometry is contained in or
// intersects the query polygon.
func (idx *Index) InShape(tx *bolt.Tx, polygon orb.Polygon) (*roaring.Bitmap, error) {
	return idx.InShapeWithInspector(tx, polygon, nil)
}

// InShapeWithInspector is InShape with a callback reporting how each
// visited cell was classified. The callback order follows the traversal;
// the returned set does not depend on it.
func (idx *Index) InShapeWithInspector(tx *bolt.Tx, polygon orb.Polygon, inspector Inspector) (*roaring.Bitmap, error) {
	if inspector == nil {
		inspector = func(FilteringStep, h3.Cell) {}
	}

	query := h3x.Densify(polygon, densifySegmentMeters)
	queryRaw, err := zerometry.Marshal(query)
	if err != nil {
		return nil, err
	}
	queryZ, err := zerometry.FromBytes(queryRaw)
	if err != nil {
		return nil, err
	}

	frontier, err := h3x.Cover(query, 0)
	if err != nil {
		return nil, err
	}

	ret := roaring.New()
	doubleCheck := roaring.New()
	explored := make(map[h3.Cell]struct{}, len(frontier))
	tooLarge := false

	for len(frontier) > 0 {
		cell := frontier[0]
		frontier = frontier[1:]
		if _, seen := explored[cell]; seen {
			continue
		}
		explored[cell] = struct{}{}

		// One range scan fetches both rows of the cell; the key order
		// keeps them adjacent.
		items, belly, err := idx.retrieveCellAndBelly(tx, cell)
		if err != nil {
			return nil, err
		}
		if items == nil && belly == nil {
			inspector(StepNotPresentInDB, cell)
			continue
		}

		shape, err := idx.shapes.Get(cell)
		if err != nil {
			return nil, err
		}
		rel := shape.Zer.Relation(queryZ, zerometry.MaskContained|zerometry.MaskIntersects)
		switch {
		case rel.Contained:
			// The query contains the whole cell: everything in it matches,
			// belly items included.
			inspector(StepReturned, cell)
			if items != nil {
				ret.Or(items)
			}
			if belly != nil {
				ret.Or(belly)
			}

		case rel.Intersects:
			// Belly items cover the whole cell, so they intersect the
			// query here; they are never stored at deeper resolutions, so
			// this is the only place to pick them up.
			if belly != nil {
				doubleCheck.Or(belly)
			}
			if items == nil || items.GetCardinality() <= idx.threshold || cell.Resolution() == h3x.MaxResolution {
				inspector(StepRequireDoubleCheck, cell)
				if items != nil {
					doubleCheck.Or(items)
				}
				continue
			}
			inspector(StepDeepDive, cell)
			dive := query
			if tooLarge {
				dive = shape.Polygon
			}
			children, err := h3x.Cover(dive, cell.Resolution()+1)
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				if _, seen := explored[child]; !seen {
					frontier = append(frontier, child)
				}
			}
			if len(children) > deepDiveFanoutLimit {
				tooLarge = true
			}

		default:
			inspector(StepOutsideOfShape, cell)
		}
	}

	// Items already returned exactly do not need a second look.
	doubleCheck.AndNot(ret)

	candidates := doubleCheck.GetCardinality()
	it := doubleCheck.Iterator()
	for it.HasNext() {
		item := it.Next()
		z, ok, err := idx.Item(tx, item)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &InternalDocIDMissingError{Item: item, Pos: pos()}
		}
		if z.AnyRelation(queryZ).Any() {
			ret.Add(item)
		}
	}

	idx.log.Debug("query: done",
		"visited", len(explored), "candidates", candidates, "returned", ret.GetCardinality())
	return ret, nil
}

// InCircle returns the ids of all items intersecting the circle of the
// given radius in meters, approximated by an inscribed polygon with the
// given number of vertices. The approximation is conservative: it may miss
// items close to the ring but never returns items outside the true circle.
func (idx *Index) InCircle(tx *bolt.Tx, center orb.Point, radiusMeters float64, vertices int) (*roaring.Bitmap, error) {
	return idx.InCircleWithInspector(tx, center, radiusMeters, vertices, nil)
}

// InCircleWithInspector is InCircle with an inspector callback.
func (idx *Index) InCircleWithInspector(tx *bolt.Tx, center orb.Point, radiusMeters float64, vertices int, inspector Inspector) (*roaring.Bitmap, error) {
	return idx.InShapeWithInspector(tx, h3x.CirclePolygon(center, radiusMeters, vertices), inspector)
}
