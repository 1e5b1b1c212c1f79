package h3x

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
	h3 "github.com/uber/h3-go/v4"

	"github.com/Aman-CERP/cellulite/pkg/zerometry"
)

// CellShape bundles the two forms a cell boundary is needed in: the orb
// polygon for tiling and the serialized form for relation computations.
type CellShape struct {
	Polygon orb.Polygon
	Zer     zerometry.Zerometry
}

// ShapeCache memoizes cell boundaries. Both the builder and the reader ask
// for the same handful of boundaries over and over while walking a subtree.
type ShapeCache struct {
	cache *lru.Cache[h3.Cell, CellShape]
}

// NewShapeCache returns a cache holding up to size boundaries.
func NewShapeCache(size int) (*ShapeCache, error) {
	cache, err := lru.New[h3.Cell, CellShape](size)
	if err != nil {
		return nil, err
	}
	return &ShapeCache{cache: cache}, nil
}

// Get returns the cached shape of a cell, computing and storing it on miss.
func (c *ShapeCache) Get(cell h3.Cell) (CellShape, error) {
	if shape, ok := c.cache.Get(cell); ok {
		return shape, nil
	}
	polygon, err := CellPolygon(cell)
	if err != nil {
		return CellShape{}, err
	}
	raw, err := zerometry.Marshal(polygon)
	if err != nil {
		return CellShape{}, err
	}
	zer, err := zerometry.FromBytes(raw)
	if err != nil {
		return CellShape{}, err
	}
	shape := CellShape{Polygon: polygon, Zer: zer}
	c.cache.Add(cell, shape)
	return shape, nil
}
