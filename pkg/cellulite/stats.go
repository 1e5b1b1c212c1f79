package cellulite

import (
	"github.com/RoaringBitmap/roaring/v2"
	h3 "github.com/uber/h3-go/v4"
	bolt "go.etcd.io/bbolt"

	"github.com/Aman-CERP/cellulite/pkg/zerometry"
)

// Stats is a snapshot of the index contents.
type Stats struct {
	// TotalItems is the number of stored geometries.
	TotalItems int
	// TotalCells is the number of cell rows.
	TotalCells int
	// TotalBellyCells is the number of belly rows.
	TotalBellyCells int
	// CellsByResolution counts cell rows per resolution.
	CellsByResolution map[int]int
	// BellyCellsByResolution counts belly rows per resolution.
	BellyCellsByResolution map[int]int
}

// Stats scans the index and returns population counts and per-resolution
// histograms.
func (idx *Index) Stats(tx *bolt.Tx) (Stats, error) {
	stats := Stats{
		CellsByResolution:      make(map[int]int),
		BellyCellsByResolution: make(map[int]int),
	}

	err := idx.Items(tx, func(uint32, zerometry.Zerometry) error {
		stats.TotalItems++
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	err = idx.cells(tx).ForEach(func(k, _ []byte) error {
		cell, variant, err := cellFromKey(k)
		if err != nil {
			return err
		}
		switch variant {
		case KeyVariantCell:
			stats.TotalCells++
			stats.CellsByResolution[cell.Resolution()]++
		case KeyVariantBelly:
			stats.TotalBellyCells++
			stats.BellyCellsByResolution[cell.Resolution()]++
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// CellPopulation returns the stored bitmap of one cell variant, or nil
// when the row is absent. Mostly useful for tests and tooling.
func (idx *Index) CellPopulation(tx *bolt.Tx, cell h3.Cell, variant byte) (*roaring.Bitmap, error) {
	return idx.cellBitmap(tx, cell, variant)
}
