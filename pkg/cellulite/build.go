package cellulite

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	h3 "github.com/uber/h3-go/v4"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/cellulite/internal/h3x"
	"github.com/Aman-CERP/cellulite/pkg/version"
	"github.com/Aman-CERP/cellulite/pkg/zerometry"
)

// Build drains the pending updates and brings the cell hierarchy in sync
// with the items bucket:
//
//  1. drain the updates bucket into an inserted and a deleted set
//  2. remove deleted items from the items bucket and from every cell and
//     belly bitmap, dropping rows that become empty
//  3. snapshot the items bucket into memory
//  4. place every inserted item in its level-zero cells
//  5. recursively split the base cells whose population crossed the
//     threshold
//
// cancel is polled at every item and cell boundary; returning true aborts
// with ErrBuildCanceled and leaves the transaction to the caller. Every
// step is idempotent given the bucket state, so a canceled build can be
// retried. A nil cancel or progress is fine.
func (idx *Index) Build(tx *bolt.Tx, cancel func() bool, progress ProgressReporter) error {
	if cancel == nil {
		cancel = func() bool { return false }
	}
	if progress == nil {
		progress = noopProgress{}
	}

	dbVersion, err := idx.GetVersion(tx)
	if err != nil {
		return err
	}
	if dbVersion != version.Current {
		return &VersionMismatchError{Found: dbVersion}
	}

	started := time.Now()

	inserted, deleted, err := idx.drainUpdates(tx, cancel, progress)
	if err != nil {
		return err
	}
	idx.log.Debug("build: drained updates",
		"inserted", inserted.GetCardinality(), "deleted", deleted.GetCardinality())

	if err := idx.removeDeletedItems(tx, cancel, progress, deleted); err != nil {
		return err
	}

	snapshot, err := idx.snapshotItems(tx, cancel, progress)
	if err != nil {
		return err
	}

	if err := idx.insertAtLevelZero(tx, cancel, progress, inserted, snapshot); err != nil {
		return err
	}

	if err := idx.splitOverfullCells(tx, cancel, progress, inserted, snapshot); err != nil {
		return err
	}

	progress.Phase(PhaseWriteMetadata, 1)
	if err := idx.setVersion(tx, version.Current); err != nil {
		return err
	}
	progress.Advance(1)

	idx.log.Debug("build: done", "duration", time.Since(started))
	return nil
}

// drainUpdates splits the update queue into inserted and deleted sets,
// then truncates it. The queue keeps one entry per id, so the same id
// never lands in both sets.
func (idx *Index) drainUpdates(tx *bolt.Tx, cancel func() bool, progress ProgressReporter) (inserted, deleted *roaring.Bitmap, err error) {
	updates := idx.updates(tx)
	progress.Phase(PhaseDrainUpdates, uint64(updates.Stats().KeyN))

	inserted = roaring.New()
	deleted = roaring.New()
	err = updates.ForEach(func(k, v []byte) error {
		if cancel() {
			return ErrBuildCanceled
		}
		id := updateIDFromKey(k)
		switch v[0] {
		case updateInsert:
			inserted.Add(id)
		case updateDelete:
			deleted.Add(id)
		default:
			return fmt.Errorf("invalid update marker %d for item %d", v[0], id)
		}
		progress.Advance(1)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if err := tx.DeleteBucket(idx.updatesName); err != nil {
		return nil, nil, err
	}
	if _, err := tx.CreateBucket(idx.updatesName); err != nil {
		return nil, nil, err
	}
	return inserted, deleted, nil
}

// removeDeletedItems drops the deleted geometries, then walks every cell
// and belly row subtracting the deleted set. Emptied rows are removed. The
// full scan is required: the builder does not remember which cells once
// held a given item.
func (idx *Index) removeDeletedItems(tx *bolt.Tx, cancel func() bool, progress ProgressReporter, deleted *roaring.Bitmap) error {
	progress.Phase(PhaseRemoveDeletedItems, deleted.GetCardinality())
	if deleted.IsEmpty() {
		return nil
	}

	items := idx.items(tx)
	it := deleted.Iterator()
	for it.HasNext() {
		if cancel() {
			return ErrBuildCanceled
		}
		if err := items.Delete(itemKey(it.Next())); err != nil {
			return err
		}
		progress.Advance(1)
	}

	// One cursor pass covers both variants: cell and belly rows of one
	// cell are adjacent under the cell-first key order. Rewrites are
	// applied after the scan; only deletes are safe mid-cursor.
	type rewrite struct {
		key  []byte
		data []byte
	}
	var rewrites []rewrite

	cur := idx.cells(tx).Cursor()
	for k, v := cur.First(); k != nil; k, v = cur.Next() {
		if cancel() {
			return ErrBuildCanceled
		}
		bm, err := decodeBitmap(v)
		if err != nil {
			return err
		}
		before := bm.GetCardinality()
		bm.AndNot(deleted)
		if bm.GetCardinality() == before {
			continue
		}
		if bm.IsEmpty() {
			if err := cur.Delete(); err != nil {
				return err
			}
			continue
		}
		data, err := encodeBitmap(bm)
		if err != nil {
			return err
		}
		key := make([]byte, len(k))
		copy(key, k)
		rewrites = append(rewrites, rewrite{key: key, data: data})
	}

	cells := idx.cells(tx)
	for _, rw := range rewrites {
		if err := cells.Put(rw.key, rw.data); err != nil {
			return err
		}
	}
	return nil
}

// snapshotItems loads the whole items bucket into memory. The bytes are
// copied out of the transaction so later writes to the cells bucket cannot
// invalidate them.
func (idx *Index) snapshotItems(tx *bolt.Tx, cancel func() bool, progress ProgressReporter) (map[uint32]zerometry.Zerometry, error) {
	items := idx.items(tx)
	progress.Phase(PhaseSnapshotItems, uint64(items.Stats().KeyN))

	snapshot := make(map[uint32]zerometry.Zerometry, items.Stats().KeyN)
	err := items.ForEach(func(k, v []byte) error {
		if cancel() {
			return ErrBuildCanceled
		}
		owned := make([]byte, len(v))
		copy(owned, v)
		z, err := zerometry.FromBytes(owned)
		if err != nil {
			return err
		}
		snapshot[itemIDFromKey(k)] = z
		progress.Advance(1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// insertAtLevelZero computes the level-zero footprint of every inserted
// item in parallel, merges the per-worker maps, and ORs the result into
// the stored bitmaps.
func (idx *Index) insertAtLevelZero(tx *bolt.Tx, cancel func() bool, progress ProgressReporter, inserted *roaring.Bitmap, snapshot map[uint32]zerometry.Zerometry) error {
	progress.Phase(PhaseInsertLevelZero, inserted.GetCardinality())

	workers := runtime.GOMAXPROCS(0)
	type footprintMaps struct {
		cells map[h3.Cell]*roaring.Bitmap
		belly map[h3.Cell]*roaring.Bitmap
	}
	locals := make([]footprintMaps, workers)

	ids := make(chan uint32)
	group, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		local := &locals[w]
		local.cells = make(map[h3.Cell]*roaring.Bitmap)
		local.belly = make(map[h3.Cell]*roaring.Bitmap)
		group.Go(func() error {
			for item := range ids {
				if cancel() {
					return ErrBuildCanceled
				}
				shape, ok := snapshot[item]
				if !ok {
					return &InternalDocIDMissingError{Item: item, Pos: pos()}
				}
				cells, belly, err := idx.explodeLevelZero(item, shape)
				if err != nil {
					return err
				}
				for _, cell := range cells {
					bm, ok := local.cells[cell]
					if !ok {
						bm = roaring.New()
						local.cells[cell] = bm
					}
					bm.Add(item)
				}
				for _, cell := range belly {
					bm, ok := local.belly[cell]
					if !ok {
						bm = roaring.New()
						local.belly[cell] = bm
					}
					bm.Add(item)
				}
				progress.Advance(1)
			}
			return nil
		})
	}

	group.Go(func() error {
		defer close(ids)
		it := inserted.Iterator()
		for it.HasNext() {
			id := it.Next()
			select {
			case ids <- id:
			case <-ctx.Done():
				// A worker failed; its error surfaces from Wait.
				return nil
			}
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return err
	}

	// OR-merge the worker maps. The merge is commutative, so order does
	// not matter.
	toCells := make(map[h3.Cell]*roaring.Bitmap)
	toBelly := make(map[h3.Cell]*roaring.Bitmap)
	for _, local := range locals {
		mergeFootprint(toCells, local.cells)
		mergeFootprint(toBelly, local.belly)
	}

	for cell, items := range toCells {
		if cancel() {
			return ErrBuildCanceled
		}
		if err := idx.mergeCellBitmap(tx, cell, KeyVariantCell, items); err != nil {
			return err
		}
	}
	for cell, items := range toBelly {
		if cancel() {
			return ErrBuildCanceled
		}
		if err := idx.mergeCellBitmap(tx, cell, KeyVariantBelly, items); err != nil {
			return err
		}
	}
	return nil
}

func mergeFootprint(dst, src map[h3.Cell]*roaring.Bitmap) {
	for cell, bm := range src {
		if existing, ok := dst[cell]; ok {
			existing.Or(bm)
		} else {
			dst[cell] = bm
		}
	}
}

// explodeLevelZero maps one geometry to the level-zero cells it touches
// and the level-zero cells it covers entirely.
func (idx *Index) explodeLevelZero(item uint32, shape zerometry.Zerometry) (cells, belly []h3.Cell, err error) {
	switch shape.Type() {
	case zerometry.TypePoint:
		p := shape.Point()
		cell, err := h3x.LatLngCell(p.Lat(), p.Lng(), 0)
		if err != nil {
			return nil, nil, err
		}
		return []h3.Cell{cell}, nil, nil

	case zerometry.TypeMultiPoints:
		points := shape.MultiPoints()
		for i, n := 0, points.NumPoints(); i < n; i++ {
			p := points.PointAt(i)
			cell, err := h3x.LatLngCell(p.Lat(), p.Lng(), 0)
			if err != nil {
				return nil, nil, err
			}
			cells = append(cells, cell)
		}
		return cells, nil, nil

	case zerometry.TypeLine:
		cells, err = idx.plotLine(item, shape.Line())
		return cells, nil, err

	case zerometry.TypeMultiLines:
		for _, line := range shape.MultiLines().Lines() {
			plotted, err := idx.plotLine(item, line)
			if err != nil {
				return nil, nil, err
			}
			cells = append(cells, plotted...)
		}
		return cells, nil, nil

	case zerometry.TypePolygon:
		return idx.explodePolygon(shape.Polygon())

	case zerometry.TypeMultiPolygon:
		for _, polygon := range shape.MultiPolygon().Polygons() {
			c, b, err := idx.explodePolygon(polygon)
			if err != nil {
				return nil, nil, err
			}
			cells = append(cells, c...)
			belly = append(belly, b...)
		}
		return cells, belly, nil

	case zerometry.TypeCollection:
		collection := shape.Collection()
		points := collection.Points()
		for i, n := 0, points.NumPoints(); i < n; i++ {
			p := points.PointAt(i)
			cell, err := h3x.LatLngCell(p.Lat(), p.Lng(), 0)
			if err != nil {
				return nil, nil, err
			}
			cells = append(cells, cell)
		}
		for _, line := range collection.Lines().Lines() {
			plotted, err := idx.plotLine(item, line)
			if err != nil {
				return nil, nil, err
			}
			cells = append(cells, plotted...)
		}
		for _, polygon := range collection.Polygons().Polygons() {
			c, b, err := idx.explodePolygon(polygon)
			if err != nil {
				return nil, nil, err
			}
			cells = append(cells, c...)
			belly = append(belly, b...)
		}
		return dedupeCells(cells), dedupeCells(belly), nil

	default:
		return nil, nil, fmt.Errorf("item %d: unknown geometry tag %d", item, shape.Type())
	}
}

func (idx *Index) plotLine(item uint32, line zerometry.Line) ([]h3.Cell, error) {
	cells, err := h3x.PlotLine(line.ToOrb(), 0)
	if err != nil {
		return nil, &LineToCellError{Item: item, Cause: err, Debug: fmt.Sprintf("%d coords", line.NumCoords())}
	}
	return cells, nil
}

// explodePolygon tiles the polygon at level zero; covered cells go to the
// belly list, the rest to the cell list.
func (idx *Index) explodePolygon(polygon zerometry.Polygon) (cells, belly []h3.Cell, err error) {
	covering, err := h3x.Cover(polygon.ToOrb(), 0)
	if err != nil {
		return nil, nil, err
	}
	for _, cell := range covering {
		shape, err := idx.shapes.Get(cell)
		if err != nil {
			return nil, nil, err
		}
		if polygon.Relation(shape.Zer, zerometry.MaskStrictContains).StrictContains {
			belly = append(belly, cell)
		} else {
			cells = append(cells, cell)
		}
	}
	return cells, belly, nil
}

func dedupeCells(cells []h3.Cell) []h3.Cell {
	if len(cells) < 2 {
		return cells
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
	out := cells[:1]
	for _, c := range cells[1:] {
		if c != out[len(out)-1] {
			out = append(out, c)
		}
	}
	return out
}

// splitOverfullCells walks the 122 base cells and pushes down the contents
// of every cell that is both over the threshold and touched by this batch.
func (idx *Index) splitOverfullCells(tx *bolt.Tx, cancel func() bool, progress ProgressReporter, inserted *roaring.Bitmap, snapshot map[uint32]zerometry.Zerometry) error {
	baseCells, err := h3x.Res0Cells()
	if err != nil {
		return err
	}
	progress.Phase(PhaseInsertRecursively, uint64(len(baseCells)))

	for _, cell := range baseCells {
		if cancel() {
			return ErrBuildCanceled
		}
		bm, err := idx.cellBitmap(tx, cell, KeyVariantCell)
		if err != nil {
			return err
		}
		progress.Advance(1)
		if bm == nil || bm.GetCardinality() <= idx.threshold || bm.AndCardinality(inserted) == 0 {
			continue
		}
		if err := idx.insertChunkRecursively(tx, cancel, bm, cell, snapshot); err != nil {
			return err
		}
	}
	return nil
}

// insertChunkRecursively distributes a batch of items known to populate
// the parent cell over the parent's children:
//
//  1. classify every item against every child cell
//  2. merge the covering items into the children's belly rows
//  3. merge the touching items into the children's cell rows
//  4. recurse into children that are over the threshold; a child that just
//     crossed it re-classifies its previously stored items first, so
//     earlier batches get pushed down too
func (idx *Index) insertChunkRecursively(tx *bolt.Tx, cancel func() bool, items *roaring.Bitmap, parent h3.Cell, snapshot map[uint32]zerometry.Zerometry) error {
	children, err := h3x.ChildrenCovering(parent)
	if err != nil {
		return err
	}
	if children == nil {
		// Finest resolution reached; the cell keeps its full population.
		return nil
	}

	toCell := make(map[h3.Cell]*roaring.Bitmap, len(children))
	toBelly := make(map[h3.Cell]*roaring.Bitmap)

	const classifyMask = zerometry.MaskStrictContains | zerometry.MaskContained | zerometry.MaskIntersects
	for _, child := range children {
		if cancel() {
			return ErrBuildCanceled
		}
		shape, err := idx.shapes.Get(child)
		if err != nil {
			return err
		}
		it := items.Iterator()
		for it.HasNext() {
			item := it.Next()
			z, ok := snapshot[item]
			if !ok {
				return &InternalDocIDMissingError{Item: item, Pos: pos()}
			}
			rel := z.Relation(shape.Zer, classifyMask)
			switch {
			case rel.StrictContains:
				bm, ok := toBelly[child]
				if !ok {
					bm = roaring.New()
					toBelly[child] = bm
				}
				bm.Add(item)
			case rel.Any():
				bm, ok := toCell[child]
				if !ok {
					bm = roaring.New()
					toCell[child] = bm
				}
				bm.Add(item)
			}
		}
	}

	for child, bellyItems := range toBelly {
		if cancel() {
			return ErrBuildCanceled
		}
		if err := idx.mergeCellBitmap(tx, child, KeyVariantBelly, bellyItems); err != nil {
			return err
		}
	}

	for child, newItems := range toCell {
		if cancel() {
			return ErrBuildCanceled
		}
		original, err := idx.cellBitmap(tx, child, KeyVariantCell)
		if err != nil {
			return err
		}
		if original == nil {
			original = roaring.New()
		}
		union := roaring.Or(original, newItems)
		if err := idx.putCellBitmap(tx, child, KeyVariantCell, union); err != nil {
			return err
		}

		switch {
		case original.GetCardinality() > idx.threshold:
			// Already split before this batch: only the new items need to
			// travel down.
			if err := idx.insertChunkRecursively(tx, cancel, newItems, child, snapshot); err != nil {
				return err
			}
		case union.GetCardinality() > idx.threshold:
			// The child just crossed the threshold: re-classify the items
			// stored before this batch so they get pushed down too.
			shape, err := idx.shapes.Get(child)
			if err != nil {
				return err
			}
			bellyItems := roaring.New()
			it := original.Iterator()
			for it.HasNext() {
				item := it.Next()
				z, ok := snapshot[item]
				if !ok {
					return &InternalDocIDMissingError{Item: item, Pos: pos()}
				}
				rel := z.Relation(shape.Zer, classifyMask)
				switch {
				case rel.StrictContains:
					bellyItems.Add(item)
				case rel.Any():
					newItems.Add(item)
				}
			}
			if !bellyItems.IsEmpty() {
				if err := idx.mergeCellBitmap(tx, child, KeyVariantBelly, bellyItems); err != nil {
					return err
				}
			}
			if err := idx.insertChunkRecursively(tx, cancel, newItems, child, snapshot); err != nil {
				return err
			}
		}
	}
	return nil
}
