package cellulite

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	h3 "github.com/uber/h3-go/v4"
	bolt "go.etcd.io/bbolt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/paulmach/orb"

	"github.com/Aman-CERP/cellulite/internal/geojson"
	"github.com/Aman-CERP/cellulite/internal/h3x"
	"github.com/Aman-CERP/cellulite/pkg/version"
	"github.com/Aman-CERP/cellulite/pkg/zerometry"
)

const (
	// DefaultThreshold is the cell population above which a cell's
	// contents are pushed down to the next resolution during Build.
	DefaultThreshold = 200

	// DefaultPrefix namespaces the index buckets inside the environment.
	DefaultPrefix = "cellulite"

	defaultShapeCacheSize = 4096
)

// Options configures an Index.
type Options struct {
	// Prefix namespaces the four buckets so several independent indexes
	// can share one environment. Defaults to DefaultPrefix.
	Prefix string
	// Threshold is the cell population above which a cell splits. Must be
	// at least 1; the zero value means DefaultThreshold.
	Threshold uint64
	// Logger receives debug logs from builds and queries. Defaults to
	// slog.Default().
	Logger *slog.Logger
	// ShapeCacheSize bounds the cell-boundary cache.
	ShapeCacheSize int
}

// Index is a handle over the four buckets of one logical index. It holds
// no transaction state and may be shared and copied freely; all access
// goes through the caller's bbolt transactions.
type Index struct {
	prefix    string
	threshold uint64
	log       *slog.Logger
	shapes    *h3x.ShapeCache

	itemsName    []byte
	cellsName    []byte
	updatesName  []byte
	metadataName []byte
}

func newIndex(opts Options) (*Index, error) {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ShapeCacheSize <= 0 {
		opts.ShapeCacheSize = defaultShapeCacheSize
	}
	shapes, err := h3x.NewShapeCache(opts.ShapeCacheSize)
	if err != nil {
		return nil, err
	}
	return &Index{
		prefix:       opts.Prefix,
		threshold:    opts.Threshold,
		log:          opts.Logger,
		shapes:       shapes,
		itemsName:    []byte(opts.Prefix + "-items"),
		cellsName:    []byte(opts.Prefix + "-cells"),
		updatesName:  []byte(opts.Prefix + "-updates"),
		metadataName: []byte(opts.Prefix + "-metadata"),
	}, nil
}

// Create creates the index buckets (if needed) and returns a handle.
func Create(tx *bolt.Tx, opts Options) (*Index, error) {
	idx, err := newIndex(opts)
	if err != nil {
		return nil, err
	}
	for _, name := range idx.bucketNames() {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", name, err)
		}
	}
	return idx, nil
}

// Open returns a handle over pre-existing buckets. It fails with
// ErrDatabaseDoesntExist when any of them is absent.
func Open(tx *bolt.Tx, opts Options) (*Index, error) {
	idx, err := newIndex(opts)
	if err != nil {
		return nil, err
	}
	for _, name := range idx.bucketNames() {
		if tx.Bucket(name) == nil {
			return nil, fmt.Errorf("bucket %s: %w", name, ErrDatabaseDoesntExist)
		}
	}
	return idx, nil
}

// Threshold returns the configured split threshold.
func (idx *Index) Threshold() uint64 { return idx.threshold }

func (idx *Index) bucketNames() [][]byte {
	return [][]byte{idx.itemsName, idx.cellsName, idx.updatesName, idx.metadataName}
}

func (idx *Index) items(tx *bolt.Tx) *bolt.Bucket    { return tx.Bucket(idx.itemsName) }
func (idx *Index) cells(tx *bolt.Tx) *bolt.Bucket    { return tx.Bucket(idx.cellsName) }
func (idx *Index) updates(tx *bolt.Tx) *bolt.Bucket  { return tx.Bucket(idx.updatesName) }
func (idx *Index) metadata(tx *bolt.Tx) *bolt.Bucket { return tx.Bucket(idx.metadataName) }

// Clear truncates all four buckets.
func (idx *Index) Clear(tx *bolt.Tx) error {
	for _, name := range idx.bucketNames() {
		if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		if _, err := tx.CreateBucket(name); err != nil {
			return err
		}
	}
	return nil
}

// Add parses a GeoJSON document, stores its serialized geometry under the
// item id and queues the id for insertion at the next Build. Features and
// FeatureCollections are flattened to a geometry collection; polygon holes
// are dropped.
func (idx *Index) Add(tx *bolt.Tx, item uint32, geojsonDoc []byte) error {
	geom, err := geojson.Decode(geojsonDoc)
	if err != nil {
		return &InvalidGeoJSONError{Item: item, Cause: err}
	}
	raw, err := zerometry.Marshal(geom)
	if err != nil {
		return &InvalidGeometryError{Item: item, Cause: err}
	}
	return idx.AddRawZerometry(tx, item, raw)
}

// AddGeometry stores an orb geometry directly, skipping GeoJSON parsing.
func (idx *Index) AddGeometry(tx *bolt.Tx, item uint32, geom orb.Geometry) error {
	raw, err := zerometry.Marshal(geom)
	if err != nil {
		return &InvalidGeometryError{Item: item, Cause: err}
	}
	return idx.AddRawZerometry(tx, item, raw)
}

// AddRawZerometry stores pre-serialized geometry bytes. The bytes are
// trusted: the caller guarantees they are a well-formed serialized
// geometry.
func (idx *Index) AddRawZerometry(tx *bolt.Tx, item uint32, raw []byte) error {
	if err := idx.items(tx).Put(itemKey(item), raw); err != nil {
		return err
	}
	return idx.updates(tx).Put(updateKey(item), []byte{updateInsert})
}

// Delete queues the item for removal at the next Build. The geometry stays
// in the items bucket until then.
func (idx *Index) Delete(tx *bolt.Tx, item uint32) error {
	return idx.updates(tx).Put(updateKey(item), []byte{updateDelete})
}

// Item returns the stored geometry of an item, or ok=false when the id is
// unknown. The returned view borrows transaction memory and must not be
// used after the transaction ends.
func (idx *Index) Item(tx *bolt.Tx, item uint32) (zerometry.Zerometry, bool, error) {
	raw := idx.items(tx).Get(itemKey(item))
	if raw == nil {
		return zerometry.Zerometry{}, false, nil
	}
	z, err := zerometry.FromBytes(raw)
	if err != nil {
		return zerometry.Zerometry{}, false, err
	}
	return z, true, nil
}

// Items calls fn for every stored item in ascending id order. Returning an
// error from fn stops the iteration.
func (idx *Index) Items(tx *bolt.Tx, fn func(item uint32, z zerometry.Zerometry) error) error {
	return idx.items(tx).ForEach(func(k, v []byte) error {
		z, err := zerometry.FromBytes(v)
		if err != nil {
			return err
		}
		return fn(itemIDFromKey(k), z)
	})
}

// InnerDBCells calls fn for every cell-variant row, in cell order.
func (idx *Index) InnerDBCells(tx *bolt.Tx, fn func(cell h3.Cell, items *roaring.Bitmap) error) error {
	return idx.forEachCellVariant(tx, KeyVariantCell, fn)
}

// InnerBellyCells calls fn for every belly-variant row, in cell order.
func (idx *Index) InnerBellyCells(tx *bolt.Tx, fn func(cell h3.Cell, items *roaring.Bitmap) error) error {
	return idx.forEachCellVariant(tx, KeyVariantBelly, fn)
}

func (idx *Index) forEachCellVariant(tx *bolt.Tx, variant byte, fn func(cell h3.Cell, items *roaring.Bitmap) error) error {
	return idx.cells(tx).ForEach(func(k, v []byte) error {
		cell, kv, err := cellFromKey(k)
		if err != nil {
			return err
		}
		if kv != variant {
			return nil
		}
		bm, err := decodeBitmap(v)
		if err != nil {
			return err
		}
		return fn(cell, bm)
	})
}

// retrieveCellAndBelly reads the Cell and Belly bitmaps of one cell in a
// single range scan; the cell-first key order keeps the two rows adjacent.
// Either bitmap is nil when its row is absent.
func (idx *Index) retrieveCellAndBelly(tx *bolt.Tx, cell h3.Cell) (cellBm, bellyBm *roaring.Bitmap, err error) {
	prefix := cellKeyPrefix(cell)
	cur := idx.cells(tx).Cursor()
	for k, v := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
		bm, err := decodeBitmap(v)
		if err != nil {
			return nil, nil, err
		}
		switch k[8] {
		case KeyVariantCell:
			cellBm = bm
		case KeyVariantBelly:
			bellyBm = bm
		}
	}
	return cellBm, bellyBm, nil
}

// cellBitmap reads one cell or belly bitmap, nil when the row is absent.
func (idx *Index) cellBitmap(tx *bolt.Tx, cell h3.Cell, variant byte) (*roaring.Bitmap, error) {
	raw := idx.cells(tx).Get(cellKey(cell, variant))
	if raw == nil {
		return nil, nil
	}
	return decodeBitmap(raw)
}

// putCellBitmap writes one cell or belly bitmap.
func (idx *Index) putCellBitmap(tx *bolt.Tx, cell h3.Cell, variant byte, bm *roaring.Bitmap) error {
	data, err := encodeBitmap(bm)
	if err != nil {
		return err
	}
	return idx.cells(tx).Put(cellKey(cell, variant), data)
}

// mergeCellBitmap ORs items into the stored bitmap for (cell, variant).
func (idx *Index) mergeCellBitmap(tx *bolt.Tx, cell h3.Cell, variant byte, items *roaring.Bitmap) error {
	bm, err := idx.cellBitmap(tx, cell, variant)
	if err != nil {
		return err
	}
	if bm == nil {
		bm = items
	} else {
		bm.Or(items)
	}
	return idx.putCellBitmap(tx, cell, variant, bm)
}

// GetVersion returns the persisted schema version. A database that has
// never been built reports the current code version.
func (idx *Index) GetVersion(tx *bolt.Tx) (version.Version, error) {
	raw := idx.metadata(tx).Get(metadataVersionKey)
	if raw == nil {
		return version.Current, nil
	}
	var v version.Version
	if err := v.UnmarshalBinary(raw); err != nil {
		return version.Version{}, err
	}
	return v, nil
}

func (idx *Index) setVersion(tx *bolt.Tx, v version.Version) error {
	data, err := v.MarshalBinary()
	if err != nil {
		return err
	}
	return idx.metadata(tx).Put(metadataVersionKey, data)
}
