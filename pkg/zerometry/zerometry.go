package zerometry

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Type is the geometry tag stored in the first byte of a serialized value.
type Type byte

const (
	TypePoint Type = iota
	TypeMultiPoints
	TypeLine
	TypeMultiLines
	TypePolygon
	TypeMultiPolygon
	TypeCollection
)

func (t Type) String() string {
	switch t {
	case TypePoint:
		return "Point"
	case TypeMultiPoints:
		return "MultiPoints"
	case TypeLine:
		return "Line"
	case TypeMultiLines:
		return "MultiLines"
	case TypePolygon:
		return "Polygon"
	case TypeMultiPolygon:
		return "MultiPolygon"
	case TypeCollection:
		return "Collection"
	default:
		return fmt.Sprintf("Type(%d)", byte(t))
	}
}

const (
	// tagSize is the type tag padded to keep the content 8-byte aligned.
	tagSize = 8
	// coordSize is one (lng, lat) pair, two little-endian float64.
	coordSize = 16
	// bboxSize is four little-endian float64: minLng, maxLng, minLat, maxLat.
	bboxSize = 32
	// multiHeaderSize is a bbox, a uint32 count and 4 bytes of padding.
	multiHeaderSize = bboxSize + 8
)

// ErrInvalid reports a slice that cannot be a serialized geometry:
// truncated, misaligned, or structurally inconsistent.
type ErrInvalid struct {
	Reason string
}

func (e *ErrInvalid) Error() string {
	return "invalid zerometry: " + e.Reason
}

func invalidf(format string, args ...any) error {
	return &ErrInvalid{Reason: fmt.Sprintf(format, args...)}
}

// Zerometry is a validated, borrowed view over a serialized geometry.
// The zero value is not usable; obtain one through FromBytes or Marshal.
type Zerometry struct {
	raw []byte
}

// FromBytes validates bytes as a serialized geometry and returns a view
// borrowing them. The slice must stay alive and unmodified for as long as
// the returned value is used.
func FromBytes(raw []byte) (Zerometry, error) {
	if len(raw) < tagSize {
		return Zerometry{}, invalidf("truncated header: %d bytes", len(raw))
	}
	if len(raw)%8 != 0 {
		return Zerometry{}, invalidf("length %d is not a multiple of 8", len(raw))
	}
	typ := Type(raw[0])
	body := raw[tagSize:]
	n, err := bodyLen(typ, body)
	if err != nil {
		return Zerometry{}, err
	}
	if n != len(body) {
		return Zerometry{}, invalidf("%s: %d trailing bytes", typ, len(body)-n)
	}
	return Zerometry{raw: raw}, nil
}

// bodyLen walks the content of a serialized geometry of the given type and
// returns the number of bytes it spans, validating structure on the way.
func bodyLen(typ Type, body []byte) (int, error) {
	switch typ {
	case TypePoint:
		if len(body) < coordSize {
			return 0, invalidf("Point: truncated coordinates")
		}
		return coordSize, nil
	case TypeMultiPoints:
		return multiPointsLen(body)
	case TypeLine:
		return lineLen(body, 2)
	case TypeMultiLines:
		return multiLinesLen(body)
	case TypePolygon:
		return lineLen(body, 4)
	case TypeMultiPolygon:
		return multiPolygonLen(body)
	case TypeCollection:
		return collectionLen(body)
	default:
		return 0, invalidf("unknown type tag %d", byte(typ))
	}
}

func multiCount(body []byte) (int, error) {
	if len(body) < multiHeaderSize {
		return 0, invalidf("truncated multi header: %d bytes", len(body))
	}
	return int(binary.LittleEndian.Uint32(body[bboxSize:])), nil
}

func multiPointsLen(body []byte) (int, error) {
	count, err := multiCount(body)
	if err != nil {
		return 0, err
	}
	n := multiHeaderSize + count*coordSize
	if len(body) < n {
		return 0, invalidf("MultiPoints: %d coordinates do not fit in %d bytes", count, len(body))
	}
	return n, nil
}

func lineLen(body []byte, minCoords int) (int, error) {
	count, err := multiCount(body)
	if err != nil {
		return 0, err
	}
	if count < minCoords {
		return 0, invalidf("ring or line with %d coordinates, need at least %d", count, minCoords)
	}
	n := multiHeaderSize + count*coordSize
	if len(body) < n {
		return 0, invalidf("Line: %d coordinates do not fit in %d bytes", count, len(body))
	}
	return n, nil
}

func multiLinesLen(body []byte) (int, error) {
	count, err := multiCount(body)
	if err != nil {
		return 0, err
	}
	n := multiHeaderSize
	for i := 0; i < count; i++ {
		ln, err := lineLen(body[n:], 2)
		if err != nil {
			return 0, err
		}
		n += ln
	}
	return n, nil
}

func multiPolygonLen(body []byte) (int, error) {
	count, err := multiCount(body)
	if err != nil {
		return 0, err
	}
	n := multiHeaderSize
	for i := 0; i < count; i++ {
		ln, err := lineLen(body[n:], 4)
		if err != nil {
			return 0, err
		}
		n += ln
	}
	return n, nil
}

func collectionLen(body []byte) (int, error) {
	if len(body) < bboxSize {
		return 0, invalidf("Collection: truncated bbox")
	}
	n := bboxSize
	pts, err := multiPointsLen(body[n:])
	if err != nil {
		return 0, err
	}
	n += pts
	lns, err := multiLinesLen(body[n:])
	if err != nil {
		return 0, err
	}
	n += lns
	pls, err := multiPolygonLen(body[n:])
	if err != nil {
		return 0, err
	}
	return n + pls, nil
}

// Type returns the geometry tag.
func (z Zerometry) Type() Type { return Type(z.raw[0]) }

// Bytes returns the underlying serialized form.
func (z Zerometry) Bytes() []byte { return z.raw }

func (z Zerometry) body() []byte { return z.raw[tagSize:] }

// Point returns the point view. Callers must have checked Type.
func (z Zerometry) Point() Point { return Point{buf: z.body()} }

// MultiPoints returns the multi-point view. Callers must have checked Type.
func (z Zerometry) MultiPoints() MultiPoints { return MultiPoints{buf: z.body()} }

// Line returns the line view. Callers must have checked Type.
func (z Zerometry) Line() Line { return Line{buf: z.body()} }

// MultiLines returns the multi-line view. Callers must have checked Type.
func (z Zerometry) MultiLines() MultiLines { return MultiLines{buf: z.body()} }

// Polygon returns the polygon view. Callers must have checked Type.
func (z Zerometry) Polygon() Polygon { return Polygon{buf: z.body()} }

// MultiPolygon returns the multi-polygon view. Callers must have checked Type.
func (z Zerometry) MultiPolygon() MultiPolygon { return MultiPolygon{buf: z.body()} }

// Collection returns the collection view. Callers must have checked Type.
func (z Zerometry) Collection() Collection { return Collection{buf: z.body()} }

// Bound returns the precomputed bounding box. O(1) for every type; a point
// is its own bounding box.
func (z Zerometry) Bound() Bound {
	if z.Type() == TypePoint {
		p := z.Point()
		return Bound{MinLng: p.Lng(), MaxLng: p.Lng(), MinLat: p.Lat(), MaxLat: p.Lat()}
	}
	return readBound(z.body())
}

// ToOrb converts the serialized form back into an orb geometry. Coordinates
// round-trip bit-exactly; this is the reverse of Marshal.
func (z Zerometry) ToOrb() orb.Geometry {
	switch z.Type() {
	case TypePoint:
		return z.Point().ToOrb()
	case TypeMultiPoints:
		return z.MultiPoints().ToOrb()
	case TypeLine:
		return z.Line().ToOrb()
	case TypeMultiLines:
		return z.MultiLines().ToOrb()
	case TypePolygon:
		return z.Polygon().ToOrb()
	case TypeMultiPolygon:
		return z.MultiPolygon().ToOrb()
	case TypeCollection:
		return z.Collection().ToOrb()
	default:
		return nil
	}
}

func readFloat(buf []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf))
}

func readBound(buf []byte) Bound {
	return Bound{
		MinLng: readFloat(buf[0:]),
		MaxLng: readFloat(buf[8:]),
		MinLat: readFloat(buf[16:]),
		MaxLat: readFloat(buf[24:]),
	}
}
