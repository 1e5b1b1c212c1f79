package cellulite

import (
	"encoding/binary"
	"fmt"

	h3 "github.com/uber/h3-go/v4"
)

// Key layouts. Item and cell keys are big-endian so the lexicographic
// bucket order equals the numeric order, and padded so values following an
// 8-byte-aligned key stay aligned.
//
//	item:     8 bytes  BE u64, id in the low 32 bits
//	cell:    16 bytes  BE u64 cell ∥ variant ∥ 7 zero bytes
//	update:   4 bytes  BE u32
//	metadata: 1 byte   tag
//
// Cell-first ordering keeps the Cell and Belly rows of one cell adjacent,
// so a single range scan retrieves both.
const (
	itemKeyLen = 8
	cellKeyLen = 16
)

// Cell key variants.
const (
	// KeyVariantCell marks the set of items overlapping a cell without
	// covering it entirely.
	KeyVariantCell byte = 1
	// KeyVariantBelly marks the set of items covering a cell entirely.
	KeyVariantBelly byte = 2
)

// Update markers.
const (
	updateInsert byte = 0
	updateDelete byte = 1
)

// metadataVersionKey is the single metadata tag currently defined.
var metadataVersionKey = []byte{0}

func itemKey(id uint32) []byte {
	var buf [itemKeyLen]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return buf[:]
}

func itemIDFromKey(key []byte) uint32 {
	return uint32(binary.BigEndian.Uint64(key))
}

func cellKey(cell h3.Cell, variant byte) []byte {
	var buf [cellKeyLen]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(cell))
	buf[8] = variant
	return buf[:]
}

// cellKeyPrefix is the shared prefix of the Cell and Belly keys of a cell.
func cellKeyPrefix(cell h3.Cell) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(cell))
	return buf[:]
}

func cellFromKey(key []byte) (h3.Cell, byte, error) {
	if len(key) != cellKeyLen {
		return 0, 0, fmt.Errorf("cell key is %d bytes, want %d", len(key), cellKeyLen)
	}
	return h3.Cell(binary.BigEndian.Uint64(key[:8])), key[8], nil
}

func updateKey(id uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], id)
	return buf[:]
}

func updateIDFromKey(key []byte) uint32 {
	return binary.BigEndian.Uint32(key)
}
