package cellulite

import (
	"bytes"

	"github.com/RoaringBitmap/roaring/v2"
)

// encodeBitmap serializes a bitmap in the portable roaring format, padded
// with 1–8 zero bytes so the stored value length is a multiple of 8.
func encodeBitmap(bm *roaring.Bitmap) ([]byte, error) {
	data, err := bm.ToBytes()
	if err != nil {
		return nil, err
	}
	pad := 8 - len(data)%8
	return append(data, make([]byte, pad)...), nil
}

// decodeBitmap reads a bitmap written by encodeBitmap. Trailing padding is
// ignored by the roaring reader.
func decodeBitmap(data []byte) (*roaring.Bitmap, error) {
	bm := roaring.New()
	if _, err := bm.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return bm, nil
}
