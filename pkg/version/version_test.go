package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionBinaryRoundTrip(t *testing.T) {
	v := Version{Major: 1, Minor: 22, Patch: 333}
	data, err := v.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, EncodedLen)

	var decoded Version
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, v, decoded)
}

func TestVersionBinaryLayout(t *testing.T) {
	data, err := Version{Major: 0x01020304, Minor: 5, Patch: 6}.MarshalBinary()
	require.NoError(t, err)
	// Little-endian u32 triple.
	assert.Equal(t, []byte{4, 3, 2, 1, 5, 0, 0, 0, 6, 0, 0, 0}, data)
}

func TestUnmarshalRejectsBadLength(t *testing.T) {
	var v Version
	assert.Error(t, v.UnmarshalBinary([]byte{1, 2, 3}))
	assert.Error(t, v.UnmarshalBinary(nil))
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "v1.2.3", Version{Major: 1, Minor: 2, Patch: 3}.String())
}
