// Package version provides build information for the cellulite CLI and the
// schema version persisted in the metadata table.
package version

import (
	"encoding/binary"
	"fmt"
	"runtime"
)

// Build metadata set via ldflags at release time.
var (
	// Build is the human version of the binary, e.g. a git tag.
	Build = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date in RFC3339 format.
	Date = "unknown"
	// GoVersion is the Go version used to build the binary.
	GoVersion = runtime.Version()
)

// String returns a formatted version string with all build info.
func String() string {
	return fmt.Sprintf("cellulite %s (schema: %s, commit: %s, built: %s, go: %s)",
		Build, Current, Commit, Date, GoVersion)
}

// Version is the schema version triple persisted in the metadata table. A
// database built by one schema version refuses to build under another.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// Current is the schema version of this code.
var Current = Version{Major: 0, Minor: 3, Patch: 0}

// EncodedLen is the serialized size of a version triple.
const EncodedLen = 12

func (v Version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MarshalBinary encodes the triple as three little-endian uint32.
func (v Version) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, EncodedLen)
	buf = binary.LittleEndian.AppendUint32(buf, v.Major)
	buf = binary.LittleEndian.AppendUint32(buf, v.Minor)
	buf = binary.LittleEndian.AppendUint32(buf, v.Patch)
	return buf, nil
}

// UnmarshalBinary decodes a triple written by MarshalBinary.
func (v *Version) UnmarshalBinary(data []byte) error {
	if len(data) != EncodedLen {
		return fmt.Errorf("version payload is %d bytes, want %d", len(data), EncodedLen)
	}
	v.Major = binary.LittleEndian.Uint32(data[0:])
	v.Minor = binary.LittleEndian.Uint32(data[4:])
	v.Patch = binary.LittleEndian.Uint32(data[8:])
	return nil
}
