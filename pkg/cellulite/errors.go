package cellulite

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/Aman-CERP/cellulite/pkg/version"
)

var (
	// ErrBuildCanceled is returned when the cancel callback interrupts a
	// build. The caller decides whether to commit or discard the
	// transaction; retrying the build resumes the reconciliation.
	ErrBuildCanceled = errors.New("build canceled")

	// ErrDatabaseDoesntExist is returned by Open when the index tables are
	// absent from the environment.
	ErrDatabaseDoesntExist = errors.New("database does not exist")
)

// InvalidGeoJSONError reports a document whose top-level GeoJSON type is
// not supported.
type InvalidGeoJSONError struct {
	Item  uint32
	Cause error
}

func (e *InvalidGeoJSONError) Error() string {
	return fmt.Sprintf("item %d: invalid GeoJSON: %v", e.Item, e.Cause)
}

func (e *InvalidGeoJSONError) Unwrap() error { return e.Cause }

// InvalidGeometryError reports a geometry that parsed but cannot be
// serialized, e.g. a one-coordinate line.
type InvalidGeometryError struct {
	Item  uint32
	Cause error
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("item %d: invalid geometry: %v", e.Item, e.Cause)
}

func (e *InvalidGeometryError) Unwrap() error { return e.Cause }

// VersionMismatchError is returned by Build when the persisted schema
// version differs from the code's. The caller is expected to migrate the
// database, then retry.
type VersionMismatchError struct {
	Found version.Version
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("database version %s does not match code version %s; migrate before building",
		e.Found, version.Current)
}

// LineToCellError reports a line that the grid plotter could not rasterize.
type LineToCellError struct {
	Item  uint32
	Cause error
	Debug string
}

func (e *LineToCellError) Error() string {
	return fmt.Sprintf("item %d: cannot convert line to cells: %v (%s)", e.Item, e.Cause, e.Debug)
}

func (e *LineToCellError) Unwrap() error { return e.Cause }

// InternalDocIDMissingError is an invariant violation: an id queued for
// insertion has no stored geometry. Report it as a bug.
type InternalDocIDMissingError struct {
	Item uint32
	Pos  string
}

func (e *InternalDocIDMissingError) Error() string {
	return fmt.Sprintf("internal error: unexpected document id %d missing at %s", e.Item, e.Pos)
}

// pos returns the caller's file:line for invariant-violation reports.
func pos() string {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
