package voronoi

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange            = errors.New("grid access out of range")
	ErrConfigurationMismatch = errors.New("grid configuration mismatch")
	ErrUnsupportedVersion    = errors.New("unsupported format version")
)

// RangeError is the panic value of the bounds-checked grid accessors.
type RangeError struct {
	X, Y  int64
	Index int64
	Width uint32
	Height uint32
}

func (e *RangeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("cell index %d outside %dx%d grid", e.Index, e.Width, e.Height)
	}
	return fmt.Sprintf("cell (%d,%d) outside %dx%d grid", e.X, e.Y, e.Width, e.Height)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }
