package voronoi

import (
	"fmt"

	"github.com/gorustyt/gonavlanes/common"
	"github.com/gorustyt/gonavlanes/common/rw"
)

// GridCoordinates addresses one cell: X along world x, Y along world z.
type GridCoordinates struct {
	X uint32
	Y uint32
}

func (c GridCoordinates) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

func (c GridCoordinates) ToBin(w *rw.ReaderWriter) {
	w.WriteInt32(c.X)
	w.WriteInt32(c.Y)
}

func (c *GridCoordinates) FromBin(r *rw.ReaderWriter) *GridCoordinates {
	c.X = r.ReadUInt32()
	c.Y = r.ReadUInt32()
	return c
}

// neighbour returns the cell in the given 8-neighbourhood direction and
// whether it lies inside a grid of the given dimensions.
func (c GridCoordinates) neighbour(dir int, dims GridCoordinates) (GridCoordinates, bool) {
	nx := int64(c.X) + int64(common.GetNeighbourOffsetX(dir))
	ny := int64(c.Y) + int64(common.GetNeighbourOffsetY(dir))
	if nx < 0 || ny < 0 || nx >= int64(dims.X) || ny >= int64(dims.Y) {
		return GridCoordinates{}, false
	}
	return GridCoordinates{X: uint32(nx), Y: uint32(ny)}, true
}
