package voronoi

import (
	"math"

	"github.com/gorustyt/gonavlanes/common"
	"github.com/gorustyt/gonavlanes/common/rw"
)

// GridConfiguration maps between world positions and grid cells. The grid
// lies in the xz-plane; the y (height) component of the origin is carried
// through unchanged and never used for grid math.
type GridConfiguration struct {
	origin     common.Vec3
	dimensions GridCoordinates
	cellSize   float32
}

func NewGridConfiguration(origin common.Vec3, dimensions GridCoordinates, cellSize float32) GridConfiguration {
	common.AssertTrue(cellSize > 0, "cell size %v must be positive", cellSize)
	return GridConfiguration{origin: origin, dimensions: dimensions, cellSize: cellSize}
}

// NewGridConfigurationFromCorners spans the grid between two opposite
// corners. The dimensions are rounded up so the whole span is covered.
func NewGridConfigurationFromCorners(cornerA, cornerB common.Vec3, cellSize float32) GridConfiguration {
	common.AssertTrue(cellSize > 0, "cell size %v must be positive", cellSize)
	lo := common.Vmin(cornerA, cornerB)
	hi := common.Vmax(cornerA, cornerB)
	cells := func(span float32) uint32 {
		n := math.Ceil(float64(span/cellSize) - 1e-4)
		return uint32(max(n, 1))
	}
	dims := GridCoordinates{X: cells(hi.X() - lo.X()), Y: cells(hi.Z() - lo.Z())}
	return GridConfiguration{origin: lo, dimensions: dims, cellSize: cellSize}
}

func (c GridConfiguration) Origin() common.Vec3         { return c.origin }
func (c GridConfiguration) Dimensions() GridCoordinates { return c.dimensions }
func (c GridConfiguration) CellSize() float32           { return c.cellSize }

// CellCount is width * height.
func (c GridConfiguration) CellCount() int {
	return int(c.dimensions.X) * int(c.dimensions.Y)
}

// ConvertPosition returns the cell containing pos. Offsets are truncated
// toward the grid origin, so positions west or south of the origin collapse
// onto column or row 0. The upper bound is not checked.
func (c GridConfiguration) ConvertPosition(pos common.Vec3) GridCoordinates {
	fx := (pos.X() - c.origin.X()) / c.cellSize
	fy := (pos.Z() - c.origin.Z()) / c.cellSize
	return GridCoordinates{X: uint32(max(fx, 0)), Y: uint32(max(fy, 0))}
}

// convertPositionSigned is ConvertPosition without the truncation to zero:
// cells left of or below the origin come back negative.
func (c GridConfiguration) convertPositionSigned(pos common.Vec3) (int64, int64) {
	fx := math.Floor(float64((pos.X() - c.origin.X()) / c.cellSize))
	fy := math.Floor(float64((pos.Z() - c.origin.Z()) / c.cellSize))
	return int64(fx), int64(fy)
}

// ConvertPositionToMidpoint returns the world position of the cell center.
func (c GridConfiguration) ConvertPositionToMidpoint(coord GridCoordinates) common.Vec3 {
	return common.Vec3{
		c.origin.X() + (float32(coord.X)+0.5)*c.cellSize,
		c.origin.Y(),
		c.origin.Z() + (float32(coord.Y)+0.5)*c.cellSize,
	}
}

// ConvertPositionToCorners returns the min and max world corners of a cell.
func (c GridConfiguration) ConvertPositionToCorners(coord GridCoordinates) (common.Vec3, common.Vec3) {
	minCorner := common.Vec3{
		c.origin.X() + float32(coord.X)*c.cellSize,
		c.origin.Y(),
		c.origin.Z() + float32(coord.Y)*c.cellSize,
	}
	maxCorner := common.Vec3{minCorner.X() + c.cellSize, c.origin.Y(), minCorner.Z() + c.cellSize}
	return minCorner, maxCorner
}

// Contains reports whether coord lies inside the grid.
func (c GridConfiguration) Contains(coord GridCoordinates) bool {
	return coord.X < c.dimensions.X && coord.Y < c.dimensions.Y
}

func (c GridConfiguration) ToBin(w *rw.ReaderWriter) {
	w.WriteFloat32s(c.origin[:])
	c.dimensions.ToBin(w)
	w.WriteFloat32(c.cellSize)
}

func (c *GridConfiguration) FromBin(r *rw.ReaderWriter) *GridConfiguration {
	r.ReadFloat32s(c.origin[:])
	c.dimensions.FromBin(r)
	c.cellSize = r.ReadFloat32()
	return c
}

func (c GridConfiguration) valid() bool {
	return c.cellSize > 0 && !math.IsNaN(float64(c.cellSize))
}
