package voronoi

import (
	"fmt"
	"math"

	"github.com/gorustyt/gonavlanes/common/rw"
)

// UninitializedValue marks a cell that the propagation never reached.
const UninitializedValue = math.MaxUint32

// DistanceGridCell stores the linear index of the closest known obstacle
// cell. A cell is blocked iff that index is its own.
type DistanceGridCell struct {
	closestObstacle uint32
}

func (c DistanceGridCell) GetClosestObstacleCellIndex() uint32 { return c.closestObstacle }

func (c DistanceGridCell) IsInitialized() bool { return c.closestObstacle != UninitializedValue }

// DistanceGrid is a row-major array of cells, index = y*width + x.
// Grids are large; share them by pointer only.
type DistanceGrid struct {
	config GridConfiguration
	cells  []DistanceGridCell
}

func NewDistanceGrid(config GridConfiguration) *DistanceGrid {
	g := &DistanceGrid{config: config, cells: make([]DistanceGridCell, config.CellCount())}
	g.Reset()
	return g
}

// Reset sets every cell back to uninitialized.
func (g *DistanceGrid) Reset() {
	for i := range g.cells {
		g.cells[i].closestObstacle = UninitializedValue
	}
}

func (g *DistanceGrid) Configuration() GridConfiguration { return g.config }
func (g *DistanceGrid) Dimensions() GridCoordinates      { return g.config.dimensions }
func (g *DistanceGrid) CellCount() int                   { return len(g.cells) }

func (g *DistanceGrid) GetIndex(coord GridCoordinates) uint32 {
	return coord.Y*g.config.dimensions.X + coord.X
}

func (g *DistanceGrid) GetCoordinates(index uint32) GridCoordinates {
	w := g.config.dimensions.X
	return GridCoordinates{X: index % w, Y: index / w}
}

func (g *DistanceGrid) checkCoord(coord GridCoordinates) {
	if !g.config.Contains(coord) {
		panic(&RangeError{X: int64(coord.X), Y: int64(coord.Y), Index: -1,
			Width: g.config.dimensions.X, Height: g.config.dimensions.Y})
	}
}

func (g *DistanceGrid) checkIndex(index uint32) {
	if int(index) >= len(g.cells) {
		panic(&RangeError{Index: int64(index), Width: g.config.dimensions.X, Height: g.config.dimensions.Y})
	}
}

// GetCell panics with a *RangeError outside the grid.
func (g *DistanceGrid) GetCell(coord GridCoordinates) DistanceGridCell {
	g.checkCoord(coord)
	return g.cells[g.GetIndex(coord)]
}

// GetCellByIndex panics with a *RangeError outside the grid.
func (g *DistanceGrid) GetCellByIndex(index uint32) DistanceGridCell {
	g.checkIndex(index)
	return g.cells[index]
}

func (g *DistanceGrid) TryGetCell(coord GridCoordinates) (DistanceGridCell, bool) {
	if !g.config.Contains(coord) {
		return DistanceGridCell{}, false
	}
	return g.cells[g.GetIndex(coord)], true
}

func (g *DistanceGrid) TryGetCellByIndex(index uint32) (DistanceGridCell, bool) {
	if int(index) >= len(g.cells) {
		return DistanceGridCell{}, false
	}
	return g.cells[index], true
}

func (g *DistanceGrid) SetBlocked(coord GridCoordinates) {
	g.checkCoord(coord)
	g.SetBlockedByIndex(g.GetIndex(coord))
}

func (g *DistanceGrid) SetBlockedByIndex(index uint32) {
	g.checkIndex(index)
	g.cells[index].closestObstacle = index
}

// MarkObstacle lets the grid act as an ObstacleSink for bulk builds.
func (g *DistanceGrid) MarkObstacle(coord GridCoordinates) bool {
	g.checkCoord(coord)
	index := g.GetIndex(coord)
	if g.cells[index].closestObstacle == index {
		return false
	}
	g.cells[index].closestObstacle = index
	return true
}

// UnmarkObstacle clears a directly blocked cell back to uninitialized.
// Derived distances are left stale; rerun a full propagation afterwards.
func (g *DistanceGrid) UnmarkObstacle(coord GridCoordinates) bool {
	g.checkCoord(coord)
	index := g.GetIndex(coord)
	if g.cells[index].closestObstacle != index {
		return false
	}
	g.cells[index].closestObstacle = UninitializedValue
	return true
}

func (g *DistanceGrid) IsBlocked(coord GridCoordinates) bool {
	g.checkCoord(coord)
	return g.IsBlockedByIndex(g.GetIndex(coord))
}

func (g *DistanceGrid) IsBlockedByIndex(index uint32) bool {
	return g.cells[index].closestObstacle == index
}

func (g *DistanceGrid) setClosestObstacle(index, obstacle uint32) {
	g.cells[index].closestObstacle = obstacle
}

// CalculateDistanceSquaredBetween returns the squared distance between two
// cell centers in grid units.
func (g *DistanceGrid) CalculateDistanceSquaredBetween(a, b uint32) uint32 {
	w := g.config.dimensions.X
	dx := int64(a%w) - int64(b%w)
	dy := int64(a/w) - int64(b/w)
	return uint32(dx*dx + dy*dy)
}

// CalculateClosestDistanceSquared is the squared distance from the cell to
// its recorded obstacle. The cell must be initialized.
func (g *DistanceGrid) CalculateClosestDistanceSquared(index uint32) uint32 {
	cell := g.GetCellByIndex(index)
	if !cell.IsInitialized() {
		panic(fmt.Sprintf("cell %v has no closest obstacle", g.GetCoordinates(index)))
	}
	return g.CalculateDistanceSquaredBetween(index, cell.closestObstacle)
}

// ContainsUninitializedDistanceValue reports whether some cell was never
// reached by the propagation.
func (g *DistanceGrid) ContainsUninitializedDistanceValue() bool {
	for _, c := range g.cells {
		if !c.IsInitialized() {
			return true
		}
	}
	return false
}

// BlockedCells returns the blocked flag of every cell.
func (g *DistanceGrid) BlockedCells() []bool {
	res := make([]bool, len(g.cells))
	for i := range g.cells {
		res[i] = g.IsBlockedByIndex(uint32(i))
	}
	return res
}

// ToBin writes the configuration and one bit per cell telling whether the
// cell is directly blocked. Derived distances are not written.
func (g *DistanceGrid) ToBin(w *rw.ReaderWriter) {
	g.config.ToBin(w)
	w.WriteBits(g.BlockedCells())
}

// FromBin reads a grid written by ToBin. Only blocked cells are restored;
// every other cell is uninitialized until the distance calculator runs
// InitializeOpenListFromGridState and UpdateDistanceMap.
func (g *DistanceGrid) FromBin(r *rw.ReaderWriter) error {
	var config GridConfiguration
	config.FromBin(r)
	if err := r.Err(); err != nil {
		return fmt.Errorf("read grid configuration: %w", err)
	}
	if !config.valid() {
		return fmt.Errorf("%w: cell size %v", ErrConfigurationMismatch, config.cellSize)
	}
	n := r.ReadBitLen()
	if err := r.Err(); err != nil {
		return fmt.Errorf("read blocked cells: %w", err)
	}
	if n != config.CellCount() {
		return fmt.Errorf("%w: %d blocked bits for %v cells", ErrConfigurationMismatch, n, config.dimensions)
	}
	blocked := make([]bool, n)
	r.ReadBitValues(blocked)
	if err := r.Err(); err != nil {
		return fmt.Errorf("read blocked cells: %w", err)
	}
	g.config = config
	g.cells = make([]DistanceGridCell, len(blocked))
	g.Reset()
	for i, b := range blocked {
		if b {
			g.cells[i].closestObstacle = uint32(i)
		}
	}
	return nil
}

// ReadDistanceGrid decodes a grid written by ToBin.
func ReadDistanceGrid(data []byte) (*DistanceGrid, error) {
	g := &DistanceGrid{}
	if err := g.FromBin(rw.NewBinReader(data)); err != nil {
		return nil, err
	}
	return g, nil
}
