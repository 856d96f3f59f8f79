package voronoi

import (
	"math"

	"go.uber.org/zap"

	"github.com/gorustyt/gonavlanes/common"
)

type BlockResult int

const (
	BlockSuccess BlockResult = iota
	BlockOutsideBorders
)

func (r BlockResult) String() string {
	if r == BlockSuccess {
		return "SUCCESS"
	}
	return "OUTSIDE_BORDERS"
}

// ObstacleID names an obstacle registered with a GridBlocker.
type ObstacleID uint32

// BorderObstacleID is reserved for the outer grid ring.
const BorderObstacleID ObstacleID = math.MaxUint32

// RestoredObstacleID owns the cells that were already blocked in a grid
// loaded from disk.
const RestoredObstacleID ObstacleID = math.MaxUint32 - 1

// ObstacleSink receives the cells a shape covers. DistanceGrid is the bulk
// sink; DistanceCalculator is the incremental one.
type ObstacleSink interface {
	MarkObstacle(coord GridCoordinates) bool
	UnmarkObstacle(coord GridCoordinates) bool
}

// HeightRestriction is the vertical window a shape must touch to count.
// Without terrain the column of every cell is [MinHeight,
// MinHeight+MaxAdditionalHeight]. With UseTerrainHeight and a terrain
// callback the column starts at the terrain height under the cell midpoint.
type HeightRestriction struct {
	UseTerrainHeight    bool
	MinHeight           float32
	MaxAdditionalHeight float32
}

// TerrainHeightFunc returns the ground height at world (x, z).
type TerrainHeightFunc func(x, z float32) float32

// BlockerConfig holds the per-build filters of a GridBlocker.
type BlockerConfig struct {
	// CollisionMask selects the collision groups that count as obstacles.
	// Zero accepts every group.
	CollisionMask uint32
	// AvoidFilter rejects shapes carrying any of these flags.
	AvoidFilter uint32
	// RequireFilter rejects shapes lacking any of these flags.
	RequireFilter uint32
	Height        *HeightRestriction
	Terrain       TerrainHeightFunc
}

func (c BlockerConfig) accepts(flags uint32) bool {
	if c.CollisionMask != 0 && flags&c.CollisionMask == 0 {
		return false
	}
	if flags&c.AvoidFilter != 0 {
		return false
	}
	return flags&c.RequireFilter == c.RequireFilter
}

// GridBlocker rasterizes obstacle shapes into grid cells. Obstacles added
// under an id are reference counted per cell, so removing one obstacle
// leaves cells still covered by another blocked.
type GridBlocker struct {
	config    GridConfiguration
	filter    BlockerConfig
	logger    *zap.Logger
	coverage  []uint32
	obstacles map[ObstacleID][]uint32
}

func NewGridBlocker(config GridConfiguration, filter BlockerConfig, opts ...Option) *GridBlocker {
	o := buildOptions(opts)
	return &GridBlocker{
		config:    config,
		filter:    filter,
		logger:    o.logger,
		coverage:  make([]uint32, config.CellCount()),
		obstacles: make(map[ObstacleID][]uint32),
	}
}

func (b *GridBlocker) index(c GridCoordinates) uint32 {
	return c.Y*b.config.dimensions.X + c.X
}

func (b *GridBlocker) coord(index uint32) GridCoordinates {
	w := b.config.dimensions.X
	return GridCoordinates{X: index % w, Y: index / w}
}

// cellRange intersects a world box with the grid. The upper bounds are one
// past the end; an empty range has begin >= end.
func (b *GridBlocker) cellRange(lo, hi common.Vec3) (x0, y0, x1, y1 uint32) {
	minX, minY := b.config.convertPositionSigned(lo)
	maxX, maxY := b.config.convertPositionSigned(hi)
	dims := b.config.dimensions
	clampBegin := func(v int64, n uint32) uint32 { return uint32(common.Clamp(v, 0, int64(n))) }
	return clampBegin(minX, dims.X), clampBegin(minY, dims.Y),
		clampBegin(maxX+1, dims.X), clampBegin(maxY+1, dims.Y)
}

// column returns the vertical span tested for the cell whose midpoint is at
// world (x, z).
func (b *GridBlocker) column(x, z float32, shapeLo, shapeHi common.Vec3) (float32, float32) {
	h := b.filter.Height
	if h == nil {
		return shapeLo.Y(), shapeHi.Y()
	}
	base := h.MinHeight
	if h.UseTerrainHeight && b.filter.Terrain != nil {
		base = b.filter.Terrain(x, z)
	}
	return base, base + h.MaxAdditionalHeight
}

// outsideHeightWindow is the coarse reject on the whole bounding box. It only
// applies when the window does not depend on terrain.
func (b *GridBlocker) outsideHeightWindow(lo, hi common.Vec3) bool {
	h := b.filter.Height
	if h == nil || (h.UseTerrainHeight && b.filter.Terrain != nil) {
		return false
	}
	return hi.Y() < h.MinHeight || lo.Y() > h.MinHeight+h.MaxAdditionalHeight
}

// CoveredCells returns the cells the shape blocks. The result is
// BlockOutsideBorders when no cell is covered.
func (b *GridBlocker) CoveredCells(shape Shape) ([]GridCoordinates, BlockResult) {
	switch shape.Kind {
	case ShapeSphere, ShapeAabb, ShapeObb:
	default:
		b.logger.Warn("unsupported collision geometry ignored", zap.Stringer("kind", shape.Kind))
		return nil, BlockOutsideBorders
	}
	if !b.filter.accepts(shape.CollisionFlags) {
		b.logger.Debug("shape rejected by collision filter", zap.Uint32("flags", shape.CollisionFlags))
		return nil, BlockOutsideBorders
	}
	lo, hi := shape.Bounds()
	if b.outsideHeightWindow(lo, hi) {
		return nil, BlockOutsideBorders
	}
	x0, y0, x1, y1 := b.cellRange(lo, hi)
	var cells []GridCoordinates
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c := GridCoordinates{X: x, Y: y}
			mid := b.config.ConvertPositionToMidpoint(c)
			base, top := b.column(mid.X(), mid.Z(), lo, hi)
			if shape.intersectsColumn(mid.X(), mid.Z(), base, top) {
				cells = append(cells, c)
			}
		}
	}
	if len(cells) == 0 {
		return nil, BlockOutsideBorders
	}
	return cells, BlockSuccess
}

// BlockShape marks the cells of shape in sink without registering an id.
func (b *GridBlocker) BlockShape(shape Shape, sink ObstacleSink) BlockResult {
	cells, res := b.CoveredCells(shape)
	for _, c := range cells {
		sink.MarkObstacle(c)
	}
	return res
}

// LineCells rasterizes the segment from -> to with Bresenham. Height is
// ignored; parts outside the grid are dropped.
func (b *GridBlocker) LineCells(from, to common.Vec3) []GridCoordinates {
	sx, sy := b.config.convertPositionSigned(from)
	ex, ey := b.config.convertPositionSigned(to)
	dims := b.config.dimensions
	var cells []GridCoordinates
	it := NewLineIterator(sx, sy, ex, ey)
	for x, y, ok := it.Next(); ok; x, y, ok = it.Next() {
		if x < 0 || y < 0 || x >= int64(dims.X) || y >= int64(dims.Y) {
			continue
		}
		cells = append(cells, GridCoordinates{X: uint32(x), Y: uint32(y)})
	}
	return cells
}

// AddObstacle registers shape under id and marks newly covered cells in
// sink. Re-adding an existing id replaces its previous footprint.
func (b *GridBlocker) AddObstacle(id ObstacleID, shape Shape, sink ObstacleSink) BlockResult {
	cells, res := b.CoveredCells(shape)
	b.register(id, cells, sink)
	return res
}

// AddLineObstacle registers a wall along from -> to under id.
func (b *GridBlocker) AddLineObstacle(id ObstacleID, from, to common.Vec3, sink ObstacleSink) BlockResult {
	cells := b.LineCells(from, to)
	b.register(id, cells, sink)
	if len(cells) == 0 {
		return BlockOutsideBorders
	}
	return BlockSuccess
}

func (b *GridBlocker) register(id ObstacleID, cells []GridCoordinates, sink ObstacleSink) {
	if _, ok := b.obstacles[id]; ok {
		b.unregister(id, sink)
	}
	if len(cells) == 0 {
		return
	}
	indices := make([]uint32, 0, len(cells))
	for _, c := range cells {
		i := b.index(c)
		indices = append(indices, i)
		b.coverage[i]++
		if b.coverage[i] == 1 {
			sink.MarkObstacle(c)
		}
	}
	b.obstacles[id] = indices
}

// RemoveObstacle drops the obstacle and clears the cells no other obstacle
// covers. The border and restored obstacles cannot be removed.
func (b *GridBlocker) RemoveObstacle(id ObstacleID, sink ObstacleSink) bool {
	if id == BorderObstacleID || id == RestoredObstacleID {
		return false
	}
	return b.unregister(id, sink)
}

func (b *GridBlocker) unregister(id ObstacleID, sink ObstacleSink) bool {
	indices, ok := b.obstacles[id]
	if !ok {
		return false
	}
	delete(b.obstacles, id)
	for _, i := range indices {
		b.coverage[i]--
		if b.coverage[i] == 0 {
			sink.UnmarkObstacle(b.coord(i))
		}
	}
	return true
}

func (b *GridBlocker) HasObstacle(id ObstacleID) bool {
	_, ok := b.obstacles[id]
	return ok
}

// AdoptBlockedCells registers every blocked cell of grid under
// RestoredObstacleID without marking anything, so obstacles added and
// removed later never clear them.
func (b *GridBlocker) AdoptBlockedCells(grid *DistanceGrid) {
	if _, ok := b.obstacles[RestoredObstacleID]; ok {
		return
	}
	var indices []uint32
	for i, blocked := range grid.BlockedCells() {
		if blocked {
			indices = append(indices, uint32(i))
			b.coverage[i]++
		}
	}
	if len(indices) > 0 {
		b.obstacles[RestoredObstacleID] = indices
	}
}

// AddOuterBorderObstacle blocks every cell of the outermost ring so no lane
// can run off the map edge.
func (b *GridBlocker) AddOuterBorderObstacle(sink ObstacleSink) {
	if _, ok := b.obstacles[BorderObstacleID]; ok {
		return
	}
	dims := b.config.dimensions
	if dims.X == 0 || dims.Y == 0 {
		return
	}
	var cells []GridCoordinates
	for x := uint32(0); x < dims.X; x++ {
		cells = append(cells, GridCoordinates{X: x, Y: 0})
		if dims.Y > 1 {
			cells = append(cells, GridCoordinates{X: x, Y: dims.Y - 1})
		}
	}
	for y := uint32(1); y+1 < dims.Y; y++ {
		cells = append(cells, GridCoordinates{X: 0, Y: y})
		if dims.X > 1 {
			cells = append(cells, GridCoordinates{X: dims.X - 1, Y: y})
		}
	}
	b.register(BorderObstacleID, cells, sink)
}
