package voronoi

import (
	"go.uber.org/zap"

	"github.com/gorustyt/gonavlanes/common"
)

type queueState uint8

const (
	notQueued queueState = iota
	fwQueued
	fwProcessed
	bwQueued
	bwProcessed
)

// DistanceCalculator maintains the nearest-obstacle field and the Voronoi
// skeleton of a DynamicGraph with a bucketed brushfire. New obstacles lower
// distances outward from themselves; removed obstacles raise the cells
// that depended on them, which are then lowered again from the surviving
// obstacles around them. Every free cell is indexed under the obstacle it
// points at, so a removal raises exactly the cells it invalidates.
//
// Equidistant obstacles are resolved at cell resolution: on equal squared
// distance the obstacle with the smaller cell index wins. Sub-cell
// differences are not resolved.
type DistanceCalculator struct {
	graph  *DynamicGraph
	grid   *DistanceGrid
	logger *zap.Logger

	open       *openList
	needsRaise []bool
	queueing   []queueState

	// free cells per obstacle cell; depSlot is a cell's position in its
	// obstacle's list
	dependents map[uint32][]uint32
	depSlot    []uint32

	// cells whose closest obstacle changed in the current round
	touched     []uint32
	touchedMark []bool
	evalMark    []bool
	fullRescan  bool
	roundOpen   bool
	processed   int

	hasChange bool
	changeMin GridCoordinates
	changeMax GridCoordinates
}

// NewDistanceCalculator borrows graph; the graph must outlive every call.
func NewDistanceCalculator(graph *DynamicGraph, opts ...Option) *DistanceCalculator {
	o := buildOptions(opts)
	n := graph.grid.CellCount()
	c := &DistanceCalculator{
		graph:       graph,
		grid:        graph.grid,
		logger:      o.logger,
		open:        newOpenList(),
		needsRaise:  make([]bool, n),
		queueing:    make([]queueState, n),
		dependents:  make(map[uint32][]uint32),
		depSlot:     make([]uint32, n),
		touchedMark: make([]bool, n),
		evalMark:    make([]bool, n),
	}
	for i, cell := range c.grid.cells {
		if obst := cell.closestObstacle; obst != UninitializedValue && obst != uint32(i) {
			c.link(uint32(i), obst)
		}
	}
	return c
}

func (c *DistanceCalculator) link(index, obst uint32) {
	c.depSlot[index] = uint32(len(c.dependents[obst]))
	c.dependents[obst] = append(c.dependents[obst], index)
}

func (c *DistanceCalculator) unlink(index, obst uint32) {
	deps := c.dependents[obst]
	last := len(deps) - 1
	moved := deps[last]
	deps[c.depSlot[index]] = moved
	c.depSlot[moved] = c.depSlot[index]
	if last == 0 {
		delete(c.dependents, obst)
		return
	}
	c.dependents[obst] = deps[:last]
}

// assign changes the closest obstacle of a cell and keeps the dependents
// index in step.
func (c *DistanceCalculator) assign(index, obst uint32) {
	old := c.grid.cells[index].closestObstacle
	if old == obst {
		return
	}
	if old != UninitializedValue && old != index {
		c.unlink(index, old)
	}
	c.grid.setClosestObstacle(index, obst)
	if obst != UninitializedValue && obst != index {
		c.link(index, obst)
	}
}

func (c *DistanceCalculator) beginRound() {
	if c.roundOpen {
		return
	}
	for _, i := range c.touched {
		c.touchedMark[i] = false
	}
	c.touched = c.touched[:0]
	c.hasChange = false
	c.fullRescan = false
	c.processed = 0
	c.roundOpen = true
}

func (c *DistanceCalculator) touch(index uint32) {
	if c.touchedMark[index] {
		return
	}
	c.touchedMark[index] = true
	c.touched = append(c.touched, index)
	c.extendChangeWindow(c.grid.GetCoordinates(index))
}

func (c *DistanceCalculator) extendChangeWindow(coord GridCoordinates) {
	if !c.hasChange {
		c.changeMin, c.changeMax = coord, coord
		c.hasChange = true
		return
	}
	c.changeMin.X = min(c.changeMin.X, coord.X)
	c.changeMin.Y = min(c.changeMin.Y, coord.Y)
	c.changeMax.X = max(c.changeMax.X, coord.X)
	c.changeMax.Y = max(c.changeMax.Y, coord.Y)
}

// HasChanges reports whether the last UpdateDistanceMap touched any cell.
func (c *DistanceCalculator) HasChanges() bool { return c.hasChange }

// GetChangeWindowMin is the lower corner of the cells touched by the last
// round, inclusive.
func (c *DistanceCalculator) GetChangeWindowMin() GridCoordinates { return c.changeMin }

// GetChangeWindowMax is the upper corner of the cells touched by the last
// round, inclusive.
func (c *DistanceCalculator) GetChangeWindowMax() GridCoordinates { return c.changeMax }

// InitializeOpenListFromGridState discards all derived state and seeds the
// open list with every directly blocked cell. Use it after bulk blocking or
// after loading a grid.
func (c *DistanceCalculator) InitializeOpenListFromGridState() {
	c.roundOpen = false
	c.beginRound()
	c.open.clear()
	clear(c.dependents)
	for i := range c.grid.cells {
		index := uint32(i)
		c.needsRaise[i] = false
		c.queueing[i] = notQueued
		if c.grid.IsBlockedByIndex(index) {
			c.queueing[i] = fwQueued
			c.open.push(0, index)
		} else {
			c.grid.setClosestObstacle(index, UninitializedValue)
		}
	}
	c.graph.ResetVoronoi()
	c.fullRescan = true
	dims := c.grid.Dimensions()
	if dims.X > 0 && dims.Y > 0 {
		c.hasChange = true
		c.changeMin = GridCoordinates{}
		c.changeMax = GridCoordinates{X: dims.X - 1, Y: dims.Y - 1}
	}
}

// SetObstacle blocks a cell and queues it for lowering. It returns false
// when the cell was already blocked or lies outside the grid.
func (c *DistanceCalculator) SetObstacle(coord GridCoordinates) bool {
	if !c.grid.config.Contains(coord) {
		return false
	}
	index := c.grid.GetIndex(coord)
	if c.grid.IsBlockedByIndex(index) {
		return false
	}
	c.beginRound()
	c.assign(index, index)
	c.needsRaise[index] = false
	c.queueing[index] = fwQueued
	c.open.push(0, index)
	c.touch(index)
	return true
}

// ClearObstacle unblocks a directly blocked cell and queues it, together
// with every cell that pointed at it, for raising. It returns false when
// the cell was not blocked or lies outside the grid.
func (c *DistanceCalculator) ClearObstacle(coord GridCoordinates) bool {
	if !c.grid.config.Contains(coord) {
		return false
	}
	index := c.grid.GetIndex(coord)
	if !c.grid.IsBlockedByIndex(index) {
		return false
	}
	c.beginRound()
	c.grid.setClosestObstacle(index, UninitializedValue)
	c.queueRaise(index, 0)
	deps := c.dependents[index]
	delete(c.dependents, index)
	for _, d := range deps {
		key := c.grid.CalculateDistanceSquaredBetween(d, index)
		c.grid.setClosestObstacle(d, UninitializedValue)
		c.queueRaise(d, key)
	}
	return true
}

func (c *DistanceCalculator) queueRaise(index, key uint32) {
	c.needsRaise[index] = true
	c.queueing[index] = bwQueued
	c.open.push(key, index)
	c.touch(index)
}

// MarkObstacle makes the calculator an ObstacleSink.
func (c *DistanceCalculator) MarkObstacle(coord GridCoordinates) bool { return c.SetObstacle(coord) }

// UnmarkObstacle makes the calculator an ObstacleSink.
func (c *DistanceCalculator) UnmarkObstacle(coord GridCoordinates) bool {
	return c.ClearObstacle(coord)
}

// UpdateDistanceMap drains the open list and reclassifies the skeleton
// around every changed cell. When tracker is non-nil, every lane and hub
// whose cells changed is recorded there so the segment finder can rebuild
// just those; without a tracker all lanes are dropped back to
// uncategorized and a full segmentation is expected.
func (c *DistanceCalculator) UpdateDistanceMap(tracker *TweakedGraphDataCollection) {
	if !c.roundOpen {
		c.hasChange = false
		return
	}
	c.drain()
	c.updateVoronoi(tracker)
	c.roundOpen = false
	c.logger.Debug("distance map updated",
		zap.Int("processed", c.processed),
		zap.Int("changed", len(c.touched)),
		zap.Stringer("windowMin", c.changeMin),
		zap.Stringer("windowMax", c.changeMax))
}

func (c *DistanceCalculator) drain() {
	for !c.open.empty() {
		_, index := c.open.pop()
		switch c.queueing[index] {
		case fwProcessed, bwProcessed:
			continue
		}
		c.processed++
		if c.needsRaise[index] {
			c.raise(index)
			continue
		}
		obst := c.grid.cells[index].closestObstacle
		if obst != UninitializedValue && c.grid.IsBlockedByIndex(obst) {
			c.lower(index)
			continue
		}
		// queued as a source but its obstacle vanished meanwhile
		if obst != UninitializedValue {
			c.assign(index, UninitializedValue)
			c.touch(index)
		}
		c.raise(index)
	}
}

func (c *DistanceCalculator) raise(index uint32) {
	coord := c.grid.GetCoordinates(index)
	dims := c.grid.Dimensions()
	for dir := 0; dir < common.NeighbourCount; dir++ {
		n, ok := coord.neighbour(dir, dims)
		if !ok {
			continue
		}
		nIndex := c.grid.GetIndex(n)
		if c.needsRaise[nIndex] {
			continue
		}
		nObst := c.grid.cells[nIndex].closestObstacle
		if nObst == UninitializedValue {
			continue
		}
		key := c.grid.CalculateDistanceSquaredBetween(nIndex, nObst)
		if !c.grid.IsBlockedByIndex(nObst) {
			c.assign(nIndex, UninitializedValue)
			c.queueRaise(nIndex, key)
		} else if c.queueing[nIndex] != fwQueued {
			c.queueing[nIndex] = fwQueued
			c.open.push(key, nIndex)
		}
	}
	c.needsRaise[index] = false
	c.queueing[index] = bwProcessed
}

func (c *DistanceCalculator) lower(index uint32) {
	c.queueing[index] = fwProcessed
	obst := c.grid.cells[index].closestObstacle
	coord := c.grid.GetCoordinates(index)
	dims := c.grid.Dimensions()
	for dir := 0; dir < common.NeighbourCount; dir++ {
		n, ok := coord.neighbour(dir, dims)
		if !ok {
			continue
		}
		nIndex := c.grid.GetIndex(n)
		if c.needsRaise[nIndex] {
			continue
		}
		newDist := c.grid.CalculateDistanceSquaredBetween(nIndex, obst)
		nObst := c.grid.cells[nIndex].closestObstacle
		overwrite := false
		switch {
		case nObst == obst:
		case nObst == UninitializedValue || !c.grid.IsBlockedByIndex(nObst):
			overwrite = true
		default:
			cur := c.grid.CalculateDistanceSquaredBetween(nIndex, nObst)
			overwrite = newDist < cur || (newDist == cur && obst < nObst)
		}
		if overwrite {
			c.assign(nIndex, obst)
			c.queueing[nIndex] = fwQueued
			c.open.push(newDist, nIndex)
			c.touch(nIndex)
		}
	}
}

func (c *DistanceCalculator) updateVoronoi(tracker *TweakedGraphDataCollection) {
	if tracker == nil && !c.fullRescan {
		c.graph.ResetLanes()
	}
	if c.fullRescan {
		for i := range c.grid.cells {
			c.reclassify(uint32(i), nil)
		}
		return
	}
	var evaluated []uint32
	dims := c.grid.Dimensions()
	visit := func(index uint32) {
		if c.evalMark[index] {
			return
		}
		c.evalMark[index] = true
		evaluated = append(evaluated, index)
		c.reclassify(index, tracker)
	}
	for _, index := range c.touched {
		visit(index)
		coord := c.grid.GetCoordinates(index)
		for dir := 0; dir < common.NeighbourCount; dir++ {
			if n, ok := coord.neighbour(dir, dims); ok {
				visit(c.grid.GetIndex(n))
			}
		}
	}
	for _, index := range evaluated {
		c.evalMark[index] = false
	}
}

// reclassify recomputes the skeleton membership of one cell.
func (c *DistanceCalculator) reclassify(index uint32, tracker *TweakedGraphDataCollection) {
	member := c.isVoronoiCell(index)
	wasMember := c.graph.IsVoronoi(index)
	if tracker != nil && wasMember && c.touchedMark[index] {
		tracker.recordCell(c.graph, index)
	}
	if member == wasMember {
		return
	}
	if tracker != nil {
		tracker.recordCell(c.graph, index)
		coord := c.grid.GetCoordinates(index)
		for dir := 0; dir < common.NeighbourCount; dir++ {
			if n, ok := coord.neighbour(dir, c.grid.Dimensions()); ok {
				tracker.recordCell(c.graph, c.grid.GetIndex(n))
			}
		}
	}
	if member {
		c.graph.setVoronoi(index, VoronoiUncategorized)
		return
	}
	c.graph.RemoveHubCell(index)
	c.graph.setVoronoi(index, VoronoiUninitialized)
}

// isVoronoiCell reports whether the cell lies on the boundary between two
// obstacle regions: some neighbour's closest obstacle is not adjacent to
// the cell's own, both assignments are consistent, and this cell is the
// one nearer to the bisector. Cells within one diagonal step of an
// obstacle never qualify.
func (c *DistanceCalculator) isVoronoiCell(index uint32) bool {
	g := c.grid
	obst := g.cells[index].closestObstacle
	if obst == UninitializedValue || obst == index {
		return false
	}
	dist := g.CalculateDistanceSquaredBetween(index, obst)
	if dist <= 2 {
		return false
	}
	w := g.config.dimensions.X
	ox, oy := int64(obst%w), int64(obst/w)
	coord := g.GetCoordinates(index)
	for dir := 0; dir < common.NeighbourCount; dir++ {
		n, ok := coord.neighbour(dir, g.Dimensions())
		if !ok {
			continue
		}
		nIndex := g.GetIndex(n)
		nObst := g.cells[nIndex].closestObstacle
		if nObst == UninitializedValue || nObst == nIndex {
			continue
		}
		if common.Abs(ox-int64(nObst%w)) <= 1 && common.Abs(oy-int64(nObst/w)) <= 1 {
			continue
		}
		stability := int64(g.CalculateDistanceSquaredBetween(index, nObst)) - int64(dist)
		if stability < 0 {
			continue
		}
		nDist := g.CalculateDistanceSquaredBetween(nIndex, nObst)
		nStability := int64(g.CalculateDistanceSquaredBetween(nIndex, obst)) - int64(nDist)
		if nStability < 0 {
			continue
		}
		if stability <= nStability {
			return true
		}
	}
	return false
}
