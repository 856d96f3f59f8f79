package voronoi

import (
	"slices"

	"go.uber.org/zap"

	"github.com/gorustyt/gonavlanes/common"
)

type cellKind uint8

const (
	kindUnknown cellKind = iota
	kindObsolete
	kindDeadEnd
	kindEdge
	kindHub
	kindUniqueHub
)

// gridRect is an inclusive cell rectangle.
type gridRect struct {
	min, max GridCoordinates
	ok       bool
}

func (r *gridRect) extend(c GridCoordinates) {
	if !r.ok {
		r.min, r.max, r.ok = c, c, true
		return
	}
	r.min.X = min(r.min.X, c.X)
	r.min.Y = min(r.min.Y, c.Y)
	r.max.X = max(r.max.X, c.X)
	r.max.Y = max(r.max.Y, c.Y)
}

func (r gridRect) grow(margin uint32, dims GridCoordinates) gridRect {
	if !r.ok {
		return r
	}
	r.min.X -= min(r.min.X, margin)
	r.min.Y -= min(r.min.Y, margin)
	r.max.X = min(r.max.X+margin, dims.X-1)
	r.max.Y = min(r.max.Y+margin, dims.Y-1)
	return r
}

func (r gridRect) contains(c GridCoordinates) bool {
	return r.ok && c.X >= r.min.X && c.X <= r.max.X && c.Y >= r.min.Y && c.Y <= r.max.Y
}

// SegmentFinder turns the skeleton of a DynamicGraph into hubs and lanes.
// Results are valid until the next call on the same finder.
type SegmentFinder struct {
	graph  *DynamicGraph
	grid   *DistanceGrid
	logger *zap.Logger

	// minimumDistanceNeeded is the free space, in grid cells, a skeleton
	// cell needs to become part of a lane.
	minimumDistanceNeeded float32

	kinds       map[uint32]cellKind
	lanes       []GridSegment
	connections map[uint32][]uint32
}

func NewSegmentFinder(graph *DynamicGraph, minimumDistanceNeeded float32, opts ...Option) *SegmentFinder {
	o := buildOptions(opts)
	return &SegmentFinder{
		graph:                 graph,
		grid:                  graph.grid,
		logger:                o.logger,
		minimumDistanceNeeded: minimumDistanceNeeded,
	}
}

// GetCreatedLanes returns the lanes built by the last pass.
func (f *SegmentFinder) GetCreatedLanes() []GridSegment { return f.lanes }

// GetNodeToLaneConnections maps every hub id to the sorted ids of the lanes
// ending at it, as of the last pass.
func (f *SegmentFinder) GetNodeToLaneConnections() map[uint32][]uint32 { return f.connections }

// FindSegments drops every lane and hub of the graph and segments the whole
// skeleton again.
func (f *SegmentFinder) FindSegments() {
	f.graph.ResetLanes()
	dims := f.grid.Dimensions()
	var region gridRect
	if dims.X > 0 && dims.Y > 0 {
		region = gridRect{max: GridCoordinates{X: dims.X - 1, Y: dims.Y - 1}, ok: true}
	}
	f.process(region, nil)
	f.connections = f.TraceConnectionsByWavefront()
	f.logger.Debug("segments found",
		zap.Int("lanes", len(f.lanes)),
		zap.Int("hubs", len(f.connections)))
}

// UpdateSegments rebuilds the lanes and hubs recorded in tracker plus any
// new skeleton inside the change window. Damaged lanes are always erased
// completely before the region is scanned again. Cells outside the region
// keep the thinning and cuts of earlier passes, so the result can differ
// in shape from a fresh FindSegments while every lane still ends at a hub
// or a dead end. A nil tracker runs FindSegments.
func (f *SegmentFinder) UpdateSegments(tracker *TweakedGraphDataCollection, windowMin, windowMax GridCoordinates) {
	if tracker == nil {
		f.FindSegments()
		return
	}
	var region gridRect
	if f.grid.config.Contains(windowMin) && f.grid.config.Contains(windowMax) {
		region.extend(windowMin)
		region.extend(windowMax)
	}
	f.eraseEntryNodesToLanesForErasedNodes(tracker, &region)
	f.completelyRemovePartiallyErasedLanes(tracker, &region)
	f.process(region.grow(1, f.grid.Dimensions()), tracker)
	f.connections = f.TraceConnectionsByWavefront()
	f.logger.Debug("segments updated",
		zap.Int("lanes", len(f.lanes)),
		zap.Int("erasedLanes", len(tracker.ErasedLanes)),
		zap.Int("erasedHubs", len(tracker.ErasedHubs)),
		zap.Int("addedHubs", len(tracker.AddedHubs)))
}

// eraseEntryNodesToLanesForErasedNodes removes erased hubs from the graph
// and marks every lane touching one of their cells as erased too.
func (f *SegmentFinder) eraseEntryNodesToLanesForErasedNodes(tracker *TweakedGraphDataCollection, region *gridRect) {
	dims := f.grid.Dimensions()
	for _, hubID := range tracker.ErasedHubIDs() {
		for _, cell := range f.graph.RemoveHub(hubID) {
			coord := f.grid.GetCoordinates(cell)
			region.extend(coord)
			for dir := 0; dir < common.NeighbourCount; dir++ {
				n, ok := coord.neighbour(dir, dims)
				if !ok {
					continue
				}
				ni := f.grid.GetIndex(n)
				if lane, ok := f.graph.LaneID(ni); ok {
					tracker.EraseLane(lane, ni)
				}
			}
		}
	}
}

// completelyRemovePartiallyErasedLanes resets every cell of an erased lane
// to uncategorized, starting from the cells recorded for it.
func (f *SegmentFinder) completelyRemovePartiallyErasedLanes(tracker *TweakedGraphDataCollection, region *gridRect) {
	dims := f.grid.Dimensions()
	for _, laneID := range tracker.ErasedLaneIDs() {
		var stack []uint32
		for _, cell := range tracker.ErasedLanes[laneID] {
			stack = append(stack, cell)
			coord := f.grid.GetCoordinates(cell)
			region.extend(coord)
			for dir := 0; dir < common.NeighbourCount; dir++ {
				if n, ok := coord.neighbour(dir, dims); ok {
					stack = append(stack, f.grid.GetIndex(n))
				}
			}
		}
		for len(stack) > 0 {
			cell := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if f.graph.VoronoiValue(cell) != laneID {
				continue
			}
			f.graph.setVoronoi(cell, VoronoiUncategorized)
			coord := f.grid.GetCoordinates(cell)
			region.extend(coord)
			for dir := 0; dir < common.NeighbourCount; dir++ {
				if n, ok := coord.neighbour(dir, dims); ok {
					stack = append(stack, f.grid.GetIndex(n))
				}
			}
		}
		f.graph.ReleaseSegmentID(laneID)
	}
}

func (f *SegmentFinder) isOpen(index uint32) bool {
	return f.graph.VoronoiValue(index) == VoronoiUncategorized && !f.graph.IsHub(index)
}

func (f *SegmentFinder) process(region gridRect, tracker *TweakedGraphDataCollection) {
	f.lanes = nil
	f.kinds = make(map[uint32]cellKind)
	if !region.ok {
		return
	}
	var candidates []uint32
	for y := region.min.Y; y <= region.max.Y; y++ {
		for x := region.min.X; x <= region.max.X; x++ {
			index := f.grid.GetIndex(GridCoordinates{X: x, Y: y})
			if f.isOpen(index) {
				candidates = append(candidates, index)
			}
		}
	}
	candidates = f.filterNarrowCells(candidates)
	candidates = f.thin(candidates)

	var hubs, deadEnds, edges []uint32
	for _, index := range candidates {
		switch f.kindOf(index) {
		case kindHub:
			hubs = append(hubs, index)
		case kindDeadEnd:
			deadEnds = append(deadEnds, index)
		case kindEdge:
			edges = append(edges, index)
		}
	}
	for _, index := range hubs {
		if !f.graph.IsHub(index) {
			f.analyzeHub(index, tracker)
		}
	}

	for _, e := range f.graph.HubEntries() {
		if region.contains(f.grid.GetCoordinates(e.CellID)) {
			f.walkFromHub(e.CellID, tracker)
		}
	}
	for _, index := range deadEnds {
		if !f.isOpen(index) {
			continue
		}
		if next, ok := f.forward(index, -1); ok {
			f.walk(index, next, tracker)
		}
	}
	// closed loops without any junction
	for _, index := range edges {
		if !f.isOpen(index) {
			continue
		}
		f.kinds[index] = kindUniqueHub
		f.graph.AddHubCell(index, f.allocateHub(tracker))
		f.walkFromHub(index, tracker)
	}
}

// filterNarrowCells drops skeleton cells whose free space is below the
// minimum distance.
func (f *SegmentFinder) filterNarrowCells(candidates []uint32) []uint32 {
	limit := f.minimumDistanceNeeded * f.minimumDistanceNeeded
	return slices.DeleteFunc(candidates, func(index uint32) bool {
		if float32(f.grid.CalculateClosestDistanceSquared(index)) >= limit {
			return false
		}
		f.graph.setVoronoi(index, VoronoiUninitialized)
		f.kinds[index] = kindObsolete
		return true
	})
}

// thinningSides orders the sub-passes of thin: each pass only peels cells
// whose ring is open on that side (N, S, E, W).
var thinningSides = [4]int{2, 6, 0, 4}

func simpleCell(ring [common.NeighbourCount]bool) bool {
	count := 0
	for _, p := range ring {
		if p {
			count++
		}
	}
	return count >= 2 && yokoiConnectivity(ring) == 1
}

// thin removes skeleton cells that neither end a line nor connect separate
// parts of it until the skeleton is one cell wide.
func (f *SegmentFinder) thin(candidates []uint32) []uint32 {
	var border []uint32
	for changed := true; changed; {
		changed = false
		for _, side := range thinningSides {
			border = border[:0]
			for _, index := range candidates {
				if !f.isOpen(index) {
					continue
				}
				ring := f.graph.skeletonRing(f.grid.GetCoordinates(index))
				if !ring[side] && simpleCell(ring) {
					border = append(border, index)
				}
			}
			for _, index := range border {
				if !simpleCell(f.graph.skeletonRing(f.grid.GetCoordinates(index))) {
					continue
				}
				f.graph.setVoronoi(index, VoronoiUninitialized)
				f.kinds[index] = kindObsolete
				changed = true
			}
		}
	}
	return slices.DeleteFunc(candidates, func(index uint32) bool { return !f.isOpen(index) })
}

func (f *SegmentFinder) kindOf(index uint32) cellKind {
	if k, ok := f.kinds[index]; ok {
		return k
	}
	nh := clusterNeighbourHood(f.graph.skeletonRing(f.grid.GetCoordinates(index)))
	var k cellKind
	switch {
	case nh.clusters <= 1:
		// an isolated cell is a dead end with nowhere to go; it has no
		// length and yields no lane
		k = kindDeadEnd
	case nh.clusters == 2 && nh.count > 2:
		// two touching ring cells close a triangle; thinning leaves a
		// three-way junction in that shape, with no cell seeing three
		// branches on its own
		k = kindHub
	case nh.clusters == 2:
		k = kindEdge
	default:
		k = kindHub
	}
	f.kinds[index] = k
	return k
}

// analyzeHub groups the 8-connected hub cells around seed into one hub. A
// group touching an existing hub joins it.
func (f *SegmentFinder) analyzeHub(seed uint32, tracker *TweakedGraphDataCollection) {
	dims := f.grid.Dimensions()
	members := []uint32{seed}
	seen := map[uint32]bool{seed: true}
	hubID, joined := uint32(0), false
	for i := 0; i < len(members); i++ {
		coord := f.grid.GetCoordinates(members[i])
		for dir := 0; dir < common.NeighbourCount; dir++ {
			n, ok := coord.neighbour(dir, dims)
			if !ok {
				continue
			}
			ni := f.grid.GetIndex(n)
			if seen[ni] {
				continue
			}
			if id, ok := f.graph.GetHubID(ni); ok {
				if !joined {
					hubID, joined = id, true
				}
				continue
			}
			if f.isOpen(ni) && f.kindOf(ni) == kindHub {
				seen[ni] = true
				members = append(members, ni)
			}
		}
	}
	if !joined {
		hubID = f.allocateHub(tracker)
	}
	for _, m := range members {
		f.graph.AddHubCell(m, hubID)
	}
}

func (f *SegmentFinder) allocateHub(tracker *TweakedGraphDataCollection) uint32 {
	id := f.graph.AllocateHubID()
	if tracker != nil {
		tracker.AddedHubs = append(tracker.AddedHubs, id)
		if tracker.IsHubErased(id) {
			tracker.ReplacedHubs = append(tracker.ReplacedHubs, id)
		}
	}
	return id
}

func (f *SegmentFinder) walkFromHub(hubCell uint32, tracker *TweakedGraphDataCollection) {
	coord := f.grid.GetCoordinates(hubCell)
	dims := f.grid.Dimensions()
	for dir := 0; dir < common.NeighbourCount; dir++ {
		n, ok := coord.neighbour(dir, dims)
		if !ok {
			continue
		}
		ni := f.grid.GetIndex(n)
		if !f.isOpen(ni) {
			continue
		}
		switch f.kindOf(ni) {
		case kindEdge, kindDeadEnd:
			f.walk(hubCell, ni, tracker)
		}
	}
}

// forward picks the next cell after cur coming from prev (-1 for none).
// Hub cells win over open cells, orthogonal steps over diagonal ones.
func (f *SegmentFinder) forward(cur uint32, prev int64) (uint32, bool) {
	coord := f.grid.GetCoordinates(cur)
	dims := f.grid.Dimensions()
	nh := clusterNeighbourHood(f.graph.skeletonRing(coord))
	back := int8(-1)
	if prev >= 0 {
		for dir := 0; dir < common.NeighbourCount; dir++ {
			if n, ok := coord.neighbour(dir, dims); ok && int64(f.grid.GetIndex(n)) == prev {
				back = nh.cluster[dir]
				break
			}
		}
	}
	hasForward := false
	best, bestRank := uint32(0), 0
	for dir := 0; dir < common.NeighbourCount; dir++ {
		if !nh.present[dir] || nh.cluster[dir] == back {
			continue
		}
		hasForward = true
		n, _ := coord.neighbour(dir, dims)
		ni := f.grid.GetIndex(n)
		rank := 0
		switch {
		case f.graph.IsHub(ni):
			rank = 3
		case f.isOpen(ni):
			rank = 1
		}
		if rank > 0 && !common.IsDiagonal(dir) {
			rank++
		}
		if rank > bestRank {
			best, bestRank = ni, rank
		}
	}
	common.AssertTrue(hasForward || prev < 0 || f.kindOf(cur) != kindEdge,
		"edge cell %v has no direction to advance", coord)
	return best, bestRank > 0
}

// walk follows the skeleton from start through first until it reaches a
// hub or a dead end, assigning a fresh lane id to the cells on the way.
func (f *SegmentFinder) walk(start, first uint32, tracker *TweakedGraphDataCollection) {
	id := f.graph.AllocateSegmentID()
	seg := GridSegment{ID: id, StartHub: NoHub, EndHub: NoHub}
	if hub, ok := f.graph.GetHubID(start); ok {
		seg.StartHub = hub
	} else {
		f.graph.setVoronoi(start, id)
	}
	raw := []uint32{start}
	prev, cur := start, first
	for {
		raw = append(raw, cur)
		if hub, ok := f.graph.GetHubID(cur); ok {
			seg.EndHub = hub
			break
		}
		f.graph.setVoronoi(cur, id)
		if f.kindOf(cur) != kindEdge {
			break
		}
		next, ok := f.forward(cur, int64(prev))
		if !ok {
			break
		}
		prev, cur = cur, next
	}
	seg.Points = f.removeRedundantCells(raw)
	if tracker != nil && tracker.IsLaneErased(id) {
		tracker.ReplacedLanes = append(tracker.ReplacedLanes, id)
	}
	f.lanes = append(f.lanes, seg)
}

// removeRedundantCells keeps a cell only where the step direction or the
// free space changes. The ends are always kept.
func (f *SegmentFinder) removeRedundantCells(raw []uint32) []SegmentPoint {
	points := make([]SegmentPoint, len(raw))
	for i, index := range raw {
		points[i] = SegmentPoint{
			Coord:            f.grid.GetCoordinates(index),
			FreeSpaceSquared: f.grid.CalculateClosestDistanceSquared(index),
		}
	}
	if len(points) <= 2 {
		return points
	}
	step := func(a, b GridCoordinates) (int64, int64) {
		return int64(b.X) - int64(a.X), int64(b.Y) - int64(a.Y)
	}
	res := []SegmentPoint{points[0]}
	for i := 1; i+1 < len(points); i++ {
		ix, iy := step(points[i-1].Coord, points[i].Coord)
		ox, oy := step(points[i].Coord, points[i+1].Coord)
		fs := points[i].FreeSpaceSquared
		if ix == ox && iy == oy && fs == points[i-1].FreeSpaceSquared && fs == points[i+1].FreeSpaceSquared {
			continue
		}
		res = append(res, points[i])
	}
	return append(res, points[len(points)-1])
}

// TraceConnectionsByWavefront rebuilds the hub to lane map from the graph
// alone: a lane is connected to a hub when one of its end cells touches a
// cell of that hub. It needs no earlier segmentation pass, so it also
// serves graphs restored from disk.
func (f *SegmentFinder) TraceConnectionsByWavefront() map[uint32][]uint32 {
	dims := f.grid.Dimensions()
	res := make(map[uint32][]uint32)
	for _, e := range f.graph.HubEntries() {
		if _, ok := res[e.HubID]; !ok {
			res[e.HubID] = nil
		}
		coord := f.grid.GetCoordinates(e.CellID)
		for dir := 0; dir < common.NeighbourCount; dir++ {
			n, ok := coord.neighbour(dir, dims)
			if !ok {
				continue
			}
			ni := f.grid.GetIndex(n)
			lane, ok := f.graph.LaneID(ni)
			if !ok || !f.isLaneEnd(n, lane) {
				continue
			}
			if !slices.Contains(res[e.HubID], lane) {
				res[e.HubID] = append(res[e.HubID], lane)
			}
		}
	}
	for hub := range res {
		slices.Sort(res[hub])
	}
	return res
}

// isLaneEnd reports whether the cells of lane around coord form at most one
// cluster.
func (f *SegmentFinder) isLaneEnd(coord GridCoordinates, lane uint32) bool {
	var ring [common.NeighbourCount]bool
	dims := f.grid.Dimensions()
	for dir := 0; dir < common.NeighbourCount; dir++ {
		if n, ok := coord.neighbour(dir, dims); ok {
			ring[dir] = f.graph.VoronoiValue(f.grid.GetIndex(n)) == lane
		}
	}
	return clusterNeighbourHood(ring).clusters <= 1
}
