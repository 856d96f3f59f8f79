package voronoi

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/gorustyt/gonavlanes/common/rw"
)

// Voronoi line states besides concrete lane ids.
const (
	// VoronoiUninitialized marks a cell that is not on the skeleton.
	VoronoiUninitialized uint32 = math.MaxUint32
	// VoronoiUncategorized marks a skeleton cell not assigned to a lane.
	VoronoiUncategorized uint32 = math.MaxUint32 - 1
	// maxLaneID is the largest id handed out for lanes.
	maxLaneID = math.MaxUint32 - 2
)

// HubEntry maps one skeleton cell to the hub it belongs to.
type HubEntry struct {
	CellID uint32
	HubID  uint32
}

// DynamicGraph owns a distance grid plus the skeleton classification and
// the id bookkeeping needed to update lanes and hubs incrementally.
type DynamicGraph struct {
	grid        *DistanceGrid
	voronoiLine []uint32
	// hubNodeIds is sorted by CellID.
	hubNodeIds       []HubEntry
	unusedHubNodeIds []uint32
	unusedSegmentIds []uint32
	nextFreeHubId    uint32
	nextSegmentId    uint32
}

func NewDynamicGraph(config GridConfiguration) *DynamicGraph {
	return NewDynamicGraphFromGrid(NewDistanceGrid(config))
}

// NewDynamicGraphFromGrid takes ownership of grid.
func NewDynamicGraphFromGrid(grid *DistanceGrid) *DynamicGraph {
	g := &DynamicGraph{grid: grid, voronoiLine: make([]uint32, grid.CellCount())}
	g.ResetVoronoi()
	return g
}

func (g *DynamicGraph) Grid() *DistanceGrid { return g.grid }

// ResetVoronoi clears the skeleton and all hub and lane bookkeeping.
func (g *DynamicGraph) ResetVoronoi() {
	for i := range g.voronoiLine {
		g.voronoiLine[i] = VoronoiUninitialized
	}
	g.ResetLanes()
}

// ResetLanes keeps the skeleton but forgets every lane and hub: lane cells
// become uncategorized and the id pools start over.
func (g *DynamicGraph) ResetLanes() {
	for i, v := range g.voronoiLine {
		if v != VoronoiUninitialized {
			g.voronoiLine[i] = VoronoiUncategorized
		}
	}
	g.hubNodeIds = g.hubNodeIds[:0]
	g.unusedHubNodeIds = g.unusedHubNodeIds[:0]
	g.unusedSegmentIds = g.unusedSegmentIds[:0]
	g.nextFreeHubId = 0
	g.nextSegmentId = 0
}

func (g *DynamicGraph) VoronoiValue(index uint32) uint32 { return g.voronoiLine[index] }

// IsVoronoi reports whether the cell is on the skeleton.
func (g *DynamicGraph) IsVoronoi(index uint32) bool {
	return g.voronoiLine[index] != VoronoiUninitialized
}

// LaneID returns the lane a skeleton cell is assigned to.
func (g *DynamicGraph) LaneID(index uint32) (uint32, bool) {
	v := g.voronoiLine[index]
	if v == VoronoiUninitialized || v == VoronoiUncategorized {
		return 0, false
	}
	return v, true
}

func (g *DynamicGraph) setVoronoi(index, value uint32) {
	g.voronoiLine[index] = value
}

// VoronoiCells returns the indices of all skeleton cells in scan order.
func (g *DynamicGraph) VoronoiCells() []uint32 {
	var res []uint32
	for i, v := range g.voronoiLine {
		if v != VoronoiUninitialized {
			res = append(res, uint32(i))
		}
	}
	return res
}

func (g *DynamicGraph) findHub(cellID uint32) (int, bool) {
	i := sort.Search(len(g.hubNodeIds), func(i int) bool { return g.hubNodeIds[i].CellID >= cellID })
	return i, i < len(g.hubNodeIds) && g.hubNodeIds[i].CellID == cellID
}

// GetHubID returns the hub a cell belongs to.
func (g *DynamicGraph) GetHubID(cellID uint32) (uint32, bool) {
	i, ok := g.findHub(cellID)
	if !ok {
		return 0, false
	}
	return g.hubNodeIds[i].HubID, true
}

func (g *DynamicGraph) IsHub(cellID uint32) bool {
	_, ok := g.findHub(cellID)
	return ok
}

// AddHubCell records cellID as a member of hubID. The cell must be on the
// skeleton.
func (g *DynamicGraph) AddHubCell(cellID, hubID uint32) {
	if !g.IsVoronoi(cellID) {
		panic(fmt.Sprintf("hub cell %v is not on the skeleton", g.grid.GetCoordinates(cellID)))
	}
	i, ok := g.findHub(cellID)
	if ok {
		g.hubNodeIds[i].HubID = hubID
		return
	}
	g.hubNodeIds = slices.Insert(g.hubNodeIds, i, HubEntry{CellID: cellID, HubID: hubID})
}

// RemoveHubCell drops the hub entry of a cell.
func (g *DynamicGraph) RemoveHubCell(cellID uint32) (uint32, bool) {
	i, ok := g.findHub(cellID)
	if !ok {
		return 0, false
	}
	hubID := g.hubNodeIds[i].HubID
	g.hubNodeIds = slices.Delete(g.hubNodeIds, i, i+1)
	return hubID, true
}

// HubCells returns the member cells of a hub in ascending order.
func (g *DynamicGraph) HubCells(hubID uint32) []uint32 {
	var res []uint32
	for _, e := range g.hubNodeIds {
		if e.HubID == hubID {
			res = append(res, e.CellID)
		}
	}
	return res
}

// HubEntries returns the hub table sorted by cell id.
func (g *DynamicGraph) HubEntries() []HubEntry {
	return slices.Clone(g.hubNodeIds)
}

// RemoveHub drops every entry of hubID and releases the id. The id is
// released even when no entry is left, since the calculator drops entries
// of cells that fall off the skeleton.
func (g *DynamicGraph) RemoveHub(hubID uint32) []uint32 {
	var cells []uint32
	g.hubNodeIds = slices.DeleteFunc(g.hubNodeIds, func(e HubEntry) bool {
		if e.HubID == hubID {
			cells = append(cells, e.CellID)
			return true
		}
		return false
	})
	g.ReleaseHubID(hubID)
	return cells
}

// GetNextFreeHubID returns the id AllocateHubID would hand out next.
func (g *DynamicGraph) GetNextFreeHubID() uint32 {
	if n := len(g.unusedHubNodeIds); n > 0 {
		return g.unusedHubNodeIds[n-1]
	}
	return g.nextFreeHubId
}

// AllocateHubID prefers released ids over growing the counter.
func (g *DynamicGraph) AllocateHubID() uint32 {
	if n := len(g.unusedHubNodeIds); n > 0 {
		id := g.unusedHubNodeIds[n-1]
		g.unusedHubNodeIds = g.unusedHubNodeIds[:n-1]
		return id
	}
	id := g.nextFreeHubId
	g.nextFreeHubId++
	return id
}

func (g *DynamicGraph) ReleaseHubID(id uint32) {
	if slices.Contains(g.unusedHubNodeIds, id) || id >= g.nextFreeHubId {
		return
	}
	g.unusedHubNodeIds = append(g.unusedHubNodeIds, id)
}

// AllocateSegmentID prefers released ids over growing the counter.
func (g *DynamicGraph) AllocateSegmentID() uint32 {
	if n := len(g.unusedSegmentIds); n > 0 {
		id := g.unusedSegmentIds[n-1]
		g.unusedSegmentIds = g.unusedSegmentIds[:n-1]
		return id
	}
	if g.nextSegmentId > maxLaneID {
		panic("segment ids exhausted")
	}
	id := g.nextSegmentId
	g.nextSegmentId++
	return id
}

func (g *DynamicGraph) ReleaseSegmentID(id uint32) {
	if slices.Contains(g.unusedSegmentIds, id) || id >= g.nextSegmentId {
		return
	}
	g.unusedSegmentIds = append(g.unusedSegmentIds, id)
}

// ContainsUninitializedVoronoiState reports skeleton cells with an
// uninitialized distance and hub entries on cells off the skeleton.
func (g *DynamicGraph) ContainsUninitializedVoronoiState() bool {
	for i, v := range g.voronoiLine {
		if v != VoronoiUninitialized && !g.grid.cells[i].IsInitialized() {
			return true
		}
	}
	for _, e := range g.hubNodeIds {
		if !g.IsVoronoi(e.CellID) {
			return true
		}
	}
	return false
}

// ToBin persists the grid only; the skeleton and lanes are derived data.
func (g *DynamicGraph) ToBin(w *rw.ReaderWriter) {
	g.grid.ToBin(w)
}

// ReadDynamicGraph decodes a graph written by ToBin into a new graph with
// an empty skeleton. Run a new DistanceCalculator on it to rebuild distances
// and the skeleton.
func ReadDynamicGraph(data []byte) (*DynamicGraph, error) {
	grid, err := ReadDistanceGrid(data)
	if err != nil {
		return nil, err
	}
	return NewDynamicGraphFromGrid(grid), nil
}
