// Package lanes converts grid-space segments into the continuous lane
// network consumed by movers.
package lanes

import (
	"errors"
	"math"

	"github.com/gorustyt/gonavlanes/common"
	"github.com/gorustyt/gonavlanes/voronoi"
)

var (
	ErrUnknownNode = errors.New("unknown lane node")
	ErrNoPath      = errors.New("no path between nodes")
)

// deadEndNodeFlag separates dead-end node ids from hub ids.
const deadEndNodeFlag uint32 = 1 << 31

// HubNodeID is the node id of a hub.
func HubNodeID(hubID uint32) uint32 { return hubID &^ deadEndNodeFlag }

// DeadEndNodeID is the node id of a lane end without a hub. segmentNode is
// voronoi.StartNodeID or voronoi.EndNodeID of the lane.
func DeadEndNodeID(segmentNode uint32) uint32 { return segmentNode | deadEndNodeFlag }

func IsDeadEnd(nodeID uint32) bool { return nodeID&deadEndNodeFlag != 0 }

// Lane is a polyline in world space with the usable width at every point.
type Lane struct {
	ID        uint32
	Points    []common.Vec3
	Widths    []float32
	StartNode uint32
	EndNode   uint32
	Length    float32
}

// MinWidth is the narrowest point of the lane.
func (l *Lane) MinWidth() float32 {
	res := float32(math.MaxFloat32)
	for _, w := range l.Widths {
		res = min(res, w)
	}
	return res
}

// Other returns the node at the opposite end of node.
func (l *Lane) Other(node uint32) uint32 {
	if node == l.StartNode {
		return l.EndNode
	}
	return l.StartNode
}

// Node is a hub or a dead end.
type Node struct {
	ID       uint32
	Position common.Vec3
	// Lanes holds the ids of the lanes ending here, ascending.
	Lanes []uint32
}

// Converter maps grid segments to world lanes.
type Converter struct {
	graph  *voronoi.DynamicGraph
	config voronoi.GridConfiguration
}

func NewConverter(graph *voronoi.DynamicGraph) *Converter {
	return &Converter{graph: graph, config: graph.Grid().Configuration()}
}

// widthOf turns squared free space in cells into a world width.
func (c *Converter) widthOf(freeSpaceSquared uint32) float32 {
	return 2 * float32(common.Sqrt(float64(freeSpaceSquared))) * c.config.CellSize()
}

// ConvertLane places every segment point on its cell midpoint.
func (c *Converter) ConvertLane(seg *voronoi.GridSegment) *Lane {
	lane := &Lane{
		ID:        seg.ID,
		Points:    make([]common.Vec3, len(seg.Points)),
		Widths:    make([]float32, len(seg.Points)),
		StartNode: DeadEndNodeID(voronoi.StartNodeID(seg.ID)),
		EndNode:   DeadEndNodeID(voronoi.EndNodeID(seg.ID)),
	}
	if seg.StartHub != voronoi.NoHub {
		lane.StartNode = HubNodeID(seg.StartHub)
	}
	if seg.EndHub != voronoi.NoHub {
		lane.EndNode = HubNodeID(seg.EndHub)
	}
	for i, p := range seg.Points {
		lane.Points[i] = c.config.ConvertPositionToMidpoint(p.Coord)
		lane.Widths[i] = c.widthOf(p.FreeSpaceSquared)
		if i > 0 {
			lane.Length += common.Vdist2D(lane.Points[i-1], lane.Points[i])
		}
	}
	return lane
}

// HubPosition is the midpoint of the hub cell with the most free space;
// ties go to the lowest cell index.
func (c *Converter) HubPosition(hubID uint32) (common.Vec3, bool) {
	grid := c.graph.Grid()
	best, bestFree, found := uint32(0), uint32(0), false
	for _, cell := range c.graph.HubCells(hubID) {
		free := grid.CalculateClosestDistanceSquared(cell)
		if !found || free > bestFree {
			best, bestFree, found = cell, free, true
		}
	}
	if !found {
		return common.Vec3{}, false
	}
	return c.config.ConvertPositionToMidpoint(grid.GetCoordinates(best)), true
}
