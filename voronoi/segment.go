package voronoi

import (
	"math"
	"slices"

	"github.com/gorustyt/gonavlanes/common"
)

// NoHub marks a segment end that stops at a dead end.
const NoHub uint32 = math.MaxUint32

// SegmentPoint is one polyline vertex with the squared free space, in grid
// units, at that cell.
type SegmentPoint struct {
	Coord            GridCoordinates
	FreeSpaceSquared uint32
}

// GridSegment is a lane polyline in grid space. The first and last point
// are hub cells when StartHub and EndHub are set.
type GridSegment struct {
	ID       uint32
	Points   []SegmentPoint
	StartHub uint32
	EndHub   uint32
}

// Length sums the euclidean step lengths in grid units.
func (s *GridSegment) Length() float32 {
	var l float64
	for i := 1; i < len(s.Points); i++ {
		a, b := s.Points[i-1].Coord, s.Points[i].Coord
		dx := float64(a.X) - float64(b.X)
		dy := float64(a.Y) - float64(b.Y)
		l += common.Sqrt(dx*dx + dy*dy)
	}
	return float32(l)
}

// MinFreeSpaceSquared is the narrowest point of the segment.
func (s *GridSegment) MinFreeSpaceSquared() uint32 {
	res := uint32(math.MaxUint32)
	for _, p := range s.Points {
		res = min(res, p.FreeSpaceSquared)
	}
	return res
}

// SegmentNode is one end of a segment.
type SegmentNode struct {
	ID               uint32
	Coord            GridCoordinates
	FreeSpaceSquared uint32
	Hub              uint32
}

// Node ids come in pairs per segment: segmentID*2 is the start,
// segmentID*2+1 the end.
func StartNodeID(segmentID uint32) uint32 { return segmentID * 2 }
func EndNodeID(segmentID uint32) uint32   { return segmentID*2 + 1 }
func SegmentIDOfNode(nodeID uint32) uint32 { return nodeID / 2 }
func IsStartNode(nodeID uint32) bool      { return nodeID%2 == 0 }

// SegmentCollection indexes segments by id for the lane converter.
type SegmentCollection struct {
	segments map[uint32]*GridSegment
}

func NewSegmentCollection(segments []GridSegment) *SegmentCollection {
	c := &SegmentCollection{segments: make(map[uint32]*GridSegment, len(segments))}
	for i := range segments {
		c.Add(segments[i])
	}
	return c
}

// Add stores seg, replacing a segment with the same id.
func (c *SegmentCollection) Add(seg GridSegment) {
	common.AssertTrue(len(seg.Points) >= 2, "segment %d has %d points", seg.ID, len(seg.Points))
	c.segments[seg.ID] = &seg
}

func (c *SegmentCollection) Remove(id uint32) bool {
	if _, ok := c.segments[id]; !ok {
		return false
	}
	delete(c.segments, id)
	return true
}

func (c *SegmentCollection) Get(id uint32) (*GridSegment, bool) {
	s, ok := c.segments[id]
	return s, ok
}

func (c *SegmentCollection) Len() int { return len(c.segments) }

// IDs returns the segment ids in ascending order.
func (c *SegmentCollection) IDs() []uint32 {
	ids := make([]uint32, 0, len(c.segments))
	for id := range c.segments {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *SegmentCollection) mustGet(id uint32) *GridSegment {
	s, ok := c.segments[id]
	common.AssertTrue(ok, "unknown segment %d", id)
	return s
}

// GetNode resolves a node id to its segment end.
func (c *SegmentCollection) GetNode(nodeID uint32) (SegmentNode, bool) {
	s, ok := c.segments[SegmentIDOfNode(nodeID)]
	if !ok {
		return SegmentNode{}, false
	}
	p, hub := s.Points[0], s.StartHub
	if !IsStartNode(nodeID) {
		p, hub = s.Points[len(s.Points)-1], s.EndHub
	}
	return SegmentNode{ID: nodeID, Coord: p.Coord, FreeSpaceSquared: p.FreeSpaceSquared, Hub: hub}, true
}

// GetFreeSpaceSquaredForNode panics for unknown segments.
func (c *SegmentCollection) GetFreeSpaceSquaredForNode(nodeID uint32) uint32 {
	s := c.mustGet(SegmentIDOfNode(nodeID))
	if IsStartNode(nodeID) {
		return s.Points[0].FreeSpaceSquared
	}
	return s.Points[len(s.Points)-1].FreeSpaceSquared
}

// GetPointRange returns points [start, end] of a segment, both inclusive.
func (c *SegmentCollection) GetPointRange(segmentID uint32, start, end int) []SegmentPoint {
	s := c.mustGet(segmentID)
	common.AssertTrue(end >= start, "end index %d < start index %d", end, start)
	common.AssertTrue(start >= 0 && end < len(s.Points), "range [%d,%d] outside segment %d of %d points",
		start, end, segmentID, len(s.Points))
	return s.Points[start : end+1]
}

// NodesAtHub returns the node ids of all segment ends attached to hubID,
// ascending.
func (c *SegmentCollection) NodesAtHub(hubID uint32) []uint32 {
	var res []uint32
	for id, s := range c.segments {
		if s.StartHub == hubID {
			res = append(res, StartNodeID(id))
		}
		if s.EndHub == hubID {
			res = append(res, EndNodeID(id))
		}
	}
	slices.Sort(res)
	return res
}
