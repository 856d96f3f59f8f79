package voronoi

import (
	"maps"
	"slices"
)

// TweakedGraphDataCollection records what one incremental update erased
// and added. Build a fresh one per update and drop it once consumed.
type TweakedGraphDataCollection struct {
	// ErasedHubs holds hub ids whose cells changed.
	ErasedHubs map[uint32]struct{}
	// ErasedLanes maps a lane id to the cells whose change invalidated it.
	ErasedLanes map[uint32][]uint32
	// AddedHubs are hub ids created by the segment finder in this pass.
	AddedHubs []uint32
	// ReplacedHubs are erased hub ids that were handed out again.
	ReplacedHubs []uint32
	// ReplacedLanes are erased lane ids that were handed out again.
	ReplacedLanes []uint32
}

func NewTweakedGraphDataCollection() *TweakedGraphDataCollection {
	return &TweakedGraphDataCollection{
		ErasedHubs:  make(map[uint32]struct{}),
		ErasedLanes: make(map[uint32][]uint32),
	}
}

func (t *TweakedGraphDataCollection) EraseHub(hubID uint32) {
	t.ErasedHubs[hubID] = struct{}{}
}

func (t *TweakedGraphDataCollection) EraseLane(laneID, cellID uint32) {
	cells := t.ErasedLanes[laneID]
	if !slices.Contains(cells, cellID) {
		t.ErasedLanes[laneID] = append(cells, cellID)
	}
}

func (t *TweakedGraphDataCollection) IsHubErased(hubID uint32) bool {
	_, ok := t.ErasedHubs[hubID]
	return ok
}

func (t *TweakedGraphDataCollection) IsLaneErased(laneID uint32) bool {
	_, ok := t.ErasedLanes[laneID]
	return ok
}

// ErasedHubIDs returns the erased hub ids in ascending order.
func (t *TweakedGraphDataCollection) ErasedHubIDs() []uint32 {
	return slices.Sorted(maps.Keys(t.ErasedHubs))
}

// ErasedLaneIDs returns the erased lane ids in ascending order.
func (t *TweakedGraphDataCollection) ErasedLaneIDs() []uint32 {
	return slices.Sorted(maps.Keys(t.ErasedLanes))
}

func (t *TweakedGraphDataCollection) Empty() bool {
	return len(t.ErasedHubs) == 0 && len(t.ErasedLanes) == 0 && len(t.AddedHubs) == 0
}

// recordCell marks the lane or hub a cell belongs to as erased.
func (t *TweakedGraphDataCollection) recordCell(graph *DynamicGraph, index uint32) {
	if t == nil {
		return
	}
	if hubID, ok := graph.GetHubID(index); ok {
		t.EraseHub(hubID)
	}
	if laneID, ok := graph.LaneID(index); ok {
		t.EraseLane(laneID, index)
	}
}
