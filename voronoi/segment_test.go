package voronoi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeIDs(t *testing.T) {
	assert.Equal(t, uint32(14), StartNodeID(7))
	assert.Equal(t, uint32(15), EndNodeID(7))
	assert.Equal(t, uint32(7), SegmentIDOfNode(15))
	assert.True(t, IsStartNode(14))
	assert.False(t, IsStartNode(15))
}

func TestSegmentCollection(t *testing.T) {
	segs := []GridSegment{
		{ID: 3, StartHub: 1, EndHub: NoHub, Points: []SegmentPoint{pt(1, 1, 9), pt(4, 1, 16), pt(4, 5, 4)}},
		{ID: 5, StartHub: 2, EndHub: 1, Points: []SegmentPoint{pt(0, 0, 25), pt(3, 4, 36)}},
	}
	c := NewSegmentCollection(segs)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []uint32{3, 5}, c.IDs())

	node, ok := c.GetNode(EndNodeID(3))
	require.True(t, ok)
	assert.Equal(t, SegmentNode{ID: 7, Coord: GridCoordinates{X: 4, Y: 5}, FreeSpaceSquared: 4, Hub: NoHub}, node)
	_, ok = c.GetNode(EndNodeID(4))
	assert.False(t, ok)

	assert.Equal(t, uint32(9), c.GetFreeSpaceSquaredForNode(StartNodeID(3)))
	assert.Equal(t, uint32(36), c.GetFreeSpaceSquaredForNode(EndNodeID(5)))
	assert.Panics(t, func() { c.GetFreeSpaceSquaredForNode(StartNodeID(9)) })

	assert.Equal(t, []SegmentPoint{pt(4, 1, 16), pt(4, 5, 4)}, c.GetPointRange(3, 1, 2))
	assert.Equal(t, []SegmentPoint{pt(1, 1, 9)}, c.GetPointRange(3, 0, 0))
	assert.Panics(t, func() { c.GetPointRange(3, 2, 1) })
	assert.Panics(t, func() { c.GetPointRange(3, 0, 3) })

	assert.Equal(t, []uint32{StartNodeID(3), EndNodeID(5)}, c.NodesAtHub(1))
	assert.Equal(t, []uint32{StartNodeID(5)}, c.NodesAtHub(2))

	seg, ok := c.Get(3)
	require.True(t, ok)
	assert.InDelta(t, 7.0, seg.Length(), 1e-5)
	assert.Equal(t, uint32(4), seg.MinFreeSpaceSquared())

	assert.True(t, c.Remove(3))
	assert.False(t, c.Remove(3))
	assert.Panics(t, func() { c.Add(GridSegment{ID: 8, Points: []SegmentPoint{pt(0, 0, 1)}}) })
}
