package lanes

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gorustyt/gonavlanes/common"
	"github.com/gorustyt/gonavlanes/voronoi"
)

// roomSettings is a 21x11 grid of unit cells.
func roomSettings() voronoi.CreationSettings {
	return voronoi.CreationSettings{
		CornerMax: common.Vec3{21, 0, 11},
		CellSize:  1,
		MapID:     7,
	}
}

func newRoomWorld(t *testing.T, minimumDistanceNeeded float32) *TrafficLaneWorld {
	t.Helper()
	w := NewTrafficLaneWorld(roomSettings(), voronoi.BlockerConfig{}, minimumDistanceNeeded,
		WithLogger(zaptest.NewLogger(t)))
	w.AddOuterBorder()
	return w
}

func builtRoomWorld(t *testing.T, minimumDistanceNeeded float32) *TrafficLaneWorld {
	t.Helper()
	w := newRoomWorld(t, minimumDistanceNeeded)
	w.Build()
	return w
}

func wantRoomLane() *Lane {
	return &Lane{
		ID:        0,
		Points:    []common.Vec3{{5.5, 0, 5.5}, {15.5, 0, 5.5}},
		Widths:    []float32{10, 10},
		StartNode: DeadEndNodeID(voronoi.StartNodeID(0)),
		EndNode:   DeadEndNodeID(voronoi.EndNodeID(0)),
		Length:    10,
	}
}

func TestNodeIDs(t *testing.T) {
	assert.Equal(t, uint32(3), HubNodeID(3))
	assert.False(t, IsDeadEnd(HubNodeID(3)))
	id := DeadEndNodeID(voronoi.EndNodeID(4))
	assert.Equal(t, uint32(9|1<<31), id)
	assert.True(t, IsDeadEnd(id))
}

func TestLaneHelpers(t *testing.T) {
	l := &Lane{StartNode: 1, EndNode: 2, Widths: []float32{4, 2.5, 3}}
	assert.Equal(t, float32(2.5), l.MinWidth())
	assert.Equal(t, uint32(2), l.Other(1))
	assert.Equal(t, uint32(1), l.Other(2))
}

func TestBuildRoom(t *testing.T) {
	w := builtRoomWorld(t, 4.5)

	assert.True(t, w.Editable())
	assert.Equal(t, roomSettings(), w.Settings())
	require.Equal(t, []uint32{0}, w.LaneIDs())
	lane, ok := w.Lane(0)
	require.True(t, ok)
	if diff := cmp.Diff(wantRoomLane(), lane); diff != "" {
		t.Fatalf("lane mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, float32(10), lane.MinWidth())

	start, end := DeadEndNodeID(0), DeadEndNodeID(1)
	assert.Equal(t, []uint32{start, end}, w.NodeIDs())
	n, ok := w.Node(start)
	require.True(t, ok)
	assert.Equal(t, common.Vec3{5.5, 0, 5.5}, n.Position)
	assert.Equal(t, []uint32{0}, n.Lanes)
	n, ok = w.Node(end)
	require.True(t, ok)
	assert.Equal(t, common.Vec3{15.5, 0, 5.5}, n.Position)

	_, ok = w.Lane(1)
	assert.False(t, ok)
	_, ok = w.Node(HubNodeID(0))
	assert.False(t, ok)
}

func TestBuildRoomWithoutMinimumDistance(t *testing.T) {
	w := builtRoomWorld(t, 0)

	require.Equal(t, []uint32{0, 1, 2, 3, 4}, w.LaneIDs())
	hub0, ok := w.Node(HubNodeID(0))
	require.True(t, ok)
	assert.Equal(t, []uint32{0, 1, 2}, hub0.Lanes)
	hub1, ok := w.Node(HubNodeID(1))
	require.True(t, ok)
	assert.Equal(t, []uint32{0, 3, 4}, hub1.Lanes)

	lane, _ := w.Lane(0)
	assert.Equal(t, HubNodeID(0), lane.StartNode)
	assert.Equal(t, HubNodeID(1), lane.EndNode)
	for _, id := range []uint32{1, 2, 3, 4} {
		lane, _ := w.Lane(id)
		assert.False(t, IsDeadEnd(lane.StartNode), "lane %d", id)
		assert.Equal(t, DeadEndNodeID(voronoi.EndNodeID(id)), lane.EndNode, "lane %d", id)
	}
	assert.Len(t, w.NodeIDs(), 6)
}

func TestUpdateBeforeBuild(t *testing.T) {
	w := newRoomWorld(t, 4.5)
	cs := w.Update()
	assert.Equal(t, ChangeSet{AddedLanes: []uint32{0}}, cs)
	assert.Equal(t, []uint32{0}, w.LaneIDs())
}

func TestUpdateWithoutEdits(t *testing.T) {
	w := builtRoomWorld(t, 4.5)
	cs := w.Update()
	assert.True(t, cs.Empty())
	assert.Equal(t, []uint32{0}, w.LaneIDs())
}

func TestUpdateObstacleRoundTrip(t *testing.T) {
	w := builtRoomWorld(t, 4.5)
	want, _ := w.Lane(0)

	res := w.AddObstacle(1, voronoi.Sphere(common.Vec3{10.5, 0, 5.5}, 0.4))
	require.Equal(t, voronoi.BlockSuccess, res)
	cs := w.Update()
	assert.Equal(t, []uint32{0}, cs.RemovedLanes)
	assert.Empty(t, cs.AddedLanes)
	assert.Empty(t, w.LaneIDs())
	assert.Empty(t, w.NodeIDs())

	require.True(t, w.RemoveObstacle(1))
	assert.False(t, w.RemoveObstacle(1))
	cs = w.Update()
	assert.Empty(t, cs.RemovedLanes)
	assert.Equal(t, []uint32{0}, cs.AddedLanes)
	got, ok := w.Lane(0)
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lane mismatch after removal (-want +got):\n%s", diff)
	}
}

func TestObstacleOutsideGrid(t *testing.T) {
	w := builtRoomWorld(t, 4.5)
	res := w.AddObstacle(1, voronoi.Sphere(common.Vec3{-10, 0, -10}, 1))
	assert.NotEqual(t, voronoi.BlockSuccess, res)
	assert.True(t, w.Update().Empty())
}

func TestNearestNode(t *testing.T) {
	w := builtRoomWorld(t, 4.5)
	id, ok := w.NearestNode(common.Vec3{4, 3, 6})
	require.True(t, ok)
	assert.Equal(t, DeadEndNodeID(0), id)
	id, ok = w.NearestNode(common.Vec3{20, 0, 0})
	require.True(t, ok)
	assert.Equal(t, DeadEndNodeID(1), id)

	empty := NewTrafficLaneWorld(roomSettings(), voronoi.BlockerConfig{}, 4.5)
	_, ok = empty.NearestNode(common.Vec3{})
	assert.False(t, ok)
}

func TestDropEditableState(t *testing.T) {
	w := builtRoomWorld(t, 4.5)
	w.DropEditableState()
	assert.False(t, w.Editable())
	assert.Nil(t, w.Graph())
	assert.Equal(t, []uint32{0}, w.LaneIDs())
	assert.Panics(t, func() { w.Update() })
	assert.Panics(t, func() { w.AddOuterBorder() })
}

func requireSameLanes(t *testing.T, want, got *TrafficLaneWorld) {
	t.Helper()
	require.Equal(t, want.LaneIDs(), got.LaneIDs())
	require.Equal(t, want.NodeIDs(), got.NodeIDs())
	for _, id := range want.LaneIDs() {
		a, _ := want.Lane(id)
		b, _ := got.Lane(id)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("lane %d mismatch (-want +got):\n%s", id, diff)
		}
	}
	for _, id := range want.NodeIDs() {
		a, _ := want.Node(id)
		b, _ := got.Node(id)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("node %d mismatch (-want +got):\n%s", id, diff)
		}
	}
}

func TestRestoreGraph(t *testing.T) {
	src := newRoomWorld(t, 0)
	src.AddObstacle(1, voronoi.Sphere(common.Vec3{10.5, 0, 5.5}, 0.4))
	src.Build()
	data := src.MarshalGraph()

	w := NewTrafficLaneWorld(roomSettings(), voronoi.BlockerConfig{}, 0, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, w.RestoreGraph(data))
	assert.Equal(t, src.Graph().Grid().BlockedCells(), w.Graph().Grid().BlockedCells())
	requireSameLanes(t, src, w)

	// restored cells survive an overlapping obstacle coming and going
	require.Equal(t, voronoi.BlockSuccess, w.AddObstacle(2, voronoi.Sphere(common.Vec3{10.5, 0, 5.5}, 0.4)))
	require.True(t, w.RemoveObstacle(2))
	assert.False(t, w.RemoveObstacle(voronoi.RestoredObstacleID))
	assert.True(t, w.Update().Empty())
	assert.True(t, w.Graph().Grid().IsBlocked(voronoi.GridCoordinates{X: 10, Y: 5}))

	// and the restored world keeps updating incrementally
	require.Equal(t, voronoi.BlockSuccess, w.AddObstacle(3, voronoi.Sphere(common.Vec3{4.5, 0, 2.5}, 0.4)))
	assert.False(t, w.Update().Empty())
}

func TestRestoreGraphAfterDrop(t *testing.T) {
	src := builtRoomWorld(t, 4.5)
	data := src.MarshalGraph()
	want := builtRoomWorld(t, 4.5)

	src.DropEditableState()
	assert.Panics(t, func() { src.MarshalGraph() })
	require.NoError(t, src.RestoreGraph(data))
	assert.True(t, src.Editable())
	requireSameLanes(t, want, src)

	require.Equal(t, voronoi.BlockSuccess, src.AddObstacle(1, voronoi.Sphere(common.Vec3{10.5, 0, 5.5}, 0.4)))
	assert.Equal(t, []uint32{0}, src.Update().RemovedLanes)
}

func TestRestoreGraphErrors(t *testing.T) {
	data := builtRoomWorld(t, 4.5).MarshalGraph()

	other := roomSettings()
	other.CornerMax = common.Vec3{22, 0, 11}
	w := NewTrafficLaneWorld(other, voronoi.BlockerConfig{}, 4.5)
	assert.ErrorIs(t, w.RestoreGraph(data), voronoi.ErrConfigurationMismatch)
	assert.Error(t, w.RestoreGraph(data[:len(data)-1]))
	assert.Empty(t, w.LaneIDs())
}
