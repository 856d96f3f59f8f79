package lanes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorustyt/gonavlanes/voronoi"
)

func TestFindPathSingleLane(t *testing.T) {
	w := builtRoomWorld(t, 4.5)
	from, to := DeadEndNodeID(0), DeadEndNodeID(1)

	p, err := w.FindPath(from, to, 10)
	require.NoError(t, err)
	assert.Equal(t, Path{Nodes: []uint32{from, to}, Lanes: []uint32{0}, Length: 10}, p)

	p, err = w.FindPath(to, from, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint32{to, from}, p.Nodes)

	_, err = w.FindPath(from, to, 11)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestFindPathErrors(t *testing.T) {
	w := builtRoomWorld(t, 4.5)
	_, err := w.FindPath(HubNodeID(5), DeadEndNodeID(0), 0)
	assert.ErrorIs(t, err, ErrUnknownNode)
	_, err = w.FindPath(DeadEndNodeID(0), HubNodeID(5), 0)
	assert.ErrorIs(t, err, ErrUnknownNode)

	p, err := w.FindPath(DeadEndNodeID(0), DeadEndNodeID(0), 100)
	require.NoError(t, err)
	assert.Equal(t, Path{Nodes: []uint32{DeadEndNodeID(0)}}, p)
}

func TestFindPathThroughHubs(t *testing.T) {
	w := builtRoomWorld(t, 0)
	deadEnd := DeadEndNodeID(voronoi.EndNodeID(1))

	p, err := w.FindPath(HubNodeID(0), HubNodeID(1), 0)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, p.Lanes)
	assert.Equal(t, float32(10), p.Length)

	p, err = w.FindPath(deadEnd, HubNodeID(1), 0)
	require.NoError(t, err)
	assert.Equal(t, []uint32{deadEnd, HubNodeID(0), HubNodeID(1)}, p.Nodes)
	assert.Equal(t, []uint32{1, 0}, p.Lanes)
	assert.InDelta(t, 11+2*1.41421356, p.Length, 1e-4)

	// lane 1 narrows to a width of 4 at the dead end
	_, err = w.FindPath(deadEnd, HubNodeID(1), 5)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestConnectedComponents(t *testing.T) {
	w := builtRoomWorld(t, 4.5)
	assert.Equal(t, [][]uint32{{DeadEndNodeID(0), DeadEndNodeID(1)}}, w.ConnectedComponents())

	w = builtRoomWorld(t, 0)
	comps := w.ConnectedComponents()
	require.Len(t, comps, 1)
	assert.Equal(t, w.NodeIDs(), comps[0])
}
