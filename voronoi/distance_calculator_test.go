package voronoi

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistancesMatchBruteForce(t *testing.T) {
	cases := []struct {
		name    string
		w, h    uint32
		border  bool
		blocked []GridCoordinates
	}{
		{"single point", 7, 5, false, []GridCoordinates{{3, 2}}},
		{"bordered room", 10, 10, true, []GridCoordinates{{3, 4}, {6, 6}}},
		{"corridor", 24, 9, true, []GridCoordinates{{8, 3}, {8, 4}, {15, 5}, {15, 6}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			graph, _ := buildField(t, tc.w, tc.h, tc.border, tc.blocked...)
			grid := graph.Grid()
			require.False(t, grid.ContainsUninitializedDistanceValue())
			if diff := cmp.Diff(bruteForceDistances(grid), computedDistances(grid)); diff != "" {
				t.Errorf("distance mismatch (-want +got):\n%s", diff)
			}
			for i, b := range grid.BlockedCells() {
				if b {
					assert.Equal(t, uint32(i), grid.GetCellByIndex(uint32(i)).GetClosestObstacleCellIndex())
				}
			}
		})
	}
}

func TestNoObstaclesLeavesGridUninitialized(t *testing.T) {
	graph, calc := buildField(t, 5, 5, false)
	assert.True(t, graph.Grid().ContainsUninitializedDistanceValue())
	assert.Empty(t, graph.VoronoiCells())
	assert.True(t, calc.HasChanges())
}

func TestPointAndWall(t *testing.T) {
	var blocked []GridCoordinates
	for y := uint32(0); y < 20; y++ {
		blocked = append(blocked, GridCoordinates{X: 15, Y: y})
	}
	blocked = append(blocked, GridCoordinates{X: 5, Y: 5})
	graph, _ := buildField(t, 20, 20, false, blocked...)
	grid := graph.Grid()

	cell := grid.GetIndex(GridCoordinates{X: 10, Y: 10})
	point := grid.GetIndex(GridCoordinates{X: 5, Y: 5})
	assert.Equal(t, uint32(50), grid.CalculateDistanceSquaredBetween(cell, point))
	require.True(t, grid.GetCellByIndex(cell).IsInitialized())
	assert.Equal(t, bruteForceDistances(grid)[cell], grid.CalculateClosestDistanceSquared(cell))

	near := grid.GetIndex(GridCoordinates{X: 7, Y: 7})
	assert.Equal(t, point, grid.GetCellByIndex(near).GetClosestObstacleCellIndex())

	// equidistant cell between the point and the wall ties to the point
	mid := grid.GetIndex(GridCoordinates{X: 10, Y: 5})
	assert.Equal(t, point, grid.GetCellByIndex(mid).GetClosestObstacleCellIndex())
	found := false
	for x := uint32(9); x <= 11; x++ {
		found = found || graph.IsVoronoi(grid.GetIndex(GridCoordinates{X: x, Y: 5}))
	}
	assert.True(t, found, "no skeleton cell between point and wall")
	assert.False(t, grid.ContainsUninitializedDistanceValue())
	assert.False(t, graph.ContainsUninitializedVoronoiState())
}

func TestSkeletonCellsKeepDistance(t *testing.T) {
	graph, _ := buildField(t, 21, 11, true)
	grid := graph.Grid()
	require.NotEmpty(t, graph.VoronoiCells())
	for _, i := range graph.VoronoiCells() {
		assert.False(t, grid.IsBlockedByIndex(i))
		assert.Greater(t, grid.CalculateClosestDistanceSquared(i), uint32(2))
	}
	// the centre line of the room
	for x := uint32(5); x <= 15; x++ {
		assert.True(t, graph.IsVoronoi(grid.GetIndex(GridCoordinates{X: x, Y: 5})), "(%d,5)", x)
	}
	for x := uint32(6); x <= 14; x++ {
		assert.False(t, graph.IsVoronoi(grid.GetIndex(GridCoordinates{X: x, Y: 4})), "(%d,4)", x)
		assert.False(t, graph.IsVoronoi(grid.GetIndex(GridCoordinates{X: x, Y: 6})), "(%d,6)", x)
	}
}

func TestIncrementalMatchesFullBuild(t *testing.T) {
	graph, calc := buildField(t, 16, 16, true)

	rounds := []struct {
		add, remove []GridCoordinates
	}{
		{add: []GridCoordinates{{4, 4}, {10, 10}, {4, 11}}},
		{add: []GridCoordinates{{11, 5}}, remove: []GridCoordinates{{10, 10}}},
		{add: []GridCoordinates{{7, 7}}, remove: []GridCoordinates{{4, 4}}},
	}
	for _, r := range rounds {
		for _, c := range r.add {
			require.True(t, calc.SetObstacle(c))
		}
		for _, c := range r.remove {
			require.True(t, calc.ClearObstacle(c))
		}
		calc.UpdateDistanceMap(NewTweakedGraphDataCollection())
	}

	full, _ := buildField(t, 16, 16, true, GridCoordinates{X: 4, Y: 11}, GridCoordinates{X: 11, Y: 5}, GridCoordinates{X: 7, Y: 7})
	if diff := cmp.Diff(full.Grid().BlockedCells(), graph.Grid().BlockedCells()); diff != "" {
		t.Fatalf("blocked cells differ (-full +incremental):\n%s", diff)
	}
	if diff := cmp.Diff(computedDistances(full.Grid()), computedDistances(graph.Grid())); diff != "" {
		t.Errorf("distances differ (-full +incremental):\n%s", diff)
	}
	if diff := cmp.Diff(voronoiMembership(full), voronoiMembership(graph)); diff != "" {
		t.Errorf("skeleton differs (-full +incremental):\n%s", diff)
	}
}

func TestRemovingObstacleRestoresField(t *testing.T) {
	before, _ := buildField(t, 12, 12, true)
	graph, calc := buildField(t, 12, 12, true, GridCoordinates{X: 6, Y: 6}, GridCoordinates{X: 7, Y: 6})
	calc.ClearObstacle(GridCoordinates{X: 6, Y: 6})
	calc.ClearObstacle(GridCoordinates{X: 7, Y: 6})
	calc.UpdateDistanceMap(nil)

	if diff := cmp.Diff(computedDistances(before.Grid()), computedDistances(graph.Grid())); diff != "" {
		t.Errorf("distances differ (-want +got):\n%s", diff)
	}
	assert.Equal(t, voronoiMembership(before), voronoiMembership(graph))
}

func TestObstacleEdits(t *testing.T) {
	graph, calc := buildField(t, 10, 10, true)

	assert.False(t, calc.SetObstacle(GridCoordinates{X: 10, Y: 3}))
	assert.False(t, calc.ClearObstacle(GridCoordinates{X: 3, Y: 100}))
	assert.False(t, calc.SetObstacle(GridCoordinates{X: 0, Y: 0}), "already blocked")
	assert.False(t, calc.ClearObstacle(GridCoordinates{X: 4, Y: 4}), "not blocked")

	require.True(t, calc.SetObstacle(GridCoordinates{X: 3, Y: 3}))
	calc.UpdateDistanceMap(nil)
	require.True(t, calc.HasChanges())
	lo, hi := calc.GetChangeWindowMin(), calc.GetChangeWindowMax()
	assert.LessOrEqual(t, lo.X, uint32(3))
	assert.LessOrEqual(t, lo.Y, uint32(3))
	assert.GreaterOrEqual(t, hi.X, uint32(3))
	assert.GreaterOrEqual(t, hi.Y, uint32(3))
	assert.True(t, graph.Grid().IsBlocked(GridCoordinates{X: 3, Y: 3}))
	assert.Equal(t, bruteForceDistances(graph.Grid()), computedDistances(graph.Grid()))

	// nothing queued, nothing changed
	calc.UpdateDistanceMap(nil)
	assert.False(t, calc.HasChanges())
}

func TestTrackerRecordsDamagedLanes(t *testing.T) {
	graph, calc := buildField(t, 21, 11, true)
	finder := NewSegmentFinder(graph, 4.5)
	finder.FindSegments()
	require.Len(t, finder.GetCreatedLanes(), 1)
	laneID := finder.GetCreatedLanes()[0].ID

	tracker := NewTweakedGraphDataCollection()
	require.True(t, calc.SetObstacle(GridCoordinates{X: 10, Y: 5}))
	calc.UpdateDistanceMap(tracker)
	assert.True(t, tracker.IsLaneErased(laneID))
	assert.False(t, tracker.Empty())
}

func TestVoronoiMembershipMatchesPredicate(t *testing.T) {
	graph, calc := buildField(t, 14, 12, true, GridCoordinates{X: 5, Y: 5}, GridCoordinates{X: 9, Y: 7})
	for i := 0; i < graph.Grid().CellCount(); i++ {
		assert.Equal(t, calc.isVoronoiCell(uint32(i)), graph.IsVoronoi(uint32(i)), "cell %v", graph.Grid().GetCoordinates(uint32(i)))
	}
}

func closestObstacles(grid *DistanceGrid) []uint32 {
	res := make([]uint32, grid.CellCount())
	for i := range res {
		res[i] = grid.GetCellByIndex(uint32(i)).GetClosestObstacleCellIndex()
	}
	return res
}

func TestRemovalNextToNewObstacle(t *testing.T) {
	graph, calc := buildField(t, 23, 19, true)
	require.True(t, calc.SetObstacle(GridCoordinates{X: 20, Y: 4}))
	calc.UpdateDistanceMap(NewTweakedGraphDataCollection())
	require.True(t, calc.SetObstacle(GridCoordinates{X: 20, Y: 5}))
	require.True(t, calc.ClearObstacle(GridCoordinates{X: 20, Y: 4}))
	calc.UpdateDistanceMap(NewTweakedGraphDataCollection())

	grid := graph.Grid()
	cell := grid.GetIndex(GridCoordinates{X: 21, Y: 4})
	assert.Equal(t, grid.GetIndex(GridCoordinates{X: 22, Y: 4}), grid.GetCellByIndex(cell).GetClosestObstacleCellIndex())
	assert.Equal(t, uint32(1), grid.CalculateClosestDistanceSquared(cell))
	assert.Equal(t, bruteForceDistances(grid), computedDistances(grid))
}

func TestRandomEditsMatchFullBuild(t *testing.T) {
	for seed := int64(0); seed < 300; seed++ {
		rng := rand.New(rand.NewSource(seed))
		w, h := uint32(6+rng.Intn(19)), uint32(6+rng.Intn(15))
		graph, calc := buildField(t, w, h, true)
		var placed []GridCoordinates
		rounds := 1 + rng.Intn(8)
		for r := 0; r < rounds; r++ {
			edits := 1 + rng.Intn(8)
			for e := 0; e < edits; e++ {
				c := GridCoordinates{X: 1 + uint32(rng.Intn(int(w-2))), Y: 1 + uint32(rng.Intn(int(h-2)))}
				if len(placed) > 0 && rng.Float64() < 0.4 {
					k := rng.Intn(len(placed))
					require.True(t, calc.ClearObstacle(placed[k]))
					placed = append(placed[:k], placed[k+1:]...)
				} else if calc.SetObstacle(c) {
					placed = append(placed, c)
				}
			}
			calc.UpdateDistanceMap(NewTweakedGraphDataCollection())
		}

		full, _ := buildField(t, w, h, true, placed...)
		grid := graph.Grid()
		if diff := cmp.Diff(bruteForceDistances(grid), computedDistances(grid)); diff != "" {
			t.Fatalf("seed %d: distances differ from brute force (-want +got):\n%s", seed, diff)
		}
		if diff := cmp.Diff(closestObstacles(full.Grid()), closestObstacles(grid)); diff != "" {
			t.Fatalf("seed %d: closest obstacles differ (-full +incremental):\n%s", seed, diff)
		}
		if diff := cmp.Diff(voronoiMembership(full), voronoiMembership(graph)); diff != "" {
			t.Fatalf("seed %d: skeleton differs (-full +incremental):\n%s", seed, diff)
		}
	}
}

func TestClearObstacleStaysLocal(t *testing.T) {
	var lattice []GridCoordinates
	for x := uint32(10); x < 120; x += 10 {
		for y := uint32(10); y < 120; y += 10 {
			lattice = append(lattice, GridCoordinates{X: x, Y: y})
		}
	}
	graph, calc := buildField(t, 121, 121, true, lattice...)
	require.True(t, calc.ClearObstacle(GridCoordinates{X: 60, Y: 60}))
	calc.UpdateDistanceMap(NewTweakedGraphDataCollection())

	grid := graph.Grid()
	assert.Less(t, calc.processed, grid.CellCount()/20)
	lo, hi := calc.GetChangeWindowMin(), calc.GetChangeWindowMax()
	assert.GreaterOrEqual(t, lo.X, uint32(50))
	assert.LessOrEqual(t, hi.X, uint32(70))
	assert.Equal(t, bruteForceDistances(grid), computedDistances(grid))
	for obst, deps := range calc.dependents {
		for _, d := range deps {
			require.Equal(t, obst, grid.GetCellByIndex(d).GetClosestObstacleCellIndex())
		}
	}
}
