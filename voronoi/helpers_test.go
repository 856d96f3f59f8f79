package voronoi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gorustyt/gonavlanes/common"
)

func testConfig(width, height uint32) GridConfiguration {
	return NewGridConfiguration(common.Vec3{}, GridCoordinates{X: width, Y: height}, 1)
}

// buildField blocks the given cells, optionally the outer ring too, and runs
// a full propagation.
func buildField(t *testing.T, width, height uint32, border bool, blocked ...GridCoordinates) (*DynamicGraph, *DistanceCalculator) {
	t.Helper()
	graph := NewDynamicGraph(testConfig(width, height))
	if border {
		NewGridBlocker(graph.Grid().Configuration(), BlockerConfig{}).AddOuterBorderObstacle(graph.Grid())
	}
	for _, c := range blocked {
		graph.Grid().SetBlocked(c)
	}
	calc := NewDistanceCalculator(graph)
	calc.InitializeOpenListFromGridState()
	calc.UpdateDistanceMap(nil)
	return graph, calc
}

// bruteForceDistances scans every blocked cell for every cell.
func bruteForceDistances(grid *DistanceGrid) []uint32 {
	blocked := grid.BlockedCells()
	res := make([]uint32, grid.CellCount())
	for i := range res {
		best := uint32(UninitializedValue)
		for j, b := range blocked {
			if b {
				best = min(best, grid.CalculateDistanceSquaredBetween(uint32(i), uint32(j)))
			}
		}
		res[i] = best
	}
	return res
}

func computedDistances(grid *DistanceGrid) []uint32 {
	res := make([]uint32, grid.CellCount())
	for i := range res {
		if !grid.GetCellByIndex(uint32(i)).IsInitialized() {
			res[i] = UninitializedValue
			continue
		}
		res[i] = grid.CalculateClosestDistanceSquared(uint32(i))
	}
	return res
}

func voronoiMembership(graph *DynamicGraph) []bool {
	res := make([]bool, graph.Grid().CellCount())
	for i := range res {
		res[i] = graph.IsVoronoi(uint32(i))
	}
	return res
}

// requireOutOfRange runs f and expects it to panic with a *RangeError.
func requireOutOfRange(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.True(t, errors.Is(err, ErrOutOfRange), "unexpected panic %v", err)
	}()
	f()
}
