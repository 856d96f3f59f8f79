package debug_utils

import (
	"fmt"
	"strings"

	"github.com/gorustyt/gonavlanes/common/rw"
	"github.com/gorustyt/gonavlanes/lanes"
	"github.com/gorustyt/gonavlanes/voronoi"
)

const laneGlyphs = "abcdefghijklmnopqrstuvwxyz0123456789"

// cellGlyph renders one cell: '#' blocked, '?' never reached, '.' free,
// 'o' uncategorized skeleton, 'H' hub, and a letter or digit per lane id.
func cellGlyph(graph *voronoi.DynamicGraph, index uint32) byte {
	grid := graph.Grid()
	if grid.IsBlockedByIndex(index) {
		return '#'
	}
	if !grid.GetCellByIndex(index).IsInitialized() {
		return '?'
	}
	if graph.IsHub(index) {
		return 'H'
	}
	v := graph.VoronoiValue(index)
	switch v {
	case voronoi.VoronoiUninitialized:
		return '.'
	case voronoi.VoronoiUncategorized:
		return 'o'
	}
	return laneGlyphs[v%uint32(len(laneGlyphs))]
}

// SkeletonString draws the graph with the top row last, so the picture
// matches the world seen from above with z growing upward.
func SkeletonString(graph *voronoi.DynamicGraph) string {
	dims := graph.Grid().Dimensions()
	var sb strings.Builder
	for y := int64(dims.Y) - 1; y >= 0; y-- {
		for x := uint32(0); x < dims.X; x++ {
			sb.WriteByte(cellGlyph(graph, graph.Grid().GetIndex(voronoi.GridCoordinates{X: x, Y: uint32(y)})))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func DuDumpSkeleton(graph *voronoi.DynamicGraph, w *rw.ReaderWriter) bool {
	if w == nil || graph == nil {
		return false
	}
	dims := graph.Grid().Dimensions()
	w.WriteString(fmt.Sprintf("# skeleton %dx%d\n", dims.X, dims.Y))
	w.WriteString(SkeletonString(graph))
	return true
}

// DuDumpDistanceGrid writes the squared distance of every cell, '-' for
// cells never reached.
func DuDumpDistanceGrid(grid *voronoi.DistanceGrid, w *rw.ReaderWriter) bool {
	if w == nil || grid == nil {
		return false
	}
	dims := grid.Dimensions()
	w.WriteString(fmt.Sprintf("# distance %dx%d\n", dims.X, dims.Y))
	for y := int64(dims.Y) - 1; y >= 0; y-- {
		for x := uint32(0); x < dims.X; x++ {
			index := grid.GetIndex(voronoi.GridCoordinates{X: x, Y: uint32(y)})
			if x > 0 {
				w.WriteString(" ")
			}
			if !grid.GetCellByIndex(index).IsInitialized() {
				w.WriteString("  -")
				continue
			}
			w.WriteString(fmt.Sprintf("%3d", grid.CalculateClosestDistanceSquared(index)))
		}
		w.WriteString("\n")
	}
	return true
}

// DuDumpLanesToObj writes every lane as an OBJ polyline.
func DuDumpLanesToObj(world *lanes.TrafficLaneWorld, w *rw.ReaderWriter) bool {
	if w == nil || world == nil {
		return false
	}
	w.WriteString("# Traffic lanes\n")
	w.WriteString("o Lanes\n")
	w.WriteString("\n")
	base := 1
	for _, id := range world.LaneIDs() {
		lane, _ := world.Lane(id)
		for _, p := range lane.Points {
			w.WriteString(fmt.Sprintf("v %f %f %f\n", p.X(), p.Y(), p.Z()))
		}
		w.WriteString("l")
		for i := range lane.Points {
			w.WriteString(fmt.Sprintf(" %d", base+i))
		}
		w.WriteString("\n")
		base += len(lane.Points)
	}
	return true
}
