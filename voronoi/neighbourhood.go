package voronoi

import "github.com/gorustyt/gonavlanes/common"

// neighbourhood describes which of the 8 ring cells around a skeleton cell
// are skeleton cells themselves, grouped into 8-connected clusters. Ring
// order follows common.GetNeighbourOffsetX: E, NE, N, NW, W, SW, S, SE.
type neighbourhood struct {
	present  [common.NeighbourCount]bool
	cluster  [common.NeighbourCount]int8
	clusters int
	count    int
}

// ringAdjacent reports whether two ring cells touch each other: ring
// neighbours always do, and two orthogonal cells two steps apart meet at
// the diagonal between them.
func ringAdjacent(a, b int) bool {
	d := (b - a + common.NeighbourCount) % common.NeighbourCount
	if d == 1 || d == common.NeighbourCount-1 {
		return true
	}
	return (d == 2 || d == common.NeighbourCount-2) && !common.IsDiagonal(a)
}

// clusterNeighbourHood labels the present ring cells with cluster ids in
// ring order starting at E.
func clusterNeighbourHood(present [common.NeighbourCount]bool) neighbourhood {
	nh := neighbourhood{present: present}
	var label [common.NeighbourCount]int8
	for i := range label {
		label[i] = -1
		if present[i] {
			label[i] = int8(i)
			nh.count++
		}
	}
	for changed := true; changed; {
		changed = false
		for a := 0; a < common.NeighbourCount; a++ {
			if !present[a] {
				continue
			}
			for b := 0; b < common.NeighbourCount; b++ {
				if a == b || !present[b] || !ringAdjacent(a, b) {
					continue
				}
				if label[b] < label[a] {
					label[a] = label[b]
					changed = true
				}
			}
		}
	}
	var remap [common.NeighbourCount]int8
	for i := range remap {
		remap[i] = -1
	}
	for i := 0; i < common.NeighbourCount; i++ {
		nh.cluster[i] = -1
		if !present[i] {
			continue
		}
		if remap[label[i]] < 0 {
			remap[label[i]] = int8(nh.clusters)
			nh.clusters++
		}
		nh.cluster[i] = remap[label[i]]
	}
	return nh
}

// yokoiConnectivity is the 8-connectivity number of the centre cell. A cell
// with value 1 can be removed without splitting or merging skeleton parts.
func yokoiConnectivity(present [common.NeighbourCount]bool) int {
	inv := func(i int) int {
		if present[i%common.NeighbourCount] {
			return 0
		}
		return 1
	}
	n := 0
	for k := 0; k < common.NeighbourCount; k += 2 {
		n += inv(k) - inv(k)*inv(k+1)*inv(k+2)
	}
	return n
}

// skeletonRing returns which ring cells of coord are on the skeleton.
func (g *DynamicGraph) skeletonRing(coord GridCoordinates) [common.NeighbourCount]bool {
	var present [common.NeighbourCount]bool
	dims := g.grid.Dimensions()
	for dir := 0; dir < common.NeighbourCount; dir++ {
		if n, ok := coord.neighbour(dir, dims); ok {
			present[dir] = g.IsVoronoi(g.grid.GetIndex(n))
		}
	}
	return present
}
