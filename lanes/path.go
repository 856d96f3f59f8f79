package lanes

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

type nodePair struct{ a, b uint32 }

func pairOf(a, b uint32) nodePair {
	if a > b {
		a, b = b, a
	}
	return nodePair{a, b}
}

// routingGraph is the lane network restricted to lanes at least minWidth
// wide. Parallel lanes collapse into their shortest one.
type routingGraph struct {
	g     *simple.WeightedUndirectedGraph
	lanes map[nodePair]uint32
}

func (w *TrafficLaneWorld) routingGraph(minWidth float32) *routingGraph {
	rg := &routingGraph{
		g:     simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		lanes: make(map[nodePair]uint32),
	}
	for _, id := range w.NodeIDs() {
		rg.g.AddNode(simple.Node(int64(id)))
	}
	for _, id := range w.LaneIDs() {
		lane := w.lanes[id]
		if lane.StartNode == lane.EndNode || lane.MinWidth() < minWidth {
			continue
		}
		key := pairOf(lane.StartNode, lane.EndNode)
		if prev, ok := rg.lanes[key]; ok && w.lanes[prev].Length <= lane.Length {
			continue
		}
		rg.lanes[key] = id
		from, to := rg.g.Node(int64(lane.StartNode)), rg.g.Node(int64(lane.EndNode))
		rg.g.SetWeightedEdge(rg.g.NewWeightedEdge(from, to, float64(lane.Length)))
	}
	return rg
}

// Path is a route through the lane network.
type Path struct {
	Nodes  []uint32
	Lanes  []uint32
	Length float32
}

// FindPath returns the shortest route between two nodes using only lanes at
// least minWidth wide.
func (w *TrafficLaneWorld) FindPath(from, to uint32, minWidth float32) (Path, error) {
	if _, ok := w.nodes[from]; !ok {
		return Path{}, fmt.Errorf("%w: %d", ErrUnknownNode, from)
	}
	if _, ok := w.nodes[to]; !ok {
		return Path{}, fmt.Errorf("%w: %d", ErrUnknownNode, to)
	}
	if from == to {
		return Path{Nodes: []uint32{from}}, nil
	}
	rg := w.routingGraph(minWidth)
	shortest := path.DijkstraFrom(rg.g.Node(int64(from)), rg.g)
	nodes, weight := shortest.To(int64(to))
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return Path{}, fmt.Errorf("%w: %d -> %d with width %v", ErrNoPath, from, to, minWidth)
	}
	res := Path{Length: float32(weight)}
	for i, n := range nodes {
		res.Nodes = append(res.Nodes, uint32(n.ID()))
		if i > 0 {
			res.Lanes = append(res.Lanes, rg.lanes[pairOf(uint32(nodes[i-1].ID()), uint32(n.ID()))])
		}
	}
	return res, nil
}

// ConnectedComponents groups the nodes reachable from each other, each
// group and the list of groups sorted by node id.
func (w *TrafficLaneWorld) ConnectedComponents() [][]uint32 {
	rg := w.routingGraph(0)
	var res [][]uint32
	for _, comp := range topo.ConnectedComponents(rg.g) {
		ids := make([]uint32, 0, len(comp))
		for _, n := range comp {
			ids = append(ids, uint32(n.ID()))
		}
		slices.Sort(ids)
		res = append(res, ids)
	}
	slices.SortFunc(res, func(a, b []uint32) int { return cmp.Compare(a[0], b[0]) })
	return res
}
