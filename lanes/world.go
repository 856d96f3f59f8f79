package lanes

import (
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/gorustyt/gonavlanes/common"
	"github.com/gorustyt/gonavlanes/common/logx"
	"github.com/gorustyt/gonavlanes/common/rw"
	"github.com/gorustyt/gonavlanes/voronoi"
)

type options struct {
	logger  *zap.Logger
	terrain voronoi.TerrainHeightFunc
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTerrain supplies ground heights for terrain-relative height windows.
func WithTerrain(f voronoi.TerrainHeightFunc) Option {
	return func(o *options) { o.terrain = f }
}

// ChangeSet lists what one Update replaced. Ids may appear both as removed
// and added when they were reused.
type ChangeSet struct {
	RemovedLanes []uint32
	AddedLanes   []uint32
	RemovedHubs  []uint32
	AddedHubs    []uint32
}

func (c ChangeSet) Empty() bool {
	return len(c.RemovedLanes) == 0 && len(c.AddedLanes) == 0 &&
		len(c.RemovedHubs) == 0 && len(c.AddedHubs) == 0
}

// TrafficLaneWorld holds the lanes and nodes of one map. While it keeps its
// DynamicGraph it can be edited at runtime: obstacles added or removed
// after Build take effect on the next Update.
type TrafficLaneWorld struct {
	settings voronoi.CreationSettings
	logger   *zap.Logger

	filter                voronoi.BlockerConfig
	minimumDistanceNeeded float32

	graph      *voronoi.DynamicGraph
	blocker    *voronoi.GridBlocker
	calculator *voronoi.DistanceCalculator
	finder     *voronoi.SegmentFinder
	converter  *Converter
	built      bool

	lanes map[uint32]*Lane
	nodes map[uint32]*Node
}

// NewTrafficLaneWorld prepares an empty editable world. Obstacles added
// before Build are rasterized in bulk.
func NewTrafficLaneWorld(settings voronoi.CreationSettings, filter voronoi.BlockerConfig,
	minimumDistanceNeeded float32, opts ...Option) *TrafficLaneWorld {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logx.OrNop(o.logger)
	if filter.Terrain == nil {
		filter.Terrain = o.terrain
	}
	w := &TrafficLaneWorld{
		settings:              settings,
		logger:                o.logger,
		filter:                filter,
		minimumDistanceNeeded: minimumDistanceNeeded,
		lanes:                 make(map[uint32]*Lane),
		nodes:                 make(map[uint32]*Node),
	}
	w.useGraph(voronoi.NewDynamicGraph(settings.GridConfiguration()))
	return w
}

// useGraph makes graph the editable state, with a fresh blocker,
// calculator, finder and converter bound to it.
func (w *TrafficLaneWorld) useGraph(graph *voronoi.DynamicGraph) {
	vopts := []voronoi.Option{voronoi.WithLogger(w.logger)}
	w.graph = graph
	w.blocker = voronoi.NewGridBlocker(graph.Grid().Configuration(), w.filter, vopts...)
	w.calculator = voronoi.NewDistanceCalculator(graph, vopts...)
	w.finder = voronoi.NewSegmentFinder(graph, w.minimumDistanceNeeded, vopts...)
	w.converter = NewConverter(graph)
	w.built = false
}

func (w *TrafficLaneWorld) Settings() voronoi.CreationSettings { return w.settings }

// Graph returns the editable state, or nil once it was dropped.
func (w *TrafficLaneWorld) Graph() *voronoi.DynamicGraph { return w.graph }

// Editable reports whether the world still holds its DynamicGraph.
func (w *TrafficLaneWorld) Editable() bool { return w.graph != nil }

// DropEditableState releases the grid; the lanes stay usable but can no
// longer be updated.
func (w *TrafficLaneWorld) DropEditableState() {
	w.graph, w.blocker, w.calculator, w.finder, w.converter = nil, nil, nil, nil, nil
}

// MarshalGraph encodes the editable grid: its configuration and blocked
// cells. Obstacle ids are not kept.
func (w *TrafficLaneWorld) MarshalGraph() []byte {
	w.mustEdit()
	out := rw.NewBinWriter()
	w.graph.ToBin(out)
	return out.GetWriteBytes()
}

// RestoreGraph replaces the editable state with a grid written by
// MarshalGraph and rebuilds distances, the skeleton, the lanes and their
// hub connections from it. It also makes a world editable again after
// DropEditableState. Restored cells belong to voronoi.RestoredObstacleID
// and stay blocked.
func (w *TrafficLaneWorld) RestoreGraph(data []byte) error {
	graph, err := voronoi.ReadDynamicGraph(data)
	if err != nil {
		return fmt.Errorf("restore lane world %d: %w", w.settings.MapID, err)
	}
	if got, want := graph.Grid().Configuration(), w.settings.GridConfiguration(); got != want {
		return fmt.Errorf("restore lane world %d: %w: grid %v, settings %v",
			w.settings.MapID, voronoi.ErrConfigurationMismatch, got.Dimensions(), want.Dimensions())
	}
	w.useGraph(graph)
	w.blocker.AdoptBlockedCells(graph.Grid())
	w.Build()
	return nil
}

func (w *TrafficLaneWorld) sink() voronoi.ObstacleSink {
	if w.built {
		return w.calculator
	}
	return w.graph.Grid()
}

func (w *TrafficLaneWorld) mustEdit() {
	common.AssertTrue(w.graph != nil, "lane world %d has no editable state", w.settings.MapID)
}

// AddOuterBorder blocks the outer ring of the grid.
func (w *TrafficLaneWorld) AddOuterBorder() {
	w.mustEdit()
	w.blocker.AddOuterBorderObstacle(w.sink())
}

func (w *TrafficLaneWorld) AddObstacle(id voronoi.ObstacleID, shape voronoi.Shape) voronoi.BlockResult {
	w.mustEdit()
	return w.blocker.AddObstacle(id, shape, w.sink())
}

func (w *TrafficLaneWorld) AddLineObstacle(id voronoi.ObstacleID, from, to common.Vec3) voronoi.BlockResult {
	w.mustEdit()
	return w.blocker.AddLineObstacle(id, from, to, w.sink())
}

func (w *TrafficLaneWorld) RemoveObstacle(id voronoi.ObstacleID) bool {
	w.mustEdit()
	return w.blocker.RemoveObstacle(id, w.sink())
}

// Build computes distances, the skeleton and every lane from scratch.
func (w *TrafficLaneWorld) Build() {
	w.mustEdit()
	w.calculator.InitializeOpenListFromGridState()
	w.calculator.UpdateDistanceMap(nil)
	w.finder.FindSegments()
	w.built = true

	clear(w.lanes)
	for i := range w.finder.GetCreatedLanes() {
		lane := w.converter.ConvertLane(&w.finder.GetCreatedLanes()[i])
		w.lanes[lane.ID] = lane
	}
	w.rebuildNodes()
	w.logger.Info("lane world built",
		zap.Uint32("mapId", w.settings.MapID),
		zap.Int("lanes", len(w.lanes)),
		zap.Int("nodes", len(w.nodes)))
}

// Update applies the obstacle changes since the last Build or Update and
// replaces only the lanes and hubs they affected.
func (w *TrafficLaneWorld) Update() ChangeSet {
	w.mustEdit()
	if !w.built {
		w.Build()
		return ChangeSet{AddedLanes: slices.Sorted(maps.Keys(w.lanes))}
	}
	tracker := voronoi.NewTweakedGraphDataCollection()
	w.calculator.UpdateDistanceMap(tracker)
	if !w.calculator.HasChanges() {
		return ChangeSet{}
	}
	w.finder.UpdateSegments(tracker, w.calculator.GetChangeWindowMin(), w.calculator.GetChangeWindowMax())

	var cs ChangeSet
	cs.RemovedHubs = tracker.ErasedHubIDs()
	cs.AddedHubs = slices.Clone(tracker.AddedHubs)
	slices.Sort(cs.AddedHubs)
	for _, id := range tracker.ErasedLaneIDs() {
		if _, ok := w.lanes[id]; ok {
			delete(w.lanes, id)
			cs.RemovedLanes = append(cs.RemovedLanes, id)
		}
	}
	for i := range w.finder.GetCreatedLanes() {
		lane := w.converter.ConvertLane(&w.finder.GetCreatedLanes()[i])
		w.lanes[lane.ID] = lane
		cs.AddedLanes = append(cs.AddedLanes, lane.ID)
	}
	slices.Sort(cs.AddedLanes)
	w.rebuildNodes()
	w.logger.Debug("lane world updated",
		zap.Uint32("mapId", w.settings.MapID),
		zap.Uint32s("removedLanes", cs.RemovedLanes),
		zap.Uint32s("addedLanes", cs.AddedLanes),
		zap.Uint32s("removedHubs", cs.RemovedHubs),
		zap.Uint32s("addedHubs", cs.AddedHubs))
	return cs
}

// rebuildNodes derives hub and dead-end nodes from the current lanes. Hub
// lane lists come from the finder's connection map; lanes that end at a
// hub without showing up there are logged.
func (w *TrafficLaneWorld) rebuildNodes() {
	clear(w.nodes)
	connections := w.finder.GetNodeToLaneConnections()
	for hubID, laneIDs := range connections {
		pos, ok := w.converter.HubPosition(hubID)
		if !ok {
			continue
		}
		var live []uint32
		for _, id := range laneIDs {
			if _, ok := w.lanes[id]; ok {
				live = append(live, id)
			}
		}
		w.nodes[HubNodeID(hubID)] = &Node{ID: HubNodeID(hubID), Position: pos, Lanes: live}
	}
	for _, id := range slices.Sorted(maps.Keys(w.lanes)) {
		lane := w.lanes[id]
		w.attach(lane.StartNode, lane.ID, lane.Points[0])
		w.attach(lane.EndNode, lane.ID, lane.Points[len(lane.Points)-1])
	}
}

func (w *TrafficLaneWorld) attach(nodeID, laneID uint32, pos common.Vec3) {
	n, ok := w.nodes[nodeID]
	if !ok {
		if !IsDeadEnd(nodeID) {
			w.logger.Warn("lane ends at a hub without cells",
				zap.Uint32("lane", laneID), zap.Uint32("node", nodeID))
		}
		n = &Node{ID: nodeID, Position: pos}
		w.nodes[nodeID] = n
	}
	if !slices.Contains(n.Lanes, laneID) {
		if !IsDeadEnd(nodeID) {
			w.logger.Debug("lane missing from hub connections",
				zap.Uint32("lane", laneID), zap.Uint32("node", nodeID))
		}
		n.Lanes = append(n.Lanes, laneID)
		slices.Sort(n.Lanes)
	}
}

// Lane returns a lane by id.
func (w *TrafficLaneWorld) Lane(id uint32) (*Lane, bool) {
	l, ok := w.lanes[id]
	return l, ok
}

// Node returns a node by id.
func (w *TrafficLaneWorld) Node(id uint32) (*Node, bool) {
	n, ok := w.nodes[id]
	return n, ok
}

// LaneIDs returns all lane ids ascending.
func (w *TrafficLaneWorld) LaneIDs() []uint32 { return slices.Sorted(maps.Keys(w.lanes)) }

// NodeIDs returns all node ids ascending.
func (w *TrafficLaneWorld) NodeIDs() []uint32 { return slices.Sorted(maps.Keys(w.nodes)) }

// NearestNode returns the node closest to pos in the xz-plane.
func (w *TrafficLaneWorld) NearestNode(pos common.Vec3) (uint32, bool) {
	best, bestDist, found := uint32(0), float32(0), false
	for _, id := range w.NodeIDs() {
		d := common.Vdist2DSqr(pos, w.nodes[id].Position)
		if !found || d < bestDist {
			best, bestDist, found = id, d, true
		}
	}
	return best, found
}
