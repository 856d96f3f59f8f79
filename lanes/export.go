package lanes

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/gorustyt/gonavlanes/common"
	"github.com/gorustyt/gonavlanes/common/logx"
	"github.com/gorustyt/gonavlanes/common/message"
	"github.com/gorustyt/gonavlanes/common/rw"
)

// FeatureCollection exports lanes as LineStrings and nodes as Points in the
// world xz-plane.
func (w *TrafficLaneWorld) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, id := range w.LaneIDs() {
		lane := w.lanes[id]
		ls := make(orb.LineString, len(lane.Points))
		for i, p := range lane.Points {
			ls[i] = orb.Point{float64(p.X()), float64(p.Z())}
		}
		f := geojson.NewFeature(ls)
		f.Properties["kind"] = "lane"
		f.Properties["id"] = lane.ID
		f.Properties["start"] = lane.StartNode
		f.Properties["end"] = lane.EndNode
		f.Properties["min_width"] = lane.MinWidth()
		f.Properties["length"] = lane.Length
		fc.Append(f)
	}
	for _, id := range w.NodeIDs() {
		n := w.nodes[id]
		f := geojson.NewFeature(orb.Point{float64(n.Position.X()), float64(n.Position.Z())})
		f.Properties["kind"] = "node"
		f.Properties["id"] = n.ID
		f.Properties["dead_end"] = IsDeadEnd(n.ID)
		f.Properties["lanes"] = n.Lanes
		fc.Append(f)
	}
	return fc
}

// GeoJSON encodes FeatureCollection.
func (w *TrafficLaneWorld) GeoJSON() ([]byte, error) {
	return w.FeatureCollection().MarshalJSON()
}

// Wire field numbers.
const (
	worldSettings protowire.Number = 1
	worldLane     protowire.Number = 2
	worldNode     protowire.Number = 3

	laneID     protowire.Number = 1
	lanePoints protowire.Number = 2
	laneWidths protowire.Number = 3
	laneStart  protowire.Number = 4
	laneEnd    protowire.Number = 5
	laneLength protowire.Number = 6

	nodeID       protowire.Number = 1
	nodePosition protowire.Number = 2
	nodeLanes    protowire.Number = 3
)

func flatten(points []common.Vec3) []float32 {
	res := make([]float32, 0, 3*len(points))
	for _, p := range points {
		res = append(res, p[:]...)
	}
	return res
}

func unflatten(v []float32) ([]common.Vec3, error) {
	if len(v)%3 != 0 {
		return nil, fmt.Errorf("point list of %d floats", len(v))
	}
	res := make([]common.Vec3, len(v)/3)
	for i := range res {
		res[i] = common.Vec3{v[3*i], v[3*i+1], v[3*i+2]}
	}
	return res, nil
}

// MarshalWire encodes the settings, lanes and nodes in protobuf wire
// format. The editable grid is not included.
func (w *TrafficLaneWorld) MarshalWire() []byte {
	var e message.Encoder
	settings := rw.NewBinWriter()
	w.settings.ToBin(settings)
	e.Blob(worldSettings, settings.GetWriteBytes())
	for _, id := range w.LaneIDs() {
		lane := w.lanes[id]
		e.Message(worldLane, func(sub *message.Encoder) {
			sub.Uint32(laneID, lane.ID)
			sub.PackedFloat32s(lanePoints, flatten(lane.Points))
			sub.PackedFloat32s(laneWidths, lane.Widths)
			sub.Uint32(laneStart, lane.StartNode)
			sub.Uint32(laneEnd, lane.EndNode)
			sub.Float32(laneLength, lane.Length)
		})
	}
	for _, id := range w.NodeIDs() {
		n := w.nodes[id]
		e.Message(worldNode, func(sub *message.Encoder) {
			sub.Uint32(nodeID, n.ID)
			sub.PackedFloat32s(nodePosition, n.Position[:])
			sub.PackedUint32s(nodeLanes, n.Lanes)
		})
	}
	return e.Bytes()
}

// UnmarshalWire restores a world written by MarshalWire. The result has no
// editable state.
func UnmarshalWire(data []byte, opts ...Option) (*TrafficLaneWorld, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	w := &TrafficLaneWorld{
		logger: logx.OrNop(o.logger),
		lanes:  make(map[uint32]*Lane),
		nodes:  make(map[uint32]*Node),
	}
	err := message.Decode(data, func(f message.Field) error {
		switch f.Num {
		case worldSettings:
			if err := w.settings.FromBin(rw.NewBinReader(f.Bytes)); err != nil {
				return err
			}
		case worldLane:
			lane, err := decodeLane(f.Bytes)
			if err != nil {
				return err
			}
			w.lanes[lane.ID] = lane
		case worldNode:
			n, err := decodeNode(f.Bytes)
			if err != nil {
				return err
			}
			w.nodes[n.ID] = n
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode lane world: %w", err)
	}
	w.logger.Debug("lane world decoded",
		zap.Uint32("mapId", w.settings.MapID),
		zap.Int("lanes", len(w.lanes)),
		zap.Int("nodes", len(w.nodes)))
	return w, nil
}

func decodeLane(data []byte) (*Lane, error) {
	lane := &Lane{}
	err := message.Decode(data, func(f message.Field) error {
		var err error
		switch f.Num {
		case laneID:
			lane.ID = uint32(f.Varint)
		case lanePoints:
			var v []float32
			if v, err = message.UnpackFloat32s(f.Bytes); err == nil {
				lane.Points, err = unflatten(v)
			}
		case laneWidths:
			lane.Widths, err = message.UnpackFloat32s(f.Bytes)
		case laneStart:
			lane.StartNode = uint32(f.Varint)
		case laneEnd:
			lane.EndNode = uint32(f.Varint)
		case laneLength:
			lane.Length = f.Float32()
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("lane: %w", err)
	}
	if len(lane.Points) < 2 || len(lane.Points) != len(lane.Widths) {
		return nil, fmt.Errorf("lane %d: %d points, %d widths", lane.ID, len(lane.Points), len(lane.Widths))
	}
	return lane, nil
}

func decodeNode(data []byte) (*Node, error) {
	n := &Node{}
	err := message.Decode(data, func(f message.Field) error {
		var err error
		switch f.Num {
		case nodeID:
			n.ID = uint32(f.Varint)
		case nodePosition:
			var v []float32
			if v, err = message.UnpackFloat32s(f.Bytes); err == nil {
				if len(v) != 3 {
					return fmt.Errorf("node position of %d floats", len(v))
				}
				n.Position = common.Vec3{v[0], v[1], v[2]}
			}
		case nodeLanes:
			n.Lanes, err = message.UnpackUint32s(f.Bytes)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("node: %w", err)
	}
	return n, nil
}
