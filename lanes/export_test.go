package lanes

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoJSON(t *testing.T) {
	w := builtRoomWorld(t, 4.5)
	data, err := w.GeoJSON()
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)

	lane := fc.Features[0]
	assert.Equal(t, "lane", lane.Properties.MustString("kind"))
	assert.Equal(t, orb.LineString{{5.5, 5.5}, {15.5, 5.5}}, lane.Geometry)
	assert.Equal(t, 10.0, lane.Properties.MustFloat64("min_width"))
	assert.Equal(t, 10.0, lane.Properties.MustFloat64("length"))
	assert.Equal(t, float64(DeadEndNodeID(0)), lane.Properties.MustFloat64("start"))

	for _, f := range fc.Features[1:] {
		assert.Equal(t, "node", f.Properties.MustString("kind"))
		assert.True(t, f.Properties.MustBool("dead_end"))
		assert.IsType(t, orb.Point{}, f.Geometry)
	}
	assert.Equal(t, orb.Point{5.5, 5.5}, fc.Features[1].Geometry)
}

func TestWireRoundTrip(t *testing.T) {
	w := builtRoomWorld(t, 0)
	got, err := UnmarshalWire(w.MarshalWire())
	require.NoError(t, err)

	assert.False(t, got.Editable())
	assert.Equal(t, w.Settings(), got.Settings())
	assert.Equal(t, w.LaneIDs(), got.LaneIDs())
	assert.Equal(t, w.NodeIDs(), got.NodeIDs())
	for _, id := range w.LaneIDs() {
		want, _ := w.Lane(id)
		lane, _ := got.Lane(id)
		if diff := cmp.Diff(want, lane); diff != "" {
			t.Errorf("lane %d (-want +got):\n%s", id, diff)
		}
	}
	for _, id := range w.NodeIDs() {
		want, _ := w.Node(id)
		n, _ := got.Node(id)
		if diff := cmp.Diff(want, n); diff != "" {
			t.Errorf("node %d (-want +got):\n%s", id, diff)
		}
	}

	p, err := got.FindPath(HubNodeID(0), HubNodeID(1), 0)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, p.Lanes)
}

func TestUnmarshalWireErrors(t *testing.T) {
	data := builtRoomWorld(t, 4.5).MarshalWire()

	_, err := UnmarshalWire(data[:len(data)-3])
	assert.Error(t, err)

	_, err = UnmarshalWire([]byte{0x0a, 0x02, 0x01, 0x00})
	assert.Error(t, err)
}
