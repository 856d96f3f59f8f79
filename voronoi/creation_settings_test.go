package voronoi

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorustyt/gonavlanes/common"
	"github.com/gorustyt/gonavlanes/common/rw"
)

func sampleSettings() CreationSettings {
	return CreationSettings{
		CornerMin:           common.Vec3{-10, 0, -20},
		CornerMax:           common.Vec3{30, 5, 40},
		CellSize:            0.5,
		LaneType:            2,
		MapID:               42,
		AvoidFilter:         0x10,
		RequireFilter:       0x01,
		WalkableLevelFilter: 3,
		MixWithMapID:        true,
		IncludeWater:        true,
		TestAtWalkable:      true,
	}
}

func TestCreationSettingsVersions(t *testing.T) {
	full := sampleSettings()
	cases := []struct {
		version uint32
		size    int
		want    func(s *CreationSettings)
	}{
		{17, 55, func(s *CreationSettings) {}},
		{16, 60, func(s *CreationSettings) { s.TestAtWalkable = false }},
		{15, 58, func(s *CreationSettings) {
			s.TestAtWalkable, s.MixWithMapID, s.IncludeWater = false, false, false
		}},
		{14, 54, func(s *CreationSettings) {
			s.TestAtWalkable, s.MixWithMapID, s.IncludeWater = false, false, false
			s.WalkableLevelFilter = 0
		}},
	}
	for _, tc := range cases {
		w := rw.NewBinWriter()
		full.writeVersion(w, tc.version)
		assert.Equal(t, tc.size, w.Size(), "v%d size", tc.version)

		var got CreationSettings
		r := rw.NewBinReader(w.GetWriteBytes())
		require.NoError(t, got.FromBin(r), "v%d", tc.version)
		assert.Equal(t, 0, r.Size(), "v%d left bytes unread", tc.version)

		want := full
		tc.want(&want)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("v%d mismatch (-want +got):\n%s", tc.version, diff)
		}
	}
}

func TestCreationSettingsCurrentVersion(t *testing.T) {
	s := sampleSettings()
	w := rw.NewBinWriter()
	s.ToBin(w)
	r := rw.NewBinReader(w.GetWriteBytes())
	assert.Equal(t, CreationSettingsVersion, r.ReadUInt32())
}

func TestCreationSettingsRejectsUnknownVersions(t *testing.T) {
	for _, v := range []uint32{0, 13, 18} {
		w := rw.NewBinWriter()
		w.WriteInt32(v)
		w.WriteFloat32s(make([]float32, 16))
		var s CreationSettings
		err := s.FromBin(rw.NewBinReader(w.GetWriteBytes()))
		assert.True(t, errors.Is(err, ErrUnsupportedVersion), "v%d: %v", v, err)
	}
}

func TestCreationSettingsTruncated(t *testing.T) {
	s := sampleSettings()
	w := rw.NewBinWriter()
	s.ToBin(w)
	data := w.GetWriteBytes()

	got := CreationSettings{MapID: 7}
	err := got.FromBin(rw.NewBinReader(data[:len(data)-1]))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsupportedVersion))
	assert.Equal(t, uint32(7), got.MapID, "failed reads leave the target untouched")
}

func TestCreationSettingsGrid(t *testing.T) {
	s := sampleSettings()
	c := s.GridConfiguration()
	assert.Equal(t, GridCoordinates{X: 80, Y: 120}, c.Dimensions())
	assert.Equal(t, common.Vec3{-10, 0, -20}, c.Origin())
}
