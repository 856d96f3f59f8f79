package voronoi

import (
	"fmt"

	"github.com/gorustyt/gonavlanes/common"
	"github.com/gorustyt/gonavlanes/common/rw"
)

const (
	CreationSettingsVersion    uint32 = 17
	minCreationSettingsVersion uint32 = 14
)

// CreationSettings are the persisted inputs of a lane world build.
type CreationSettings struct {
	CornerMin           common.Vec3
	CornerMax           common.Vec3
	CellSize            float32
	LaneType            uint32
	MapID               uint32
	AvoidFilter         uint32
	RequireFilter       uint32
	WalkableLevelFilter uint32 // since 15
	MixWithMapID        bool   // since 16
	IncludeWater        bool   // since 16
	TestAtWalkable      bool   // since 17
}

// GridConfiguration derives the grid the settings describe.
func (s *CreationSettings) GridConfiguration() GridConfiguration {
	return NewGridConfigurationFromCorners(s.CornerMin, s.CornerMax, s.CellSize)
}

// ToBin writes the current version.
func (s *CreationSettings) ToBin(w *rw.ReaderWriter) {
	s.writeVersion(w, CreationSettingsVersion)
}

func (s *CreationSettings) writeVersion(w *rw.ReaderWriter, version uint32) {
	w.WriteInt32(version)
	w.WriteFloat32s([]float32{s.CornerMin[0], s.CornerMin[1], s.CornerMin[2],
		s.CornerMax[0], s.CornerMax[1], s.CornerMax[2]})
	w.WriteFloat32(s.CellSize)
	w.WriteInt32(s.LaneType)
	w.WriteInt32(s.MapID)
	w.WriteInt32(s.AvoidFilter)
	w.WriteInt32(s.RequireFilter)
	if version >= 15 {
		w.WriteInt32(s.WalkableLevelFilter)
	}
	if version >= 16 {
		w.WriteInt8(s.MixWithMapID)
		w.WriteInt8(s.IncludeWater)
	}
	if version >= 17 {
		w.WriteInt8(s.TestAtWalkable)
	} else {
		// drawGrid, drawVoronoi, debugColor
		w.WriteInt8(false)
		w.WriteInt8(false)
		w.WriteInt32(uint32(0))
	}
}

// FromBin reads any version from 14 up to the current one. Fields missing
// from older versions keep their zero value.
func (s *CreationSettings) FromBin(r *rw.ReaderWriter) error {
	version := r.ReadUInt32()
	if err := r.Err(); err != nil {
		return fmt.Errorf("read creation settings version: %w", err)
	}
	if version < minCreationSettingsVersion || version > CreationSettingsVersion {
		return fmt.Errorf("%w: creation settings version %d", ErrUnsupportedVersion, version)
	}
	var res CreationSettings
	var corners [6]float32
	r.ReadFloat32s(corners[:])
	res.CornerMin = common.Vec3{corners[0], corners[1], corners[2]}
	res.CornerMax = common.Vec3{corners[3], corners[4], corners[5]}
	res.CellSize = r.ReadFloat32()
	res.LaneType = r.ReadUInt32()
	res.MapID = r.ReadUInt32()
	res.AvoidFilter = r.ReadUInt32()
	res.RequireFilter = r.ReadUInt32()
	if version >= 15 {
		res.WalkableLevelFilter = r.ReadUInt32()
	}
	if version >= 16 {
		res.MixWithMapID = r.ReadBool()
		res.IncludeWater = r.ReadBool()
	}
	if version >= 17 {
		res.TestAtWalkable = r.ReadBool()
	} else {
		r.Skip(2 + 4)
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("read creation settings v%d: %w", version, err)
	}
	*s = res
	return nil
}
