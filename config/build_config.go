package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gorustyt/gonavlanes/common/logx"
	"github.com/gorustyt/gonavlanes/voronoi"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid build config")

const maxConfigFileSize = 4 * 1024 * 1024

// HeightConfig is the vertical window obstacles must reach into.
type HeightConfig struct {
	UseTerrainHeight    bool    `json:"use_terrain_height,omitempty"`
	MinHeight           float32 `json:"min_height"`
	MaxAdditionalHeight float32 `json:"max_additional_height"`
}

// ObstacleConfig describes one obstacle of a build. Kind is one of sphere,
// aabb, obb or line.
type ObstacleConfig struct {
	ID     uint32     `json:"id"`
	Kind   string     `json:"kind"`
	Center [3]float32 `json:"center,omitempty"`
	Radius float32    `json:"radius,omitempty"`
	// Min and Max are the box corners, or the line end points.
	Min         [3]float32 `json:"min,omitempty"`
	Max         [3]float32 `json:"max,omitempty"`
	HalfExtents [3]float32 `json:"half_extents,omitempty"`
	// RotationY rotates an obb around the up axis, in degrees.
	RotationY float32 `json:"rotation_y,omitempty"`
	Flags     uint32  `json:"flags,omitempty"`
}

// BuildConfig is the JSON description of a lane world build.
type BuildConfig struct {
	CornerMin [3]float32 `json:"corner_min"`
	CornerMax [3]float32 `json:"corner_max"`
	CellSize  float32    `json:"cell_size"`
	// MinLaneWidth is the narrowest gap, in world units, that still gets a
	// lane.
	MinLaneWidth        float32          `json:"min_lane_width"`
	LaneType            uint32           `json:"lane_type,omitempty"`
	MapID               uint32           `json:"map_id,omitempty"`
	CollisionMask       uint32           `json:"collision_mask,omitempty"`
	AvoidFilter         uint32           `json:"avoid_filter,omitempty"`
	RequireFilter       uint32           `json:"require_filter,omitempty"`
	WalkableLevelFilter uint32           `json:"walkable_level_filter,omitempty"`
	MixWithMapID        bool             `json:"mix_with_map_id,omitempty"`
	IncludeWater        bool             `json:"include_water,omitempty"`
	TestAtWalkable      bool             `json:"test_at_walkable,omitempty"`
	OuterBorder         bool             `json:"outer_border"`
	Height              *HeightConfig    `json:"height,omitempty"`
	Obstacles           []ObstacleConfig `json:"obstacles,omitempty"`
	Log                 logx.LogConfig   `json:"log"`
}

// DefaultBuildConfig is a 64x64 world with unit cells and an outer border.
func DefaultBuildConfig() *BuildConfig {
	return &BuildConfig{
		CornerMax:    [3]float32{64, 0, 64},
		CellSize:     1,
		MinLaneWidth: 1,
		OuterBorder:  true,
		Log:          logx.LogConfig{Level: "info"},
	}
}

// LoadBuildConfig reads and validates a JSON build config. Omitted fields
// keep the values of DefaultBuildConfig.
func LoadBuildConfig(path string) (*BuildConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultBuildConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration describes a buildable grid.
func (c *BuildConfig) Validate() error {
	if !(c.CellSize > 0) {
		return fmt.Errorf("%w: cell_size must be positive, got %v", ErrInvalidConfig, c.CellSize)
	}
	if c.CornerMax[0] <= c.CornerMin[0] || c.CornerMax[2] <= c.CornerMin[2] {
		return fmt.Errorf("%w: corner_max %v must lie beyond corner_min %v in x and z",
			ErrInvalidConfig, c.CornerMax, c.CornerMin)
	}
	if c.MinLaneWidth < 0 {
		return fmt.Errorf("%w: min_lane_width must be non-negative, got %v", ErrInvalidConfig, c.MinLaneWidth)
	}
	if c.Height != nil && c.Height.MaxAdditionalHeight < 0 {
		return fmt.Errorf("%w: max_additional_height must be non-negative, got %v",
			ErrInvalidConfig, c.Height.MaxAdditionalHeight)
	}
	seen := make(map[uint32]bool, len(c.Obstacles))
	for i, o := range c.Obstacles {
		if seen[o.ID] {
			return fmt.Errorf("%w: obstacle %d reuses id %d", ErrInvalidConfig, i, o.ID)
		}
		seen[o.ID] = true
		switch voronoi.ObstacleID(o.ID) {
		case voronoi.BorderObstacleID, voronoi.RestoredObstacleID:
			return fmt.Errorf("%w: obstacle %d uses reserved id %d", ErrInvalidConfig, i, o.ID)
		}
		if o.Kind == "line" {
			continue
		}
		if _, err := o.Shape(); err != nil {
			return fmt.Errorf("%w: obstacle %d: %v", ErrInvalidConfig, i, err)
		}
	}
	return nil
}

// GridConfiguration is the grid spanned by the corners.
func (c *BuildConfig) GridConfiguration() voronoi.GridConfiguration {
	return voronoi.NewGridConfigurationFromCorners(c.CornerMin, c.CornerMax, c.CellSize)
}

// MinimumDistanceNeeded converts MinLaneWidth into the free space, in grid
// cells, a skeleton cell needs on either side.
func (c *BuildConfig) MinimumDistanceNeeded() float32 {
	return c.MinLaneWidth / 2 / c.CellSize
}

// BlockerConfig builds the grid blocker filters. terrain may be nil.
func (c *BuildConfig) BlockerConfig(terrain voronoi.TerrainHeightFunc) voronoi.BlockerConfig {
	res := voronoi.BlockerConfig{
		CollisionMask: c.CollisionMask,
		AvoidFilter:   c.AvoidFilter,
		RequireFilter: c.RequireFilter,
		Terrain:       terrain,
	}
	if c.Height != nil {
		res.Height = &voronoi.HeightRestriction{
			UseTerrainHeight:    c.Height.UseTerrainHeight,
			MinHeight:           c.Height.MinHeight,
			MaxAdditionalHeight: c.Height.MaxAdditionalHeight,
		}
	}
	return res
}

// ToCreationSettings maps the config onto the persisted build settings.
func (c *BuildConfig) ToCreationSettings() voronoi.CreationSettings {
	return voronoi.CreationSettings{
		CornerMin:           c.CornerMin,
		CornerMax:           c.CornerMax,
		CellSize:            c.CellSize,
		LaneType:            c.LaneType,
		MapID:               c.MapID,
		AvoidFilter:         c.AvoidFilter,
		RequireFilter:       c.RequireFilter,
		WalkableLevelFilter: c.WalkableLevelFilter,
		MixWithMapID:        c.MixWithMapID,
		IncludeWater:        c.IncludeWater,
		TestAtWalkable:      c.TestAtWalkable,
	}
}

// Shape converts a sphere, aabb or obb obstacle.
func (o ObstacleConfig) Shape() (voronoi.Shape, error) {
	var s voronoi.Shape
	switch o.Kind {
	case "sphere":
		if !(o.Radius > 0) {
			return s, fmt.Errorf("sphere radius must be positive, got %v", o.Radius)
		}
		s = voronoi.Sphere(o.Center, o.Radius)
	case "aabb":
		s = voronoi.Aabb(o.Min, o.Max)
	case "obb":
		he := mgl32.Vec3(o.HalfExtents)
		if he.X() < 0 || he.Y() < 0 || he.Z() < 0 {
			return s, fmt.Errorf("obb half extents must be non-negative, got %v", he)
		}
		rot := mgl32.QuatRotate(mgl32.DegToRad(o.RotationY), mgl32.Vec3{0, 1, 0})
		s = voronoi.Obb(o.Center, rot, he)
	default:
		return s, fmt.Errorf("unknown obstacle kind %q", o.Kind)
	}
	s.CollisionFlags = o.Flags
	return s, nil
}
