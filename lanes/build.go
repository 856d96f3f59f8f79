package lanes

import (
	"go.uber.org/zap"

	"github.com/gorustyt/gonavlanes/config"
	"github.com/gorustyt/gonavlanes/voronoi"
)

// BuildFromConfig creates an editable world, adds the border and every
// obstacle of cfg, and runs a full Build. Obstacles that block nothing are
// logged and kept registered.
func BuildFromConfig(cfg *config.BuildConfig, opts ...Option) (*TrafficLaneWorld, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	w := NewTrafficLaneWorld(cfg.ToCreationSettings(), cfg.BlockerConfig(o.terrain), cfg.MinimumDistanceNeeded(), opts...)
	if cfg.OuterBorder {
		w.AddOuterBorder()
	}
	for _, oc := range cfg.Obstacles {
		id := voronoi.ObstacleID(oc.ID)
		var res voronoi.BlockResult
		if oc.Kind == "line" {
			res = w.AddLineObstacle(id, oc.Min, oc.Max)
		} else {
			shape, err := oc.Shape()
			if err != nil {
				return nil, err
			}
			res = w.AddObstacle(id, shape)
		}
		if res != voronoi.BlockSuccess {
			w.logger.Info("obstacle blocks no cell",
				zap.Uint32("id", oc.ID), zap.String("kind", oc.Kind), zap.Stringer("result", res))
		}
	}
	w.Build()
	return w, nil
}
