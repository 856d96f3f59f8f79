package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gorustyt/gonavlanes/common"
	"github.com/gorustyt/gonavlanes/lanes"
	"github.com/gorustyt/gonavlanes/voronoi"
)

type stepType int

const (
	stepAddSphere stepType = iota
	stepAddBox
	stepAddLine
	stepRemove
	stepUpdate
	stepPathfind
)

type step struct {
	Type   stepType
	line   int
	id     voronoi.ObstacleID
	a, b   common.Vec3
	radius float32
	width  float32
}

// parseScenario reads one step per line:
//
//	sphere <id> x y z r
//	box    <id> x0 y0 z0 x1 y1 z1
//	line   <id> x0 y0 z0 x1 y1 z1
//	rm     <id>
//	update
//	pf     x0 z0 x1 z1 minWidth
//
// Empty lines and lines starting with '#' are skipped.
func parseScenario(r io.Reader) ([]step, error) {
	var steps []step
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		ss := strings.Fields(sc.Text())
		if len(ss) == 0 || strings.HasPrefix(ss[0], "#") {
			continue
		}
		s, err := parseRow(ss)
		if err != nil {
			return nil, fmt.Errorf("scenario line %d: %w", n, err)
		}
		s.line = n
		steps = append(steps, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return steps, nil
}

func parseFloats(ss []string, want int) ([]float32, error) {
	if len(ss) != want {
		return nil, fmt.Errorf("want %d numbers, got %d", want, len(ss))
	}
	res := make([]float32, want)
	for i, s := range ss {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, err
		}
		res[i] = float32(v)
	}
	return res, nil
}

func parseRow(ss []string) (step, error) {
	var s step
	parseID := func() error {
		if len(ss) < 2 {
			return fmt.Errorf("%s needs an id", ss[0])
		}
		id, err := strconv.ParseUint(ss[1], 10, 32)
		s.id = voronoi.ObstacleID(id)
		return err
	}
	switch ss[0] {
	case "sphere":
		s.Type = stepAddSphere
		if err := parseID(); err != nil {
			return s, err
		}
		v, err := parseFloats(ss[2:], 4)
		if err != nil {
			return s, err
		}
		s.a, s.radius = common.Vec3{v[0], v[1], v[2]}, v[3]
	case "box", "line":
		s.Type = stepAddBox
		if ss[0] == "line" {
			s.Type = stepAddLine
		}
		if err := parseID(); err != nil {
			return s, err
		}
		v, err := parseFloats(ss[2:], 6)
		if err != nil {
			return s, err
		}
		s.a, s.b = common.Vec3{v[0], v[1], v[2]}, common.Vec3{v[3], v[4], v[5]}
	case "rm":
		s.Type = stepRemove
		return s, parseID()
	case "update":
		s.Type = stepUpdate
	case "pf":
		s.Type = stepPathfind
		v, err := parseFloats(ss[1:], 5)
		if err != nil {
			return s, err
		}
		s.a, s.b, s.width = common.Vec3{v[0], 0, v[1]}, common.Vec3{v[2], 0, v[3]}, v[4]
	default:
		return s, fmt.Errorf("unknown step %q", ss[0])
	}
	return s, nil
}

func runScenario(world *lanes.TrafficLaneWorld, steps []step, logger *zap.Logger) {
	for _, s := range steps {
		switch s.Type {
		case stepAddSphere:
			res := world.AddObstacle(s.id, voronoi.Sphere(s.a, s.radius))
			logger.Info("add sphere", zap.Int("line", s.line), zap.Stringer("result", res))
		case stepAddBox:
			res := world.AddObstacle(s.id, voronoi.Aabb(s.a, s.b))
			logger.Info("add box", zap.Int("line", s.line), zap.Stringer("result", res))
		case stepAddLine:
			res := world.AddLineObstacle(s.id, s.a, s.b)
			logger.Info("add line", zap.Int("line", s.line), zap.Stringer("result", res))
		case stepRemove:
			logger.Info("remove obstacle", zap.Int("line", s.line), zap.Bool("removed", world.RemoveObstacle(s.id)))
		case stepUpdate:
			cs := world.Update()
			logger.Info("update",
				zap.Int("line", s.line),
				zap.Uint32s("removedLanes", cs.RemovedLanes),
				zap.Uint32s("addedLanes", cs.AddedLanes))
		case stepPathfind:
			from, ok1 := world.NearestNode(s.a)
			to, ok2 := world.NearestNode(s.b)
			if !ok1 || !ok2 {
				logger.Warn("pathfind without nodes", zap.Int("line", s.line))
				continue
			}
			p, err := world.FindPath(from, to, s.width)
			if err != nil {
				logger.Warn("pathfind failed", zap.Int("line", s.line), zap.Error(err))
				continue
			}
			logger.Info("pathfind",
				zap.Int("line", s.line),
				zap.Uint32s("lanes", p.Lanes),
				zap.Float32("length", p.Length))
		}
	}
}
