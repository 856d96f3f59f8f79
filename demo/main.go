package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/gorustyt/gonavlanes/common/logx"
	"github.com/gorustyt/gonavlanes/common/rw"
	"github.com/gorustyt/gonavlanes/config"
	"github.com/gorustyt/gonavlanes/debug_utils"
	"github.com/gorustyt/gonavlanes/lanes"
)

func main() {
	configPath := flag.String("config", "", "build config JSON")
	scenarioPath := flag.String("scenario", "", "optional scenario of runtime obstacle edits")
	out := flag.String("out", "lanes.geojson", "GeoJSON output")
	wireOut := flag.String("wire", "", "optional protobuf wire output")
	dump := flag.String("dump", "", "optional text dump of the skeleton")
	obj := flag.String("obj", "", "optional OBJ polylines of the lanes")
	flag.Parse()

	if err := run(*configPath, *scenarioPath, *out, *wireOut, *dump, *obj); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, scenarioPath, out, wireOut, dump, obj string) error {
	cfg := config.DefaultBuildConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadBuildConfig(configPath); err != nil {
			return err
		}
	}
	logger := logx.New(cfg.Log)
	defer logger.Sync()

	world, err := lanes.BuildFromConfig(cfg, lanes.WithLogger(logger))
	if err != nil {
		return err
	}
	if scenarioPath != "" {
		f, err := os.Open(scenarioPath)
		if err != nil {
			return fmt.Errorf("open scenario: %w", err)
		}
		steps, err := parseScenario(f)
		f.Close()
		if err != nil {
			return err
		}
		runScenario(world, steps, logger)
	}

	data, err := world.GeoJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	if wireOut != "" {
		if err := os.WriteFile(wireOut, world.MarshalWire(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", wireOut, err)
		}
	}
	if dump != "" {
		w := rw.NewBinWriter()
		debug_utils.DuDumpSkeleton(world.Graph(), w)
		debug_utils.DuDumpDistanceGrid(world.Graph().Grid(), w)
		if err := os.WriteFile(dump, w.GetWriteBytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dump, err)
		}
	}
	if obj != "" {
		w := rw.NewBinWriter()
		debug_utils.DuDumpLanesToObj(world, w)
		if err := os.WriteFile(obj, w.GetWriteBytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", obj, err)
		}
	}
	logger.Info("lane world written",
		zap.String("geojson", out),
		zap.Int("lanes", len(world.LaneIDs())),
		zap.Int("nodes", len(world.NodeIDs())))
	return nil
}
