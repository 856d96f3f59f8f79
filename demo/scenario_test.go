package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gorustyt/gonavlanes/common"
	"github.com/gorustyt/gonavlanes/config"
	"github.com/gorustyt/gonavlanes/lanes"
	"github.com/gorustyt/gonavlanes/voronoi"
)

func TestParseScenario(t *testing.T) {
	steps, err := parseScenario(strings.NewReader(`
# block the middle
sphere 1 10.5 0 5.5 0.4
box 2 1 0 1 2 1 2
line 3 0 0 0 4 0 0

update
rm 1
pf 5.5 5.5 15.5 5.5 2
`))
	require.NoError(t, err)
	require.Len(t, steps, 6)

	assert.Equal(t, step{Type: stepAddSphere, line: 3, id: 1, a: common.Vec3{10.5, 0, 5.5}, radius: 0.4}, steps[0])
	assert.Equal(t, step{Type: stepAddBox, line: 4, id: 2, a: common.Vec3{1, 0, 1}, b: common.Vec3{2, 1, 2}}, steps[1])
	assert.Equal(t, stepAddLine, steps[2].Type)
	assert.Equal(t, step{Type: stepUpdate, line: 7}, steps[3])
	assert.Equal(t, step{Type: stepRemove, line: 8, id: 1}, steps[4])
	assert.Equal(t, step{Type: stepPathfind, line: 9, a: common.Vec3{5.5, 0, 5.5}, b: common.Vec3{15.5, 0, 5.5}, width: 2}, steps[5])
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"jump 1", `scenario line 1: unknown step "jump"`},
		{"update\nsphere 1 0", "scenario line 2: want 4 numbers, got 1"},
		{"rm", "scenario line 1: rm needs an id"},
		{"rm x", "scenario line 1"},
		{"pf 1 2 3 4 wide", "scenario line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parseScenario(strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRunScenario(t *testing.T) {
	cfg := config.DefaultBuildConfig()
	cfg.CornerMax = [3]float32{21, 0, 11}
	cfg.MinLaneWidth = 9
	world, err := lanes.BuildFromConfig(cfg)
	require.NoError(t, err)

	steps, err := parseScenario(strings.NewReader("sphere 1 10.5 0 5.5 0.4\nupdate\n"))
	require.NoError(t, err)
	runScenario(world, steps, zaptest.NewLogger(t))
	assert.Empty(t, world.LaneIDs())

	steps, err = parseScenario(strings.NewReader("rm 1\nupdate\npf 5 5 16 5 1\n"))
	require.NoError(t, err)
	runScenario(world, steps, zaptest.NewLogger(t))
	assert.Equal(t, []uint32{0}, world.LaneIDs())
	_, ok := world.Node(lanes.DeadEndNodeID(voronoi.StartNodeID(0)))
	assert.True(t, ok)
}
