package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLevelsDefault(t *testing.T) {
	set, err := LoadLevels("", 800, 600)
	require.NoError(t, err)
	require.Equal(t, 3, set.Count())

	l1 := set.Level(1)
	require.Len(t, l1.Waypoints, 5)
	require.Len(t, l1.Targets, 4)

	// centroid (340, 260) moved to (400, 300)
	assert.Equal(t, Point{X: 160, Y: 140}, l1.Waypoints[0])
	assert.Equal(t, Point{X: 560, Y: 540}, l1.Waypoints[4])

	// targets are screen anchored and left alone
	assert.Equal(t, Point{X: 200, Y: 200}, l1.Targets[0].Position)
	assert.Equal(t, "image4", l1.Targets[3].Image)

	assert.Len(t, set.Level(3).Waypoints, 17)
}

func TestLoadLevelsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.yaml")
	content := `
levels:
  - level: 1
    waypoints: [{x: 0, y: 0}, {x: 100, y: 0}]
    targets: [{image: a, position: {x: 5, y: 5}}]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	set, err := LoadLevels(path, 200, 100)
	require.NoError(t, err)
	require.Equal(t, 1, set.Count())
	assert.Equal(t, []Point{{X: 50, Y: 50}, {X: 150, Y: 50}}, set.Level(1).Waypoints)
}

func TestLoadLevelsErrors(t *testing.T) {
	_, err := LoadLevels(filepath.Join(t.TempDir(), "missing.yaml"), 800, 600)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
levels:
  - level: 2
    waypoints: [{x: 0, y: 0}, {x: 1, y: 1}]
    targets: [{image: a, position: {x: 0, y: 0}}]
`), 0o600))
	_, err = LoadLevels(path, 800, 600)
	require.Error(t, err)
}

func TestCenterPathKeepsShape(t *testing.T) {
	in := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	out := CenterPath(in, 100, 100)

	require.Len(t, out, 3)
	for i := 1; i < len(in); i++ {
		assert.InDelta(t, in[i].Dist(in[i-1]), out[i].Dist(out[i-1]), 1e-9)
	}
	assert.Nil(t, CenterPath(nil, 100, 100))
}

func TestParseCondition(t *testing.T) {
	c, err := ParseCondition("random")
	require.NoError(t, err)
	assert.Equal(t, ConditionRandom, c)

	_, err = ParseCondition("fast")
	assert.Error(t, err)

	_, err = ParseGender("other")
	assert.Error(t, err)
}
