package models

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed levels.yaml
var defaultLevels []byte

// Point is a 2D screen coordinate.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// StimulusTarget is a fixed, screen-anchored place where a stimulus image appears.
type StimulusTarget struct {
	Image    string `yaml:"image"`
	Position Point  `yaml:"position"`
}

// LevelPath is the route and stimulus layout of one level.
type LevelPath struct {
	Level     int              `yaml:"level"`
	Waypoints []Point          `yaml:"waypoints"`
	Targets   []StimulusTarget `yaml:"targets"`
}

// LevelSet holds all levels in play order.
type LevelSet struct {
	Levels []LevelPath `yaml:"levels"`
}

// LoadLevels reads level definitions from path, or the built-in definitions
// when path is empty. Waypoints are recentred on a width x height screen.
func LoadLevels(path string, width, height int) (*LevelSet, error) {
	data := defaultLevels
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read levels file: %w", err)
		}
	}

	var set LevelSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to unmarshal levels YAML: %w", err)
	}
	if err := set.validate(); err != nil {
		return nil, err
	}

	for i := range set.Levels {
		set.Levels[i].Waypoints = CenterPath(set.Levels[i].Waypoints, float64(width), float64(height))
	}
	return &set, nil
}

func (s *LevelSet) validate() error {
	if len(s.Levels) == 0 {
		return fmt.Errorf("levels file defines no levels")
	}
	for i, l := range s.Levels {
		if l.Level != i+1 {
			return fmt.Errorf("level %d listed at position %d", l.Level, i+1)
		}
		if len(l.Waypoints) < 2 {
			return fmt.Errorf("level %d needs at least two waypoints", l.Level)
		}
		if len(l.Targets) == 0 {
			return fmt.Errorf("level %d has no stimulus targets", l.Level)
		}
	}
	return nil
}

// Level returns the 1-based level n.
func (s *LevelSet) Level(n int) LevelPath {
	return s.Levels[n-1]
}

// Count is the number of levels.
func (s *LevelSet) Count() int {
	return len(s.Levels)
}

// CenterPath translates path so that its centroid sits at the screen centre.
func CenterPath(path []Point, width, height float64) []Point {
	if len(path) == 0 {
		return nil
	}
	var cx, cy float64
	for _, p := range path {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(path))
	cy /= float64(len(path))

	dx := width/2 - cx
	dy := height/2 - cy

	out := make([]Point, len(path))
	for i, p := range path {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}
