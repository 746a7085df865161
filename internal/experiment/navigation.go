package experiment

import (
	"fmt"

	"pulsepath-go/internal/models"
)

// Direction is an arrow-key command.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// ParseDirection validates a direction name.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Up, Down, Left, Right:
		return d, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Step moves from pos along path in direction dir. The candidates are the
// neighbours of every waypoint equal to pos; the last one lying strictly in
// the requested direction wins. ok is false when no neighbour qualifies.
func Step(path []models.Point, pos models.Point, dir Direction) (next models.Point, ok bool) {
	for i, p := range path {
		if p != pos {
			continue
		}
		if i > 0 && towards(pos, path[i-1], dir) {
			next, ok = path[i-1], true
		}
		if i < len(path)-1 && towards(pos, path[i+1], dir) {
			next, ok = path[i+1], true
		}
	}
	if !ok {
		return pos, false
	}
	return next, true
}

func towards(from, to models.Point, dir Direction) bool {
	switch dir {
	case Left:
		return to.X < from.X
	case Right:
		return to.X > from.X
	case Up:
		return to.Y < from.Y
	case Down:
		return to.Y > from.Y
	}
	return false
}
