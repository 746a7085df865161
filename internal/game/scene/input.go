// Package scene holds the screen logic of the session runner: the setup
// form, the rating panel and the controller that turns one frame of input
// into session operations. It has no rendering dependency.
package scene

import (
	"slices"

	"pulsepath-go/internal/models"
)

// Key is a key the runner reacts to.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyTab
	KeyEnter
	KeyBackspace
	KeySpace
)

// Input is everything that happened during one frame.
type Input struct {
	Keys  []Key
	Chars []rune
	Click *models.Point
}

// Pressed reports whether k went down this frame.
func (in Input) Pressed(k Key) bool {
	return slices.Contains(in.Keys, k)
}
