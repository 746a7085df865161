package scene

import (
	"pulsepath-go/internal/experiment"
	"pulsepath-go/internal/models"
)

// Rating panel geometry.
const (
	ButtonWidth   = 50
	ButtonHeight  = 40
	buttonSpacing = 70
	rowTop        = 150
	rowSpacing    = 100
	buttonLeft    = 200
)

// Rect is an axis-aligned screen rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Contains is half-open on the right and bottom edges.
func (r Rect) Contains(p models.Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// RatingButton is one clickable value of one dimension.
type RatingButton struct {
	Dimension experiment.Dimension
	Value     int
	Bounds    Rect
}

// RatingButtons lays out one row per dimension with a button per value.
func RatingButtons() []RatingButton {
	var out []RatingButton
	for row, dim := range experiment.Dimensions {
		for v := models.MinRating; v <= dim.Max(); v++ {
			out = append(out, RatingButton{
				Dimension: dim,
				Value:     v,
				Bounds: Rect{
					X: buttonLeft + float64(v-1)*buttonSpacing,
					Y: rowTop + float64(row)*rowSpacing,
					W: ButtonWidth,
					H: ButtonHeight,
				},
			})
		}
	}
	return out
}

// RowLabelY is the baseline of the label above a dimension's buttons.
func RowLabelY(row int) float64 {
	return rowTop + float64(row)*rowSpacing - 25
}

// HeartRateFieldY is where the post-session heart rate field is drawn.
const HeartRateFieldY = rowTop + 3*rowSpacing

// ButtonAt returns the button under p.
func ButtonAt(buttons []RatingButton, p models.Point) (RatingButton, bool) {
	for _, b := range buttons {
		if b.Bounds.Contains(p) {
			return b, true
		}
	}
	return RatingButton{}, false
}
