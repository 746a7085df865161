package game

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"pulsepath-go/internal/experiment"
	"pulsepath-go/internal/game/scene"
)

var (
	bgColor       = color.RGBA{240, 240, 240, 255}
	pathColor     = color.RGBA{60, 60, 60, 255}
	waypointColor = color.RGBA{120, 120, 120, 255}
	mobileColor   = color.RGBA{30, 90, 220, 255}
	bonusColor    = color.RGBA{230, 60, 60, 255}
	bipColor      = color.RGBA{250, 180, 0, 255}
	buttonColor   = color.RGBA{200, 200, 200, 255}
	selectedColor = color.RGBA{90, 180, 90, 255}
)

const lineHeight = 20

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	s := g.ctrl.Session()
	switch s.State() {
	case experiment.StateSetup:
		g.drawSetup(screen)
	case experiment.StatePlaying:
		g.drawPlaying(screen, s)
	case experiment.StateEvaluation:
		g.drawEvaluation(screen, s)
	case experiment.StateFinished:
		g.drawFinished(screen, s)
	}
}

func (g *Game) drawSetup(screen *ebiten.Image) {
	f := g.ctrl.Form()
	y := 60
	ebitenutil.DebugPrintAt(screen, "PARTICIPANT SETUP", 60, y)
	ebitenutil.DebugPrintAt(screen, "TAB/arrows: move  LEFT/RIGHT: choose  ENTER: start", 60, y+lineHeight)
	y += 3 * lineHeight

	for i, field := range f.Fields {
		marker := "  "
		if i == f.Focus {
			marker = "> "
		}
		value := field.Value
		if field.Kind == scene.ChoiceField {
			if value == "" {
				value = "choose"
			}
			value = "< " + value + " >"
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s%s: %s", marker, field.Label, value), 60, y)
		y += 2 * lineHeight
	}

	if f.Err != nil {
		for _, line := range strings.Split(f.Err.Error(), "\n") {
			ebitenutil.DebugPrintAt(screen, line, 60, y)
			y += lineHeight
		}
	}
}

func (g *Game) drawPlaying(screen *ebiten.Image, s *experiment.Session) {
	path := s.Path()
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		vector.StrokeLine(screen, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), 3, pathColor, true)
	}
	for _, p := range path {
		vector.DrawFilledCircle(screen, float32(p.X), float32(p.Y), 5, waypointColor, true)
	}

	if t, ok := s.VisibleTarget(); ok {
		if img := g.images[t.Image]; img != nil {
			op := &ebiten.DrawImageOptions{}
			w, h := img.Bounds().Dx(), img.Bounds().Dy()
			op.GeoM.Scale(experiment.TargetSize/float64(w), experiment.TargetSize/float64(h))
			op.GeoM.Translate(t.Position.X, t.Position.Y)
			screen.DrawImage(img, op)
		}
	}

	if b, ok := s.ActiveBonus(); ok {
		half := float32(experiment.BonusSize) / 2
		vector.DrawFilledRect(screen, float32(b.Position.X)-half, float32(b.Position.Y)-half,
			experiment.BonusSize, experiment.BonusSize, bonusColor, true)
	}

	pos := s.Position()
	vector.DrawFilledCircle(screen, float32(pos.X), float32(pos.Y), 10, mobileColor, true)

	if s.BipActive() {
		vector.DrawFilledCircle(screen, float32(g.width-30), 30, 12, bipColor, true)
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Level %d   Time left: %ds", s.Level(), s.TimeLeft()), 10, 10)
}

func (g *Game) drawEvaluation(screen *ebiten.Image, s *experiment.Session) {
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("LEVEL %d EVALUATION", s.Level()), 60, 40)
	for row, dim := range experiment.Dimensions {
		label := fmt.Sprintf("%s (%d-%d)", strings.ToUpper(string(dim)), 1, dim.Max())
		ebitenutil.DebugPrintAt(screen, label, 200, int(scene.RowLabelY(row)))
	}

	for _, b := range g.ctrl.Buttons() {
		clr := buttonColor
		if v, ok := s.Rating(b.Dimension); ok && v == b.Value {
			clr = selectedColor
		}
		r := b.Bounds
		vector.DrawFilledRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), clr, true)
		ebitenutil.DebugPrintAt(screen, fmt.Sprint(b.Value), int(r.X+r.W/2)-3, int(r.Y+r.H/2)-8)
	}

	if g.ctrl.LastLevel() {
		field := g.ctrl.HeartRateField()
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s: %s_", field.Label, field.Value), 200, scene.HeartRateFieldY)
	}
	if msg := g.ctrl.Message(); msg != "" {
		ebitenutil.DebugPrintAt(screen, msg, 60, g.height-40)
	}
}

func (g *Game) drawFinished(screen *ebiten.Image, s *experiment.Session) {
	ebitenutil.DebugPrintAt(screen, "Thank you for participating!", 60, 200)
	if err := s.SaveErr(); err != nil {
		ebitenutil.DebugPrintAt(screen, "Results could not be saved: "+err.Error(), 60, 240)
	} else {
		ebitenutil.DebugPrintAt(screen, "Results saved.", 60, 240)
	}
	ebitenutil.DebugPrintAt(screen, "Press SPACE to exit.", 60, 280)
}
