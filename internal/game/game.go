// Package game is the ebiten front end of the session runner.
package game

import (
	"context"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"pulsepath-go/internal/game/scene"
	"pulsepath-go/internal/models"
)

var keyMap = []struct {
	key   ebiten.Key
	scene scene.Key
}{
	{ebiten.KeyArrowUp, scene.KeyUp},
	{ebiten.KeyArrowDown, scene.KeyDown},
	{ebiten.KeyArrowLeft, scene.KeyLeft},
	{ebiten.KeyArrowRight, scene.KeyRight},
	{ebiten.KeyTab, scene.KeyTab},
	{ebiten.KeyEnter, scene.KeyEnter},
	{ebiten.KeyBackspace, scene.KeyBackspace},
	{ebiten.KeySpace, scene.KeySpace},
}

// Game implements ebiten.Game. All session state is touched from Update only.
type Game struct {
	ctx    context.Context
	ctrl   *scene.Controller
	images map[string]*ebiten.Image
	width  int
	height int
	log    *zap.Logger

	chars []rune
}

func New(ctx context.Context, ctrl *scene.Controller, images map[string]*ebiten.Image, width, height int, log *zap.Logger) *Game {
	return &Game{
		ctx:    ctx,
		ctrl:   ctrl,
		images: images,
		width:  width,
		height: height,
		log:    log,
	}
}

func (g *Game) Update() error {
	if g.ctrl.Step(g.ctx, g.readInput(), time.Now()) {
		g.log.Info("Session acknowledged, exiting")
		return ebiten.Termination
	}
	return nil
}

func (g *Game) readInput() scene.Input {
	var in scene.Input
	for _, m := range keyMap {
		if inpututil.IsKeyJustPressed(m.key) {
			in.Keys = append(in.Keys, m.scene)
		}
	}
	g.chars = ebiten.AppendInputChars(g.chars[:0])
	in.Chars = g.chars
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		in.Click = &models.Point{X: float64(x), Y: float64(y)}
	}
	return in
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
