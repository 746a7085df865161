package scene

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pulsepath-go/internal/experiment"
	"pulsepath-go/internal/utils"
)

var arrowDirections = map[Key]experiment.Direction{
	KeyUp:    experiment.Up,
	KeyDown:  experiment.Down,
	KeyLeft:  experiment.Left,
	KeyRight: experiment.Right,
}

// Controller routes each frame of input to the screen for the session's
// current state.
type Controller struct {
	session    *experiment.Session
	levelCount int
	log        *zap.Logger

	form      *Form
	buttons   []RatingButton
	heartRate *Field
	message   string
}

func NewController(s *experiment.Session, levelCount int, log *zap.Logger) *Controller {
	return &Controller{
		session:    s,
		levelCount: levelCount,
		log:        log,
		form:       NewForm(),
		buttons:    RatingButtons(),
		heartRate:  &Field{Label: "Heart rate after (bpm)", Kind: NumberField},
	}
}

// Step handles one frame and reports whether the runner should exit.
func (c *Controller) Step(ctx context.Context, in Input, now time.Time) (quit bool) {
	switch c.session.State() {
	case experiment.StateSetup:
		c.stepSetup(in, now)
	case experiment.StatePlaying:
		c.stepPlaying(in, now)
	case experiment.StateEvaluation:
		c.stepEvaluation(ctx, in, now)
	case experiment.StateFinished:
		return in.Pressed(KeySpace) && c.session.Acknowledge()
	}
	return false
}

func (c *Controller) stepSetup(in Input, now time.Time) {
	if !c.form.Handle(in) {
		return
	}
	p, err := c.form.Profile()
	if err == nil {
		err = c.session.Start(p, now)
	}
	c.form.Err = err
	if err != nil {
		c.log.Warn("Setup rejected", zap.Error(err))
	}
}

func (c *Controller) stepPlaying(in Input, now time.Time) {
	for _, k := range in.Keys {
		if dir, ok := arrowDirections[k]; ok {
			c.session.Navigate(dir)
		}
	}
	if in.Click != nil {
		c.session.Click(*in.Click, now)
	}
	c.session.Update(now)
}

func (c *Controller) stepEvaluation(ctx context.Context, in Input, now time.Time) {
	if c.LastLevel() {
		c.heartRate.typeRunes(in)
		// 0 marks a missing value for the analyzer
		bpm, err := utils.ParsePositiveInt("heart rate after", c.heartRate.Value)
		if err != nil {
			bpm = 0
		}
		c.session.SetHeartRateAfter(bpm)
	}

	if in.Click == nil {
		return
	}
	b, ok := ButtonAt(c.buttons, *in.Click)
	if !ok {
		return
	}
	c.message = ""
	if err := c.session.Rate(ctx, b.Dimension, b.Value, now); err != nil {
		c.message = err.Error()
		c.log.Error("Rating failed", zap.Error(err))
	}
}

// LastLevel reports whether the session is on its final level.
func (c *Controller) LastLevel() bool {
	return c.session.Level() == c.levelCount
}

func (c *Controller) Session() *experiment.Session { return c.session }
func (c *Controller) Form() *Form                  { return c.form }
func (c *Controller) Buttons() []RatingButton      { return c.buttons }
func (c *Controller) HeartRateField() *Field       { return c.heartRate }
func (c *Controller) Message() string              { return c.message }
