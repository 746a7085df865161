package experiment

import (
	"time"

	"pulsepath-go/internal/models"
)

// TargetSize is the side of the square hit box of a stimulus image.
const TargetSize = 50

// Speaker plays the audio bip. A nil Speaker runs the experiment silently.
type Speaker interface {
	Bip()
}

// VisualStimulus blinks one image at a time, cycling through the level's
// targets every time it turns visible.
type VisualStimulus struct {
	cadence    Cadence
	targets    []models.StimulusTarget
	visible    bool
	index      int
	lastToggle time.Time
	nextToggle time.Duration
}

// NewVisualStimulus starts hidden; the first target shown is targets[0].
func NewVisualStimulus(c Cadence, targets []models.StimulusTarget, now time.Time) *VisualStimulus {
	return &VisualStimulus{
		cadence:    c,
		targets:    targets,
		index:      -1,
		lastToggle: now,
		nextToggle: c.NextToggle(),
	}
}

// Tick toggles visibility when the cadence says so and reports whether it did.
func (v *VisualStimulus) Tick(now time.Time) bool {
	if now.Sub(v.lastToggle) <= v.nextToggle {
		return false
	}
	v.visible = !v.visible
	if v.visible {
		v.index = (v.index + 1) % len(v.targets)
	}
	v.lastToggle = now
	v.nextToggle = v.cadence.NextToggle()
	return true
}

// Visible returns the target on screen, if any.
func (v *VisualStimulus) Visible() (models.StimulusTarget, bool) {
	if !v.visible {
		return models.StimulusTarget{}, false
	}
	return v.targets[v.index], true
}

// Hit checks a click against the visible target. On a hit the target is
// hidden and the time since it appeared is returned, in seconds.
func (v *VisualStimulus) Hit(p models.Point, now time.Time) (float64, bool) {
	t, ok := v.Visible()
	if !ok || !inBox(p, t.Position, TargetSize) {
		return 0, false
	}
	v.visible = false
	return nonNegativeSeconds(now.Sub(v.lastToggle)), true
}

// BipGenerator schedules audio bips and remembers when each one fired.
type BipGenerator struct {
	cadence Cadence
	speaker Speaker
	active  bool
	started time.Time
	last    time.Time
}

// NewBipGenerator measures the first interval from now.
func NewBipGenerator(c Cadence, s Speaker, now time.Time) *BipGenerator {
	return &BipGenerator{cadence: c, speaker: s, last: now}
}

// Tick fires a bip when due and reports whether it did.
func (b *BipGenerator) Tick(now time.Time) bool {
	if b.active {
		if now.Sub(b.started) > BipDuration {
			b.active = false
		}
		return false
	}
	if !b.cadence.BipDue(now.Sub(b.last)) {
		return false
	}
	b.active = true
	b.started = now
	b.last = now
	if b.speaker != nil {
		b.speaker.Bip()
	}
	return true
}

// Active reports whether a bip is currently sounding.
func (b *BipGenerator) Active() bool {
	return b.active
}

// inBox reports whether p lies in the size x size square whose top-left is at corner.
func inBox(p, corner models.Point, size float64) bool {
	return p.X >= corner.X && p.X < corner.X+size &&
		p.Y >= corner.Y && p.Y < corner.Y+size
}

func nonNegativeSeconds(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return d.Seconds()
}
