package experiment

import (
	"time"

	"pulsepath-go/internal/models"
)

const (
	bonusChance      = 0.02
	bonusMinSpacing  = 100.0
	bonusHistorySize = 5

	// BonusTimeout is how long a bonus waits for a click before counting as missed.
	BonusTimeout = 5 * time.Second
	// BonusSize is the side of the square hit box centred on a bonus.
	BonusSize = 30
)

// Bonus is a clickable target spawned on a waypoint.
type Bonus struct {
	Position  models.Point
	SpawnedAt time.Time
}

// BonusScheduler keeps at most one active bonus and the last spawn locations.
type BonusScheduler struct {
	r       Rand
	active  *Bonus
	history []models.Point
}

func NewBonusScheduler(r Rand) *BonusScheduler {
	return &BonusScheduler{r: r}
}

// Spawn may place a new bonus on path. A candidate closer than 100 units to
// the previous bonus is dropped and nothing spawns this frame.
func (s *BonusScheduler) Spawn(path []models.Point, now time.Time) bool {
	if s.active != nil || len(path) == 0 || s.r.Float64() >= bonusChance {
		return false
	}

	candidate := path[s.r.IntN(len(path))]
	if n := len(s.history); n > 0 && candidate.Dist(s.history[n-1]) < bonusMinSpacing {
		return false
	}

	s.active = &Bonus{Position: candidate, SpawnedAt: now}
	s.history = append(s.history, candidate)
	if len(s.history) > bonusHistorySize {
		s.history = s.history[1:]
	}
	return true
}

// Expire drops a bonus left unclicked for BonusTimeout and reports whether it did.
func (s *BonusScheduler) Expire(now time.Time) bool {
	if s.active == nil || now.Sub(s.active.SpawnedAt) <= BonusTimeout {
		return false
	}
	s.active = nil
	return true
}

// Hit checks a click against the active bonus and returns the reaction time
// in seconds on success.
func (s *BonusScheduler) Hit(p models.Point, now time.Time) (float64, bool) {
	if s.active == nil {
		return 0, false
	}
	half := float64(BonusSize) / 2
	corner := models.Point{X: s.active.Position.X - half, Y: s.active.Position.Y - half}
	if !inBox(p, corner, BonusSize) {
		return 0, false
	}
	rt := nonNegativeSeconds(now.Sub(s.active.SpawnedAt))
	s.active = nil
	return rt, true
}

// Active returns the bonus on screen, if any.
func (s *BonusScheduler) Active() (Bonus, bool) {
	if s.active == nil {
		return Bonus{}, false
	}
	return *s.active, true
}

// Clear discards the active bonus without counting it. History is kept.
func (s *BonusScheduler) Clear() {
	s.active = nil
}

// History returns a copy of the recent spawn locations, oldest first.
func (s *BonusScheduler) History() []models.Point {
	return append([]models.Point(nil), s.history...)
}
