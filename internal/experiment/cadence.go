package experiment

import (
	"fmt"
	"math/rand/v2"
	"time"

	"pulsepath-go/internal/models"
)

const (
	// AsyncBPM is the fixed rate of the async condition.
	AsyncBPM = 100

	// BipDuration is how long a bip stays active; no new bip starts meanwhile.
	BipDuration = 200 * time.Millisecond

	randomBipChance  = 0.02
	randomToggleMin  = 500 * time.Millisecond
	randomToggleSpan = time.Second
)

// Rand is the subset of *rand.Rand the experiment draws from.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns a seeded PCG source.
func NewRand(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Cadence decides when the timed stimuli of one condition fire.
type Cadence interface {
	Condition() models.Condition
	// Interval is the mean spacing between stimuli.
	Interval() time.Duration
	// BipDue reports whether a bip may start, sinceLast after the previous one.
	BipDue(sinceLast time.Duration) bool
	// NextToggle is the delay before the next visual toggle. It is drawn once
	// per toggle.
	NextToggle() time.Duration
}

// BeatInterval converts beats per minute into the spacing between beats.
func BeatInterval(bpm int) time.Duration {
	return time.Minute / time.Duration(bpm)
}

// NewCadence builds the cadence for a condition and resting heart rate.
func NewCadence(cond models.Condition, heartRate int, r Rand) (Cadence, error) {
	switch cond {
	case models.ConditionSync:
		if heartRate <= 0 {
			return nil, fmt.Errorf("sync cadence needs a positive heart rate, got %d", heartRate)
		}
		return periodicCadence{cond: cond, interval: BeatInterval(heartRate)}, nil
	case models.ConditionAsync:
		return periodicCadence{cond: cond, interval: BeatInterval(AsyncBPM)}, nil
	case models.ConditionRandom:
		if heartRate <= 0 {
			return nil, fmt.Errorf("random cadence needs a positive heart rate, got %d", heartRate)
		}
		return &randomCadence{mean: BeatInterval(heartRate), r: r}, nil
	}
	return nil, fmt.Errorf("unknown condition %q", cond)
}

// periodicCadence fires at a fixed interval (sync and async arms).
type periodicCadence struct {
	cond     models.Condition
	interval time.Duration
}

func (c periodicCadence) Condition() models.Condition { return c.cond }
func (c periodicCadence) Interval() time.Duration     { return c.interval }

func (c periodicCadence) BipDue(sinceLast time.Duration) bool {
	return sinceLast >= c.interval
}

func (c periodicCadence) NextToggle() time.Duration {
	return c.interval
}

// randomCadence keeps the sync mean but jitters each stimulus. Nothing fires
// before half the mean interval has elapsed.
type randomCadence struct {
	mean time.Duration
	r    Rand
}

func (c *randomCadence) Condition() models.Condition { return models.ConditionRandom }
func (c *randomCadence) Interval() time.Duration     { return c.mean }

func (c *randomCadence) BipDue(sinceLast time.Duration) bool {
	if sinceLast < c.mean/2 {
		return false
	}
	return c.r.Float64() < randomBipChance
}

func (c *randomCadence) NextToggle() time.Duration {
	d := randomToggleMin + time.Duration(c.r.Float64()*float64(randomToggleSpan))
	if floor := c.mean / 2; d < floor {
		return floor
	}
	return d
}
