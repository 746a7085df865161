package experiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pulsepath-go/internal/models"
)

var (
	ErrInvalidProfile   = errors.New("invalid participant profile")
	ErrWrongState       = errors.New("operation not allowed in the current state")
	ErrRatingOutOfRange = errors.New("rating out of range")
)

// DefaultLevelDuration is the length of a level.
const DefaultLevelDuration = 60 * time.Second

// State is a phase of the session.
type State int

const (
	StateSetup State = iota
	StatePlaying
	StateEvaluation
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StatePlaying:
		return "playing"
	case StateEvaluation:
		return "evaluation"
	case StateFinished:
		return "finished"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Dimension is one of the three post-level ratings.
type Dimension string

const (
	Performance Dimension = "performance"
	Stress      Dimension = "stress"
	Certitude   Dimension = "certitude"
)

// Dimensions lists the rating dimensions in form order.
var Dimensions = []Dimension{Performance, Stress, Certitude}

// Max is the highest accepted value for the dimension.
func (d Dimension) Max() int {
	switch d {
	case Performance:
		return models.MaxPerformance
	case Stress:
		return models.MaxStress
	case Certitude:
		return models.MaxCertitude
	}
	return 0
}

// Sink persists a finished session.
type Sink interface {
	Save(ctx context.Context, rec *models.SessionRecord) error
}

// Options configures a Session. Levels is required; everything else has a default.
type Options struct {
	Levels        *models.LevelSet
	LevelDuration time.Duration
	Sink          Sink
	Speaker       Speaker
	Rand          Rand
	Log           *zap.Logger
	NewID         func() string
}

// Session drives one participant through all levels. It is not safe for
// concurrent use; the game loop owns it.
type Session struct {
	opts Options
	log  *zap.Logger

	state    State
	level    int
	cadence  Cadence
	record   *models.SessionRecord
	pending  map[Dimension]int
	position models.Point

	levelStart time.Time
	timeLeft   int

	visual *VisualStimulus
	bips   *BipGenerator
	bonus  *BonusScheduler

	persisted bool
	saveErr   error
}

func NewSession(opts Options) *Session {
	if opts.LevelDuration <= 0 {
		opts.LevelDuration = DefaultLevelDuration
	}
	if opts.Rand == nil {
		opts.Rand = NewRand(uint64(time.Now().UnixNano()))
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Session{
		opts:    opts,
		log:     opts.Log.Named("session"),
		state:   StateSetup,
		pending: make(map[Dimension]int),
		bonus:   NewBonusScheduler(opts.Rand),
	}
}

// ValidateProfile checks the setup form. Every problem is reported.
func ValidateProfile(p models.ParticipantProfile) error {
	var problems []error
	if strings.TrimSpace(p.ID) == "" {
		problems = append(problems, errors.New("participant id is required"))
	}
	if p.Age <= 0 {
		problems = append(problems, errors.New("age must be positive"))
	}
	if _, err := models.ParseGender(string(p.Gender)); err != nil {
		problems = append(problems, fmt.Errorf("gender: %w", err))
	}
	if _, err := models.ParseCondition(string(p.Condition)); err != nil {
		problems = append(problems, fmt.Errorf("condition: %w", err))
	}
	if p.HeartRateBefore <= 0 {
		problems = append(problems, errors.New("heart rate before must be positive"))
	}
	if p.Condition == models.ConditionAsync && p.HeartRateBefore == AsyncBPM {
		problems = append(problems, fmt.Errorf("heart rate must differ from %d bpm in the async condition", AsyncBPM))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, errors.Join(problems...))
	}
	return nil
}

// Start validates the profile and begins level 1.
func (s *Session) Start(p models.ParticipantProfile, now time.Time) error {
	if s.state != StateSetup {
		return fmt.Errorf("start: %w (%s)", ErrWrongState, s.state)
	}
	if err := ValidateProfile(p); err != nil {
		return err
	}
	cadence, err := NewCadence(p.Condition, p.HeartRateBefore, s.opts.Rand)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	s.cadence = cadence
	s.record = &models.SessionRecord{
		SessionID: s.opts.NewID(),
		Profile:   p,
		StartedAt: now,
	}
	s.level = 1
	s.log.Info("Session started",
		zap.String("session_id", s.record.SessionID),
		zap.String("participant_id", p.ID),
		zap.String("condition", string(p.Condition)),
		zap.Int("heart_rate_before", p.HeartRateBefore),
		zap.Duration("interval", cadence.Interval()))
	s.enterPlaying(now)
	return nil
}

func (s *Session) enterPlaying(now time.Time) {
	path := s.opts.Levels.Level(s.level)
	s.state = StatePlaying
	s.levelStart = now
	s.timeLeft = s.levelSeconds()
	s.position = path.Waypoints[0]
	s.visual = NewVisualStimulus(s.cadence, path.Targets, now)
	s.bips = NewBipGenerator(s.cadence, s.opts.Speaker, now)
	s.bonus.Clear()
	clear(s.pending)
	s.log.Info("Level started", zap.Int("level", s.level))
}

func (s *Session) levelSeconds() int {
	return int(s.opts.LevelDuration / time.Second)
}

// Update advances timers by one frame. It is a no-op outside playing.
func (s *Session) Update(now time.Time) {
	if s.state != StatePlaying {
		return
	}

	elapsed := int(now.Sub(s.levelStart) / time.Second)
	s.timeLeft = max(0, s.levelSeconds()-elapsed)
	if s.timeLeft == 0 {
		s.bonus.Clear()
		s.state = StateEvaluation
		s.log.Info("Level finished",
			zap.Int("level", s.level),
			zap.Int("samples", len(s.record.LevelResponseTimes(s.level))))
		return
	}

	if s.visual.Tick(now) {
		_, visible := s.visual.Visible()
		s.log.Debug("Visual toggle", zap.Bool("visible", visible))
	}
	if s.bips.Tick(now) {
		s.record.BipTimes = append(s.record.BipTimes, now.Sub(s.record.StartedAt).Seconds())
		s.log.Debug("Bip", zap.Int("total", len(s.record.BipTimes)))
	}
	if s.bonus.Expire(now) {
		s.record.MissedBonus++
		s.log.Debug("Bonus expired", zap.Int("missed_bonus", s.record.MissedBonus))
	}
	if s.bonus.Spawn(s.opts.Levels.Level(s.level).Waypoints, now) {
		b, _ := s.bonus.Active()
		s.log.Debug("Bonus spawned", zap.Float64("x", b.Position.X), zap.Float64("y", b.Position.Y))
	}
}

// Navigate applies an arrow key. An impossible move counts as a command error
// and reports false.
func (s *Session) Navigate(dir Direction) bool {
	if s.state != StatePlaying {
		return false
	}
	next, ok := Step(s.opts.Levels.Level(s.level).Waypoints, s.position, dir)
	if !ok {
		s.record.CommandErrors++
		return false
	}
	s.position = next
	return true
}

// Click handles a mouse click at p.
func (s *Session) Click(p models.Point, now time.Time) {
	if s.state != StatePlaying {
		return
	}
	if _, visible := s.visual.Visible(); visible {
		if rt, ok := s.visual.Hit(p, now); ok {
			s.addSample(models.SourceStimulus, rt)
		} else {
			s.record.MissedBonus++
		}
	}
	if rt, ok := s.bonus.Hit(p, now); ok {
		s.addSample(models.SourceBonus, rt)
	}
}

func (s *Session) addSample(src models.ResponseSource, seconds float64) {
	s.record.Responses = append(s.record.Responses, models.ResponseSample{
		Level:   s.level,
		Source:  src,
		Seconds: seconds,
	})
	s.log.Debug("Response", zap.String("source", string(src)), zap.Float64("seconds", seconds))
}

// Rate records one rating for the current level. Once all three dimensions
// have a value the evaluation is stored and the session moves on; entering
// finished persists the record through the sink.
func (s *Session) Rate(ctx context.Context, dim Dimension, value int, now time.Time) error {
	if s.state != StateEvaluation {
		return fmt.Errorf("rate: %w (%s)", ErrWrongState, s.state)
	}
	hi := dim.Max()
	if hi == 0 {
		return fmt.Errorf("%w: unknown dimension %q", ErrRatingOutOfRange, dim)
	}
	if value < models.MinRating || value > hi {
		return fmt.Errorf("%w: %s must be within %d-%d, got %d", ErrRatingOutOfRange, dim, models.MinRating, hi, value)
	}
	s.pending[dim] = value
	if len(s.pending) < len(Dimensions) {
		return nil
	}

	s.record.Evaluations = append(s.record.Evaluations, models.LevelEvaluation{
		Level:           s.level,
		Performance:     s.pending[Performance],
		Stress:          s.pending[Stress],
		Certitude:       s.pending[Certitude],
		AvgResponseTime: mean(s.record.LevelResponseTimes(s.level)),
	})
	s.log.Info("Level evaluated", zap.Int("level", s.level), zap.Any("ratings", s.pending))

	if s.level < s.opts.Levels.Count() {
		s.level++
		s.enterPlaying(now)
		return nil
	}
	return s.finish(ctx, now)
}

func (s *Session) finish(ctx context.Context, now time.Time) error {
	s.state = StateFinished
	clear(s.pending)
	s.record.FinishedAt = now
	if s.persisted || s.opts.Sink == nil {
		return nil
	}
	s.persisted = true

	if err := s.opts.Sink.Save(ctx, s.record); err != nil {
		s.saveErr = err
		s.log.Error("Failed to persist session", zap.String("session_id", s.record.SessionID), zap.Error(err))
		return fmt.Errorf("failed to persist session: %w", err)
	}
	s.log.Info("Session persisted", zap.String("session_id", s.record.SessionID))
	return nil
}

// SetHeartRateAfter stores the post-session heart rate. It only has an effect
// before the record is persisted.
func (s *Session) SetHeartRateAfter(bpm int) {
	if s.record == nil || s.persisted {
		return
	}
	s.record.Profile.HeartRateAfter = bpm
}

// Acknowledge reports whether the session may be closed.
func (s *Session) Acknowledge() bool {
	return s.state == StateFinished
}

func (s *Session) State() State           { return s.state }
func (s *Session) Level() int             { return s.level }
func (s *Session) TimeLeft() int          { return s.timeLeft }
func (s *Session) Position() models.Point { return s.position }
func (s *Session) SaveErr() error         { return s.saveErr }

// Record is the accumulated session data; nil before Start.
func (s *Session) Record() *models.SessionRecord {
	return s.record
}

// Path returns the current level's waypoints.
func (s *Session) Path() []models.Point {
	if s.level == 0 {
		return nil
	}
	return s.opts.Levels.Level(s.level).Waypoints
}

// VisibleTarget returns the stimulus on screen, if any.
func (s *Session) VisibleTarget() (models.StimulusTarget, bool) {
	if s.state != StatePlaying {
		return models.StimulusTarget{}, false
	}
	return s.visual.Visible()
}

// ActiveBonus returns the bonus on screen, if any.
func (s *Session) ActiveBonus() (Bonus, bool) {
	if s.state != StatePlaying {
		return Bonus{}, false
	}
	return s.bonus.Active()
}

// BipActive reports whether a bip is currently sounding.
func (s *Session) BipActive() bool {
	return s.state == StatePlaying && s.bips.Active()
}

// Rating returns the pending value of dim for the current evaluation form.
func (s *Session) Rating(dim Dimension) (int, bool) {
	v, ok := s.pending[dim]
	return v, ok
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
