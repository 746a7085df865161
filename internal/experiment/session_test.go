package experiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsepath-go/internal/models"
)

type recordingSink struct {
	saved []*models.SessionRecord
	err   error
}

func (s *recordingSink) Save(_ context.Context, rec *models.SessionRecord) error {
	s.saved = append(s.saved, rec)
	return s.err
}

func testLevels(t *testing.T) *models.LevelSet {
	t.Helper()
	set, err := models.LoadLevels("", 800, 600)
	require.NoError(t, err)
	return set
}

func testProfile(cond models.Condition, hr int) models.ParticipantProfile {
	return models.ParticipantProfile{
		ID:              "P01",
		Age:             27,
		Gender:          models.GenderFemale,
		Condition:       cond,
		HeartRateBefore: hr,
	}
}

// newTestSession never spawns bonuses unless r says otherwise.
func newTestSession(t *testing.T, sink Sink, r Rand) *Session {
	t.Helper()
	if r == nil {
		r = &fixedRand{f: 0.99}
	}
	return NewSession(Options{
		Levels: testLevels(t),
		Sink:   sink,
		Rand:   r,
		NewID:  func() string { return "session-1" },
	})
}

func rateAll(t *testing.T, s *Session, now time.Time, perf, stress, cert int) error {
	t.Helper()
	require.NoError(t, s.Rate(context.Background(), Performance, perf, now))
	require.NoError(t, s.Rate(context.Background(), Stress, stress, now))
	return s.Rate(context.Background(), Certitude, cert, now)
}

func TestValidateProfile(t *testing.T) {
	err := ValidateProfile(testProfile(models.ConditionAsync, 100))
	require.ErrorIs(t, err, ErrInvalidProfile)
	assert.Contains(t, err.Error(), "100 bpm")

	for _, hr := range []int{99, 101} {
		assert.NoError(t, ValidateProfile(testProfile(models.ConditionAsync, hr)), "hr %d", hr)
	}
	assert.NoError(t, ValidateProfile(testProfile(models.ConditionSync, 100)))

	err = ValidateProfile(models.ParticipantProfile{})
	require.ErrorIs(t, err, ErrInvalidProfile)
	for _, want := range []string{"participant id", "age", "gender", "condition", "heart rate before"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestStartGuards(t *testing.T) {
	t0 := time.Unix(1000, 0)
	s := newTestSession(t, nil, nil)

	require.ErrorIs(t, s.Start(testProfile(models.ConditionAsync, 100), t0), ErrInvalidProfile)
	assert.Equal(t, StateSetup, s.State())

	require.NoError(t, s.Start(testProfile(models.ConditionAsync, 101), t0))
	assert.Equal(t, StatePlaying, s.State())
	assert.Equal(t, 1, s.Level())
	assert.Equal(t, 60, s.TimeLeft())
	assert.Equal(t, s.Path()[0], s.Position())
	assert.Equal(t, "session-1", s.Record().SessionID)

	assert.ErrorIs(t, s.Start(testProfile(models.ConditionSync, 70), t0), ErrWrongState)
}

func TestNavigationCommandErrors(t *testing.T) {
	t0 := time.Unix(1000, 0)
	s := newTestSession(t, nil, nil)
	require.NoError(t, s.Start(testProfile(models.ConditionSync, 70), t0))

	// first waypoint is the top-left end of the path
	assert.False(t, s.Navigate(Up))
	assert.Equal(t, 1, s.Record().CommandErrors)
	assert.Equal(t, models.Point{X: 160, Y: 140}, s.Position())

	require.True(t, s.Navigate(Right))
	require.True(t, s.Navigate(Down))
	at := s.Position()
	assert.Equal(t, models.Point{X: 360, Y: 340}, at)

	// nothing connects to the left of the corner
	assert.False(t, s.Navigate(Left))
	assert.Equal(t, 2, s.Record().CommandErrors)
	assert.Equal(t, at, s.Position())
}

func TestLevelTimerAndEvaluation(t *testing.T) {
	t0 := time.Unix(1000, 0)
	s := newTestSession(t, nil, nil)
	require.NoError(t, s.Start(testProfile(models.ConditionSync, 75), t0))

	s.Update(t0.Add(59500 * time.Millisecond))
	assert.Equal(t, StatePlaying, s.State())
	assert.Equal(t, 1, s.TimeLeft())

	err := s.Rate(context.Background(), Performance, 3, t0)
	require.ErrorIs(t, err, ErrWrongState)

	s.Update(t0.Add(60 * time.Second))
	require.Equal(t, StateEvaluation, s.State())
	assert.Equal(t, 0, s.TimeLeft())

	// navigation no longer counts once the level is over
	assert.False(t, s.Navigate(Up))
	assert.Zero(t, s.Record().CommandErrors)

	evalAt := t0.Add(70 * time.Second)
	require.ErrorIs(t, s.Rate(context.Background(), Certitude, 4, evalAt), ErrRatingOutOfRange)
	require.ErrorIs(t, s.Rate(context.Background(), Stress, 0, evalAt), ErrRatingOutOfRange)

	// a rating can be changed until the form is complete
	require.NoError(t, s.Rate(context.Background(), Performance, 5, evalAt))
	require.NoError(t, s.Rate(context.Background(), Performance, 3, evalAt))
	v, ok := s.Rating(Performance)
	require.True(t, ok)
	assert.Equal(t, 3, v)

	require.NoError(t, s.Rate(context.Background(), Stress, 2, evalAt))
	assert.Equal(t, StateEvaluation, s.State())
	require.NoError(t, s.Rate(context.Background(), Certitude, 1, evalAt))

	assert.Equal(t, StatePlaying, s.State())
	assert.Equal(t, 2, s.Level())
	require.Len(t, s.Record().Evaluations, 1)
	assert.Equal(t, models.LevelEvaluation{Level: 1, Performance: 3, Stress: 2, Certitude: 1}, s.Record().Evaluations[0])
	assert.Equal(t, s.Path()[0], s.Position())

	_, pending := s.Rating(Performance)
	assert.False(t, pending)

	// the new level timer starts at the evaluation time
	s.Update(evalAt.Add(30 * time.Second))
	assert.Equal(t, 30, s.TimeLeft())
}

func TestFullSessionPersistsOnce(t *testing.T) {
	t0 := time.Unix(1000, 0)
	sink := &recordingSink{}
	s := newTestSession(t, sink, nil)
	require.NoError(t, s.Start(testProfile(models.ConditionRandom, 80), t0))

	now := t0
	for level := 1; level <= 3; level++ {
		require.Equal(t, level, s.Level())
		now = now.Add(61 * time.Second)
		s.Update(now)
		require.Equal(t, StateEvaluation, s.State())
		if level == 3 {
			s.SetHeartRateAfter(92)
		}
		require.NoError(t, rateAll(t, s, now, 4, 3, 2))
	}

	require.Equal(t, StateFinished, s.State())
	assert.True(t, s.Acknowledge())
	require.Len(t, sink.saved, 1)

	rec := sink.saved[0]
	assert.Equal(t, 92, rec.Profile.HeartRateAfter)
	assert.Equal(t, now, rec.FinishedAt)
	require.Len(t, rec.Evaluations, 3)
	for i, ev := range rec.Evaluations {
		assert.Equal(t, i+1, ev.Level)
	}

	// finished is terminal
	s.SetHeartRateAfter(50)
	assert.Equal(t, 92, rec.Profile.HeartRateAfter)
	assert.ErrorIs(t, s.Rate(context.Background(), Performance, 1, now), ErrWrongState)
	assert.Len(t, sink.saved, 1)
}

func TestSinkErrorIsReported(t *testing.T) {
	t0 := time.Unix(1000, 0)
	sink := &recordingSink{err: errors.New("disk full")}
	s := NewSession(Options{
		Levels:        singleLevel(t),
		LevelDuration: 2 * time.Second,
		Sink:          sink,
		Rand:          &fixedRand{f: 0.99},
	})
	require.NoError(t, s.Start(testProfile(models.ConditionSync, 60), t0))
	s.Update(t0.Add(2 * time.Second))

	err := rateAll(t, s, t0.Add(3*time.Second), 1, 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.ErrorContains(t, s.SaveErr(), "disk full")
	assert.Equal(t, StateFinished, s.State())
	assert.Len(t, sink.saved, 1)
}

func singleLevel(t *testing.T) *models.LevelSet {
	t.Helper()
	set := testLevels(t)
	return &models.LevelSet{Levels: set.Levels[:1]}
}

func TestStimulusClicks(t *testing.T) {
	t0 := time.Unix(1000, 0)
	s := newTestSession(t, nil, nil)
	require.NoError(t, s.Start(testProfile(models.ConditionSync, 60), t0))

	// a click with nothing on screen changes nothing
	s.Click(models.Point{X: 10, Y: 10}, t0.Add(500*time.Millisecond))
	assert.Zero(t, s.Record().MissedBonus)

	shownAt := t0.Add(1001 * time.Millisecond)
	s.Update(shownAt)
	tgt, ok := s.VisibleTarget()
	require.True(t, ok)
	assert.Equal(t, "image1", tgt.Image)

	s.Click(models.Point{X: 10, Y: 10}, shownAt.Add(100*time.Millisecond))
	assert.Equal(t, 1, s.Record().MissedBonus)

	s.Click(models.Point{X: tgt.Position.X + 10, Y: tgt.Position.Y + 10}, shownAt.Add(400*time.Millisecond))
	require.Len(t, s.Record().Responses, 1)
	sample := s.Record().Responses[0]
	assert.Equal(t, models.SourceStimulus, sample.Source)
	assert.Equal(t, 1, sample.Level)
	assert.InDelta(t, 0.4, sample.Seconds, 1e-9)

	_, ok = s.VisibleTarget()
	assert.False(t, ok)
}

func TestBonusLifecycle(t *testing.T) {
	t0 := time.Unix(1000, 0)
	s := newTestSession(t, nil, &fixedRand{f: 0, i: 0})
	require.NoError(t, s.Start(testProfile(models.ConditionSync, 60), t0))

	s.Update(t0.Add(100 * time.Millisecond))
	b, ok := s.ActiveBonus()
	require.True(t, ok)
	assert.Equal(t, s.Path()[0], b.Position)

	s.Click(models.Point{X: b.Position.X + 14, Y: b.Position.Y - 15}, t0.Add(600*time.Millisecond))
	require.Len(t, s.Record().Responses, 1)
	assert.Equal(t, models.SourceBonus, s.Record().Responses[0].Source)
	assert.InDelta(t, 0.5, s.Record().Responses[0].Seconds, 1e-9)

	// the same waypoint is too close to the last spawn, so nothing comes back
	s.Update(t0.Add(700 * time.Millisecond))
	_, ok = s.ActiveBonus()
	assert.False(t, ok)
}

func TestBonusExpiryCountsAsMissed(t *testing.T) {
	t0 := time.Unix(1000, 0)
	r := &fixedRand{f: 0, i: 2}
	s := newTestSession(t, nil, r)
	require.NoError(t, s.Start(testProfile(models.ConditionSync, 60), t0))

	s.Update(t0.Add(100 * time.Millisecond))
	_, ok := s.ActiveBonus()
	require.True(t, ok)

	s.Update(t0.Add(5100 * time.Millisecond))
	_, ok = s.ActiveBonus()
	require.True(t, ok, "expiry needs strictly more than five seconds")

	s.Update(t0.Add(5200 * time.Millisecond))
	assert.Equal(t, 1, s.Record().MissedBonus)
	_, ok = s.ActiveBonus()
	assert.False(t, ok)
}

func TestBonusDiscardedAtTimeUp(t *testing.T) {
	t0 := time.Unix(1000, 0)
	s := newTestSession(t, nil, &fixedRand{f: 0})
	require.NoError(t, s.Start(testProfile(models.ConditionSync, 60), t0))

	s.Update(t0.Add(58 * time.Second))
	_, ok := s.ActiveBonus()
	require.True(t, ok)

	s.Update(t0.Add(60 * time.Second))
	assert.Equal(t, StateEvaluation, s.State())
	assert.Zero(t, s.Record().MissedBonus)
}

func TestBipTimesRelativeToSessionStart(t *testing.T) {
	t0 := time.Unix(1000, 0)
	spk := &countingSpeaker{}
	s := NewSession(Options{
		Levels:  testLevels(t),
		Speaker: spk,
		Rand:    &fixedRand{f: 0.99},
	})
	require.NoError(t, s.Start(testProfile(models.ConditionSync, 60), t0))

	for ms := 0; ms <= 2100; ms += 100 {
		s.Update(t0.Add(time.Duration(ms) * time.Millisecond))
	}
	require.Len(t, s.Record().BipTimes, 2)
	assert.InDelta(t, 1.0, s.Record().BipTimes[0], 1e-9)
	assert.InDelta(t, 2.0, s.Record().BipTimes[1], 1e-9)
	assert.Equal(t, 2, spk.n)
	assert.Zero(t, s.Record().MissedBips)
}

func TestAvgResponseTimePerLevel(t *testing.T) {
	t0 := time.Unix(1000, 0)
	s := newTestSession(t, nil, nil)
	require.NoError(t, s.Start(testProfile(models.ConditionSync, 60), t0))

	s.Update(t0.Add(1001 * time.Millisecond))
	tgt, ok := s.VisibleTarget()
	require.True(t, ok)
	s.Click(models.Point{X: tgt.Position.X + 1, Y: tgt.Position.Y + 1}, t0.Add(1201*time.Millisecond))

	// the next toggle shows the following target
	s.Update(t0.Add(2002 * time.Millisecond))
	tgt, ok = s.VisibleTarget()
	require.True(t, ok)
	assert.Equal(t, "image2", tgt.Image)
	s.Click(models.Point{X: tgt.Position.X + 1, Y: tgt.Position.Y + 1}, t0.Add(2402*time.Millisecond))

	end := t0.Add(60 * time.Second)
	s.Update(end)
	require.NoError(t, rateAll(t, s, end, 2, 2, 2))
	require.Len(t, s.Record().Evaluations, 1)
	assert.InDelta(t, 0.3, s.Record().Evaluations[0].AvgResponseTime, 1e-9)
}
