package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pulsepath-go/internal/charts"
	"pulsepath-go/internal/config"
	"pulsepath-go/internal/models"
	"pulsepath-go/internal/repository"
)

func saveSession(t *testing.T, dir, id string, cond models.Condition, start time.Time) {
	t.Helper()
	rec := &models.SessionRecord{
		SessionID: "session-" + id,
		Profile: models.ParticipantProfile{
			ID: id, Age: 25, Gender: models.GenderMale, Condition: cond,
			HeartRateBefore: 70, HeartRateAfter: 75,
		},
		Responses: []models.ResponseSample{
			{Level: 1, Source: models.SourceStimulus, Seconds: 0.5},
			{Level: 2, Source: models.SourceBonus, Seconds: 0.7},
		},
		Evaluations: []models.LevelEvaluation{
			{Level: 1, Performance: 3, Stress: 2, Certitude: 1, AvgResponseTime: 0.5},
			{Level: 2, Performance: 4, Stress: 3, Certitude: 2, AvgResponseTime: 0.7},
			{Level: 3, Performance: 2, Stress: 4, Certitude: 3},
		},
		BipTimes:   []float64{0.8, 1.6},
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Minute),
	}
	require.NoError(t, repository.NewFileStore(dir, zap.NewNop()).Save(context.Background(), rec))
}

func testConfig(t *testing.T) config.AnalysisConfig {
	root := t.TempDir()
	conf := config.AnalysisConfig{
		DataDir:         filepath.Join(root, "data"),
		OutputDir:       filepath.Join(root, "figures"),
		ReportFile:      "analysis_report.txt",
		MinParticipants: 20,
	}
	require.NoError(t, os.MkdirAll(conf.DataDir, 0o755))
	return conf
}

func TestAnalysisServiceRun(t *testing.T) {
	conf := testConfig(t)
	start := time.Date(2024, 4, 1, 9, 0, 0, 0, time.Local)
	for i, c := range models.Conditions {
		saveSession(t, conf.DataDir, fmt.Sprintf("P%d", i), c, start.Add(time.Duration(i)*time.Hour))
	}
	require.NoError(t, os.WriteFile(filepath.Join(conf.DataDir, "broken.json"), []byte("{"), 0o600))

	svc := NewAnalysisService(conf, zap.NewNop())
	assert.Nil(t, svc.Latest())

	snap, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, svc.Latest())

	assert.Equal(t, 3, snap.Report.Participants)
	assert.Equal(t, 9, snap.Report.Rows)
	assert.Len(t, snap.Report.Issues, 3, "every condition is below 20 participants")
	require.Len(t, snap.Report.Skipped, 1)
	assert.Contains(t, snap.Report.Skipped[0], "broken.json: ")
	assert.Equal(t, 4, snap.DataState.Files)

	require.Len(t, snap.Sessions, 3)
	assert.Equal(t, "P0", snap.Sessions[0].ParticipantID)
	assert.Equal(t, 5, snap.Sessions[0].HeartRateChange)
	assert.True(t, snap.Sessions[0].SampleDetail)
	assert.Equal(t, 1, snap.Sessions[0].StimulusHits)
	assert.Equal(t, 1, snap.Sessions[0].BonusHits)
	require.Len(t, snap.Sessions[0].Levels, 3)
	assert.Equal(t, 1, snap.Sessions[0].Levels[0].Samples)
	assert.Zero(t, snap.Sessions[0].Levels[2].Samples)

	assert.Equal(t, filepath.Join(conf.OutputDir, "analysis_report.txt"), snap.ReportPath)
	report, err := os.ReadFile(snap.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), "Total participants: 3")

	assert.Len(t, snap.Charts, 3)
	assert.FileExists(t, filepath.Join(conf.OutputDir, charts.HeartRateFile))
}

func TestAnalysisServiceConcurrentRuns(t *testing.T) {
	conf := testConfig(t)
	start := time.Date(2024, 4, 1, 9, 0, 0, 0, time.Local)
	for i, c := range models.Conditions {
		saveSession(t, conf.DataDir, fmt.Sprintf("P%d", i), c, start.Add(time.Duration(i)*time.Hour))
	}
	svc := NewAnalysisService(conf, zap.NewNop())

	var g errgroup.Group
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			_, err := svc.Run(context.Background())
			return err
		})
	}
	require.NoError(t, g.Wait())

	state, err := ReadDirState(conf.DataDir)
	require.NoError(t, err)
	latest := svc.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, state, latest.DataState)
	assert.Equal(t, 3, latest.Report.Participants)

	report, err := os.ReadFile(latest.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(report), "Total participants: 3"), "report written by one run at a time")
	for _, name := range []string{charts.ResponseTimesFile, charts.RatingsFile, charts.HeartRateFile} {
		html, err := os.ReadFile(filepath.Join(conf.OutputDir, name))
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(string(html), "</html>"), name)
	}
}

func TestAnalysisServiceMissingDir(t *testing.T) {
	conf := testConfig(t)
	conf.DataDir = filepath.Join(conf.DataDir, "missing")
	_, err := NewAnalysisService(conf, zap.NewNop()).Run(context.Background())
	assert.Error(t, err)
}

func TestReadDirState(t *testing.T) {
	dir := t.TempDir()
	st, err := ReadDirState(dir)
	require.NoError(t, err)
	assert.Zero(t, st.Files)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o600))
	st, err = ReadDirState(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Files)
	assert.False(t, st.ModTime.IsZero())
}

func TestSchedulerRefreshesOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	conf := testConfig(t)
	saveSession(t, conf.DataDir, "P1", models.ConditionSync, time.Date(2024, 4, 1, 9, 0, 0, 0, time.Local))
	svc := NewAnalysisService(conf, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewScheduler(zap.NewNop(), svc, 10*time.Millisecond).Run(ctx) }()

	require.Eventually(t, func() bool { return svc.Latest() != nil }, 2*time.Second, 5*time.Millisecond)
	first := svc.Latest()
	assert.Equal(t, 1, first.Report.Participants)

	saveSession(t, conf.DataDir, "P2", models.ConditionAsync, time.Date(2024, 4, 1, 10, 0, 0, 0, time.Local))
	require.Eventually(t, func() bool {
		return svc.Latest().Report.Participants == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerSkipsUnchangedDir(t *testing.T) {
	conf := testConfig(t)
	saveSession(t, conf.DataDir, "P1", models.ConditionSync, time.Date(2024, 4, 1, 9, 0, 0, 0, time.Local))
	svc := NewAnalysisService(conf, zap.NewNop())
	first, err := svc.Run(context.Background())
	require.NoError(t, err)

	s := NewScheduler(zap.NewNop(), svc, time.Minute)
	s.runRefreshCheck(context.Background())
	assert.Same(t, first, svc.Latest())
}
