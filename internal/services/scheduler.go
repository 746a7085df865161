package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler re-runs the analysis when the data directory changes.
type Scheduler struct {
	log      *zap.Logger
	analysis *AnalysisService
	interval time.Duration
}

func NewScheduler(log *zap.Logger, analysis *AnalysisService, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		log:      log,
		analysis: analysis,
		interval: interval,
	}
}

// Run checks the data directory on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("Starting analysis scheduler...", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Analysis scheduler stopped")
			return nil
		case <-ticker.C:
			s.runRefreshCheck(ctx)
		}
	}
}

func (s *Scheduler) runRefreshCheck(ctx context.Context) {
	conf := s.analysis.settings()
	state, err := ReadDirState(conf.DataDir)
	if err != nil {
		s.log.Error("Failed to read data directory", zap.String("dir", conf.DataDir), zap.Error(err))
		return
	}

	if last := s.analysis.Latest(); last != nil && last.DataState.Files == state.Files && last.DataState.ModTime.Equal(state.ModTime) {
		s.log.Debug("Data directory unchanged", zap.Int("files", state.Files))
		return
	}

	if _, err := s.analysis.Run(ctx); err != nil {
		s.log.Error("Scheduled analysis failed", zap.Error(err))
	}
}
