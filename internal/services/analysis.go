package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"pulsepath-go/internal/analysis"
	"pulsepath-go/internal/charts"
	"pulsepath-go/internal/config"
	"pulsepath-go/internal/metrics"
	"pulsepath-go/internal/repository"
)

// Snapshot is the result of one analysis run.
type Snapshot struct {
	Report     *analysis.Report          `json:"report"`
	Sessions   []*metrics.SessionSummary `json:"sessions"`
	ReportPath string                    `json:"report_path"`
	Charts     []string                  `json:"charts"`
	DataState  DirState                  `json:"data_state"`
}

// DirState is a cheap fingerprint of the data directory.
type DirState struct {
	Files   int       `json:"files"`
	ModTime time.Time `json:"mod_time"`
}

// ReadDirState fingerprints the *.json files in dir.
func ReadDirState(dir string) (DirState, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return DirState{}, err
	}
	var st DirState
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		st.Files++
		if info.ModTime().After(st.ModTime) {
			st.ModTime = info.ModTime()
		}
	}
	return st, nil
}

// AnalysisService runs the batch pipeline and keeps the latest snapshot.
// Runs are serialized: they share the output files.
type AnalysisService struct {
	log *zap.Logger
	now func() time.Time

	runMu sync.Mutex

	mu     sync.RWMutex
	conf   config.AnalysisConfig
	latest *Snapshot
}

func NewAnalysisService(conf config.AnalysisConfig, log *zap.Logger) *AnalysisService {
	return &AnalysisService{log: log, conf: conf, now: time.Now}
}

// Configure swaps the analysis settings used by the next run.
func (s *AnalysisService) Configure(conf config.AnalysisConfig) {
	s.mu.Lock()
	s.conf = conf
	s.mu.Unlock()
}

func (s *AnalysisService) settings() config.AnalysisConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conf
}

// Latest returns the most recent snapshot, or nil before the first run.
func (s *AnalysisService) Latest() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Run loads the data directory, analyses it, writes the text report and the
// charts, and publishes the snapshot. A call made while another run is in
// progress waits for it to finish.
func (s *AnalysisService) Run(ctx context.Context) (*Snapshot, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	conf := s.settings()

	state, err := ReadDirState(conf.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	loaded, err := repository.LoadSessions(conf.DataDir, s.log)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := analysis.NewAnalyzer(s.log, conf.MinParticipants).Analyze(loaded.Rows, s.now())
	for _, sk := range loaded.Skipped {
		rep.Skipped = append(rep.Skipped, fmt.Sprintf("%s: %s", sk.File, sk.Reason))
	}
	for _, issue := range rep.Issues {
		s.log.Warn("Data validation issue", zap.String("issue", issue))
	}

	snap := &Snapshot{
		Report:    rep,
		Sessions:  make([]*metrics.SessionSummary, 0, len(loaded.Sessions)),
		DataState: state,
	}
	for _, ls := range loaded.Sessions {
		snap.Sessions = append(snap.Sessions, metrics.Summarize(repository.RecordFromFile(ls.Doc)))
	}

	if err := os.MkdirAll(conf.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	snap.ReportPath = reportPath(conf)
	if err := writeReport(snap.ReportPath, rep); err != nil {
		return nil, err
	}
	snap.Charts, err = charts.WriteAll(conf.OutputDir, loaded.Rows, rep, s.log)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()

	s.log.Info("Analysis complete",
		zap.Int("participants", rep.Participants),
		zap.Int("issues", len(rep.Issues)),
		zap.Int("skipped", len(rep.Skipped)),
		zap.String("report", snap.ReportPath))
	return snap, nil
}

func reportPath(conf config.AnalysisConfig) string {
	if filepath.IsAbs(conf.ReportFile) {
		return conf.ReportFile
	}
	return filepath.Join(conf.OutputDir, conf.ReportFile)
}

func writeReport(path string, rep *analysis.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := rep.Render(f); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
