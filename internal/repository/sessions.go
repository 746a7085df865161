package repository

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"pulsepath-go/internal/metrics"
	"pulsepath-go/internal/models"
)

// SessionSaver persists a finished session record.
type SessionSaver interface {
	Save(ctx context.Context, rec *models.SessionRecord) error
}

var csvHeader = []string{
	"participant_id", "age", "gender", "condition",
	"heart_rate_before", "heart_rate_after",
	"average_response_time", "missed_bonus", "command_errors",
}

// FileStore writes one JSON document and one CSV summary per session.
type FileStore struct {
	dir string
	log *zap.Logger
}

func NewFileStore(dir string, log *zap.Logger) *FileStore {
	return &FileStore{dir: dir, log: log}
}

// SessionFileStem is the shared name of a session's JSON and CSV files.
func SessionFileStem(participantID, timestamp string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, participantID)
	return fmt.Sprintf("participant_%s_%s", safe, timestamp)
}

// Save implements SessionSaver.
func (s *FileStore) Save(ctx context.Context, rec *models.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	doc := metrics.BuildSessionFile(rec)
	stem := filepath.Join(s.dir, SessionFileStem(rec.Profile.ID, doc.Timestamp))

	if err := writeJSON(stem+".json", doc); err != nil {
		return err
	}
	if err := writeCSV(stem+".csv", doc); err != nil {
		return err
	}
	s.log.Info("Session saved", zap.String("file", stem+".json"), zap.String("session_id", rec.SessionID))
	return nil
}

func writeJSON(path string, doc *models.SessionFile) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func writeCSV(path string, doc *models.SessionFile) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create session csv: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	p := doc.ParticipantInfo
	w := csv.NewWriter(f)
	rows := [][]string{csvHeader, {
		p.ID,
		strconv.Itoa(p.Age),
		string(p.Gender),
		string(p.Condition),
		strconv.Itoa(p.HeartRateBefore),
		strconv.Itoa(p.HeartRateAfter),
		strconv.FormatFloat(doc.PerformanceData.AverageResponseTime, 'f', -1, 64),
		strconv.Itoa(doc.PerformanceData.MissedBonus),
		strconv.Itoa(doc.PerformanceData.CommandErrors),
	}}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write session csv: %w", err)
	}
	return nil
}

// MultiSaver fans a record out to several savers. Every saver is tried; the
// errors are joined.
type MultiSaver []SessionSaver

func (m MultiSaver) Save(ctx context.Context, rec *models.SessionRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
