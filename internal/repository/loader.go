package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pulsepath-go/internal/models"
)

// ErrMissingKey marks a session document lacking a required field.
var ErrMissingKey = errors.New("missing required key")

var (
	participantKeys = []string{"id", "age", "gender", "condition", "heart_rate_before", "heart_rate_after"}
	performanceKeys = []string{"missed_bonus", "command_errors"}
	evaluationKeys  = []string{"level", "performance", "stress", "certitude", "avg_response_time"}
)

// Skipped names a file, or a single evaluation inside one, left out of the batch.
type Skipped struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// LoadedSession is one parsed session file.
type LoadedSession struct {
	File string              `json:"file"`
	Doc  *models.SessionFile `json:"doc"`
}

// LoadResult is the outcome of reading a data directory.
type LoadResult struct {
	Sessions []LoadedSession   `json:"sessions"`
	Rows     []models.LevelRow `json:"-"`
	Skipped  []Skipped         `json:"skipped"`
}

// LoadSessions parses every *.json file in dir. Bad files are skipped and
// reported; only an unreadable directory is an error.
func LoadSessions(dir string, log *zap.Logger) (*LoadResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	res := &LoadResult{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			res.skip(log, e.Name(), err)
			continue
		}

		doc, evalErrs, err := ParseSessionFile(data)
		if err != nil {
			res.skip(log, e.Name(), err)
			continue
		}
		for _, evalErr := range evalErrs {
			res.skip(log, e.Name(), evalErr)
		}

		res.Sessions = append(res.Sessions, LoadedSession{File: e.Name(), Doc: doc})
		res.Rows = append(res.Rows, Flatten(doc)...)
	}

	log.Info("Session data loaded",
		zap.Int("sessions", len(res.Sessions)),
		zap.Int("rows", len(res.Rows)),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

func (r *LoadResult) skip(log *zap.Logger, file string, err error) {
	log.Warn("Skipping session data", zap.String("file", file), zap.Error(err))
	r.Skipped = append(r.Skipped, Skipped{File: file, Reason: err.Error()})
}

// ParseSessionFile decodes a session document, checking required keys. A bad
// evaluation entry is dropped and returned in evalErrs; anything else wrong
// fails the whole document.
func ParseSessionFile(data []byte) (doc *models.SessionFile, evalErrs []error, err error) {
	top, err := objectWithKeys(data, "session", "participant_info", "performance_data", "evaluations")
	if err != nil {
		return nil, nil, err
	}

	doc = &models.SessionFile{}
	if _, err := objectWithKeys(top["participant_info"], "participant_info", participantKeys...); err != nil {
		return nil, nil, err
	}
	if err := json.Unmarshal(top["participant_info"], &doc.ParticipantInfo); err != nil {
		return nil, nil, fmt.Errorf("participant_info: %w", err)
	}
	if _, err := objectWithKeys(top["performance_data"], "performance_data", performanceKeys...); err != nil {
		return nil, nil, err
	}
	if err := json.Unmarshal(top["performance_data"], &doc.PerformanceData); err != nil {
		return nil, nil, fmt.Errorf("performance_data: %w", err)
	}

	var evals []json.RawMessage
	if err := json.Unmarshal(top["evaluations"], &evals); err != nil {
		return nil, nil, fmt.Errorf("evaluations: %w", err)
	}
	for i, raw := range evals {
		section := fmt.Sprintf("evaluation %d", i+1)
		if _, err := objectWithKeys(raw, section, evaluationKeys...); err != nil {
			evalErrs = append(evalErrs, err)
			continue
		}
		var ev models.LevelEvaluation
		if err := json.Unmarshal(raw, &ev); err != nil {
			evalErrs = append(evalErrs, fmt.Errorf("%s: %w", section, err))
			continue
		}
		doc.Evaluations = append(doc.Evaluations, ev)
	}

	// optional sections
	for key, dst := range map[string]any{
		"session_id": &doc.SessionID,
		"timestamp":  &doc.Timestamp,
		"bip_data":   &doc.BipData,
	} {
		if raw, ok := top[key]; ok {
			if err := json.Unmarshal(raw, dst); err != nil {
				return nil, nil, fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	return doc, evalErrs, nil
}

func objectWithKeys(data []byte, section string, keys ...string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%s: %w", section, err)
	}
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok || string(raw) == "null" {
			return nil, fmt.Errorf("%s: %w %q", section, ErrMissingKey, k)
		}
	}
	return obj, nil
}

// Flatten produces one analyzer row per evaluation.
func Flatten(doc *models.SessionFile) []models.LevelRow {
	p := doc.ParticipantInfo
	rows := make([]models.LevelRow, 0, len(doc.Evaluations))
	for _, ev := range doc.Evaluations {
		rows = append(rows, models.LevelRow{
			ParticipantID:   p.ID,
			Age:             p.Age,
			Gender:          p.Gender,
			Condition:       p.Condition,
			HeartRateBefore: p.HeartRateBefore,
			HeartRateAfter:  p.HeartRateAfter,
			Level:           ev.Level,
			AvgResponseTime: ev.AvgResponseTime,
			MissedBonus:     doc.PerformanceData.MissedBonus,
			CommandErrors:   doc.PerformanceData.CommandErrors,
			PerformanceEval: ev.Performance,
			StressEval:      ev.Stress,
			CertitudeEval:   ev.Certitude,
		})
	}
	return rows
}

// RecordFromFile rebuilds a session record from its JSON document. Samples
// come from response_samples when present; older files only have the bare
// times, and their level and source stay zero. Documents
// without a session id get one derived from participant and timestamp, so
// archiving the same file twice yields the same id.
func RecordFromFile(doc *models.SessionFile) *models.SessionRecord {
	id := doc.SessionID
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(doc.ParticipantInfo.ID+"/"+doc.Timestamp)).String()
	}
	stamp, _ := time.ParseInLocation(models.TimestampLayout, doc.Timestamp, time.Local)

	rec := &models.SessionRecord{
		SessionID:     id,
		Profile:       doc.ParticipantInfo,
		MissedBonus:   doc.PerformanceData.MissedBonus,
		CommandErrors: doc.PerformanceData.CommandErrors,
		Evaluations:   doc.Evaluations,
		BipTimes:      doc.BipData.BipTimes,
		MissedBips:    doc.BipData.MissedBips,
		StartedAt:     stamp,
		FinishedAt:    stamp,
	}
	if samples := doc.PerformanceData.ResponseSamples; len(samples) > 0 {
		rec.Responses = append([]models.ResponseSample(nil), samples...)
		return rec
	}
	for _, s := range doc.PerformanceData.ResponseTimes {
		rec.Responses = append(rec.Responses, models.ResponseSample{Seconds: s})
	}
	return rec
}
