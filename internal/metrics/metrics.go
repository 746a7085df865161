package metrics

import (
	"pulsepath-go/internal/models"
)

// LevelSummary holds the per-level figures of one session.
type LevelSummary struct {
	Level           int     `json:"level"`
	Samples         int     `json:"samples,omitempty"`
	AvgResponseTime float64 `json:"avgResponseTime"`
	ResponseTimeSD  float64 `json:"responseTimeSD"`
}

// SessionSummary is the processed view of a finished session. When
// SampleDetail is false the samples carry no level or source, so the hit
// counts and per-level sample counts are left out.
type SessionSummary struct {
	SessionID           string         `json:"sessionId"`
	ParticipantID       string         `json:"participantId"`
	Condition           string         `json:"condition"`
	AverageResponseTime float64        `json:"averageResponseTime"`
	ResponseTimeSD      float64        `json:"responseTimeSD"`
	HitRate             float64        `json:"hitRate"`
	SampleDetail        bool           `json:"sampleDetail"`
	StimulusHits        int            `json:"stimulusHits,omitempty"`
	BonusHits           int            `json:"bonusHits,omitempty"`
	MissedBonus         int            `json:"missedBonus"`
	CommandErrors       int            `json:"commandErrors"`
	TotalBips           int            `json:"totalBips"`
	MeanBipInterval     float64        `json:"meanBipInterval"`
	HeartRateChange     int            `json:"heartRateChange"`
	Levels              []LevelSummary `json:"levels"`
}

// Summarize computes the session summary from the raw record.
func Summarize(rec *models.SessionRecord) *SessionSummary {
	all := rec.ResponseTimes()
	out := &SessionSummary{
		SessionID:           rec.SessionID,
		ParticipantID:       rec.Profile.ID,
		Condition:           string(rec.Profile.Condition),
		AverageResponseTime: CalculateAverageResponseTime(all),
		ResponseTimeSD:      CalculateResponseTimeSD(all),
		HitRate:             CalculateHitRate(rec),
		SampleDetail:        hasSampleDetail(rec),
		MissedBonus:         rec.MissedBonus,
		CommandErrors:       rec.CommandErrors,
		TotalBips:           len(rec.BipTimes),
		MeanBipInterval:     CalculateMeanBipInterval(rec.BipTimes),
		Levels:              []LevelSummary{},
	}
	if rec.Profile.HeartRateAfter > 0 {
		out.HeartRateChange = rec.Profile.HeartRateAfter - rec.Profile.HeartRateBefore
	}

	if out.SampleDetail {
		out.StimulusHits = CountResponses(rec, models.SourceStimulus)
		out.BonusHits = CountResponses(rec, models.SourceBonus)
	}

	for _, ev := range rec.Evaluations {
		lvl := LevelSummary{Level: ev.Level, AvgResponseTime: ev.AvgResponseTime}
		if out.SampleDetail {
			samples := rec.LevelResponseTimes(ev.Level)
			lvl.Samples = len(samples)
			lvl.ResponseTimeSD = CalculateResponseTimeSD(samples)
		}
		out.Levels = append(out.Levels, lvl)
	}
	return out
}

// hasSampleDetail reports whether every sample knows its level and source.
func hasSampleDetail(rec *models.SessionRecord) bool {
	for _, s := range rec.Responses {
		if s.Level == 0 || s.Source == "" {
			return false
		}
	}
	return true
}

// BuildSessionFile converts a record to its on-disk JSON document.
func BuildSessionFile(rec *models.SessionRecord) *models.SessionFile {
	times := rec.ResponseTimes()
	if times == nil {
		times = []float64{}
	}
	samples := rec.Responses
	if samples == nil {
		samples = []models.ResponseSample{}
	}
	bips := rec.BipTimes
	if bips == nil {
		bips = []float64{}
	}
	evals := rec.Evaluations
	if evals == nil {
		evals = []models.LevelEvaluation{}
	}

	stamp := rec.FinishedAt
	if stamp.IsZero() {
		stamp = rec.StartedAt
	}

	return &models.SessionFile{
		SessionID:       rec.SessionID,
		ParticipantInfo: rec.Profile,
		PerformanceData: models.PerformanceData{
			ResponseTimes:       times,
			ResponseSamples:     samples,
			AverageResponseTime: CalculateAverageResponseTime(times),
			MissedBonus:         rec.MissedBonus,
			CommandErrors:       rec.CommandErrors,
		},
		Evaluations: evals,
		Timestamp:   stamp.Format(models.TimestampLayout),
		BipData: models.BipData{
			Condition:  rec.Profile.Condition,
			HeartRate:  rec.Profile.HeartRateBefore,
			TotalBips:  len(bips),
			MissedBips: rec.MissedBips,
			BipTimes:   bips,
		},
	}
}
