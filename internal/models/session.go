package models

import "time"

// TimestampLayout is the layout used in session file names and the
// "timestamp" field.
const TimestampLayout = "2006-01-02_15-04-05"

// Rating bounds for the post-level form.
const (
	MinRating      = 1
	MaxPerformance = 5
	MaxStress      = 5
	MaxCertitude   = 3
)

// ResponseSource tells which kind of target produced a response-time sample.
type ResponseSource string

const (
	SourceBonus    ResponseSource = "bonus"
	SourceStimulus ResponseSource = "stimulus"
)

// ResponseSample is one reaction time, in seconds.
type ResponseSample struct {
	Level   int            `json:"level"`
	Source  ResponseSource `json:"source"`
	Seconds float64        `json:"seconds"`
}

// LevelEvaluation is the post-level self assessment.
type LevelEvaluation struct {
	Level           int     `json:"level"`
	Performance     int     `json:"performance"`
	Stress          int     `json:"stress"`
	Certitude       int     `json:"certitude"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

// SessionRecord accumulates everything measured during one participant run.
type SessionRecord struct {
	SessionID     string
	Profile       ParticipantProfile
	Responses     []ResponseSample
	MissedBonus   int
	CommandErrors int
	Evaluations   []LevelEvaluation
	BipTimes      []float64 // seconds since StartedAt
	MissedBips    int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// ResponseTimes returns the bare sample values in recording order.
func (r *SessionRecord) ResponseTimes() []float64 {
	out := make([]float64, len(r.Responses))
	for i, s := range r.Responses {
		out[i] = s.Seconds
	}
	return out
}

// LevelResponseTimes returns the samples recorded during level n.
func (r *SessionRecord) LevelResponseTimes(n int) []float64 {
	var out []float64
	for _, s := range r.Responses {
		if s.Level == n {
			out = append(out, s.Seconds)
		}
	}
	return out
}

// --- Wire format of the session JSON file ---

// PerformanceData is the "performance_data" object. ResponseSamples repeats
// ResponseTimes with level and source; files written before it existed
// only carry the bare times.
type PerformanceData struct {
	ResponseTimes       []float64        `json:"response_times"`
	ResponseSamples     []ResponseSample `json:"response_samples"`
	AverageResponseTime float64          `json:"average_response_time"`
	MissedBonus         int              `json:"missed_bonus"`
	CommandErrors       int              `json:"command_errors"`
}

// BipData is the "bip_data" object.
type BipData struct {
	Condition  Condition `json:"condition"`
	HeartRate  int       `json:"heart_rate"`
	TotalBips  int       `json:"total_bips"`
	MissedBips int       `json:"missed_bips"`
	BipTimes   []float64 `json:"bip_times"`
}

// SessionFile is the JSON document written once per participant run.
type SessionFile struct {
	SessionID       string             `json:"session_id,omitempty"`
	ParticipantInfo ParticipantProfile `json:"participant_info"`
	PerformanceData PerformanceData    `json:"performance_data"`
	Evaluations     []LevelEvaluation  `json:"evaluations"`
	Timestamp       string             `json:"timestamp"`
	BipData         BipData            `json:"bip_data"`
}
