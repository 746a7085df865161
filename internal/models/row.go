package models

// LevelRow is one (participant, level) observation as consumed by the analyzer.
type LevelRow struct {
	ParticipantID   string    `json:"participant_id"`
	Age             int       `json:"age"`
	Gender          Gender    `json:"gender"`
	Condition       Condition `json:"condition"`
	HeartRateBefore int       `json:"heart_rate_before"`
	HeartRateAfter  int       `json:"heart_rate_after"`
	Level           int       `json:"level"`
	AvgResponseTime float64   `json:"avg_response_time"`
	MissedBonus     int       `json:"missed_bonus"`
	CommandErrors   int       `json:"command_errors"`
	PerformanceEval int       `json:"performance_eval"`
	StressEval      int       `json:"stress_eval"`
	CertitudeEval   int       `json:"certitude_eval"`
}

// HeartRateChange is after minus before.
func (r LevelRow) HeartRateChange() int {
	return r.HeartRateAfter - r.HeartRateBefore
}
