package models

import (
	"encoding/json"
	"time"
)

// SessionResult holds the processed summary of one session in the archive.
type SessionResult struct {
	ID                  int
	SessionID           string `gorm:"uniqueIndex;size:64"`
	ParticipantID       string `gorm:"index"`
	Age                 int
	Gender              string
	Condition           string `gorm:"index"`
	HeartRateBefore     int
	HeartRateAfter      int
	AverageResponseTime float64
	ResponseTimeSD      float64
	HitRate             float64
	MissedBonus         int
	CommandErrors       int
	TotalBips           int
	MissedBips          int
	RawData             json.RawMessage `gorm:"type:jsonb"`
	StartedAt           time.Time
	CreatedAt           time.Time
}

// LevelRating is one post-level evaluation row.
type LevelRating struct {
	ID              int
	ResultID        int `gorm:"index"`
	Level           int
	Performance     int
	Stress          int
	Certitude       int
	AvgResponseTime float64
}

// ResponseEvent is a single response-time sample.
type ResponseEvent struct {
	ID       int
	ResultID int `gorm:"index"`
	Level    int
	Source   string
	Seconds  float64
}
