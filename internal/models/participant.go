package models

import "fmt"

// Gender as selected on the setup screen.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Condition is the experimental arm controlling stimulus cadence.
type Condition string

const (
	ConditionSync   Condition = "sync"
	ConditionAsync  Condition = "async"
	ConditionRandom Condition = "random"
)

// Conditions lists the arms in report order.
var Conditions = []Condition{ConditionSync, ConditionAsync, ConditionRandom}

// ParseCondition validates a condition string.
func ParseCondition(s string) (Condition, error) {
	switch c := Condition(s); c {
	case ConditionSync, ConditionAsync, ConditionRandom:
		return c, nil
	}
	return "", fmt.Errorf("unknown condition %q", s)
}

// ParseGender validates a gender string.
func ParseGender(s string) (Gender, error) {
	switch g := Gender(s); g {
	case GenderMale, GenderFemale:
		return g, nil
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// ParticipantProfile is filled in on the setup screen. HeartRateAfter is the
// only field written later, just before the session is persisted.
type ParticipantProfile struct {
	ID              string    `json:"id"`
	Age             int       `json:"age"`
	Gender          Gender    `json:"gender"`
	Condition       Condition `json:"condition"`
	HeartRateBefore int       `json:"heart_rate_before"`
	HeartRateAfter  int       `json:"heart_rate_after"`
}
