package analysis

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"

	"pulsepath-go/internal/models"
)

// DefaultMinParticipants is the per-condition sample size the study targets.
const DefaultMinParticipants = 20

var errNoData = errors.New("no data loaded")

// TestResult is the outcome of one hypothesis test. When the test could not
// run, Error is set and the numbers are zero.
type TestResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Error     string  `json:"error,omitempty"`
}

func newTestResult(stat, p float64, err error) TestResult {
	if err != nil {
		return TestResult{Error: err.Error()}
	}
	return TestResult{Statistic: Round(stat, 3), PValue: Round(p, 4)}
}

// CellKey identifies one condition x level group.
type CellKey struct {
	Condition models.Condition `json:"condition"`
	Level     int              `json:"level"`
}

// ResponseTimeCell is the descriptive summary of avg_response_time in a cell.
type ResponseTimeCell struct {
	CellKey
	Summary
}

type ResponseTimeAnalysis struct {
	Descriptive []ResponseTimeCell `json:"descriptive"`
	ANOVA       TestResult         `json:"anova"`
	Error       string             `json:"error,omitempty"`
}

// MeanStd is a rating summary.
type MeanStd struct {
	Mean float64  `json:"mean"`
	Std  *float64 `json:"std"`
}

type RatingCell struct {
	CellKey
	Performance MeanStd `json:"performance"`
	Stress      MeanStd `json:"stress"`
	Certitude   MeanStd `json:"certitude"`
}

type RatingAnalysis struct {
	Cells              []RatingCell `json:"ratings"`
	KruskalPerformance TestResult   `json:"kruskal_performance_eval"`
	KruskalStress      TestResult   `json:"kruskal_stress_eval"`
	Error              string       `json:"error,omitempty"`
}

// HeartRateGroup summarises after-minus-before per condition.
type HeartRateGroup struct {
	Condition models.Condition `json:"condition"`
	Count     int              `json:"count"`
	Mean      float64          `json:"mean"`
	Std       *float64         `json:"std"`
}

type ConditionTest struct {
	Condition models.Condition `json:"condition"`
	TestResult
}

type HeartRateAnalysis struct {
	Changes []HeartRateGroup `json:"hr_changes"`
	TTests  []ConditionTest  `json:"ttests"`
	Error   string           `json:"error,omitempty"`
}

// ConditionCount is the number of unique participants in a condition.
type ConditionCount struct {
	Condition    models.Condition `json:"condition"`
	Participants int              `json:"participants"`
}

// Report gathers every analysis of one batch.
type Report struct {
	GeneratedAt   time.Time            `json:"generated_at"`
	Participants  int                  `json:"participants"`
	Rows          int                  `json:"rows"`
	PerCondition  []ConditionCount     `json:"per_condition"`
	Issues        []string             `json:"issues"`
	Skipped       []string             `json:"skipped"`
	ResponseTimes ResponseTimeAnalysis `json:"response_times"`
	Ratings       RatingAnalysis       `json:"ratings"`
	HeartRate     HeartRateAnalysis    `json:"heart_rate"`
}

// Analyzer runs the statistical pipeline over flattened rows.
type Analyzer struct {
	log             *zap.Logger
	minParticipants int
}

func NewAnalyzer(log *zap.Logger, minParticipants int) *Analyzer {
	if minParticipants <= 0 {
		minParticipants = DefaultMinParticipants
	}
	return &Analyzer{log: log, minParticipants: minParticipants}
}

// Analyze validates rows and runs every analysis. A failing analysis is
// reported in its own Error field and never stops the others.
func (a *Analyzer) Analyze(rows []models.LevelRow, now time.Time) *Report {
	r := &Report{
		GeneratedAt:  now,
		Rows:         len(rows),
		PerCondition: participantsPerCondition(rows),
		Issues:       Validate(rows, a.minParticipants),
		Skipped:      []string{},
	}
	for _, c := range r.PerCondition {
		r.Participants += c.Participants
	}

	r.ResponseTimes = a.analyzeResponseTimes(rows)
	r.Ratings = a.analyzeRatings(rows)
	r.HeartRate = a.analyzeHeartRate(rows)
	return r
}

// Validate reports undersized conditions and out-of-range ratings.
func Validate(rows []models.LevelRow, minParticipants int) []string {
	issues := []string{}
	if len(rows) == 0 {
		return append(issues, errNoData.Error())
	}

	for _, c := range participantsPerCondition(rows) {
		if c.Participants < minParticipants {
			issues = append(issues, fmt.Sprintf("condition %s: only %d/%d participants", c.Condition, c.Participants, minParticipants))
		}
	}

	bounds := []struct {
		name string
		max  int
		get  func(models.LevelRow) int
	}{
		{"performance", models.MaxPerformance, func(r models.LevelRow) int { return r.PerformanceEval }},
		{"stress", models.MaxStress, func(r models.LevelRow) int { return r.StressEval }},
		{"certitude", models.MaxCertitude, func(r models.LevelRow) int { return r.CertitudeEval }},
	}
	for _, b := range bounds {
		for _, row := range rows {
			if v := b.get(row); v < models.MinRating || v > b.max {
				issues = append(issues, fmt.Sprintf("some %s ratings are out of bounds (%d-%d)", b.name, models.MinRating, b.max))
				break
			}
		}
	}
	return issues
}

func (a *Analyzer) analyzeResponseTimes(rows []models.LevelRow) ResponseTimeAnalysis {
	res := ResponseTimeAnalysis{Descriptive: []ResponseTimeCell{}}
	if len(rows) == 0 {
		res.Error = errNoData.Error()
		return res
	}

	var groups [][]float64
	for _, key := range cells(rows) {
		var xs []float64
		for _, r := range rows {
			if r.Condition == key.Condition && r.Level == key.Level {
				xs = append(xs, r.AvgResponseTime)
			}
		}
		groups = append(groups, xs)
		res.Descriptive = append(res.Descriptive, ResponseTimeCell{CellKey: key, Summary: Describe(xs, 3)})
	}

	f, p, err := OneWayANOVA(groups)
	if err != nil {
		a.log.Error("Response time ANOVA failed", zap.Error(err))
	}
	res.ANOVA = newTestResult(f, p, err)
	return res
}

func (a *Analyzer) analyzeRatings(rows []models.LevelRow) RatingAnalysis {
	res := RatingAnalysis{Cells: []RatingCell{}}
	if len(rows) == 0 {
		res.Error = errNoData.Error()
		return res
	}

	for _, key := range cells(rows) {
		var perf, stress, cert []float64
		for _, r := range rows {
			if r.Condition == key.Condition && r.Level == key.Level {
				perf = append(perf, float64(r.PerformanceEval))
				stress = append(stress, float64(r.StressEval))
				cert = append(cert, float64(r.CertitudeEval))
			}
		}
		res.Cells = append(res.Cells, RatingCell{
			CellKey:     key,
			Performance: meanStd(perf),
			Stress:      meanStd(stress),
			Certitude:   meanStd(cert),
		})
	}

	kruskal := func(metric string, get func(models.LevelRow) int) TestResult {
		var groups [][]float64
		for _, c := range conditionsIn(rows) {
			var xs []float64
			for _, r := range rows {
				if r.Condition == c {
					xs = append(xs, float64(get(r)))
				}
			}
			groups = append(groups, xs)
		}
		h, p, err := KruskalWallis(groups)
		if err != nil {
			a.log.Error("Kruskal-Wallis test failed", zap.String("metric", metric), zap.Error(err))
		}
		return newTestResult(h, p, err)
	}
	res.KruskalPerformance = kruskal("performance_eval", func(r models.LevelRow) int { return r.PerformanceEval })
	res.KruskalStress = kruskal("stress_eval", func(r models.LevelRow) int { return r.StressEval })
	return res
}

func meanStd(xs []float64) MeanStd {
	s := Describe(xs, 2)
	return MeanStd{Mean: s.Mean, Std: s.Std}
}

// analyzeHeartRate works on one observation per participant; the flattened
// rows repeat the profile once per level.
func (a *Analyzer) analyzeHeartRate(rows []models.LevelRow) HeartRateAnalysis {
	res := HeartRateAnalysis{Changes: []HeartRateGroup{}, TTests: []ConditionTest{}}
	if len(rows) == 0 {
		res.Error = errNoData.Error()
		return res
	}

	people := uniqueParticipants(rows)
	for _, c := range conditionsIn(rows) {
		var before, after, change []float64
		for _, r := range people {
			// heart_rate_after stays 0 when it was never entered
			if r.Condition != c || r.HeartRateAfter <= 0 {
				continue
			}
			before = append(before, float64(r.HeartRateBefore))
			after = append(after, float64(r.HeartRateAfter))
			change = append(change, float64(r.HeartRateChange()))
		}

		s := Describe(change, 2)
		res.Changes = append(res.Changes, HeartRateGroup{Condition: c, Count: s.Count, Mean: s.Mean, Std: s.Std})

		t, p, err := PairedTTest(before, after)
		if err != nil {
			a.log.Error("Paired t-test failed", zap.String("condition", string(c)), zap.Error(err))
		}
		res.TTests = append(res.TTests, ConditionTest{Condition: c, TestResult: newTestResult(t, p, err)})
	}
	return res
}

func uniqueParticipants(rows []models.LevelRow) []models.LevelRow {
	seen := make(map[string]bool)
	var out []models.LevelRow
	for _, r := range rows {
		if seen[r.ParticipantID] {
			continue
		}
		seen[r.ParticipantID] = true
		out = append(out, r)
	}
	return out
}

func participantsPerCondition(rows []models.LevelRow) []ConditionCount {
	out := []ConditionCount{}
	for _, c := range conditionsIn(rows) {
		ids := make(map[string]struct{})
		for _, r := range rows {
			if r.Condition == c {
				ids[r.ParticipantID] = struct{}{}
			}
		}
		out = append(out, ConditionCount{Condition: c, Participants: len(ids)})
	}
	return out
}

// conditionsIn lists the conditions present in rows, known arms first in
// their usual order, then anything else alphabetically.
func conditionsIn(rows []models.LevelRow) []models.Condition {
	present := make(map[models.Condition]bool)
	for _, r := range rows {
		present[r.Condition] = true
	}
	var out, extra []models.Condition
	for _, c := range models.Conditions {
		if present[c] {
			out = append(out, c)
			delete(present, c)
		}
	}
	for c := range present {
		extra = append(extra, c)
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// cells lists the non-empty condition x level groups.
func cells(rows []models.LevelRow) []CellKey {
	var out []CellKey
	for _, c := range conditionsIn(rows) {
		levels := make(map[int]bool)
		for _, r := range rows {
			if r.Condition == c {
				levels[r.Level] = true
			}
		}
		var sorted []int
		for l := range levels {
			sorted = append(sorted, l)
		}
		sort.Ints(sorted)
		for _, l := range sorted {
			out = append(out, CellKey{Condition: c, Level: l})
		}
	}
	return out
}
