package metrics

import (
	"math"

	"pulsepath-go/internal/models"
)

// Helper methods for response-time calculations

func CountResponses(rec *models.SessionRecord, src models.ResponseSource) int {
	count := 0
	for _, s := range rec.Responses {
		if s.Source == src {
			count++
		}
	}
	return count
}

func CalculateAverageResponseTime(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// CalculateResponseTimeSD is the population standard deviation of the samples.
func CalculateResponseTimeSD(samples []float64) float64 {
	if len(samples) <= 1 {
		return 0
	}

	avg := CalculateAverageResponseTime(samples)
	var sumSquaredDiff float64
	for _, s := range samples {
		diff := s - avg
		sumSquaredDiff += diff * diff
	}

	variance := sumSquaredDiff / float64(len(samples))
	return math.Sqrt(variance)
}

// CalculateHitRate is hits over hits plus misses. Misses are wrong clicks
// during a visible stimulus and bonuses left to expire.
func CalculateHitRate(rec *models.SessionRecord) float64 {
	hits := len(rec.Responses)
	total := hits + rec.MissedBonus
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// CalculateMeanBipInterval is the average gap between consecutive bips, in seconds.
func CalculateMeanBipInterval(bipTimes []float64) float64 {
	if len(bipTimes) < 2 {
		return 0
	}
	return (bipTimes[len(bipTimes)-1] - bipTimes[0]) / float64(len(bipTimes)-1)
}
