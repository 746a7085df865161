package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	errTooFewGroups   = errors.New("at least two groups are required")
	errEmptyGroup     = errors.New("every group needs at least one value")
	errZeroVariance   = errors.New("zero variance")
	errTooFewSamples  = errors.New("at least two samples are required")
	errIdenticalInput = errors.New("all values are identical")
)

// Round rounds x to the given number of decimals.
func Round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}

// Summary holds descriptive statistics of one sample. Std uses n-1 and is
// nil when fewer than two values are present.
type Summary struct {
	Count int      `json:"count"`
	Mean  float64  `json:"mean"`
	Std   *float64 `json:"std"`
	Min   float64  `json:"min"`
	Max   float64  `json:"max"`
}

// Describe summarises xs, rounding every figure to decimals.
func Describe(xs []float64, decimals int) Summary {
	s := Summary{Count: len(xs)}
	if len(xs) == 0 {
		return s
	}
	s.Mean = Round(stat.Mean(xs, nil), decimals)
	s.Min = Round(floats.Min(xs), decimals)
	s.Max = Round(floats.Max(xs), decimals)
	if len(xs) > 1 {
		sd := Round(stat.StdDev(xs, nil), decimals)
		s.Std = &sd
	}
	return s
}

// OneWayANOVA tests whether the group means differ.
func OneWayANOVA(groups [][]float64) (f, p float64, err error) {
	if len(groups) < 2 {
		return 0, 0, errTooFewGroups
	}
	var all []float64
	for _, g := range groups {
		if len(g) == 0 {
			return 0, 0, errEmptyGroup
		}
		all = append(all, g...)
	}

	grand := stat.Mean(all, nil)
	var ssBetween, ssWithin float64
	for _, g := range groups {
		m := stat.Mean(g, nil)
		ssBetween += float64(len(g)) * (m - grand) * (m - grand)
		for _, x := range g {
			ssWithin += (x - m) * (x - m)
		}
	}

	dfBetween := float64(len(groups) - 1)
	dfWithin := float64(len(all) - len(groups))
	if dfWithin <= 0 {
		return 0, 0, fmt.Errorf("no within-group degrees of freedom (%d values in %d groups)", len(all), len(groups))
	}
	if ssWithin == 0 {
		return 0, 0, fmt.Errorf("%w within groups", errZeroVariance)
	}

	f = (ssBetween / dfBetween) / (ssWithin / dfWithin)
	p = distuv.F{D1: dfBetween, D2: dfWithin}.Survival(f)
	return f, p, nil
}

// KruskalWallis is the rank-based test that the groups share a distribution.
// The statistic is corrected for ties.
func KruskalWallis(groups [][]float64) (h, p float64, err error) {
	if len(groups) < 2 {
		return 0, 0, errTooFewGroups
	}
	var all []float64
	for _, g := range groups {
		if len(g) == 0 {
			return 0, 0, errEmptyGroup
		}
		all = append(all, g...)
	}

	ranks, tieSum := rank(all)
	n := float64(len(all))
	offset := 0
	for _, g := range groups {
		var sum float64
		for i := range g {
			sum += ranks[offset+i]
		}
		offset += len(g)
		h += sum * sum / float64(len(g))
	}
	h = 12/(n*(n+1))*h - 3*(n+1)

	correction := 1 - tieSum/(n*n*n-n)
	if correction == 0 {
		return 0, 0, errIdenticalInput
	}
	h /= correction
	p = distuv.ChiSquared{K: float64(len(groups) - 1)}.Survival(h)
	return h, p, nil
}

// rank assigns average ranks (1-based) and returns the tie term sum(t^3-t).
func rank(xs []float64) ([]float64, float64) {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	ranks := make([]float64, len(xs))
	var tieSum float64
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && xs[idx[j]] == xs[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		t := float64(j - i)
		tieSum += t*t*t - t
		i = j
	}
	return ranks, tieSum
}

// PairedTTest tests whether the mean of a-b is zero. Both slices must have
// the same length.
func PairedTTest(a, b []float64) (t, p float64, err error) {
	if len(a) != len(b) {
		return 0, 0, fmt.Errorf("unequal sample sizes %d and %d", len(a), len(b))
	}
	if len(a) < 2 {
		return 0, 0, errTooFewSamples
	}
	d := make([]float64, len(a))
	floats.SubTo(d, a, b)

	mean, sd := stat.MeanStdDev(d, nil)
	if sd == 0 {
		return 0, 0, fmt.Errorf("%w in paired differences", errZeroVariance)
	}
	n := float64(len(d))
	t = mean / (sd / math.Sqrt(n))
	p = 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}.Survival(math.Abs(t))
	return t, p, nil
}
