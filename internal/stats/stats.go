// Package stats reduces the raw observations of one telemetry channel to
// summary statistics.
package stats

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

// Summarize computes the summary of raw. The boolean result is false when
// every observation is empty or blank; such a channel yields no value.
//
// N counts every observation, NDistinct counts distinct non-empty
// observations, and FirstValue is raw[0] whether empty or not. Numeric
// statistics are present only when every non-empty observation parses as a
// finite float.
func Summarize(raw []string) (types.Summary, bool) {
	if len(raw) == 0 {
		return types.Summary{}, false
	}

	s := types.Summary{
		FirstValue: raw[0],
		N:          len(raw),
	}

	distinct := make(map[string]struct{}, len(raw))
	numeric := true
	var nums []float64
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		distinct[v] = struct{}{}
		if !numeric {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			numeric = false
			nums = nil
			continue
		}
		nums = append(nums, f)
	}

	if len(distinct) == 0 {
		return types.Summary{}, false
	}
	s.NDistinct = len(distinct)
	if numeric {
		s.Numeric = describe(nums)
	}
	return s, true
}

// describe computes descriptive statistics of a non-empty sample.
func describe(values []float64) *types.NumericSummary {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	n := float64(len(sorted))
	m := sum / n
	// Float rounding can push the mean a ulp outside the sample range.
	m = math.Min(math.Max(m, sorted[0]), sorted[len(sorted)-1])

	var variance float64
	for _, v := range sorted {
		variance += (v - m) * (v - m)
	}
	if len(sorted) > 1 {
		variance /= n - 1
	} else {
		variance = 0
	}

	return &types.NumericSummary{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   m,
		Median: Percentile(sorted, 50),
		StdDev: math.Sqrt(variance),
		Q1:     Percentile(sorted, 25),
		Q3:     Percentile(sorted, 75),
	}
}

// Percentile returns the p-th percentile (0-100) of sorted using linear
// interpolation between closest ranks. sorted must be in ascending order.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	k := (p / 100) * float64(len(sorted)-1)
	f := math.Floor(k)
	c := math.Ceil(k)
	if f == c {
		return sorted[int(k)]
	}
	return sorted[int(f)]*(c-k) + sorted[int(c)]*(k-f)
}
