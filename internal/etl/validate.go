package etl

import (
	"math"
	"sort"

	"github.com/rantizi/infomedia-dashboard/internal/model"
)

// Summary holds the non-blocking post-clean integrity counters. Findings are
// reported, never enforced: no row is dropped because of a validation issue.
type Summary struct {
	RowsRead         int
	RowsAfterKeyDrop int
	RowsAfterDedupe  int

	InvalidStage     int
	NegativeRevenue  int
	MissingCreatedAt int
}

// HasIssues reports whether any counter flagged a data-quality finding.
func (s Summary) HasIssues() bool {
	return s.InvalidStage > 0 || s.NegativeRevenue > 0 || s.MissingCreatedAt > 0
}

// Validate computes integrity counters over the deduplicated records.
func Validate(rowsRead, rowsAfterKeyDrop int, records []model.CanonicalRecord) Summary {
	s := Summary{
		RowsRead:         rowsRead,
		RowsAfterKeyDrop: rowsAfterKeyDrop,
		RowsAfterDedupe:  len(records),
	}
	for _, r := range records {
		if r.FunnelStage != nil && !model.CanonicalStages[*r.FunnelStage] {
			s.InvalidStage++
		}
		if HasRevenue(r) && r.EstRevenue < 0 {
			s.NegativeRevenue++
		}
		if r.CreatedAt == nil {
			s.MissingCreatedAt++
		}
	}
	return s
}

// Stats is the quick-distribution report printed after a batch run.
type Stats struct {
	ByStage  map[string]int
	BySource map[model.Division]int
	Revenue  RevenueStats
}

// RevenueStats describes the est_revenue distribution of the cleaned set.
// NaN fields mean no revenue values were present.
type RevenueStats struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	P25    float64
	Median float64
	P75    float64
	Max    float64
}

// Describe computes stage/source value counts and revenue distribution
// statistics. Records without a stage are counted under the empty key.
func Describe(records []model.CanonicalRecord) Stats {
	st := Stats{
		ByStage:  make(map[string]int),
		BySource: make(map[model.Division]int),
	}

	var revenues []float64
	for _, r := range records {
		stage := ""
		if r.FunnelStage != nil {
			stage = *r.FunnelStage
		}
		st.ByStage[stage]++
		st.BySource[r.SourceDivision]++
		if HasRevenue(r) {
			revenues = append(revenues, r.EstRevenue)
		}
	}

	st.Revenue = describeRevenue(revenues)
	return st
}

func describeRevenue(values []float64) RevenueStats {
	rs := RevenueStats{
		Count:  len(values),
		Mean:   math.NaN(),
		Std:    math.NaN(),
		Min:    math.NaN(),
		P25:    math.NaN(),
		Median: math.NaN(),
		P75:    math.NaN(),
		Max:    math.NaN(),
	}
	if len(values) == 0 {
		return rs
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	rs.Mean = sum / float64(len(sorted))

	if len(sorted) > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - rs.Mean
			sq += d * d
		}
		// Sample standard deviation, matching the usual describe output.
		rs.Std = math.Sqrt(sq / float64(len(sorted)-1))
	}

	rs.Min = sorted[0]
	rs.Max = sorted[len(sorted)-1]
	rs.P25 = percentile(sorted, 0.25)
	rs.Median = percentile(sorted, 0.50)
	rs.P75 = percentile(sorted, 0.75)
	return rs
}

// percentile computes a linearly interpolated percentile over sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := p * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}
