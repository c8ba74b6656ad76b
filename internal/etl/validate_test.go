package etl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rantizi/infomedia-dashboard/internal/model"
)

func TestValidate_CountsIssues(t *testing.T) {
	records := []model.CanonicalRecord{
		{FunnelStage: ptr("win"), EstRevenue: 100, CreatedAt: tsp("2025-01-01")},
		{FunnelStage: ptr("negotiation"), EstRevenue: -50, CreatedAt: nil},
		{FunnelStage: nil, EstRevenue: math.NaN(), CreatedAt: nil},
	}

	s := Validate(10, 5, records)

	assert.Equal(t, 10, s.RowsRead)
	assert.Equal(t, 5, s.RowsAfterKeyDrop)
	assert.Equal(t, 3, s.RowsAfterDedupe)
	assert.Equal(t, 1, s.InvalidStage)
	assert.Equal(t, 1, s.NegativeRevenue)
	assert.Equal(t, 2, s.MissingCreatedAt)
	assert.True(t, s.HasIssues())
}

func TestValidate_CleanData(t *testing.T) {
	records := []model.CanonicalRecord{
		{FunnelStage: ptr("leads"), EstRevenue: 100, CreatedAt: tsp("2025-01-01")},
	}
	s := Validate(1, 1, records)
	assert.False(t, s.HasIssues())
}

func TestValidate_NilStageIsNotInvalid(t *testing.T) {
	records := []model.CanonicalRecord{
		{FunnelStage: nil, EstRevenue: math.NaN(), CreatedAt: tsp("2025-01-01")},
	}
	s := Validate(1, 1, records)
	assert.Equal(t, 0, s.InvalidStage)
}

func TestDescribe_Counts(t *testing.T) {
	records := []model.CanonicalRecord{
		{FunnelStage: ptr("win"), SourceDivision: model.DivisionSales, EstRevenue: 100},
		{FunnelStage: ptr("win"), SourceDivision: model.DivisionMSDC, EstRevenue: 200},
		{FunnelStage: nil, SourceDivision: model.DivisionSales, EstRevenue: math.NaN()},
	}

	st := Describe(records)

	assert.Equal(t, 2, st.ByStage["win"])
	assert.Equal(t, 1, st.ByStage[""])
	assert.Equal(t, 2, st.BySource[model.DivisionSales])
	assert.Equal(t, 1, st.BySource[model.DivisionMSDC])
	assert.Equal(t, 2, st.Revenue.Count)
}

func TestDescribe_RevenueStats(t *testing.T) {
	records := []model.CanonicalRecord{
		{EstRevenue: 10}, {EstRevenue: 20}, {EstRevenue: 30}, {EstRevenue: 40},
	}

	rs := Describe(records).Revenue

	assert.Equal(t, 4, rs.Count)
	assert.InDelta(t, 25, rs.Mean, 1e-9)
	assert.InDelta(t, 10, rs.Min, 1e-9)
	assert.InDelta(t, 40, rs.Max, 1e-9)
	assert.InDelta(t, 25, rs.Median, 1e-9)
	// Linear interpolation between order statistics.
	assert.InDelta(t, 17.5, rs.P25, 1e-9)
	assert.InDelta(t, 32.5, rs.P75, 1e-9)
	// Sample standard deviation.
	assert.InDelta(t, 12.909944487, rs.Std, 1e-6)
}

func TestDescribe_Empty(t *testing.T) {
	rs := Describe(nil).Revenue
	require.Equal(t, 0, rs.Count)
	assert.True(t, math.IsNaN(rs.Mean))
	assert.True(t, math.IsNaN(rs.Min))
}
