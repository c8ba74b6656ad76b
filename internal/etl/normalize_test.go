package etl

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rantizi/infomedia-dashboard/internal/model"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *string
	}{
		{"blank", "", nil},
		{"whitespace only", "   \t ", nil},
		{"trims", "  hello  ", ptr("hello")},
		{"collapses runs", "a  \t b   c", ptr("a b c")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestNormalizeText_Idempotent(t *testing.T) {
	for _, in := range []string{"  PT  Maju   Bersama ", "x", "", "a b c"} {
		once := NormalizeText(in)
		if once == nil {
			assert.Nil(t, NormalizeText(""))
			continue
		}
		twice := NormalizeText(*once)
		require.NotNil(t, twice)
		assert.Equal(t, *once, *twice)
	}
}

func TestNormalizeCompany(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"dotted PT", "P.T. Maju Bersama", "PT MAJU BERSAMA"},
		{"trailing dot PT", "PT. Maju Bersama", "PT MAJU BERSAMA"},
		{"lowercase", "pt maju bersama", "PT MAJU BERSAMA"},
		{"spaced PT", "P T Maju Bersama", "PT MAJU BERSAMA"},
		{"tbk suffix", "Telkom Indonesia Tbk.", "TELKOM INDONESIA TBK"},
		{"cv", "C.V. Sumber Rejeki", "CV SUMBER REJEKI"},
		{"punctuation separators", "Astra;International/Group", "ASTRA INTERNATIONAL GROUP"},
		{"whitespace runs", "  PT   Maju   Bersama  ", "PT MAJU BERSAMA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCompany(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}

	assert.Nil(t, NormalizeCompany(""))
	assert.Nil(t, NormalizeCompany("   "))
}

func TestNormalizeCompany_Idempotent(t *testing.T) {
	inputs := []string{"P.T. Maju Bersama", "CV. Berkah", "Telkom Tbk", "plain name"}
	for _, in := range inputs {
		once := NormalizeCompany(in)
		require.NotNil(t, once)
		twice := NormalizeCompany(*once)
		require.NotNil(t, twice)
		assert.Equal(t, *once, *twice, "input %q", in)
	}
}

func TestCanonicalizeProject(t *testing.T) {
	got := CanonicalizeProject("  Fiber  Rollout   phase 2 ")
	require.NotNil(t, got)
	assert.Equal(t, "FIBER ROLLOUT PHASE 2", *got)
	assert.Nil(t, CanonicalizeProject(" "))
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"european grouping", "1.234,56", 1234.56},
		{"us grouping", "1,234.56", 1234.56},
		{"plain integer", "1500", 1500},
		{"negative", "-500", -500},
		// The rightmost separator is always the decimal point, so a
		// fully-grouped value collapses to thousand units.
		{"currency prefix", "Rp 2.500.000", 2500},
		{"decimal only", "0,5", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseMoney(tt.in), 1e-9)
		})
	}
}

func TestParseMoney_NullChannel(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "N/A", "-"} {
		assert.True(t, math.IsNaN(ParseMoney(in)), "input %q", in)
	}
}

func TestParseDateTime_DayFirst(t *testing.T) {
	got := ParseDateTime("05/03/2025")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), *got)

	got = ParseDateTime("31/12/2024 13:45")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, time.December, 31, 13, 45, 0, 0, time.UTC), *got)

	got = ParseDateTime("2025-03-05")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), *got)
}

func TestParseDateTime_Serial(t *testing.T) {
	got := ParseDateTime("45000")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC), *got)

	// Fractional days carry time of day.
	got = ParseDateTime("45000.5")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2023, time.March, 15, 12, 0, 0, 0, time.UTC), *got)
}

func TestParseDateTime_Null(t *testing.T) {
	for _, in := range []string{"", "not a date", "-5", "20250101", "99999999"} {
		assert.Nil(t, ParseDateTime(in), "input %q", in)
	}
}

func TestNormalizeStage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Leads", "leads"},
		{"LEAD", "leads"},
		{"Prospect", "prospect"},
		{"Qualify", "qualified"},
		{"Submitted", "submission"},
		{"WON", "win"},
		{"Closed Won", "win"},
		{"negotiation", "negotiation"}, // unknown passes through lowercased
	}
	for _, tt := range tests {
		got := NormalizeStage(tt.in)
		require.NotNil(t, got, "input %q", tt.in)
		assert.Equal(t, tt.want, *got, "input %q", tt.in)
	}
	assert.Nil(t, NormalizeStage("  "))
}

func TestNormalizeSource(t *testing.T) {
	tests := []struct {
		in   string
		want model.Division
	}{
		{"Tim Bidding", model.DivisionBidding},
		{"MSDC", model.DivisionMSDC},
		{"marketing", model.DivisionMarketing},
		{"MKT Jakarta", model.DivisionMarketing},
		{"Sales Area 3", model.DivisionSales},
		{"", model.DivisionOther},
		{"unknown team", model.DivisionOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSource(tt.in), "input %q", tt.in)
	}
}

func ptr(s string) *string { return &s }
