package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveColumns_AliasMapping(t *testing.T) {
	in := Table{
		Headers: []string{"Nama Perusahaan", "Judul", "Stage", "Nilai 2026", "Tanggal"},
		Rows: [][]string{
			{"PT A", "Proyek X", "leads", "100", "01/02/2025"},
		},
	}

	out := ResolveColumns(in)

	assert.Equal(t, 0, out.columnIndex(FieldCompanyName))
	assert.Equal(t, 1, out.columnIndex(FieldProjectName))
	assert.Equal(t, 2, out.columnIndex(FieldFunnelStage))
	assert.Equal(t, 3, out.columnIndex(FieldEstRevenue))
	assert.Equal(t, 4, out.columnIndex(FieldCreatedAt))
}

func TestResolveColumns_RevenueAliasPriority(t *testing.T) {
	// "nilai 2026" outranks "nilai project" even when both are present;
	// the loser stays under its own name.
	in := Table{
		Headers: []string{"Nilai Project", "Nilai 2026", "Customer", "Project"},
		Rows: [][]string{
			{"50", "100", "PT A", "X"},
		},
	}

	out := ResolveColumns(in)

	revIdx := out.columnIndex(FieldEstRevenue)
	require.NotEqual(t, -1, revIdx)
	assert.Equal(t, "100", out.Cell(0, revIdx))
	assert.NotEqual(t, -1, out.columnIndex("Nilai Project"))
}

func TestResolveColumns_ClaimsSourceOnce(t *testing.T) {
	// A single source column cannot satisfy two canonical fields.
	in := Table{
		Headers: []string{"Status", "Customer", "Project"},
		Rows: [][]string{
			{"leads", "PT A", "X"},
		},
	}

	out := ResolveColumns(in)
	assert.Equal(t, 0, out.columnIndex(FieldFunnelStage))

	count := 0
	for _, h := range out.Headers {
		if h == FieldFunnelStage {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestResolveColumns_DropsUnnamedAndEmpty(t *testing.T) {
	in := Table{
		Headers: []string{"Customer", "Unnamed: 3", "Notes", "Project"},
		Rows: [][]string{
			{"PT A", "junk", "", "X"},
			{"", "", "", ""}, // fully blank row
			{"PT B", "junk", "", "Y"},
		},
	}

	out := ResolveColumns(in)

	assert.Equal(t, -1, out.columnIndex("Unnamed: 3"))
	assert.Equal(t, -1, out.columnIndex("Notes")) // entirely empty column
	assert.Len(t, out.Rows, 2)
}

func TestResolveColumns_MaterializesRequired(t *testing.T) {
	in := Table{
		Headers: []string{"Customer"},
		Rows: [][]string{
			{"PT A"},
		},
	}

	out := ResolveColumns(in)

	for _, f := range RequiredFields {
		idx := out.columnIndex(f)
		require.NotEqual(t, -1, idx, "required field %s missing", f)
	}
	// Materialized columns are all-null.
	assert.Equal(t, "", out.Cell(0, out.columnIndex(FieldFunnelStage)))
}

func TestResolveColumns_PassthroughExtras(t *testing.T) {
	in := Table{
		Headers: []string{"Customer", "Project", " Keterangan "},
		Rows: [][]string{
			{"PT A", "X", "catatan"},
		},
	}

	out := ResolveColumns(in)
	assert.NotEqual(t, -1, out.columnIndex("Keterangan"))
}
