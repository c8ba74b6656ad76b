package fetcher

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// buildXLSX creates a workbook in memory: optional banner rows, then a
// header row and data rows on the named sheet.
func buildXLSX(t *testing.T, sheetName string, rows [][]string) []byte {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)

	for _, cells := range rows {
		row := sheet.AddRow()
		for _, v := range cells {
			row.AddCell().SetString(v)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadCSV(t *testing.T) {
	data := []byte("Customer,Project,Nilai\nPT A,X,100\nPT B,Y,200\n")

	table, err := ReadCSV(data, Options{HeaderRow: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"Customer", "Project", "Nilai"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "PT A", table.Cell(0, 0))
	assert.Equal(t, "200", table.Cell(1, 2))
}

func TestReadCSV_RaggedRows(t *testing.T) {
	data := []byte("a,b,c\n1,2\n1,2,3,4\n")

	table, err := ReadCSV(data, Options{})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "", table.Cell(0, 2)) // short row reads as null
}

func TestReadCSV_HeaderBeyondFile(t *testing.T) {
	_, err := ReadCSV([]byte("a,b\n"), Options{HeaderRow: 5})
	assert.Error(t, err)
}

func TestReadXLSX_HeaderRowSkipsBanner(t *testing.T) {
	data := buildXLSX(t, "LOP", [][]string{
		{"Template LOP 2026"},
		{},
		{"Customer", "Project"},
		{"PT A", "X"},
		{"PT B", "Y"},
	})

	table, err := ReadXLSX(data, Options{HeaderRow: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"Customer", "Project"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "PT B", table.Cell(1, 0))
}

func TestReadXLSX_SheetSelection(t *testing.T) {
	data := buildXLSX(t, "Data", [][]string{
		{"Customer"},
		{"PT A"},
	})

	_, err := ReadXLSX(data, Options{SheetName: "Missing"})
	assert.Error(t, err)

	table, err := ReadXLSX(data, Options{SheetName: "Data"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer"}, table.Headers)
}

func TestReadXLSX_HeaderBeyondSheet(t *testing.T) {
	data := buildXLSX(t, "Data", [][]string{{"only"}})
	_, err := ReadXLSX(data, Options{HeaderRow: 9})
	assert.Error(t, err)
}

func TestParseTable_Routing(t *testing.T) {
	csvData := []byte("a\n1\n")

	table, err := ParseTable(csvData, "file.csv", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, table.Headers)

	xlsxData := buildXLSX(t, "S", [][]string{{"a"}, {"1"}})
	table, err = ParseTable(xlsxData, "upload/file.XLSX", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, table.Headers)

	_, err = ParseTable(csvData, "file.pdf", Options{})
	assert.Error(t, err)
}
