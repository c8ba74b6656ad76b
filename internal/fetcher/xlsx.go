package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/rantizi/infomedia-dashboard/internal/etl"
)

// ReadXLSX parses spreadsheet bytes into a Table. The sheet is selected by
// name when configured, otherwise the first sheet is used. Rows above the
// configured header row are discarded.
func ReadXLSX(data []byte, opts Options) (*etl.Table, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open")
	}

	sheet, err := selectSheet(f, opts.SheetName)
	if err != nil {
		return nil, err
	}

	headerIdx := opts.headerIndex()
	if headerIdx >= len(sheet.Rows) {
		return nil, eris.Errorf("xlsx: header row %d beyond sheet length %d", headerIdx+1, len(sheet.Rows))
	}

	t := &etl.Table{Headers: rowToStrings(sheet.Rows[headerIdx])}
	for _, row := range sheet.Rows[headerIdx+1:] {
		t.Rows = append(t.Rows, rowToStrings(row))
	}
	return t, nil
}

func selectSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: file has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
