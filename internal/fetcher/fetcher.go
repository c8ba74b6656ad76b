// Package fetcher parses raw spreadsheet and delimited-text bytes into the
// string table the normalization core consumes.
package fetcher

import (
	"path"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/rantizi/infomedia-dashboard/internal/etl"
)

// Options configures table parsing.
type Options struct {
	// SheetName selects a spreadsheet sheet by name; empty means first sheet.
	SheetName string
	// HeaderRow is the 1-based physical row holding the headers; rows above
	// it are discarded. Zero means row 1.
	HeaderRow int
	// Delimiter overrides the CSV field separator; zero means ','.
	Delimiter rune
}

func (o Options) headerIndex() int {
	if o.HeaderRow <= 1 {
		return 0
	}
	return o.HeaderRow - 1
}

// ParseTable routes bytes to the right parser based on the file extension.
// Only spreadsheet (.xlsx, .xls) and delimited text (.csv) are supported;
// any other extension is a hard failure for the import.
func ParseTable(data []byte, name string, opts Options) (*etl.Table, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx", ".xls":
		return ReadXLSX(data, opts)
	case ".csv":
		return ReadCSV(data, opts)
	default:
		return nil, eris.Errorf("fetcher: unsupported file type %q", path.Ext(name))
	}
}
