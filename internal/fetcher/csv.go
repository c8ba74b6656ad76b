package fetcher

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/rantizi/infomedia-dashboard/internal/etl"
)

// ReadCSV parses delimited-text bytes into a Table. Variable field counts
// are tolerated; downstream cell access treats missing columns as null.
func ReadCSV(data []byte, opts Options) (*etl.Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable fields

	headerIdx := opts.headerIndex()

	t := &etl.Table{}
	for i := 0; ; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}

		switch {
		case i < headerIdx:
			continue
		case i == headerIdx:
			t.Headers = record
		default:
			t.Rows = append(t.Rows, record)
		}
	}

	if t.Headers == nil {
		return nil, eris.Errorf("csv: header row %d beyond file length", headerIdx+1)
	}
	return t, nil
}
