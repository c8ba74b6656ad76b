package export

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/rantizi/infomedia-dashboard/internal/model"
)

// WriteCSV writes the cleaned records as UTF-8 CSV with a header row.
func WriteCSV(path string, records []model.CanonicalRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	headers, rows := tabulate(records)

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return f.Close()
}
