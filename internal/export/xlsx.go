package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/rantizi/infomedia-dashboard/internal/model"
)

// WriteXLSX writes a workbook with a "cleaned" data sheet and a "summary"
// sheet holding row counts by funnel stage and by source division. The two
// summary blocks are separated by two blank rows.
func WriteXLSX(path string, records []model.CanonicalRecord) error {
	file := xlsx.NewFile()

	cleaned, err := file.AddSheet("cleaned")
	if err != nil {
		return eris.Wrap(err, "export: add cleaned sheet")
	}

	headers, rows := tabulate(records)
	writeRow(cleaned, headers)
	for _, row := range rows {
		writeRow(cleaned, row)
	}

	summary, err := file.AddSheet("summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	writeSummary(summary, records)

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func writeRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func writeCountBlock(sheet *xlsx.Sheet, label string, keys []string, counts map[string]int) {
	writeRow(sheet, []string{label, "rows"})
	for _, k := range keys {
		row := sheet.AddRow()
		row.AddCell().SetString(k)
		row.AddCell().SetInt(counts[k])
	}
}

func writeSummary(sheet *xlsx.Sheet, records []model.CanonicalRecord) {
	stageKeys, stageCounts := countBy(records, func(r model.CanonicalRecord) string {
		return strOr(r.FunnelStage)
	})
	writeCountBlock(sheet, "funnel_stage", stageKeys, stageCounts)

	sheet.AddRow()
	sheet.AddRow()

	srcKeys, srcCounts := countBy(records, func(r model.CanonicalRecord) string {
		return string(r.SourceDivision)
	})
	writeCountBlock(sheet, "source_division", srcKeys, srcCounts)
}
