package etl

import (
	"math"
	"time"

	"github.com/rantizi/infomedia-dashboard/internal/model"
)

// CleanOptions controls record building.
type CleanOptions struct {
	// Division, when set, is injected as the source division for every row.
	// Worker mode uses this because division is a property of the import
	// job, not of the file contents. When empty, the source_division column
	// is classified per row; if that column is entirely null the whole
	// batch defaults to SALES.
	Division model.Division

	// Now is the ingestion stamp; the zero value means time.Now().UTC().
	Now time.Time
}

// Clean converts a column-resolved table into CanonicalRecords by applying
// the field normalizers. No rows are dropped here; identity filtering is the
// dedup resolver's job.
func Clean(t Table, opts CleanOptions) []model.CanonicalRecord {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	idx := map[string]int{}
	var extraCols []int
	for i, h := range t.Headers {
		if canonicalFields[h] {
			idx[h] = i
		} else {
			extraCols = append(extraCols, i)
		}
	}

	defaultSales := opts.Division == "" && columnEmpty(t, colOr(idx, FieldSourceDivision))

	records := make([]model.CanonicalRecord, 0, len(t.Rows))
	for row := range t.Rows {
		cell := func(field string) string {
			i, ok := idx[field]
			if !ok {
				return ""
			}
			return t.Cell(row, i)
		}

		rec := model.CanonicalRecord{
			CompanyName:          NormalizeText(cell(FieldCompanyName)),
			CompanyNameCanonical: NormalizeCompany(cell(FieldCompanyName)),
			ProjectName:          NormalizeText(cell(FieldProjectName)),
			ProjectNameCanonical: CanonicalizeProject(cell(FieldProjectName)),
			SalesPerson:          NormalizeText(cell(FieldSalesPerson)),
			FunnelStage:          NormalizeStage(cell(FieldFunnelStage)),
			EstRevenue:           ParseMoney(cell(FieldEstRevenue)),
			Segment:              NormalizeText(cell(FieldSegment)),
			CreatedAt:            ParseDateTime(cell(FieldCreatedAt)),
			UpdatedAt:            ParseDateTime(cell(FieldUpdatedAt)),
			IngestedAt:           now,
			RowNumber:            row + 1,
		}

		switch {
		case opts.Division != "":
			rec.SourceDivision = opts.Division
		case defaultSales:
			rec.SourceDivision = model.DivisionSales
		default:
			rec.SourceDivision = NormalizeSource(cell(FieldSourceDivision))
		}

		if len(extraCols) > 0 {
			rec.Extra = make(map[string]*string, len(extraCols))
			for _, i := range extraCols {
				rec.Extra[t.Headers[i]] = NormalizeText(t.Cell(row, i))
			}
		}

		records = append(records, rec)
	}
	return records
}

// colOr returns the column index for field or -1.
func colOr(idx map[string]int, field string) int {
	if i, ok := idx[field]; ok {
		return i
	}
	return -1
}

// HasRevenue reports whether the record carries a parsed revenue value.
func HasRevenue(r model.CanonicalRecord) bool {
	return !math.IsNaN(r.EstRevenue)
}
