package export

import (
	"math"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/rotisserie/eris"

	"github.com/rantizi/infomedia-dashboard/internal/model"
)

// parquetRow is the fixed columnar schema for analytics consumers. Extra
// source columns are not carried here; they only survive in CSV/XLSX.
type parquetRow struct {
	CompanyName          *string    `parquet:"company_name,optional"`
	CompanyNameCanonical *string    `parquet:"company_name_canonical,optional"`
	ProjectName          *string    `parquet:"project_name,optional"`
	ProjectNameCanonical *string    `parquet:"project_name_canonical,optional"`
	SalesPerson          *string    `parquet:"sales_person,optional"`
	SourceDivision       string     `parquet:"source_division"`
	FunnelStage          *string    `parquet:"funnel_stage,optional"`
	EstRevenue           *float64   `parquet:"est_revenue,optional"`
	Segment              *string    `parquet:"segment,optional"`
	CreatedAt            *time.Time `parquet:"created_at,optional,timestamp(millisecond)"`
	UpdatedAt            *time.Time `parquet:"updated_at,optional,timestamp(millisecond)"`
	IngestedAt           time.Time  `parquet:"ingested_at_utc,timestamp(millisecond)"`
}

// WriteParquet writes the cleaned records in Parquet for downstream analytics.
func WriteParquet(path string, records []model.CanonicalRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	rows := make([]parquetRow, 0, len(records))
	for _, r := range records {
		var revenue *float64
		if !math.IsNaN(r.EstRevenue) {
			v := r.EstRevenue
			revenue = &v
		}
		rows = append(rows, parquetRow{
			CompanyName:          r.CompanyName,
			CompanyNameCanonical: r.CompanyNameCanonical,
			ProjectName:          r.ProjectName,
			ProjectNameCanonical: r.ProjectNameCanonical,
			SalesPerson:          r.SalesPerson,
			SourceDivision:       string(r.SourceDivision),
			FunnelStage:          r.FunnelStage,
			EstRevenue:           revenue,
			Segment:              r.Segment,
			CreatedAt:            r.CreatedAt,
			UpdatedAt:            r.UpdatedAt,
			IngestedAt:           r.IngestedAt.UTC(),
		})
	}

	w := parquet.NewGenericWriter[parquetRow](f)
	if _, err := w.Write(rows); err != nil {
		return eris.Wrap(err, "export: write parquet rows")
	}
	if err := w.Close(); err != nil {
		return eris.Wrap(err, "export: close parquet writer")
	}
	return f.Close()
}
