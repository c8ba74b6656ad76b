// Package export writes cleaned pipeline records to CSV, XLSX and Parquet.
package export

import (
	"context"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rantizi/infomedia-dashboard/internal/model"
)

// timeLayout renders timestamps naive, the way spreadsheet consumers expect.
const timeLayout = "2006-01-02 15:04:05"

// Result describes one export attempt. A failed format never aborts the
// others; callers inspect Err per format.
type Result struct {
	Format string
	Path   string
	Err    error
}

// WriteAll exports records to every supported format under dir, using a
// shared timestamp so the three files sort together. All formats are
// attempted concurrently and all results are returned.
func WriteAll(ctx context.Context, dir string, records []model.CanonicalRecord, now time.Time) []Result {
	stamp := now.UTC().Format("20060102-150405")
	results := make([]Result, 3)

	var g errgroup.Group
	writers := []struct {
		format string
		ext    string
		write  func(path string, records []model.CanonicalRecord) error
	}{
		{"csv", ".csv", WriteCSV},
		{"xlsx", ".xlsx", WriteXLSX},
		{"parquet", ".parquet", WriteParquet},
	}
	for i, w := range writers {
		path := filepath.Join(dir, "lop_clean_"+stamp+w.ext)
		results[i] = Result{Format: w.format, Path: path}
		g.Go(func() error {
			results[i].Err = w.write(path, records)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// canonicalHeaders is the fixed leading column order for CSV and XLSX.
var canonicalHeaders = []string{
	"company_name",
	"company_name_canonical",
	"project_name",
	"project_name_canonical",
	"sales_person",
	"source_division",
	"funnel_stage",
	"est_revenue",
	"segment",
	"created_at",
	"updated_at",
	"ingested_at_utc",
}

// tabulate flattens records into string rows: the canonical columns first,
// then any extra source columns in sorted order.
func tabulate(records []model.CanonicalRecord) (headers []string, rows [][]string) {
	extraSet := map[string]bool{}
	for _, r := range records {
		for k := range r.Extra {
			extraSet[k] = true
		}
	}
	extras := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extras = append(extras, k)
	}
	sort.Strings(extras)

	headers = append(append([]string{}, canonicalHeaders...), extras...)

	rows = make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{
			strOr(r.CompanyName),
			strOr(r.CompanyNameCanonical),
			strOr(r.ProjectName),
			strOr(r.ProjectNameCanonical),
			strOr(r.SalesPerson),
			string(r.SourceDivision),
			strOr(r.FunnelStage),
			revenueString(r.EstRevenue),
			strOr(r.Segment),
			timeOr(r.CreatedAt),
			timeOr(r.UpdatedAt),
			r.IngestedAt.UTC().Format(timeLayout),
		}
		for _, k := range extras {
			row = append(row, strOr(r.Extra[k]))
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func strOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeOr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func revenueString(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// countBy tallies records by a string projection, used by the XLSX summary
// sheet. Keys come back sorted for deterministic output.
func countBy(records []model.CanonicalRecord, key func(model.CanonicalRecord) string) ([]string, map[string]int) {
	counts := map[string]int{}
	for _, r := range records {
		counts[key(r)]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, counts
}
