package importer

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rantizi/infomedia-dashboard/internal/db"
	"github.com/rantizi/infomedia-dashboard/internal/etl"
	"github.com/rantizi/infomedia-dashboard/internal/fetcher"
	"github.com/rantizi/infomedia-dashboard/internal/model"
	"github.com/rantizi/infomedia-dashboard/internal/storage"
)

// Runner executes the staged load for queued imports.
type Runner struct {
	pool  db.Pool
	store storage.Downloader
}

// NewRunner wires a Runner over a connection pool and a storage client.
func NewRunner(pool db.Pool, store storage.Downloader) *Runner {
	return &Runner{pool: pool, store: store}
}

// Run executes the full pipeline for one import id:
// claim and mark RUNNING, download and parse the file, normalize every row,
// then stage, promote and finalize in a single transaction. Any failure marks
// the import FAILED with the error chain in error_log and returns the error.
// Re-running a FAILED import is safe: staging rows from the earlier attempt
// are replaced, and the dimension upserts are idempotent.
func (r *Runner) Run(ctx context.Context, importID string) error {
	log := zap.L().With(zap.String("import_id", importID))

	c, err := r.claimAndMarkRunning(ctx, importID)
	if err != nil {
		return err
	}
	log.Info("import claimed",
		zap.String("division", string(c.Division)),
		zap.String("storage_path", c.StoragePath),
	)

	rowsIn, rowsOut, err := r.process(ctx, importID, c)
	if err != nil {
		log.Error("import failed", zap.Error(err))
		errLog := eris.ToString(err, true)
		if merr := markStatus(ctx, r.pool, importID, model.ImportFailed, nil, nil, &errLog); merr != nil {
			log.Error("could not record failure", zap.Error(merr))
		}
		return err
	}

	log.Info("import completed", zap.Int("rows_in", rowsIn), zap.Int("rows_out", rowsOut))
	return nil
}

// claimAndMarkRunning locks the import row, records the RUNNING transition,
// and releases the lock by committing. The download happens outside any
// transaction so slow storage never holds a row lock.
func (r *Runner) claimAndMarkRunning(ctx context.Context, importID string) (claim, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return claim{}, eris.Wrap(err, "importer: begin claim transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	c, err := claimImport(ctx, tx, importID)
	if err != nil {
		return claim{}, err
	}
	if err := markStatus(ctx, tx, importID, model.ImportRunning, nil, nil, nil); err != nil {
		return claim{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return claim{}, eris.Wrap(err, "importer: commit claim transaction")
	}
	return c, nil
}

func (r *Runner) process(ctx context.Context, importID string, c claim) (rowsIn, rowsOut int, err error) {
	data, err := r.store.Download(ctx, c.StoragePath)
	if err != nil {
		return 0, 0, err
	}

	// Worker-queued files carry their header on the first row, unlike the
	// analyst spreadsheets the batch command reads.
	table, err := fetcher.ParseTable(data, c.StoragePath, fetcher.Options{HeaderRow: 1})
	if err != nil {
		return 0, 0, err
	}
	rowsIn = len(table.Rows)

	// Every normalized row is staged, identity-less ones included; dropping
	// and per-identity conflict resolution happen in the promote SQL, so the
	// staging tables stay a complete audit trail of the file.
	resolved := etl.ResolveColumns(*table)
	records := etl.Clean(resolved, etl.CleanOptions{Division: c.Division, Now: time.Now().UTC()})
	rowsOut = len(records)

	if err := r.load(ctx, importID, c, table, records, rowsIn, rowsOut); err != nil {
		return rowsIn, rowsOut, err
	}
	return rowsIn, rowsOut, nil
}

// load stages the raw and clean rows, promotes them into the dimension
// tables, and finalizes the import, all in one transaction so a partial
// attempt leaves no trace.
func (r *Runner) load(ctx context.Context, importID string, c claim, table *etl.Table, records []model.CanonicalRecord, rowsIn, rowsOut int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "importer: begin load transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// Clear any staging rows left by an earlier failed attempt.
	if _, err := tx.Exec(ctx, "DELETE FROM stg_raw_rows WHERE import_id = $1", importID); err != nil {
		return eris.Wrap(err, "importer: clear stg_raw_rows")
	}
	if _, err := tx.Exec(ctx, "DELETE FROM stg_clean_rows WHERE import_id = $1", importID); err != nil {
		return eris.Wrap(err, "importer: clear stg_clean_rows")
	}

	rawRows, err := rawStagingRows(importID, table)
	if err != nil {
		return err
	}
	if _, err := db.CopyRows(ctx, tx,
		"stg_raw_rows",
		[]string{"import_id", "row_number", "raw_json"},
		rawRows,
	); err != nil {
		return err
	}

	if _, err := db.CopyRows(ctx, tx,
		"stg_clean_rows",
		[]string{
			"import_id", "row_number",
			"company_name", "company_name_canonical",
			"project_name", "project_name_canonical",
			"sales_person", "source_division", "funnel_stage",
			"est_revenue", "segment", "created_at", "updated_at",
		},
		cleanStagingRows(importID, records),
	); err != nil {
		return err
	}

	if err := upsertDimensions(ctx, tx, c.TenantID, importID); err != nil {
		return err
	}

	if err := markStatus(ctx, tx, importID, model.ImportSuccess, &rowsIn, &rowsOut, nil); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "importer: commit load transaction")
	}
	return nil
}

// rawStagingRows serializes each source row as a JSON object keyed by header.
func rawStagingRows(importID string, table *etl.Table) ([][]any, error) {
	rows := make([][]any, 0, len(table.Rows))
	for i := range table.Rows {
		obj := make(map[string]*string, len(table.Headers))
		for j, h := range table.Headers {
			if v := table.Cell(i, j); v != "" {
				obj[h] = &v
			} else {
				obj[h] = nil
			}
		}
		payload, err := json.Marshal(obj)
		if err != nil {
			return nil, eris.Wrapf(err, "importer: encode raw row %d", i+1)
		}
		rows = append(rows, []any{importID, i + 1, string(payload)})
	}
	return rows, nil
}

func cleanStagingRows(importID string, records []model.CanonicalRecord) [][]any {
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		var revenue any
		if !math.IsNaN(rec.EstRevenue) {
			revenue = rec.EstRevenue
		}
		rows = append(rows, []any{
			importID, rec.RowNumber,
			rec.CompanyName, rec.CompanyNameCanonical,
			rec.ProjectName, rec.ProjectNameCanonical,
			rec.SalesPerson, string(rec.SourceDivision), rec.FunnelStage,
			revenue, rec.Segment, rec.CreatedAt, rec.UpdatedAt,
		})
	}
	return rows
}

// sourceRankSQL mirrors etl.SourceRank so promote-time conflict resolution
// picks the same survivor the batch deduper would.
const sourceRankSQL = `CASE sc.source_division
		    WHEN 'BIDDING' THEN 0
		    WHEN 'MSDC' THEN 1
		    WHEN 'SALES' THEN 2
		    WHEN 'MARKETING' THEN 3
		    WHEN 'OTHER' THEN 4
		    ELSE 6
		  END`

// upsertDimensions promotes staged clean rows into companies and
// opportunities. Staged rows are a per-input-row audit trail, so each
// statement resolves one survivor per identity with DISTINCT ON (source rank
// ascending, effective timestamp descending, row order) before upserting;
// that also keeps a conflict row from being touched twice in one statement.
// Both statements are keyed so re-promotion of the same import converges
// instead of duplicating.
func upsertDimensions(ctx context.Context, tx execer, tenantID, importID string) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO companies (tenant_id, name, name_canonical, segment)
		SELECT DISTINCT ON (sc.company_name_canonical)
		  $1::uuid,
		  sc.company_name,
		  sc.company_name_canonical,
		  sc.segment
		FROM stg_clean_rows sc
		WHERE sc.import_id = $2::uuid
		  AND sc.company_name IS NOT NULL
		  AND sc.company_name_canonical IS NOT NULL
		ORDER BY
		  sc.company_name_canonical,
		  `+sourceRankSQL+`,
		  COALESCE(sc.updated_at, sc.created_at) DESC NULLS LAST,
		  sc.row_number
		ON CONFLICT (tenant_id, name_canonical)
		DO UPDATE SET
		  segment = EXCLUDED.segment,
		  updated_at = NOW()
	`, tenantID, importID); err != nil {
		return eris.Wrap(err, "importer: upsert companies")
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO opportunities (
		  tenant_id, company_id, project_name, project_name_canonical,
		  stage, amount, source_division, created_at
		)
		SELECT DISTINCT ON (sc.company_name_canonical, sc.project_name_canonical)
		  $1::uuid,
		  c.id,
		  sc.project_name,
		  sc.project_name_canonical,
		  sc.funnel_stage,
		  sc.est_revenue,
		  sc.source_division,
		  COALESCE(sc.created_at, NOW())
		FROM stg_clean_rows sc
		JOIN companies c
		  ON c.tenant_id = $1::uuid
		 AND c.name_canonical = sc.company_name_canonical
		WHERE sc.import_id = $2::uuid
		  AND sc.project_name IS NOT NULL
		  AND sc.project_name_canonical IS NOT NULL
		ORDER BY
		  sc.company_name_canonical,
		  sc.project_name_canonical,
		  `+sourceRankSQL+`,
		  COALESCE(sc.updated_at, sc.created_at) DESC NULLS LAST,
		  sc.row_number
		ON CONFLICT (tenant_id, company_id, project_name_canonical)
		DO UPDATE SET
		  stage                  = EXCLUDED.stage,
		  amount                 = EXCLUDED.amount,
		  source_division        = EXCLUDED.source_division,
		  project_name           = EXCLUDED.project_name,
		  project_name_canonical = EXCLUDED.project_name_canonical,
		  updated_at             = NOW()
	`, tenantID, importID); err != nil {
		return eris.Wrap(err, "importer: upsert opportunities")
	}
	return nil
}
