// Package importer runs queued imports: claim, download, normalize, stage,
// and promote into the canonical companies/opportunities tables.
package importer

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/rantizi/infomedia-dashboard/internal/db"
	"github.com/rantizi/infomedia-dashboard/internal/model"
)

// execer is satisfied by both db.Pool and pgx.Tx so status updates can run
// inside or outside the staging transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// claim is the locked snapshot of an import row taken at the start of a run.
type claim struct {
	TenantID    string
	StoragePath string
	Division    model.Division
}

// claimImport locks the import row for the duration of tx and returns its
// routing fields. A missing id is an error; a second worker hitting the same
// id blocks here until the first one's transaction ends.
func claimImport(ctx context.Context, tx pgx.Tx, importID string) (claim, error) {
	var c claim
	err := tx.QueryRow(ctx, `
		SELECT tenant_id, storage_path, division
		FROM imports
		WHERE id = $1
		FOR UPDATE
	`, importID).Scan(&c.TenantID, &c.StoragePath, &c.Division)
	if err == pgx.ErrNoRows {
		return claim{}, eris.Errorf("importer: import %s not found", importID)
	}
	if err != nil {
		return claim{}, eris.Wrapf(err, "importer: lock import %s", importID)
	}
	return c, nil
}

// markStatus updates the import's lifecycle status and optional row counters.
// Nil counters leave the stored values untouched so a FAILED update does not
// erase counts written by an earlier attempt.
func markStatus(ctx context.Context, q execer, importID string, status model.ImportStatus, rowsIn, rowsOut *int, errorLog *string) error {
	_, err := q.Exec(ctx, `
		UPDATE imports
		SET status = $1,
		    rows_in = COALESCE($2, rows_in),
		    rows_out = COALESCE($3, rows_out),
		    error_log = $4,
		    updated_at = now()
		WHERE id = $5
	`, string(status), rowsIn, rowsOut, errorLog, importID)
	if err != nil {
		return eris.Wrapf(err, "importer: mark import %s %s", importID, status)
	}
	return nil
}

// List returns the most recent imports, newest first.
func List(ctx context.Context, pool db.Pool, limit int) ([]model.Import, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := pool.Query(ctx, `
		SELECT id, tenant_id, storage_path, division, status,
		       rows_in, rows_out, error_log, created_at, updated_at
		FROM imports
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "importer: list imports")
	}
	defer rows.Close()

	var out []model.Import
	for rows.Next() {
		var imp model.Import
		if err := rows.Scan(
			&imp.ID, &imp.TenantID, &imp.StoragePath, &imp.Division, &imp.Status,
			&imp.RowsIn, &imp.RowsOut, &imp.ErrorLog, &imp.CreatedAt, &imp.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "importer: scan import row")
		}
		out = append(out, imp)
	}
	return out, rows.Err()
}
