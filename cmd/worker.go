package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rantizi/infomedia-dashboard/internal/importer"
	"github.com/rantizi/infomedia-dashboard/internal/storage"
)

var workerCmd = &cobra.Command{
	Use:   "worker <import-id>",
	Short: "Run the staged load for a queued import",
	Long:  "Claims the import row, downloads the file from object storage, normalizes every row, then stages them and promotes per-identity survivors into companies and opportunities in one transaction.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if _, err := uuid.Parse(args[0]); err != nil {
			return eris.Wrapf(err, "worker: invalid import id %q", args[0])
		}

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := storage.NewClient(cfg.Storage)
		runner := importer.NewRunner(pool, store)

		if err := runner.Run(ctx, args[0]); err != nil {
			return eris.Wrapf(err, "worker: import %s", args[0])
		}

		zap.L().Info("worker finished", zap.String("import_id", args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

// storePool creates a pgxpool.Pool from store.database_url.
func storePool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := cfg.Store.DatabaseURL
	if dsn == "" {
		return nil, eris.New("store: no database_url configured (set store.database_url)")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping database")
	}

	return pool, nil
}
