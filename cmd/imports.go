package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rantizi/infomedia-dashboard/internal/importer"
	"github.com/rantizi/infomedia-dashboard/internal/model"
)

var importsLimit int

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "List import jobs and their statuses",
	Long:  "Displays recent import jobs with status, row counters and any recorded error.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		imports, err := importer.List(ctx, pool, importsLimit)
		if err != nil {
			return eris.Wrap(err, "imports")
		}

		if len(imports) == 0 {
			zap.L().Info("no imports found")
			return nil
		}

		formatImports(os.Stdout, imports)
		return nil
	},
}

func init() {
	importsCmd.Flags().IntVar(&importsLimit, "limit", 50, "maximum number of imports to list")
	rootCmd.AddCommand(importsCmd)
}

func formatImports(out io.Writer, imports []model.Import) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDIVISION\tSTATUS\tCREATED\tROWS IN\tROWS OUT\tERROR")
	_, _ = fmt.Fprintln(w, "--\t--------\t------\t-------\t-------\t--------\t-----")

	for _, imp := range imports {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			imp.ID,
			imp.Division,
			imp.Status,
			imp.CreatedAt.Format("2006-01-02 15:04"),
			intOr(imp.RowsIn),
			intOr(imp.RowsOut),
			truncate(strOr(imp.ErrorLog), 60),
		)
	}
	_ = w.Flush()
}

func intOr(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func strOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// truncate shortens s to at most n characters, counting runes so a
// multi-byte character at the cut point never renders as mojibake.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
