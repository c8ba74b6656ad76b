package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rantizi/infomedia-dashboard/internal/etl"
	"github.com/rantizi/infomedia-dashboard/internal/export"
	"github.com/rantizi/infomedia-dashboard/internal/fetcher"
	"github.com/rantizi/infomedia-dashboard/internal/model"
)

var cleanFlags struct {
	input     string
	sheet     string
	headerRow int
	division  string
	outDir    string
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean a division spreadsheet and export canonical records",
	Long:  "Reads a local XLSX/CSV file, normalizes and dedupes the rows, prints a validation summary with quick stats, and exports CSV, XLSX and Parquet files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := cleanFlags.input
		if input == "" {
			input = cfg.Input.Path
		}
		if input == "" {
			return eris.New("clean: no input file (set --input or input.path)")
		}

		sheet := cleanFlags.sheet
		if sheet == "" {
			sheet = cfg.Input.SheetName
		}
		headerRow := cleanFlags.headerRow
		if headerRow == 0 {
			headerRow = cfg.Input.HeaderRow
		}
		outDir := cleanFlags.outDir
		if outDir == "" {
			outDir = cfg.Output.Dir
		}

		data, err := os.ReadFile(input)
		if err != nil {
			return eris.Wrapf(err, "clean: read %s", input)
		}

		table, err := fetcher.ParseTable(data, input, fetcher.Options{
			SheetName: sheet,
			HeaderRow: headerRow,
		})
		if err != nil {
			return err
		}
		rowsRead := len(table.Rows)

		resolved := etl.ResolveColumns(*table)
		records := etl.Clean(resolved, etl.CleanOptions{
			Division: model.Division(cleanFlags.division),
			Now:      time.Now().UTC(),
		})
		keyed := etl.FilterKeyed(records)
		deduped := etl.Dedupe(keyed)

		summary := etl.Validate(rowsRead, len(keyed), deduped)
		stats := etl.Describe(deduped)
		printSummary(os.Stdout, summary)
		printStats(os.Stdout, stats)

		if err := ensureOutputDir(outDir); err != nil {
			return err
		}

		results := export.WriteAll(cmd.Context(), outDir, deduped, time.Now().UTC())
		printResults(os.Stdout, results)
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanFlags.input, "input", "i", "", "input XLSX/CSV file (defaults to input.path)")
	cleanCmd.Flags().StringVar(&cleanFlags.sheet, "sheet", "", "sheet name (defaults to the first sheet)")
	cleanCmd.Flags().IntVar(&cleanFlags.headerRow, "header-row", 0, "1-based header row (defaults to input.header_row)")
	cleanCmd.Flags().StringVar(&cleanFlags.division, "division", "", "force source division for every row (BIDDING/MSDC/SALES/MARKETING/OTHER)")
	cleanCmd.Flags().StringVarP(&cleanFlags.outDir, "out", "o", "", "output directory (defaults to output.dir)")
	rootCmd.AddCommand(cleanCmd)
}

// ensureOutputDir creates the export directory; a failure aborts the run
// before any writer opens a file.
func ensureOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "clean: create output dir %s", dir)
	}
	return nil
}

// printer renders counts and revenue figures with thousands separators.
var printer = message.NewPrinter(language.English)

func printSummary(w io.Writer, s etl.Summary) {
	fmt.Fprintln(w, "\n=== VALIDATION SUMMARY ===")
	printer.Fprintf(w, "Rows read                : %d\n", s.RowsRead)
	printer.Fprintf(w, "Rows after drop key-null : %d\n", s.RowsAfterKeyDrop)
	printer.Fprintf(w, "Rows after dedupe        : %d\n", s.RowsAfterDedupe)
	if !s.HasIssues() {
		fmt.Fprintln(w, "- No critical issues found.")
		return
	}
	if s.InvalidStage > 0 {
		printer.Fprintf(w, "- invalid_stage_rows: %d\n", s.InvalidStage)
	}
	if s.NegativeRevenue > 0 {
		printer.Fprintf(w, "- negative_revenue_rows: %d\n", s.NegativeRevenue)
	}
	if s.MissingCreatedAt > 0 {
		printer.Fprintf(w, "- missing_created_at: %d\n", s.MissingCreatedAt)
	}
}

func printStats(w io.Writer, st etl.Stats) {
	fmt.Fprintln(w, "\n=== QUICK STATS ===")

	fmt.Fprintln(w, "By funnel_stage:")
	for _, k := range sortedKeys(st.ByStage) {
		label := k
		if label == "" {
			label = "(none)"
		}
		printer.Fprintf(w, "  %-12s %d\n", label, st.ByStage[k])
	}

	fmt.Fprintln(w, "\nBy source_division:")
	divs := make([]string, 0, len(st.BySource))
	for d := range st.BySource {
		divs = append(divs, string(d))
	}
	sort.Strings(divs)
	for _, d := range divs {
		printer.Fprintf(w, "  %-12s %d\n", d, st.BySource[model.Division(d)])
	}

	fmt.Fprintln(w, "\nRevenue (est_revenue) describe:")
	printer.Fprintf(w, "%6s  %d\n", "count", st.Revenue.Count)
	printRevenueLine(w, "mean", st.Revenue.Mean)
	printRevenueLine(w, "std", st.Revenue.Std)
	printRevenueLine(w, "min", st.Revenue.Min)
	printRevenueLine(w, "25%", st.Revenue.P25)
	printRevenueLine(w, "50%", st.Revenue.Median)
	printRevenueLine(w, "75%", st.Revenue.P75)
	printRevenueLine(w, "max", st.Revenue.Max)
}

func printRevenueLine(w io.Writer, label string, v float64) {
	if math.IsNaN(v) {
		fmt.Fprintf(w, "%6s  NaN\n", label)
		return
	}
	if v == math.Trunc(v) {
		printer.Fprintf(w, "%6s  %d\n", label, int64(v))
		return
	}
	printer.Fprintf(w, "%6s  %.3f\n", label, v)
}

func printResults(w io.Writer, results []export.Result) {
	fmt.Fprintln(w, "\nSaved to:")
	for _, r := range results {
		if r.Err == nil {
			fmt.Fprintf(w, "- %s\n", r.Path)
		}
	}
	var failed []export.Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintln(w, "\nSkipped/failed:")
		for _, r := range failed {
			fmt.Fprintf(w, "- %s: %v\n", r.Path, r.Err)
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
