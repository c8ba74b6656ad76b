package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rantizi/infomedia-dashboard/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lopctl",
	Short: "Sales pipeline (LOP) cleaning and import toolkit",
	Long:  "Normalizes division spreadsheets into canonical pipeline records, dedupes them, and loads queued imports into Postgres via staging tables.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
