package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sagecrest/cme-engine/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cme",
	Short: "Ten-year capital market expectations engine",
	Long:  "Computes expected returns across asset classes from macro building blocks, with stress-scenario overrides, provenance tracking, and FX adjustment.",
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
