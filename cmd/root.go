package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inkwell-hq/formfill/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "formfill",
	Short: "Field and question reconciliation engine for form documents",
	Long:  "Merges detection passes over form pages, groups fields into questions, distributes free-text answers into field values, and reconciles answers across questions.",
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
