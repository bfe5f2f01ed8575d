package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davestroud/publix/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "publix",
	Short: "Grocery chain expansion analysis toolkit",
	Long:  "Scores markets for grocery expansion: store density and saturation, ranked opportunities, co-tenancy, ROI, and narrative predictions backed by historical expansion patterns.",
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
