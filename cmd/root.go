package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/iqm-atlas/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "iqm-atlas",
	Short:        "IQM dashboard for Brazilian microrregiões",
	Long:         "Loads the microrregião boundaries and the IQM workbook, joins them by region code, and serves ranked map and table views per state and indicator.",
	SilenceUsage: true,
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
