package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/iqm-atlas/internal/model"
)

var rankCmd = &cobra.Command{
	Use:     "rank",
	Short:   "Rank selected regions of one or more states by an indicator",
	Example: `  iqm-atlas rank --state SP --region Campinas --region Santos --indicator "IQM / 2025"
  iqm-atlas rank --state SP --state RJ --region Niterói --format csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx, cfg, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		states, _ := cmd.Flags().GetStringArray("state")
		regions, _ := cmd.Flags().GetStringArray("region")
		indicator, _ := cmd.Flags().GetString("indicator")
		format, _ := cmd.Flags().GetString("format")
		if indicator == "" {
			indicator, _ = env.Service.TopDefaults()
		}

		view, err := env.Service.View(ctx, model.Selection{
			States:    states,
			Regions:   regions,
			Indicator: indicator,
		})
		if err != nil {
			return err
		}

		if len(view.Table.Rows) == 0 {
			cmd.PrintErrln("No regions matched the selection.")
			return nil
		}
		return writeRanking(os.Stdout, view.Table, format, env.Service.Columns().Name)
	},
}

func init() {
	rankCmd.Flags().StringArray("state", nil, "state code (UF); repeatable")
	rankCmd.Flags().StringArray("region", nil, "microrregião name; repeatable")
	rankCmd.Flags().String("indicator", "", "indicator column (default from config top.indicator)")
	rankCmd.Flags().String("format", formatTable, "output format: table, json, yaml or csv")
	rootCmd.AddCommand(rankCmd)
}
