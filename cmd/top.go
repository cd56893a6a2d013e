package main

import (
	"os"

	"github.com/spf13/cobra"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the national top-N regions for an indicator",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx, cfg, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		indicator, limit := env.Service.TopDefaults()
		if cmd.Flags().Changed("indicator") {
			indicator, _ = cmd.Flags().GetString("indicator")
		}
		if cmd.Flags().Changed("limit") {
			limit, _ = cmd.Flags().GetInt("limit")
		}
		format, _ := cmd.Flags().GetString("format")

		table, err := env.Service.Top(ctx, indicator, limit)
		if err != nil {
			return err
		}
		return writeRanking(os.Stdout, table, format, env.Service.Columns().Name)
	},
}

func init() {
	topCmd.Flags().String("indicator", "", "indicator column (default from config top.indicator)")
	topCmd.Flags().Int("limit", 0, "number of regions (default from config top.limit)")
	topCmd.Flags().String("format", formatTable, "output format: table, json, yaml or csv")
	rootCmd.AddCommand(topCmd)
}
