package main

import (
	"os"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load both sources, join them and print join statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx, cfg, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		ds, err := env.Service.Dataset(ctx)
		if err != nil {
			return err
		}

		formatJoinStats(os.Stdout, ds)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
