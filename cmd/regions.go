package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List selectable microrregiões of one or more states",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initService(ctx, cfg, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		states, _ := cmd.Flags().GetStringArray("state")
		if len(states) == 0 {
			all, err := env.Service.States(ctx)
			if err != nil {
				return err
			}
			for _, s := range all {
				_, _ = fmt.Fprintln(os.Stdout, s)
			}
			return nil
		}

		names, err := env.Service.RegionNames(ctx, states)
		if err != nil {
			return err
		}
		for _, n := range names {
			_, _ = fmt.Fprintln(os.Stdout, n)
		}
		return nil
	},
}

func init() {
	regionsCmd.Flags().StringArray("state", nil, "state code (UF); repeatable. Without it, lists the states.")
	rootCmd.AddCommand(regionsCmd)
}
