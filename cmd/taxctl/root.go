package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "taxctl",
		Short:         "Tax savings estimates and lead maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newEstimateCmd(),
		newSeedAdminCmd(),
		newLeadsCmd(),
	)

	return cmd
}
