package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tuitionctl",
		Short:         "Operator tool for the tuition dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", ".", "Directory holding config.yaml")

	root.AddCommand(
		newRouteCmd(),
		newSuggestCmd(),
		newWeekCmd(),
		newDBCmd(),
	)
	return root
}
