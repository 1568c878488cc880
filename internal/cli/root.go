package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root limitr command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "limitr",
		Short: "Rate limiting toolkit with time-travel testing",
		Long: `limitr bundles four admission algorithms behind one interface and lets
you exercise them against a virtual clock: fast-forward time, replay
recorded traffic, and watch decisions live on a dashboard.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newTestCmd(),
		newReplayCmd(),
		newGenerateCmd(),
	)

	return root
}
