package cli

import "github.com/spf13/cobra"

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "billing",
		Short:         "Invoice and payment attempt bookkeeping service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default billing.yaml in . or ./config)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newMigrateCmd(&configPath))
	cmd.AddCommand(newServeCmd(&configPath))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
