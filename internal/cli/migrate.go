package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcarvalho-pb/billing_system-go/internal/infra/config"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables (or indexes) the configured store needs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := openStore(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Migrate(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s store\n", cfg.Database.Driver)
			return nil
		},
	}
}
