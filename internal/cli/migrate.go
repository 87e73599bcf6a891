package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lenderhub/internal/platform/database"
)

func (a *app) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}

	for _, direction := range []string{database.DirectionUp, database.DirectionDown} {
		cmd.AddCommand(&cobra.Command{
			Use:   direction,
			Short: fmt.Sprintf("Run all %s migrations", direction),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := a.loadConfig(cmd)
				if err != nil {
					return err
				}

				db, err := database.Open(cfg.Database)
				if err != nil {
					return fmt.Errorf("connect to database: %w", err)
				}
				defer db.Close()

				if err := database.Migrate(db, direction); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Migrations %s completed\n", direction)
				return nil
			},
		})
	}

	return cmd
}
