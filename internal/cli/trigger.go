package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lenderhub/internal/platform/models"
	"lenderhub/internal/platform/repositories"
)

func (a *app) triggerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "trigger",
		Aliases: []string{"triggers"},
		Short:   "Manage automation triggers",
	}

	cmd.AddCommand(a.triggerListCommand())
	cmd.AddCommand(a.triggerToggleCommand())

	return cmd
}

func (a *app) triggerListCommand() *cobra.Command {
	var page repositories.Page

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List automation triggers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, e, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			orgID, err := orgOf(ctx)
			if err != nil {
				return err
			}

			list, err := e.triggers.List(ctx, orgID, page)
			if err != nil {
				return err
			}

			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No triggers found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCONDITION\tACTION\tSTATUS\tFIRED")
			fmt.Fprintln(w, "--\t----\t---------\t------\t------\t-----")
			for _, t := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
					t.ID,
					t.Name,
					t.ConditionType,
					t.ActionType,
					t.Status,
					t.TriggerCount,
				)
			}
			return w.Flush()
		},
	}

	addPageFlags(cmd, &page)

	return cmd
}

func (a *app) triggerToggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "toggle <trigger-id> <active|inactive>",
		Short:     "Enable or disable an automation trigger",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(models.TriggerActive), string(models.TriggerInactive)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, e, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			status := models.TriggerStatus(args[1])
			if err := e.triggers.Toggle(ctx, args[0], status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Trigger %s is now %s\n", args[0], status)
			return nil
		},
	}
}
