package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lenderhub/internal/platform/models"
	"lenderhub/internal/platform/repositories"
)

func (a *app) auditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}

	cmd.AddCommand(a.auditListCommand())

	return cmd
}

func (a *app) auditListCommand() *cobra.Command {
	var (
		page         repositories.Page
		resourceType string
		resourceID   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit entries, newest first",
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

			filter := repositories.AuditFilter{
				ResourceType: models.ResourceType(resourceType),
				ResourceID:   resourceID,
			}
			logs, err := e.audit.ListByOrg(ctx, orgID, filter, page)
			if err != nil {
				return err
			}

			if len(logs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No audit entries found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "TIME\tUSER\tACTION\tRESOURCE\tID")
			fmt.Fprintln(w, "----\t----\t------\t--------\t--")
			for _, l := range logs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					formatTime(&l.CreatedAt),
					l.UserID,
					l.Action,
					l.ResourceType,
					l.ResourceID,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&resourceType, "resource-type", "", "Only entries for this resource type (api_key, webhook, trigger, email_notification)")
	cmd.Flags().StringVar(&resourceID, "resource-id", "", "Only entries for this resource id")
	addPageFlags(cmd, &page)

	return cmd
}
