package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lenderhub/internal/platform/repositories"
)

func (a *app) webhookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "webhook",
		Aliases: []string{"webhooks"},
		Short:   "Manage webhooks",
	}

	cmd.AddCommand(a.webhookListCommand())
	cmd.AddCommand(a.webhookCreateCommand())
	cmd.AddCommand(a.webhookTestCommand())
	cmd.AddCommand(a.webhookDeleteCommand())

	return cmd
}

func (a *app) webhookListCommand() *cobra.Command {
	var page repositories.Page

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List webhooks",
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

			hooks, err := e.webhooks.List(ctx, orgID, page)
			if err != nil {
				return err
			}

			if len(hooks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No webhooks found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tURL\tEVENTS\tSTATUS\tFAILURES\tLAST TRIGGERED")
			fmt.Fprintln(w, "--\t----\t---\t------\t------\t--------\t--------------")
			for _, h := range hooks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					h.ID,
					orDash(h.Name),
					h.URL,
					strings.Join(h.Events, ","),
					h.Status,
					h.FailureCount,
					formatTime(h.LastTriggeredAt),
				)
			}
			return w.Flush()
		},
	}

	addPageFlags(cmd, &page)

	return cmd
}

func (a *app) webhookCreateCommand() *cobra.Command {
	var (
		name   string
		url    string
		events []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a webhook",
		Long: `Register a webhook. The signing secret is printed once.

Example:
  lenderctl webhook create --url https://hooks.example.com/lenderhub --event application.approved`,
		Args: cobra.NoArgs,
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

			created, err := e.webhooks.Create(ctx, orgID, name, url, events)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created webhook %s\n", created.ID)
			fmt.Fprintf(out, "Secret: %s\n", created.Secret)
			fmt.Fprintln(out, "This secret will not be shown again.")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&url, "url", "", "Endpoint URL (http or https)")
	cmd.Flags().StringSliceVar(&events, "event", nil, "Event to subscribe to (repeatable)")
	cmd.MarkFlagRequired("url")

	return cmd
}

func (a *app) webhookTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test <webhook-id>",
		Short: "Send a test event to a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, e, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			result, err := e.webhooks.Test(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			resp := result.Response
			switch {
			case resp.Error != "":
				fmt.Fprintf(out, "Delivery failed: %s\n", resp.Error)
			case result.Success:
				fmt.Fprintf(out, "Delivered: %d %s\n", resp.Status, resp.StatusText)
			default:
				fmt.Fprintf(out, "Delivery rejected: %d %s\n", resp.Status, resp.StatusText)
			}
			if resp.Body != "" {
				fmt.Fprintf(out, "Response body: %s\n", resp.Body)
			}
			return nil
		},
	}
}

func (a *app) webhookDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <webhook-id>",
		Short: "Delete a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, e, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.webhooks.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted webhook %s\n", args[0])
			return nil
		},
	}
}
