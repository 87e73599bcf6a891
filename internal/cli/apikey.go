package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lenderhub/internal/platform/repositories"
)

func (a *app) apiKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apikey",
		Aliases: []string{"apikeys"},
		Short:   "Manage API keys",
		Long: `Manage the API keys of your organisation.

Raw keys are printed once, by create and regenerate. Store them right away.`,
	}

	cmd.AddCommand(a.apiKeyListCommand())
	cmd.AddCommand(a.apiKeyCreateCommand())
	cmd.AddCommand(a.apiKeyRegenerateCommand())
	cmd.AddCommand(a.apiKeyRevokeCommand())
	cmd.AddCommand(a.apiKeyDeleteCommand())

	return cmd
}

func (a *app) apiKeyListCommand() *cobra.Command {
	var page repositories.Page

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
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

			keys, err := e.apiKeys.List(ctx, orgID, page)
			if err != nil {
				return err
			}

			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No API keys found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPREFIX\tSTATUS\tLAST USED\tCREATED")
			fmt.Fprintln(w, "--\t----\t------\t------\t---------\t-------")
			for _, k := range keys {
				status := "active"
				if !k.IsActive {
					status = "revoked"
				}
				if k.IsDefault {
					status += " (default)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s...\t%s\t%s\t%s\n",
					k.ID,
					k.KeyName,
					k.Prefix,
					status,
					formatTime(k.LastUsedAt),
					formatTime(&k.CreatedAt),
				)
			}
			return w.Flush()
		},
	}

	addPageFlags(cmd, &page)

	return cmd
}

func (a *app) apiKeyCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an API key",
		Args:  cobra.ExactArgs(1),
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

			created, err := e.apiKeys.Create(ctx, orgID, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created API key %s\n", created.ID)
			fmt.Fprintf(out, "Key: %s\n", created.RawSecret)
			fmt.Fprintln(out, "This key will not be shown again.")
			return nil
		},
	}
}

func (a *app) apiKeyRegenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <key-id>",
		Short: "Replace the secret of an API key",
		Long: `Replace the secret of an API key. The old secret stops working immediately.
The key keeps its id, name and prefix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, e, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			regenerated, err := e.apiKeys.Regenerate(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Regenerated API key %s\n", args[0])
			fmt.Fprintf(out, "Key: %s\n", regenerated.RawSecret)
			fmt.Fprintln(out, "This key will not be shown again.")
			return nil
		},
	}
}

func (a *app) apiKeyRevokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Deactivate an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, e, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.apiKeys.Revoke(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked API key %s\n", args[0])
			return nil
		},
	}
}

func (a *app) apiKeyDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key-id>",
		Short: "Delete an API key",
		Long:  `Delete an API key. The default key of an organisation cannot be deleted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, e, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.apiKeys.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted API key %s\n", args[0])
			return nil
		},
	}
}
