package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lenderhub/internal/platform/auth"
)

func (a *app) loginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a session token in the keychain",
		Long: `Validate a session token issued by the LenderHub dashboard and store it in
the local keychain. Without --token the token is read from stdin.

Example:
  lenderctl login --token eyJhbGciOi...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			token, err := cmd.Flags().GetString("token")
			if err != nil {
				return err
			}

			token = strings.TrimSpace(token)
			if token == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Enter session token: ")
				scanner := bufio.NewScanner(cmd.InOrStdin())
				scanner.Buffer(make([]byte, 0, 4096), 64*1024)
				if scanner.Scan() {
					token = strings.TrimSpace(scanner.Text())
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			if token == "" {
				return errors.New("token cannot be empty")
			}

			claims, err := auth.NewTokenService(cfg.JWT).ValidateToken(token)
			if err != nil {
				return fmt.Errorf("invalid session token: %w", err)
			}

			if err := a.tokenStore(cfg).Save(token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (organization %s)\n", claims.Subject, claims.OrgID)
			return nil
		},
	}

	cmd.Flags().String("token", "", "Session token (optional, overrides prompt)")

	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := a.tokenStore(cfg).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the session stored in the keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, e, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := requireSession(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintf(w, "User:\t%s\n", s.UserID)
			fmt.Fprintf(w, "Organization:\t%s\n", s.OrgID)
			if s.Email != "" {
				fmt.Fprintf(w, "Email:\t%s\n", s.Email)
			}
			if s.Role != "" {
				fmt.Fprintf(w, "Role:\t%s\n", s.Role)
			}
			if !s.ExpiresAt.IsZero() {
				fmt.Fprintf(w, "Expires:\t%s\n", s.ExpiresAt.UTC().Format("2006-01-02 15:04:05 MST"))
			}
			return w.Flush()
		},
	}
}
