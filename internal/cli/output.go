package cli

import (
	"time"

	"github.com/spf13/cobra"

	"lenderhub/internal/platform/repositories"
)

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func addPageFlags(cmd *cobra.Command, page *repositories.Page) {
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "Maximum number of rows (default 100, max 500)")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "Number of rows to skip")
}
