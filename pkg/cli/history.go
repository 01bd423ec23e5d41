package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jguan/pipelayer/pkg/infra/journal"
)

func NewHistoryCommand(root *RootCommand) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent deployment activity",
		Long: `List recent activation attempts from the local deployment
journal, newest first.`,
		Example: `  # Show the last 20 deployments
  pipelayer history

  # Show more, as JSON
  pipelayer history --limit 100 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), root, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")

	return cmd
}

func runHistory(ctx context.Context, root *RootCommand, limit int) error {
	path := root.Config().Journal.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	store, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(ctx, limit)
	if err != nil {
		return err
	}

	return PrintOutput(entries, root.OutputOptions())
}
