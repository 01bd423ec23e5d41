package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jguan/pipelayer/pkg/deploy"
)

func NewUploadCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <dir>...",
		Short: "Upload task files without deploying",
		Long: `Upload each instance's task files to the bucket and prefix named
by its configured input-directory value. No validation or activation
happens.`,
		Example: `  # Push task files for one instance
  pipelayer upload ./pipelines/reports`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd.Context(), root, args)
		},
	}
}

func runUpload(ctx context.Context, root *RootCommand, dirs []string) error {
	set, cleanup, err := root.newSet(&deploy.LogReporter{})
	if err != nil {
		return err
	}
	defer cleanup()

	for _, dir := range dirs {
		if _, err := set.AddInstance(dir); err != nil {
			return fmt.Errorf("load instance %s: %w", dir, err)
		}
	}

	if err := set.Upload(ctx); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("Uploaded task files for %d pipeline(s)", len(set.Pipelines())), root.OutputOptions())
	return nil
}
