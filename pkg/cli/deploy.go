package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jguan/pipelayer/pkg/deploy"
)

func NewDeployCommand(root *RootCommand) *cobra.Command {
	var skipUpload bool

	cmd := &cobra.Command{
		Use:   "deploy <dir>...",
		Short: "Deploy pipeline instances",
		Long: `Deploy one or more pipeline instances end to end.

Each directory holds a values.json plus the task files for one
instance. The task files are uploaded to object storage, every
instance is validated remotely, and only when all of them pass does
activation begin. Instances whose remote definition already matches
are left untouched.`,
		Example: `  # Deploy two instances of the shared template
  pipelayer deploy ./pipelines/reports ./pipelines/exports

  # Deploy without re-uploading task files
  pipelayer deploy --skip-upload ./pipelines/reports`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd.Context(), root, args, skipUpload)
		},
	}

	cmd.Flags().BoolVar(&skipUpload, "skip-upload", false, "Skip uploading task files")

	return cmd
}

func runDeploy(ctx context.Context, root *RootCommand, dirs []string, skipUpload bool) error {
	opts := root.OutputOptions()

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

	if !skipUpload {
		if err := set.Upload(ctx); err != nil {
			return err
		}
	}

	if err := set.ActivateAll(ctx); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("Deployed %d pipeline(s)", len(set.Pipelines())), opts)
	return nil
}
