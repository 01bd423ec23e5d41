package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jguan/pipelayer/pkg/deploy"
)

func NewValidateCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dir>...",
		Short: "Validate pipeline instances without activating",
		Long: `Run remote dry-run validation for one or more instances.

Nothing is uploaded or activated. Every instance is checked even if an
earlier one fails, so a single run reports all findings.`,
		Example: `  # Validate all instances under ./pipelines
  pipelayer validate ./pipelines/*`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), root, args)
		},
	}
}

// finding is the row shape for validation output.
type finding struct {
	Level    string `json:"level"`
	ObjectID string `json:"object"`
	Message  string `json:"message"`
}

func runValidate(ctx context.Context, root *RootCommand, dirs []string) error {
	opts := root.OutputOptions()

	reporter := &deploy.CaptureReporter{}
	set, cleanup, err := root.newSet(reporter)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, dir := range dirs {
		if _, err := set.AddInstance(dir); err != nil {
			return fmt.Errorf("load instance %s: %w", dir, err)
		}
	}

	ok, err := set.AllValid(ctx)
	if err != nil {
		return err
	}

	var findings []finding
	for _, w := range reporter.Warnings {
		findings = append(findings, finding{Level: "warning", ObjectID: w.ObjectID, Message: w.Message})
	}
	for _, e := range reporter.Errors {
		findings = append(findings, finding{Level: "error", ObjectID: e.ObjectID, Message: e.Message})
	}
	if len(findings) > 0 {
		if err := PrintOutput(findings, opts); err != nil {
			return err
		}
	}

	if !ok {
		return fmt.Errorf("%d validation error(s)", len(reporter.Errors))
	}

	PrintSuccess(fmt.Sprintf("%d pipeline(s) valid", len(set.Pipelines())), opts)
	return nil
}
