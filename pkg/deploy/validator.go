package deploy

import (
	"context"
	"fmt"

	"github.com/jguan/pipelayer/pkg/datapipeline"
)

// The stub entity is a reserved remote pipeline used only for dry-run
// validation. It is never pushed a definition and never activated, so
// it stays PENDING forever; repeated runs reuse it via the fixed
// unique ID.
const (
	stubName        = "Pipelayer validation stub"
	stubUniqueID    = "stub"
	stubDescription = "This pipeline should always be in 'PENDING' status.\n" +
		"It is used by Pipelayer to validate pipeline definitions."
)

// Validator runs remote dry-run checks against the stub entity and
// reports every finding individually.
type Validator struct {
	client   datapipeline.Client
	reporter Reporter
}

func NewValidator(client datapipeline.Client, reporter Reporter) *Validator {
	if reporter == nil {
		reporter = &LogReporter{}
	}
	return &Validator{client: client, reporter: reporter}
}

// Validate checks the pipeline's translated definition against the
// remote service. Warnings and errors are reported per object before
// the boolean verdict is returned; a true result means no errors
// (warnings alone do not fail validation).
func (v *Validator) Validate(ctx context.Context, p *Pipeline) (bool, error) {
	stubID, err := v.client.CreatePipeline(ctx, stubName, stubUniqueID, stubDescription)
	if err != nil {
		return false, fmt.Errorf("create validation stub: %w", err)
	}

	result, err := v.client.ValidateDefinition(ctx, stubID,
		p.apiObjects(), p.apiParameters(), p.apiValues())
	if err != nil {
		return false, fmt.Errorf("validate pipeline %s: %w", p.Name(), err)
	}

	for _, w := range result.Warnings {
		v.reporter.Warning(w.ObjectID, w.Message)
	}
	for _, e := range result.Errors {
		v.reporter.Error(e.ObjectID, e.Message)
	}

	return !result.Errored, nil
}
