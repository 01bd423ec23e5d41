// Package datapipeline wraps the remote workflow-orchestration
// service. The Client interface is the only surface the deployment
// core depends on; the HTTP implementation owns the wire format.
package datapipeline

import (
	"context"

	"github.com/jguan/pipelayer/pkg/definition"
)

// LifecycleState is the remote service's status label for a pipeline
// entity. The set is open: the service may report states this package
// does not know about. Only PENDING entities accept an in-place
// definition replacement.
type LifecycleState string

const (
	StatePending    LifecycleState = "PENDING"
	StateScheduled  LifecycleState = "SCHEDULED"
	StateActivating LifecycleState = "ACTIVATING"
	StateFinished   LifecycleState = "FINISHED"
	StateDeleting   LifecycleState = "DELETING"
)

// PipelineDescription is the registered pipeline entity's identity and
// lifecycle state as reported by the describe call.
type PipelineDescription struct {
	ID    string
	Name  string
	State LifecycleState
}

// ValidationMessage is one warning or error from a remote dry-run
// check, tagged with the definition object it refers to.
type ValidationMessage struct {
	ObjectID string
	Message  string
}

// ValidationResult is the outcome of a remote dry-run check.
// Errored is true iff Errors is non-empty.
type ValidationResult struct {
	Errored  bool
	Warnings []ValidationMessage
	Errors   []ValidationMessage
}

// Client is the set of remote operations the deployment core uses.
//
// CreatePipeline is the idempotency anchor: the service returns the
// existing entity's ID when called again with the same unique ID
// rather than creating a duplicate.
type Client interface {
	CreatePipeline(ctx context.Context, name, uniqueID, description string) (string, error)

	DescribePipeline(ctx context.Context, id string) (*PipelineDescription, error)

	GetDefinition(ctx context.Context, id string) (*definition.Definition, error)

	ValidateDefinition(ctx context.Context, id string,
		objects []definition.APIObject,
		parameters []definition.APIParameter,
		values []definition.APIParameterValue) (*ValidationResult, error)

	PutDefinition(ctx context.Context, id string,
		objects []definition.APIObject,
		parameters []definition.APIParameter,
		values []definition.APIParameterValue) (*ValidationResult, error)

	ActivatePipeline(ctx context.Context, id string) error

	DeletePipeline(ctx context.Context, id string) error
}

// Compile-time assertions: both implementations must satisfy Client.
var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*MockClient)(nil)
)
