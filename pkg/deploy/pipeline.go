// Package deploy owns the pipeline deployment life cycle: building
// instances from source directories, validating them against the
// remote service, and reconciling remote state until the desired
// definition is registered and active.
package deploy

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jguan/pipelayer/pkg/definition"
	"github.com/jguan/pipelayer/pkg/schedule"
)

// Well-known parameter values every pipeline instance carries.
const (
	ValueStartDateTime  = "myStartDateTime"
	ValueSchedulePeriod = "mySchedulePeriod"
	ValueInputDir       = "myS3InputDir"
)

// valuesFileName is the per-instance file inside each source directory.
const valuesFileName = "values.json"

// keyNamespace scopes the deterministic deployment keys this tool
// derives from pipeline names.
var keyNamespace = uuid.MustParse("8f3c1d6e-5a42-4b89-9d17-c20f6e9b3aa4")

// DeploymentKey derives the remote idempotency key for a pipeline
// name. The key is stable across runs and distinct per name, so
// repeated deployments converge on one remote entity and different
// pipelines can never alias each other.
func DeploymentKey(name string) string {
	return uuid.NewSHA1(keyNamespace, []byte(name)).String()
}

// Pipeline is one deployable pipeline instance: a private copy of the
// shared definition template plus the values and metadata loaded from
// its source directory.
type Pipeline struct {
	name          string
	description   string
	deploymentKey string
	sourceDir     string
	values        map[string]string
	def           *definition.Definition
}

// NewPipeline builds an instance from dir, which must contain a
// values.json file. The instance's name defaults to the directory
// base name when the metadata does not name it. The schedule start
// time is adjusted so it never lies in the past relative to now.
func NewPipeline(template *definition.Definition, dir string, now time.Time) (*Pipeline, error) {
	dir = filepath.Clean(dir)

	vf, err := definition.LoadValues(filepath.Join(dir, valuesFileName))
	if err != nil {
		return nil, err
	}

	name := vf.Metadata.Name
	if name == "" {
		name = filepath.Base(dir)
	}

	periodText, ok := vf.Values[ValueSchedulePeriod]
	if !ok {
		return nil, fmt.Errorf("pipeline %s: values missing %s", name, ValueSchedulePeriod)
	}
	period, err := schedule.ParsePeriod(periodText)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", name, err)
	}

	start, ok := vf.Values[ValueStartDateTime]
	if !ok {
		return nil, fmt.Errorf("pipeline %s: values missing %s", name, ValueStartDateTime)
	}
	adjusted, err := schedule.AdjustToFuture(start, period, now)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", name, err)
	}
	vf.Values[ValueStartDateTime] = adjusted

	return &Pipeline{
		name:          name,
		description:   vf.Metadata.Description,
		deploymentKey: DeploymentKey(name),
		sourceDir:     dir,
		values:        vf.Values,
		def:           template.Clone(),
	}, nil
}

func (p *Pipeline) Name() string          { return p.name }
func (p *Pipeline) Description() string   { return p.description }
func (p *Pipeline) DeploymentKey() string { return p.deploymentKey }
func (p *Pipeline) SourceDir() string     { return p.sourceDir }

// Values returns the instance's parameter values. The map is owned by
// the pipeline; callers must not mutate it.
func (p *Pipeline) Values() map[string]string { return p.values }

// Definition returns the instance's private copy of the template.
func (p *Pipeline) Definition() *definition.Definition { return p.def }

// Wire-format fragments for remote calls.

func (p *Pipeline) apiObjects() []definition.APIObject {
	return definition.APIObjects(p.def)
}

func (p *Pipeline) apiParameters() []definition.APIParameter {
	return definition.APIParameters(p.def)
}

func (p *Pipeline) apiValues() []definition.APIParameterValue {
	return definition.APIValues(p.values)
}
