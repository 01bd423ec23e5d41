package deploy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jguan/pipelayer/pkg/datapipeline"
	"github.com/jguan/pipelayer/pkg/definition"
	"github.com/jguan/pipelayer/pkg/infra/blob"
	"github.com/jguan/pipelayer/pkg/infra/journal"
	"github.com/jguan/pipelayer/pkg/infra/logger"
)

// ErrValidationFailed means at least one instance failed remote
// validation, so no instance was activated.
var ErrValidationFailed = errors.New("validation failed")

// Set is a collection of pipeline instances sharing one definition
// template. It enforces the fail-closed gate: every instance must
// validate before any instance is activated.
type Set struct {
	template  *definition.Definition
	engine    *Engine
	validator *Validator
	uploader  blob.Uploader
	journal   *journal.Store
	reporter  Reporter
	now       func() time.Time

	order     []string
	pipelines map[string]*Pipeline
}

// SetOption configures a Set.
type SetOption func(*Set)

// WithUploader attaches the blob uploader used by Upload.
func WithUploader(up blob.Uploader) SetOption {
	return func(s *Set) { s.uploader = up }
}

// WithJournal records every activation attempt in the journal.
func WithJournal(j *journal.Store) SetOption {
	return func(s *Set) { s.journal = j }
}

// WithReporter routes validation findings to the given reporter.
func WithReporter(r Reporter) SetOption {
	return func(s *Set) { s.reporter = r }
}

// WithClock overrides the time source used when adjusting schedule
// start times. For tests.
func WithClock(now func() time.Time) SetOption {
	return func(s *Set) { s.now = now }
}

func NewSet(template *definition.Definition, client datapipeline.Client, opts ...SetOption) *Set {
	s := &Set{
		template:  template,
		pipelines: map[string]*Pipeline{},
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = NewEngine(client)
	s.validator = NewValidator(client, s.reporter)
	return s
}

// AddInstance loads a pipeline instance from dir and registers it
// under its name. A duplicate name replaces the earlier registration;
// that is a configuration problem, so it is logged.
func (s *Set) AddInstance(dir string) (*Pipeline, error) {
	p, err := NewPipeline(s.template, dir, s.now())
	if err != nil {
		return nil, err
	}

	if _, exists := s.pipelines[p.Name()]; exists {
		logger.Warn("duplicate pipeline name, replacing earlier instance",
			"pipeline", p.Name(), "dir", dir)
	} else {
		s.order = append(s.order, p.Name())
	}
	s.pipelines[p.Name()] = p
	return p, nil
}

// Pipelines returns the registered instances in registration order.
func (s *Set) Pipelines() []*Pipeline {
	out := make([]*Pipeline, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.pipelines[name])
	}
	return out
}

// AllValid runs remote validation for every instance and returns true
// only if none reported errors. Every instance is checked even after
// a failure, so one run reports all findings.
func (s *Set) AllValid(ctx context.Context) (bool, error) {
	allOK := true
	for _, p := range s.Pipelines() {
		ok, err := s.validator.Validate(ctx, p)
		if err != nil {
			return false, err
		}
		if !ok {
			allOK = false
		}
	}
	return allOK, nil
}

// Upload ships each instance's task files to the bucket and prefix
// named by its configured input-directory URI.
func (s *Set) Upload(ctx context.Context) error {
	if s.uploader == nil {
		return errors.New("no uploader configured")
	}

	for _, p := range s.Pipelines() {
		uri, ok := p.Values()[ValueInputDir]
		if !ok {
			return fmt.Errorf("pipeline %s: values missing %s", p.Name(), ValueInputDir)
		}
		bucket, prefix, err := blob.SplitURI(uri)
		if err != nil {
			return fmt.Errorf("pipeline %s: %w", p.Name(), err)
		}

		pctx := logger.SetPipeline(ctx, p.Name())
		if err := blob.UploadTree(pctx, s.uploader, bucket, prefix, p.SourceDir()); err != nil {
			return fmt.Errorf("upload pipeline %s: %w", p.Name(), err)
		}
	}
	return nil
}

// ActivateAll validates every instance, then activates each in turn.
// If any instance fails validation nothing is activated. Activation
// failures do not stop the batch: every instance is attempted and the
// failures are reported together, so one broken pipeline cannot
// silently block or mask the others.
func (s *Set) ActivateAll(ctx context.Context) error {
	ok, err := s.AllValid(ctx)
	if err != nil {
		return err
	}
	if !ok {
		logger.Error("not activating pipelines due to validation errors")
		return ErrValidationFailed
	}

	var errs []error
	for _, p := range s.Pipelines() {
		outcome, err := s.engine.Activate(ctx, p)
		s.record(ctx, p, outcome, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("activate %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *Set) record(ctx context.Context, p *Pipeline, outcome *Outcome, actErr error) {
	if s.journal == nil {
		return
	}

	entry := journal.Entry{
		PipelineName: p.Name(),
		Action:       "activate",
		Succeeded:    actErr == nil,
	}
	if outcome != nil {
		entry.DeploymentID = outcome.PipelineID
		entry.Action = string(outcome.Action)
	}
	if actErr != nil {
		entry.Error = actErr.Error()
	}

	if err := s.journal.Record(ctx, entry); err != nil {
		logger.Warn("failed to record journal entry",
			"pipeline", p.Name(), "error", err)
	}
}
