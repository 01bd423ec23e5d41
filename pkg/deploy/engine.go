package deploy

import (
	"context"
	"fmt"
	"sync"

	"github.com/jguan/pipelayer/pkg/datapipeline"
	"github.com/jguan/pipelayer/pkg/infra/logger"
)

// Action describes what an activation did to the remote entity.
type Action string

const (
	// ActionNoop: the remote definition already matched; nothing sent.
	ActionNoop Action = "noop"
	// ActionUpdated: the definition was pushed to the existing
	// PENDING entity and activated.
	ActionUpdated Action = "updated"
	// ActionRecreated: a non-editable entity was deleted and a fresh
	// one created, pushed, and activated.
	ActionRecreated Action = "recreated"
)

// Outcome is the result of one successful activation.
type Outcome struct {
	PipelineID string
	Action     Action
}

// Engine reconciles one pipeline instance's remote counterpart with
// its desired definition. All operations on one deployment key are
// serialized, so concurrent Activate calls cannot interleave the
// delete/recreate sequence on the same entity.
type Engine struct {
	client datapipeline.Client
	locks  keyedMutex
}

func NewEngine(client datapipeline.Client) *Engine {
	return &Engine{client: client}
}

// EnsureCreated idempotently ensures a remote entity exists for the
// pipeline and returns its ID. The remote service returns the
// existing entity for a repeated deployment key rather than creating
// a duplicate.
func (e *Engine) EnsureCreated(ctx context.Context, p *Pipeline) (string, error) {
	unlock := e.locks.lock(p.DeploymentKey())
	defer unlock()
	return e.ensureCreated(ctx, p)
}

func (e *Engine) ensureCreated(ctx context.Context, p *Pipeline) (string, error) {
	id, err := e.client.CreatePipeline(ctx, p.Name(), p.DeploymentKey(), p.Description())
	if err != nil {
		return "", fmt.Errorf("create pipeline %s: %w", p.Name(), err)
	}
	return id, nil
}

// maxActivateAttempts bounds the delete-and-retry path. A freshly
// created entity is PENDING with no definition, so the second pass
// must land on the push branch; more than two passes means the remote
// service broke that assumption.
const maxActivateAttempts = 2

// Activate converges the remote entity on the desired definition:
//
//   - remote definition equal to desired: done, no further calls;
//   - entity not PENDING (already activated or otherwise frozen):
//     delete it and start over against a fresh entity;
//   - entity PENDING with a differing definition: push the desired
//     definition and activate.
//
// At most one delete and at most one push+activate pair happen per
// call.
func (e *Engine) Activate(ctx context.Context, p *Pipeline) (*Outcome, error) {
	unlock := e.locks.lock(p.DeploymentKey())
	defer unlock()

	log := logger.WithContext(ctx).With("pipeline", p.Name())

	deleted := false
	for attempt := 0; attempt < maxActivateAttempts; attempt++ {
		id, err := e.ensureCreated(ctx, p)
		if err != nil {
			return nil, err
		}

		remoteDef, err := e.client.GetDefinition(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get definition of %s: %w", id, err)
		}
		desc, err := e.client.DescribePipeline(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("describe pipeline %s: %w", id, err)
		}

		if remoteDef.Equal(p.Definition()) {
			log.Debug("remote definition already matches", "id", id)
			return &Outcome{PipelineID: id, Action: ActionNoop}, nil
		}

		if desc.State != datapipeline.StatePending {
			if deleted {
				// The recreated entity should have been PENDING;
				// deleting again would not converge.
				return nil, fmt.Errorf("pipeline %s: fresh entity %s is %s, expected %s",
					p.Name(), id, desc.State, datapipeline.StatePending)
			}
			log.Info("deleting non-editable pipeline entity",
				"id", id, "state", string(desc.State))
			if err := e.client.DeletePipeline(ctx, id); err != nil {
				return nil, fmt.Errorf("delete pipeline %s: %w", id, err)
			}
			deleted = true
			continue
		}

		log.Debug("putting pipeline definition", "id", id)
		result, err := e.client.PutDefinition(ctx, id,
			p.apiObjects(), p.apiParameters(), p.apiValues())
		if err != nil {
			return nil, fmt.Errorf("put definition of %s: %w", id, err)
		}
		if result != nil && result.Errored {
			return nil, fmt.Errorf("put definition of %s: rejected with %d errors", id, len(result.Errors))
		}

		log.Info("activating pipeline", "id", id)
		if err := e.client.ActivatePipeline(ctx, id); err != nil {
			return nil, fmt.Errorf("activate pipeline %s: %w", id, err)
		}

		action := ActionUpdated
		if deleted {
			action = ActionRecreated
		}
		return &Outcome{PipelineID: id, Action: action}, nil
	}

	return nil, fmt.Errorf("pipeline %s: entity is still not editable after recreation", p.Name())
}

// keyedMutex serializes work per deployment key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
