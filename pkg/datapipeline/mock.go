package datapipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/jguan/pipelayer/pkg/definition"
)

// MockClient is an in-memory Client for tests. Each operation can be
// overridden with a function; unset operations fall back to a simple
// in-memory registry that behaves like the remote service: repeated
// creates with the same unique ID return the existing entity, fresh
// entities start PENDING with no definition, and activation moves the
// entity to SCHEDULED.
type MockClient struct {
	mu sync.Mutex

	CreateFn   func(ctx context.Context, name, uniqueID, description string) (string, error)
	DescribeFn func(ctx context.Context, id string) (*PipelineDescription, error)
	GetDefFn   func(ctx context.Context, id string) (*definition.Definition, error)
	ValidateFn func(ctx context.Context, id string) (*ValidationResult, error)
	PutFn      func(ctx context.Context, id string) (*ValidationResult, error)
	ActivateFn func(ctx context.Context, id string) error
	DeleteFn   func(ctx context.Context, id string) error

	CreateCalls   int
	DescribeCalls int
	GetDefCalls   int
	ValidateCalls int
	PutCalls      int
	ActivateCalls int
	DeleteCalls   int

	nextID    int
	entities  map[string]*mockEntity // by pipeline ID
	uniqueIDs map[string]string      // unique ID -> pipeline ID
}

type mockEntity struct {
	id          string
	name        string
	description string
	state       LifecycleState
	def         *definition.Definition
}

func NewMockClient() *MockClient {
	return &MockClient{
		entities:  map[string]*mockEntity{},
		uniqueIDs: map[string]string{},
	}
}

func (m *MockClient) CreatePipeline(ctx context.Context, name, uniqueID, description string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++

	if m.CreateFn != nil {
		return m.CreateFn(ctx, name, uniqueID, description)
	}

	if id, ok := m.uniqueIDs[uniqueID]; ok {
		return id, nil
	}
	m.nextID++
	id := fmt.Sprintf("df-%08d", m.nextID)
	m.entities[id] = &mockEntity{
		id:          id,
		name:        name,
		description: description,
		state:       StatePending,
	}
	m.uniqueIDs[uniqueID] = id
	return id, nil
}

func (m *MockClient) DescribePipeline(ctx context.Context, id string) (*PipelineDescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DescribeCalls++

	if m.DescribeFn != nil {
		return m.DescribeFn(ctx, id)
	}

	e, err := m.entity(id)
	if err != nil {
		return nil, err
	}
	return &PipelineDescription{ID: e.id, Name: e.name, State: e.state}, nil
}

func (m *MockClient) GetDefinition(ctx context.Context, id string) (*definition.Definition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetDefCalls++

	if m.GetDefFn != nil {
		return m.GetDefFn(ctx, id)
	}

	e, err := m.entity(id)
	if err != nil {
		return nil, err
	}
	if e.def == nil {
		return &definition.Definition{}, nil
	}
	return e.def.Clone(), nil
}

func (m *MockClient) ValidateDefinition(ctx context.Context, id string,
	objects []definition.APIObject,
	parameters []definition.APIParameter,
	values []definition.APIParameterValue) (*ValidationResult, error) {

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidateCalls++

	if m.ValidateFn != nil {
		return m.ValidateFn(ctx, id)
	}
	if _, err := m.entity(id); err != nil {
		return nil, err
	}
	return &ValidationResult{}, nil
}

func (m *MockClient) PutDefinition(ctx context.Context, id string,
	objects []definition.APIObject,
	parameters []definition.APIParameter,
	values []definition.APIParameterValue) (*ValidationResult, error) {

	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++

	if m.PutFn != nil {
		return m.PutFn(ctx, id)
	}

	e, err := m.entity(id)
	if err != nil {
		return nil, err
	}
	if e.state != StatePending {
		return nil, fmt.Errorf("pipeline %s is %s, definition is frozen", id, e.state)
	}
	e.def = definition.FromAPI(objects, parameters)
	return &ValidationResult{}, nil
}

func (m *MockClient) ActivatePipeline(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ActivateCalls++

	if m.ActivateFn != nil {
		return m.ActivateFn(ctx, id)
	}

	e, err := m.entity(id)
	if err != nil {
		return err
	}
	e.state = StateScheduled
	return nil
}

func (m *MockClient) DeletePipeline(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++

	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	if _, err := m.entity(id); err != nil {
		return err
	}
	delete(m.entities, id)
	for uid, pid := range m.uniqueIDs {
		if pid == id {
			delete(m.uniqueIDs, uid)
		}
	}
	return nil
}

// Seed registers an entity directly, bypassing CreatePipeline, so
// tests can start from an arbitrary remote state.
func (m *MockClient) Seed(uniqueID, name string, state LifecycleState, def *definition.Definition) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := fmt.Sprintf("df-%08d", m.nextID)
	m.entities[id] = &mockEntity{id: id, name: name, state: state, def: def}
	m.uniqueIDs[uniqueID] = id
	return id
}

// State returns the current lifecycle state of an entity, or "" if it
// does not exist.
func (m *MockClient) State(id string) LifecycleState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entities[id]; ok {
		return e.state
	}
	return ""
}

func (m *MockClient) entity(id string) (*mockEntity, error) {
	e, ok := m.entities[id]
	if !ok {
		return nil, fmt.Errorf("pipeline %s does not exist", id)
	}
	return e, nil
}
