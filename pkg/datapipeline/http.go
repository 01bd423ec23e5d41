package datapipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jguan/pipelayer/pkg/definition"
)

const (
	targetPrefix = "DataPipeline."
	contentType  = "application/x-amz-json-1.1"

	// stateFieldKey is the describe-response field carrying the
	// lifecycle state.
	stateFieldKey = "@pipelineState"
)

// HTTPClientConfig configures the HTTP client for the orchestration
// service's JSON-over-POST RPC endpoint.
type HTTPClientConfig struct {
	// Endpoint is the service base URL, e.g. "https://datapipeline.example.com".
	Endpoint string
	// Timeout bounds every remote call. Zero means 30 seconds.
	Timeout time.Duration
}

// HTTPClient talks to the orchestration service. Each operation is a
// POST of a JSON body with the operation named in the X-Amz-Target
// header.
type HTTPClient struct {
	endpoint string
	http     *http.Client
}

func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// wireField is the service's key/value field encoding used in
// describe responses.
type wireField struct {
	Key         string `json:"key"`
	StringValue string `json:"stringValue"`
}

type createRequest struct {
	Name        string `json:"name"`
	UniqueID    string `json:"uniqueId"`
	Description string `json:"description,omitempty"`
}

type createResponse struct {
	PipelineID string `json:"pipelineId"`
}

func (c *HTTPClient) CreatePipeline(ctx context.Context, name, uniqueID, description string) (string, error) {
	var resp createResponse
	err := c.call(ctx, "CreatePipeline", createRequest{
		Name:        name,
		UniqueID:    uniqueID,
		Description: description,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.PipelineID == "" {
		return "", fmt.Errorf("create pipeline %s: response missing pipelineId", name)
	}
	return resp.PipelineID, nil
}

type describeRequest struct {
	PipelineIDs []string `json:"pipelineIds"`
}

type describeResponse struct {
	Descriptions []struct {
		PipelineID string      `json:"pipelineId"`
		Name       string      `json:"name"`
		Fields     []wireField `json:"fields"`
	} `json:"pipelineDescriptionList"`
}

func (c *HTTPClient) DescribePipeline(ctx context.Context, id string) (*PipelineDescription, error) {
	var resp describeResponse
	if err := c.call(ctx, "DescribePipelines", describeRequest{PipelineIDs: []string{id}}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Descriptions) == 0 {
		return nil, fmt.Errorf("describe pipeline %s: empty description list", id)
	}

	desc := resp.Descriptions[0]
	state, err := fieldValue(desc.Fields, stateFieldKey)
	if err != nil {
		return nil, fmt.Errorf("describe pipeline %s: %w", id, err)
	}

	return &PipelineDescription{
		ID:    desc.PipelineID,
		Name:  desc.Name,
		State: LifecycleState(state),
	}, nil
}

type getDefinitionRequest struct {
	PipelineID string `json:"pipelineId"`
}

type definitionPayload struct {
	Objects    []definition.APIObject         `json:"pipelineObjects"`
	Parameters []definition.APIParameter      `json:"parameterObjects,omitempty"`
	Values     []definition.APIParameterValue `json:"parameterValues,omitempty"`
}

func (c *HTTPClient) GetDefinition(ctx context.Context, id string) (*definition.Definition, error) {
	var resp definitionPayload
	if err := c.call(ctx, "GetPipelineDefinition", getDefinitionRequest{PipelineID: id}, &resp); err != nil {
		return nil, err
	}
	return definition.FromAPI(resp.Objects, resp.Parameters), nil
}

type putRequest struct {
	PipelineID string                         `json:"pipelineId"`
	Objects    []definition.APIObject         `json:"pipelineObjects"`
	Parameters []definition.APIParameter      `json:"parameterObjects,omitempty"`
	Values     []definition.APIParameterValue `json:"parameterValues,omitempty"`
}

type validationResponse struct {
	Errored  bool `json:"errored"`
	Warnings []struct {
		ID       string   `json:"id"`
		Warnings []string `json:"warnings"`
	} `json:"validationWarnings"`
	Errors []struct {
		ID     string   `json:"id"`
		Errors []string `json:"errors"`
	} `json:"validationErrors"`
}

func (r *validationResponse) toResult() *ValidationResult {
	result := &ValidationResult{Errored: r.Errored}
	for _, w := range r.Warnings {
		for _, msg := range w.Warnings {
			result.Warnings = append(result.Warnings, ValidationMessage{ObjectID: w.ID, Message: msg})
		}
	}
	for _, e := range r.Errors {
		for _, msg := range e.Errors {
			result.Errors = append(result.Errors, ValidationMessage{ObjectID: e.ID, Message: msg})
		}
	}
	return result
}

func (c *HTTPClient) ValidateDefinition(ctx context.Context, id string,
	objects []definition.APIObject,
	parameters []definition.APIParameter,
	values []definition.APIParameterValue) (*ValidationResult, error) {

	var resp validationResponse
	err := c.call(ctx, "ValidatePipelineDefinition", putRequest{
		PipelineID: id,
		Objects:    objects,
		Parameters: parameters,
		Values:     values,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.toResult(), nil
}

func (c *HTTPClient) PutDefinition(ctx context.Context, id string,
	objects []definition.APIObject,
	parameters []definition.APIParameter,
	values []definition.APIParameterValue) (*ValidationResult, error) {

	var resp validationResponse
	err := c.call(ctx, "PutPipelineDefinition", putRequest{
		PipelineID: id,
		Objects:    objects,
		Parameters: parameters,
		Values:     values,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.toResult(), nil
}

type pipelineIDRequest struct {
	PipelineID string `json:"pipelineId"`
}

func (c *HTTPClient) ActivatePipeline(ctx context.Context, id string) error {
	return c.call(ctx, "ActivatePipeline", pipelineIDRequest{PipelineID: id}, &struct{}{})
}

func (c *HTTPClient) DeletePipeline(ctx context.Context, id string) error {
	return c.call(ctx, "DeletePipeline", pipelineIDRequest{PipelineID: id}, &struct{}{})
}

func (c *HTTPClient) call(ctx context.Context, action string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", action, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Amz-Target", targetPrefix+action)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", action, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: remote returned %d: %s", action, resp.StatusCode, truncate(data, 512))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", action, err)
	}
	return nil
}

// fieldValue looks up a key in a describe-response field list. A
// missing expected field is a fatal lookup error, not a default.
func fieldValue(fields []wireField, key string) (string, error) {
	for _, f := range fields {
		if f.Key == key {
			return f.StringValue, nil
		}
	}
	return "", fmt.Errorf("response has no field %q", key)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
