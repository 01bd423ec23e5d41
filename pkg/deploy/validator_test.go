package deploy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jguan/pipelayer/pkg/datapipeline"
)

func TestValidate_CleanResult(t *testing.T) {
	client := datapipeline.NewMockClient()
	reporter := &CaptureReporter{}
	v := NewValidator(client, reporter)

	ok, err := v.Validate(context.Background(), testPipeline("reports", desiredDefinition()))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, reporter.Warnings)
	assert.Empty(t, reporter.Errors)

	// The stub entity was created and stays PENDING.
	assert.Equal(t, 1, client.CreateCalls)
	assert.Equal(t, 1, client.ValidateCalls)
	assert.Zero(t, client.ActivateCalls)
}

func TestValidate_ReportsEveryFinding(t *testing.T) {
	client := datapipeline.NewMockClient()
	client.ValidateFn = func(ctx context.Context, id string) (*datapipeline.ValidationResult, error) {
		return &datapipeline.ValidationResult{
			Errored: true,
			Warnings: []datapipeline.ValidationMessage{
				{ObjectID: "Default", Message: "deprecated field"},
			},
			Errors: []datapipeline.ValidationMessage{
				{ObjectID: "DefaultSchedule", Message: "period missing"},
				{ObjectID: "DefaultSchedule", Message: "start missing"},
			},
		}, nil
	}

	reporter := &CaptureReporter{}
	v := NewValidator(client, reporter)

	ok, err := v.Validate(context.Background(), testPipeline("reports", desiredDefinition()))
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, reporter.Warnings, 1)
	assert.Equal(t, Finding{ObjectID: "Default", Message: "deprecated field"}, reporter.Warnings[0])

	require.Len(t, reporter.Errors, 2)
	assert.Equal(t, "DefaultSchedule", reporter.Errors[0].ObjectID)
	assert.Equal(t, "DefaultSchedule", reporter.Errors[1].ObjectID)
}

func TestValidate_WarningsAloneDoNotFail(t *testing.T) {
	client := datapipeline.NewMockClient()
	client.ValidateFn = func(ctx context.Context, id string) (*datapipeline.ValidationResult, error) {
		return &datapipeline.ValidationResult{
			Warnings: []datapipeline.ValidationMessage{
				{ObjectID: "Default", Message: "consider a retry policy"},
			},
		}, nil
	}

	reporter := &CaptureReporter{}
	v := NewValidator(client, reporter)

	ok, err := v.Validate(context.Background(), testPipeline("reports", desiredDefinition()))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, reporter.Warnings, 1)
}

func TestValidate_StubReused(t *testing.T) {
	client := datapipeline.NewMockClient()
	v := NewValidator(client, &CaptureReporter{})
	ctx := context.Background()

	_, err := v.Validate(ctx, testPipeline("a", desiredDefinition()))
	require.NoError(t, err)
	_, err = v.Validate(ctx, testPipeline("b", desiredDefinition()))
	require.NoError(t, err)

	// Two create calls, but the same stub entity both times.
	assert.Equal(t, 2, client.CreateCalls)
	assert.Equal(t, 2, client.ValidateCalls)
}

func TestValidate_RemoteError(t *testing.T) {
	boom := errors.New("endpoint unreachable")
	client := datapipeline.NewMockClient()
	client.CreateFn = func(context.Context, string, string, string) (string, error) {
		return "", boom
	}

	v := NewValidator(client, &CaptureReporter{})
	_, err := v.Validate(context.Background(), testPipeline("reports", desiredDefinition()))
	assert.ErrorIs(t, err, boom)
}
