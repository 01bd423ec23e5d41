package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jguan/pipelayer/pkg/config"
	"github.com/jguan/pipelayer/pkg/datapipeline"
	"github.com/jguan/pipelayer/pkg/infra/blob"
)

const testTemplateJSON = `{
	"objects": [
		{
			"id": "Default",
			"name": "Default",
			"scheduleType": "cron",
			"schedule": {"ref": "DefaultSchedule"}
		},
		{
			"id": "DefaultSchedule",
			"name": "Every period",
			"type": "Schedule",
			"period": "#{mySchedulePeriod}"
		}
	]
}`

// newTestRoot builds a RootCommand wired to a mock remote client and a
// temp template, with the journal disabled.
func newTestRoot(t *testing.T, client datapipeline.Client) (*RootCommand, *bytes.Buffer) {
	t.Helper()

	tmplPath := filepath.Join(t.TempDir(), "template.json")
	require.NoError(t, os.WriteFile(tmplPath, []byte(testTemplateJSON), 0o644))

	cfg := config.Default()
	cfg.Journal.Enabled = false
	cfg.Storage.AccessKey = ""

	buf := &bytes.Buffer{}
	return &RootCommand{
		cfg:      cfg,
		client:   client,
		opts:     &OutputOptions{Format: OutputTable, Writer: buf},
		template: tmplPath,
	}, buf
}

func writeTestInstance(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tasks"), 0o755))

	values := `{
		"values": {
			"myStartDateTime": "2199-01-01T00:00:00",
			"mySchedulePeriod": "1 days",
			"myS3InputDir": "s3://task-bucket/jobs/` + name + `"
		}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "values.json"), []byte(values), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks", "step.sql"), []byte("SELECT 1"), 0o644))
	return dir
}

func TestNewDeployCommand(t *testing.T) {
	root := &RootCommand{opts: NewOutputOptions()}
	cmd := NewDeployCommand(root)
	assert.NotNil(t, cmd)
	assert.Equal(t, "deploy", cmd.Name())
}

func TestRunDeploy(t *testing.T) {
	client := datapipeline.NewMockClient()
	root, buf := newTestRoot(t, client)
	root.uploader = &blob.MockUploader{}

	dir := writeTestInstance(t, "reports")
	err := runDeploy(context.Background(), root, []string{dir}, false)
	require.NoError(t, err)

	assert.Equal(t, 1, client.PutCalls)
	assert.Equal(t, 1, client.ActivateCalls)
	assert.Contains(t, buf.String(), "Deployed 1 pipeline")
}

func TestRunDeploy_SkipUpload(t *testing.T) {
	client := datapipeline.NewMockClient()
	root, _ := newTestRoot(t, client)

	// No uploader configured; skipping the upload step avoids needing one.
	dir := writeTestInstance(t, "reports")
	err := runDeploy(context.Background(), root, []string{dir}, true)
	require.NoError(t, err)

	assert.Equal(t, 1, client.ActivateCalls)
}

func TestRunDeploy_UploadWithoutUploaderFails(t *testing.T) {
	root, _ := newTestRoot(t, datapipeline.NewMockClient())

	dir := writeTestInstance(t, "reports")
	err := runDeploy(context.Background(), root, []string{dir}, false)
	assert.Error(t, err)
}

func TestRunDeploy_BadInstanceDir(t *testing.T) {
	root, _ := newTestRoot(t, datapipeline.NewMockClient())

	err := runDeploy(context.Background(), root, []string{"/nonexistent/dir"}, true)
	assert.Error(t, err)
}

func TestRunDeploy_ValidationFailureBlocksActivation(t *testing.T) {
	client := datapipeline.NewMockClient()
	client.ValidateFn = func(ctx context.Context, id string) (*datapipeline.ValidationResult, error) {
		return &datapipeline.ValidationResult{
			Errored: true,
			Errors:  []datapipeline.ValidationMessage{{ObjectID: "Default", Message: "broken"}},
		}, nil
	}
	root, _ := newTestRoot(t, client)

	dir := writeTestInstance(t, "reports")
	err := runDeploy(context.Background(), root, []string{dir}, true)
	require.Error(t, err)
	assert.Zero(t, client.ActivateCalls)
}
