package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantPath   string
		wantErr    bool
	}{
		{uri: "s3://pipelayer-example-bucket/pipelayer-test/inputs", wantBucket: "pipelayer-example-bucket", wantPath: "pipelayer-test/inputs"},
		{uri: "s3://bucket", wantBucket: "bucket", wantPath: ""},
		{uri: "s3:///no-bucket", wantErr: true},
		{uri: "not a uri at all\x00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, keyPath, err := SplitURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantPath, keyPath)
		})
	}
}

func TestUploadTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tasks"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks", "step1.sql"), []byte("SELECT 1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks", "step2.sql"), []byte("SELECT 2"), 0o644))

	up := &MockUploader{}
	err := UploadTree(context.Background(), up, "bucket", "jobs/reports", dir)
	require.NoError(t, err)

	keys := make([]string, len(up.Puts))
	for i, p := range up.Puts {
		assert.Equal(t, "bucket", p.Bucket)
		keys[i] = p.Key
	}
	assert.ElementsMatch(t, []string{
		"jobs/reports/run",
		"jobs/reports/tasks/step1.sql",
		"jobs/reports/tasks/step2.sql",
	}, keys)
}

func TestUploadTree_EmptyPrefix(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run"), []byte("x"), 0o644))

	up := &MockUploader{}
	require.NoError(t, UploadTree(context.Background(), up, "bucket", "", dir))
	require.Len(t, up.Puts, 1)
	assert.Equal(t, "run", up.Puts[0].Key)
}

func TestUploadTree_PropagatesPutError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run"), []byte("x"), 0o644))

	boom := errors.New("bucket does not exist")
	up := &MockUploader{PutFn: func(context.Context, string, string, string) error {
		return boom
	}}

	err := UploadTree(context.Background(), up, "bucket", "p", dir)
	assert.ErrorIs(t, err, boom)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk"}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Endpoint = "https://localhost:9000"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.AccessKey = ""
	assert.Error(t, bad.Validate())

	bad = valid
	bad.SecretKey = " "
	assert.Error(t, bad.Validate())
}
