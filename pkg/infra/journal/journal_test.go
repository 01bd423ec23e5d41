package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Entry{
		PipelineName: "reports",
		DeploymentID: "df-1",
		Action:       "updated",
		Succeeded:    true,
	}))
	require.NoError(t, s.Record(ctx, Entry{
		PipelineName: "exports",
		DeploymentID: "df-2",
		Action:       "recreated",
		Succeeded:    false,
		Error:        "activate pipeline: quota exceeded",
	}))

	entries, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "exports", entries[0].PipelineName)
	assert.False(t, entries[0].Succeeded)
	assert.Contains(t, entries[0].Error, "quota exceeded")

	assert.Equal(t, "reports", entries[1].PipelineName)
	assert.True(t, entries[1].Succeeded)
	assert.Empty(t, entries[1].Error)
	assert.WithinDuration(t, time.Now().UTC(), entries[1].CreatedAt, time.Minute)
}

func TestList_Limit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, Entry{
			PipelineName: "p",
			DeploymentID: "df-1",
			Action:       "noop",
			Succeeded:    true,
		}))
	}

	entries, err := s.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = s.List(ctx, 0) // default limit
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestList_Empty(t *testing.T) {
	s := openTestStore(t)

	entries, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
