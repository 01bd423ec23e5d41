package blob

import (
	"context"
	"sync"
)

// MockUploader records Put calls for tests.
type MockUploader struct {
	mu sync.Mutex

	// PutFn overrides Put when set.
	PutFn func(ctx context.Context, bucket, key, localPath string) error

	Puts []PutCall
}

type PutCall struct {
	Bucket    string
	Key       string
	LocalPath string
}

var _ Uploader = (*MockUploader)(nil)

func (m *MockUploader) Put(ctx context.Context, bucket, key, localPath string) error {
	m.mu.Lock()
	m.Puts = append(m.Puts, PutCall{Bucket: bucket, Key: key, LocalPath: localPath})
	m.mu.Unlock()

	if m.PutFn != nil {
		return m.PutFn(ctx, bucket, key, localPath)
	}
	return nil
}
