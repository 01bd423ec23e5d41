package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the S3-compatible storage connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("storage endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("storage endpoint must not include scheme: %q", c.Endpoint)
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("storage access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("storage secret key is required")
	}
	return nil
}

// MinioUploader is the Uploader implementation backed by any
// S3-compatible object store.
type MinioUploader struct {
	client *minio.Client
}

var _ Uploader = (*MinioUploader)(nil)

func NewMinioUploader(cfg Config) (*MinioUploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("storage config: %w", err)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &MinioUploader{client: client}, nil
}

func (u *MinioUploader) Put(ctx context.Context, bucket, key, localPath string) error {
	if err := statFile(localPath); err != nil {
		return err
	}

	_, err := u.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return nil
}
