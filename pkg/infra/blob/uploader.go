// Package blob uploads pipeline task files to S3-compatible object
// storage.
package blob

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jguan/pipelayer/pkg/infra/logger"
)

// Uploader puts one local file into a bucket under a key.
type Uploader interface {
	Put(ctx context.Context, bucket, key, localPath string) error
}

// SplitURI splits an object-storage URI like
// "s3://pipelayer-example-bucket/pipelayer-test/inputs" into its
// bucket name and key path.
func SplitURI(uri string) (bucket, keyPath string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse storage URI %q: %w", uri, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("storage URI %q has no bucket", uri)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// UploadTree uploads every regular file under dir. Destination keys
// join prefix with each file's path relative to dir, using forward
// slashes regardless of platform.
func UploadTree(ctx context.Context, up Uploader, bucket, prefix, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", p, err)
		}
		key := path.Join(prefix, filepath.ToSlash(rel))

		logger.WithContext(ctx).Debug("uploading task file",
			"bucket", bucket, "key", key)
		if err := up.Put(ctx, bucket, key, p); err != nil {
			return fmt.Errorf("upload %s: %w", rel, err)
		}
		return nil
	})
}

// statFile guards against uploading something that is not a plain
// file (sockets, device nodes).
func statFile(localPath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", localPath)
	}
	return nil
}
