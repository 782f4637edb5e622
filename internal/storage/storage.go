// Package storage stores uploaded files either on local disk or in a remote
// object-storage bucket and hands back a URL the file can be fetched from.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	storage_go "github.com/supabase-community/storage-go"
)

// Uploader stores bytes under bucket and returns a resolvable URL.
type Uploader interface {
	Upload(ctx context.Context, bucket, filename string, data []byte, contentType string) (string, error)
}

const (
	DefaultUploadDir = "uploads"
	DefaultURLPrefix = "/uploads"
)

func uniqueName(filename string) string {
	base := filepath.Base(filepath.Clean("/" + filename))
	if base == "/" || base == "." {
		base = "file"
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + base
}

func checkBucket(bucket string) error {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || strings.Contains(bucket, "..") {
		return fmt.Errorf("invalid bucket name %q", bucket)
	}
	return nil
}

// Local writes files to <Dir>/<bucket>/<name> and returns <URLPrefix>/<bucket>/<name>.
type Local struct {
	Dir       string
	URLPrefix string
}

func (l Local) dir() string {
	if l.Dir == "" {
		return DefaultUploadDir
	}
	return l.Dir
}

func (l Local) Upload(_ context.Context, bucket, filename string, data []byte, _ string) (string, error) {
	if err := checkBucket(bucket); err != nil {
		return "", err
	}
	name := uniqueName(filename)
	bucketDir := filepath.Join(l.dir(), bucket)
	if err := os.MkdirAll(bucketDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(bucketDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	prefix := l.URLPrefix
	if prefix == "" {
		prefix = DefaultURLPrefix
	}
	return path.Join(prefix, bucket, name), nil
}

// Bucket uploads to a Supabase storage project and returns the public object URL.
type Bucket struct {
	BaseURL string
	Key     string
}

func (b Bucket) client() (*storage_go.Client, error) {
	base := strings.TrimRight(b.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("bucket base url not configured")
	}
	return storage_go.NewClient(base+"/storage/v1", b.Key, nil), nil
}

func (b Bucket) Upload(ctx context.Context, bucket, filename string, data []byte, contentType string) (string, error) {
	if err := checkBucket(bucket); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client, err := b.client()
	if err != nil {
		return "", err
	}
	name := uniqueName(filename)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	upsert := true
	if _, err := client.UploadFile(bucket, name, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}); err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, name, err)
	}
	return client.GetPublicUrl(bucket, name).SignedURL, nil
}
