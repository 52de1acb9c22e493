package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"goomer/internal/metrics"
)

type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucketName, policy string) error
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string // e.g. http://localhost:9000
	UseSSL    bool
	Folder    string
}

type MinIO struct {
	client    minioAPI
	bucket    string
	publicURL string
	folder    string
}

func NewMinIO(cfg MinIOConfig) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return newMinIO(client, cfg), nil
}

func newMinIO(client minioAPI, cfg MinIOConfig) *MinIO {
	folder := cfg.Folder
	if folder == "" {
		folder = DefaultFolder
	}
	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}
	return &MinIO{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		folder:    strings.Trim(folder, "/"),
	}
}

// EnsureBucket creates the bucket with a public read-only policy when missing.
func (m *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}

	publicPolicy := `{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Action": ["s3:GetObject"],
				"Effect": "Allow",
				"Principal": "*",
				"Resource": "arn:aws:s3:::` + m.bucket + `/*"
			}
		]
	}`
	if err := m.client.SetBucketPolicy(ctx, m.bucket, publicPolicy); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	return nil
}

func (m *MinIO) Upload(ctx context.Context, data []byte, contentType string) (objectURL string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveMedia("minio", "upload", err, time.Since(start)) }()

	objectKey := fmt.Sprintf("%s/%s%s", m.folder, uuid.NewString(), extensionFor(contentType))
	_, err = m.client.PutObject(ctx, m.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio put: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, objectKey), nil
}

func (m *MinIO) Delete(ctx context.Context, objectURL string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveMedia("minio", "delete", err, time.Since(start)) }()

	key, err := m.objectKey(objectURL)
	if err != nil {
		return err
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove %s: %w", key, err)
	}
	return nil
}

// objectKey maps a URL produced by Upload back to its object key.
func (m *MinIO) objectKey(objectURL string) (string, error) {
	prefix := m.publicURL + "/" + m.bucket + "/"
	key, ok := strings.CutPrefix(objectURL, prefix)
	if !ok || key == "" {
		return "", fmt.Errorf("url %q is not in bucket %s", objectURL, m.bucket)
	}
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	return key, nil
}
