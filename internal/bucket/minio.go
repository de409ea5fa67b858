package bucket

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/abduss/storeit/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	ensureBucketTimeout = 5 * time.Second
	defaultMinIOPort    = "9000"
)

// objectClient is the subset of the MinIO API used by MinIOStore.
type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

// minioClient adapts *minio.Client to objectClient.
type minioClient struct {
	*minio.Client
}

func (c minioClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return c.Client.GetObject(ctx, bucketName, objectName, opts)
}

// MinIOStore keeps file bytes in a MinIO bucket.
type MinIOStore struct {
	client  objectClient
	bucket  string
	baseURL string
}

var _ Store = (*MinIOStore)(nil)

// NewMinIOStore dials MinIO with static credentials and returns a Store for cfg.Bucket.
func NewMinIOStore(cfg config.MinIOConfig, baseURL string) (*MinIOStore, error) {
	client, err := minio.New(minioEndpoint(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return newMinIOStore(minioClient{client}, cfg.Bucket, baseURL), nil
}

// minioEndpoint strips a URL scheme and adds the default API port when none is given.
func minioEndpoint(raw string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(raw), "https://"), "http://")
	host = strings.TrimRight(host, "/")
	if _, _, err := net.SplitHostPort(host); err != nil {
		return net.JoinHostPort(host, defaultMinIOPort)
	}
	return host
}

func newMinIOStore(client objectClient, bucketName, baseURL string) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucketName, baseURL: baseURL}
}

// EnsureBucket creates the target bucket if it does not exist yet.
func (s *MinIOStore) EnsureBucket(ctx context.Context, region string) error {
	ctx, cancel := context.WithTimeout(ctx, ensureBucketTimeout)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	return nil
}

// CreateFile uploads the bytes and returns the bucket-reported size.
func (s *MinIOStore) CreateFile(ctx context.Context, reader io.Reader, name string, size int64, contentType string) (StoredObject, error) {
	id := NewObjectID()
	name = sanitizeName(name)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.client.PutObject(ctx, s.bucket, id, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"filename": name},
	})
	if err != nil {
		return StoredObject{}, fmt.Errorf("put object %q: %w", id, err)
	}

	stored := info.Size
	if stored <= 0 {
		stat, err := s.client.StatObject(ctx, s.bucket, id, minio.StatObjectOptions{})
		if err != nil {
			return StoredObject{ID: id, Name: name}, fmt.Errorf("stat object %q: %w", id, err)
		}
		stored = stat.Size
	}

	return StoredObject{ID: id, Name: name, Size: stored}, nil
}

// DeleteFile removes the object with the given id.
func (s *MinIOStore) DeleteFile(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyObjectID
	}
	if err := s.client.RemoveObject(ctx, s.bucket, id, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", id, err)
	}
	return nil
}

// OpenFile streams the object contents.
func (s *MinIOStore) OpenFile(ctx context.Context, id string) (io.ReadCloser, error) {
	if id == "" {
		return nil, ErrEmptyObjectID
	}
	if _, err := s.client.StatObject(ctx, s.bucket, id, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("stat object %q: %w", id, err)
	}
	reader, err := s.client.GetObject(ctx, s.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", id, err)
	}
	return reader, nil
}

// URL returns the deterministic download URL for id.
func (s *MinIOStore) URL(id string) string {
	return DownloadURL(s.baseURL, s.bucket, id)
}

// Ping checks that the bucket exists and is reachable.
func (s *MinIOStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}
