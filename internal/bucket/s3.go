package bucket

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Store keeps file bytes in an S3 (or S3-compatible) bucket.
type S3Store struct {
	client   s3API
	uploader s3Uploader
	bucket   string
	baseURL  string
}

var _ Store = (*S3Store)(nil)

// NewS3Store constructs a Store over an S3 client. Uploads stream through the
// multipart upload manager so the size does not need to be known up front.
func NewS3Store(client *s3.Client, bucketName, baseURL string) *S3Store {
	return newS3Store(client, manager.NewUploader(client), bucketName, baseURL)
}

func newS3Store(client s3API, uploader s3Uploader, bucketName, baseURL string) *S3Store {
	return &S3Store{
		client:   client,
		uploader: uploader,
		bucket:   bucketName,
		baseURL:  baseURL,
	}
}

// CreateFile uploads the bytes and reads the stored size back from the bucket.
func (s *S3Store) CreateFile(ctx context.Context, reader io.Reader, name string, size int64, contentType string) (StoredObject, error) {
	id := NewObjectID()
	name = sanitizeName(name)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(id),
		Body:        reader,
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{"filename": name},
	}); err != nil {
		return StoredObject{}, fmt.Errorf("upload object %q: %w", id, err)
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return StoredObject{ID: id, Name: name}, fmt.Errorf("head object %q: %w", id, err)
	}

	return StoredObject{ID: id, Name: name, Size: aws.ToInt64(head.ContentLength)}, nil
}

// DeleteFile removes the object with the given id.
func (s *S3Store) DeleteFile(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyObjectID
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	}); err != nil {
		return fmt.Errorf("delete object %q: %w", id, err)
	}
	return nil
}

// OpenFile streams the object contents.
func (s *S3Store) OpenFile(ctx context.Context, id string) (io.ReadCloser, error) {
	if id == "" {
		return nil, ErrEmptyObjectID
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("get object %q: %w", id, err)
	}
	return out.Body, nil
}

// URL returns the deterministic download URL for id.
func (s *S3Store) URL(id string) string {
	return DownloadURL(s.baseURL, s.bucket, id)
}

// Ping checks that the bucket is reachable with the current credentials.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
