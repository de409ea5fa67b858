package file

import (
	"context"
	"errors"
	"io"

	"github.com/abduss/storeit/internal/auth"
	"github.com/abduss/storeit/internal/bucket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueryService answers read requests scoped to the requesting user.
type QueryService struct {
	repo   metadataStore
	bucket objectBucket
	log    *zap.Logger
}

// NewQueryService constructs a query service.
func NewQueryService(repo metadataStore, objects objectBucket, log *zap.Logger) *QueryService {
	return &QueryService{repo: repo, bucket: objects, log: orNop(log)}
}

// List returns records the requester owns or that are shared with them.
// Records without a storage reference are dropped and reported.
func (s *QueryService) List(ctx context.Context, requester auth.Requester, opts ListOptions) ([]Record, error) {
	const op = "list"

	if requester.IsZero() {
		return nil, newError(op, "", ErrNotAuthenticated, nil)
	}

	records, err := s.repo.List(ctx, BuildListQuery(requester, opts))
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			return nil, newError(op, "", ErrInvalidArgument, err)
		}
		return nil, upstreamError(op, "", err)
	}

	valid := records[:0]
	for _, rec := range records {
		if _, ok := rec.StorageRef(); !ok {
			reportIntegrityViolation(s.log, op, rec)
			continue
		}
		valid = append(valid, rec)
	}
	return valid, nil
}

// Get returns a single record visible to the requester.
func (s *QueryService) Get(ctx context.Context, requester auth.Requester, id uuid.UUID) (Record, error) {
	rec, _, err := loadVisible(ctx, s.repo, s.log, "get", requester, id)
	return rec, err
}

// Open returns a visible record together with a reader over its bytes.
// The caller must close the reader.
func (s *QueryService) Open(ctx context.Context, requester auth.Requester, id uuid.UUID) (Record, io.ReadCloser, error) {
	const op = "download"

	rec, ref, err := loadVisible(ctx, s.repo, s.log, op, requester, id)
	if err != nil {
		return Record{}, nil, err
	}

	reader, err := s.bucket.OpenFile(ctx, ref)
	if err != nil {
		if errors.Is(err, bucket.ErrObjectNotFound) {
			return Record{}, nil, newError(op, id.String(), ErrFileNotFound, err)
		}
		return Record{}, nil, newError(op, id.String(), ErrUpstream, err)
	}
	return rec, reader, nil
}
