package file

import (
	"context"
	"io"

	"github.com/abduss/storeit/internal/auth"
	"github.com/abduss/storeit/internal/bucket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// metadataStore is the subset of Repository the services depend on.
type metadataStore interface {
	Create(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	List(ctx context.Context, q Query) ([]Record, error)
	Each(ctx context.Context, q Query, fn func(Record) error) error
	UpdateName(ctx context.Context, id uuid.UUID, name string) (Record, error)
	UpdateUsers(ctx context.Context, id uuid.UUID, users []string) (Record, error)
	Delete(ctx context.Context, id uuid.UUID) (Record, error)
}

// objectBucket is the subset of bucket.Store the services depend on.
type objectBucket interface {
	CreateFile(ctx context.Context, reader io.Reader, name string, size int64, contentType string) (bucket.StoredObject, error)
	DeleteFile(ctx context.Context, id string) error
	OpenFile(ctx context.Context, id string) (io.ReadCloser, error)
	URL(id string) string
}

var (
	_ metadataStore = (*Repository)(nil)
	_ objectBucket  = (bucket.Store)(nil)
)

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// loadVisible fetches a record the requester may act on and resolves its storage reference.
func loadVisible(ctx context.Context, repo metadataStore, log *zap.Logger, op string, requester auth.Requester, id uuid.UUID) (Record, string, error) {
	if requester.IsZero() {
		return Record{}, "", newError(op, id.String(), ErrNotAuthenticated, nil)
	}
	if id == uuid.Nil {
		return Record{}, "", invalidArgument(op, "", "file id is required")
	}

	rec, err := repo.Get(ctx, id)
	if err != nil {
		return Record{}, "", upstreamError(op, id.String(), err)
	}
	if !rec.VisibleTo(requester) {
		return Record{}, "", newError(op, id.String(), ErrFileNotFound, nil)
	}

	ref, ok := rec.StorageRef()
	if !ok {
		reportIntegrityViolation(log, op, rec)
		return Record{}, "", invalidArgument(op, id.String(), "record has no storage reference")
	}
	return rec, ref, nil
}

func reportIntegrityViolation(log *zap.Logger, op string, rec Record) {
	integrityViolationsTotal.WithLabelValues(op).Inc()
	log.Error("file record without storage reference",
		zap.String("operation", op),
		zap.String("file_id", rec.ID.String()),
		zap.String("owner", rec.Owner),
	)
}
