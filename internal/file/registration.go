package file

import (
	"context"
	"time"

	"github.com/abduss/storeit/internal/auth"
	"go.uber.org/zap"
)

const compensationTimeout = 10 * time.Second

// RegistrationService uploads bytes and records their metadata.
type RegistrationService struct {
	repo           metadataStore
	bucket         objectBucket
	log            *zap.Logger
	maxUploadBytes int64
}

// NewRegistrationService constructs a registration service. A non-positive
// maxUploadBytes disables the size limit.
func NewRegistrationService(repo metadataStore, objects objectBucket, log *zap.Logger, maxUploadBytes int64) *RegistrationService {
	return &RegistrationService{
		repo:           repo,
		bucket:         objects,
		log:            orNop(log),
		maxUploadBytes: maxUploadBytes,
	}
}

// Register stores the upload in the bucket and then creates its metadata record.
// If the record cannot be written the uploaded object is removed again and the
// original failure is returned.
func (s *RegistrationService) Register(ctx context.Context, requester auth.Requester, upload Upload) (Record, error) {
	const op = "register"

	if requester.IsZero() {
		return Record{}, newError(op, "", ErrNotAuthenticated, nil)
	}
	if upload.Reader == nil {
		return Record{}, invalidArgument(op, "", "file payload is required")
	}
	if s.tooLarge(upload.Size) {
		registrationsTotal.WithLabelValues("rejected").Inc()
		return Record{}, newError(op, "", ErrFileTooLarge, nil)
	}

	obj, err := s.bucket.CreateFile(ctx, upload.Reader, upload.Name, upload.Size, upload.ContentType)
	if err != nil {
		if obj.ID != "" {
			s.compensate(ctx, op, obj.ID)
		}
		registrationsTotal.WithLabelValues("upload_failed").Inc()
		return Record{}, newError(op, "", ErrUpstream, err)
	}

	if s.tooLarge(obj.Size) {
		s.compensate(ctx, op, obj.ID)
		registrationsTotal.WithLabelValues("rejected").Inc()
		return Record{}, newError(op, "", ErrFileTooLarge, nil)
	}

	typ, ext := Classify(obj.Name)
	rec := Record{
		Name:         obj.Name,
		URL:          s.bucket.URL(obj.ID),
		Type:         typ,
		Extension:    ext,
		Size:         obj.Size,
		Owner:        requester.ID,
		AccountID:    requester.AccountID,
		Users:        []string{},
		BucketFileID: obj.ID,
	}

	stored, err := s.repo.Create(ctx, rec)
	if err != nil {
		s.compensate(ctx, op, obj.ID)
		registrationsTotal.WithLabelValues("metadata_failed").Inc()
		return Record{}, newError(op, "", ErrUpstream, err)
	}

	registrationsTotal.WithLabelValues("ok").Inc()
	s.log.Info("file registered",
		zap.String("file_id", stored.ID.String()),
		zap.String("owner", stored.Owner),
		zap.String("type", string(stored.Type)),
		zap.Int64("size", stored.Size),
	)
	return stored, nil
}

func (s *RegistrationService) tooLarge(size int64) bool {
	return s.maxUploadBytes > 0 && size > s.maxUploadBytes
}

// compensate removes an uploaded object. It runs even if ctx was cancelled,
// and its failure is only logged.
func (s *RegistrationService) compensate(ctx context.Context, op, objectID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.bucket.DeleteFile(ctx, objectID); err != nil {
		partialFailuresTotal.WithLabelValues(op).Inc()
		s.log.Warn("failed to remove uploaded object after registration failure",
			zap.String("operation", op),
			zap.String("storage_ref", objectID),
			zap.Error(err),
		)
	}
}
