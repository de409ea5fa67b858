package file

import (
	"context"
	"strings"
	"time"

	"github.com/abduss/storeit/internal/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const orphanCleanupTimeout = 10 * time.Second

// MutationService renames, shares and deletes files.
type MutationService struct {
	repo   metadataStore
	bucket objectBucket
	log    *zap.Logger
}

// NewMutationService constructs a mutation service.
func NewMutationService(repo metadataStore, objects objectBucket, log *zap.Logger) *MutationService {
	return &MutationService{repo: repo, bucket: objects, log: orNop(log)}
}

// Rename sets the record name to newBaseName + "." + extension. The stored
// extension is left untouched.
func (s *MutationService) Rename(ctx context.Context, requester auth.Requester, id uuid.UUID, newBaseName, extension string) (Record, error) {
	const op = "rename"

	newBaseName = strings.TrimSpace(newBaseName)
	extension = strings.TrimSpace(extension)
	switch {
	case id == uuid.Nil:
		return Record{}, invalidArgument(op, "", "file id is required")
	case newBaseName == "":
		return Record{}, invalidArgument(op, id.String(), "new name is required")
	case extension == "":
		return Record{}, invalidArgument(op, id.String(), "extension is required")
	}

	if _, _, err := loadVisible(ctx, s.repo, s.log, op, requester, id); err != nil {
		return Record{}, err
	}

	rec, err := s.repo.UpdateName(ctx, id, newBaseName+"."+extension)
	if err != nil {
		return Record{}, upstreamError(op, id.String(), err)
	}
	mutationsTotal.WithLabelValues(op).Inc()
	return rec, nil
}

// UpdateSharedUsers replaces the share list with emails. An empty list un-shares the file.
func (s *MutationService) UpdateSharedUsers(ctx context.Context, requester auth.Requester, id uuid.UUID, emails []string) (Record, error) {
	const op = "share"

	if id == uuid.Nil {
		return Record{}, invalidArgument(op, "", "file id is required")
	}
	if _, _, err := loadVisible(ctx, s.repo, s.log, op, requester, id); err != nil {
		return Record{}, err
	}

	rec, err := s.repo.UpdateUsers(ctx, id, NormalizeEmails(emails))
	if err != nil {
		return Record{}, upstreamError(op, id.String(), err)
	}
	mutationsTotal.WithLabelValues(op).Inc()
	return rec, nil
}

// Delete removes the metadata record and then the bucket object. Once the
// record is gone the call succeeds even if the object could not be removed.
func (s *MutationService) Delete(ctx context.Context, requester auth.Requester, id uuid.UUID) (DeleteResult, error) {
	const op = "delete"

	_, ref, err := loadVisible(ctx, s.repo, s.log, op, requester, id)
	if err != nil {
		return DeleteResult{}, err
	}

	if _, err := s.repo.Delete(ctx, id); err != nil {
		return DeleteResult{}, upstreamError(op, id.String(), err)
	}
	mutationsTotal.WithLabelValues(op).Inc()

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), orphanCleanupTimeout)
	defer cancel()
	if err := s.bucket.DeleteFile(cleanupCtx, ref); err != nil {
		partialFailuresTotal.WithLabelValues(op).Inc()
		s.log.Warn("bucket object left orphaned after delete",
			zap.String("file_id", id.String()),
			zap.String("storage_ref", ref),
			zap.Error(err),
		)
	}

	return DeleteResult{Status: StatusSuccess}, nil
}

// NormalizeEmails trims, lower-cases and de-duplicates a share list, keeping first-seen order.
func NormalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}
