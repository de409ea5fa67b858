package file

import (
	"context"
	"time"

	"github.com/abduss/storeit/internal/auth"
	"go.uber.org/zap"
)

// CategoryUsage is the space taken by one file category.
type CategoryUsage struct {
	Size       int64      `json:"size"`
	LatestDate *time.Time `json:"latestDate"`
}

// Usage aggregates a user's owned files per category. All is the configured
// capacity, not a figure reported by the backend.
type Usage struct {
	Image    CategoryUsage `json:"image"`
	Document CategoryUsage `json:"document"`
	Video    CategoryUsage `json:"video"`
	Audio    CategoryUsage `json:"audio"`
	Other    CategoryUsage `json:"other"`
	Used     int64         `json:"used"`
	All      int64         `json:"all"`
}

// Category returns the bucket for t. Unknown types fall into Other.
func (u *Usage) Category(t Type) *CategoryUsage {
	switch t {
	case TypeImage:
		return &u.Image
	case TypeDocument:
		return &u.Document
	case TypeVideo:
		return &u.Video
	case TypeAudio:
		return &u.Audio
	default:
		return &u.Other
	}
}

func (u *Usage) add(rec Record) {
	c := u.Category(rec.Type)
	c.Size += rec.Size
	u.Used += rec.Size
	if c.LatestDate == nil || rec.UpdatedAt.After(*c.LatestDate) {
		latest := rec.UpdatedAt
		c.LatestDate = &latest
	}
}

// AccountingService computes space usage.
type AccountingService struct {
	repo          metadataStore
	log           *zap.Logger
	capacityBytes int64
}

// NewAccountingService constructs an accounting service reporting capacityBytes as the ceiling.
func NewAccountingService(repo metadataStore, log *zap.Logger, capacityBytes int64) *AccountingService {
	return &AccountingService{repo: repo, log: orNop(log), capacityBytes: capacityBytes}
}

// ComputeUsage scans every record owned by the requester. Files shared with
// the requester do not count.
func (s *AccountingService) ComputeUsage(ctx context.Context, requester auth.Requester) (Usage, error) {
	const op = "usage"

	if requester.IsZero() {
		return Usage{}, newError(op, "", ErrNotAuthenticated, nil)
	}

	usage := Usage{All: s.capacityBytes}
	q := Query{Where: []Predicate{OwnedBy(requester.ID)}}
	err := s.repo.Each(ctx, q, func(rec Record) error {
		if _, ok := rec.StorageRef(); !ok {
			reportIntegrityViolation(s.log, op, rec)
			return nil
		}
		usage.add(rec)
		return nil
	})
	if err != nil {
		return Usage{}, upstreamError(op, "", err)
	}
	return usage, nil
}
